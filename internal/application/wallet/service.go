package wallet

import (
	"context"
	"encoding/json"
	"errors"

	"stablebricks-backend/internal/application/payments"
	"stablebricks-backend/internal/domain"
	"stablebricks-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const WelcomeBonusName = "Welcome Bonus"

// Service owns wallet balances. Every balance change appends a LedgerEntry in the same transaction.
type Service struct {
	DB           *gorm.DB
	Gateway      payments.Gateway
	WelcomeBonus decimal.Decimal
}

// Summary is the wallet view returned to clients.
type Summary struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	Balance    decimal.Decimal `json:"balance"`
	Bonuses    []domain.Bonus  `json:"bonuses"`
	TotalBonus decimal.Decimal `json:"total_bonus"`
}

type BankAccount struct {
	AccountBank   string `json:"account_bank"`
	AccountNumber string `json:"account_number"`
	Narration     string `json:"narration"`
}

// GetWallet returns the user's wallet, creating it with the welcome bonus on first access.
func (s *Service) GetWallet(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	var w *domain.Wallet
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		w, err = s.ensureWallet(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	var bonuses []domain.Bonus
	if err := s.DB.WithContext(ctx).Where("wallet_id = ?", w.ID).Order(`"createdAt" ASC`).Find(&bonuses).Error; err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, b := range bonuses {
		total = total.Add(b.Amount)
	}
	return &Summary{ID: w.ID, UserID: w.UserID, Balance: w.Balance, Bonuses: bonuses, TotalBonus: total}, nil
}

// ensureWallet locks the user's wallet row, creating it first when missing.
// Only the transaction that actually inserts the row adds the welcome bonus.
func (s *Service) ensureWallet(tx *gorm.DB, userID uuid.UUID) (*domain.Wallet, error) {
	fresh := domain.Wallet{UserID: userID, Balance: decimal.Zero}
	res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).Create(&fresh)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 1 && s.WelcomeBonus.IsPositive() {
		bonus := domain.Bonus{WalletID: fresh.ID, Name: WelcomeBonusName, Amount: s.WelcomeBonus}
		if err := tx.Create(&bonus).Error; err != nil {
			return nil, err
		}
	}
	var w domain.Wallet
	if err := database.ForUpdate(tx).Where("user_id = ?", userID).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// apply moves the locked wallet's balance and appends the matching ledger entry.
func (s *Service) apply(tx *gorm.DB, w *domain.Wallet, direction, kind, status, reference string, amount decimal.Decimal, metadata map[string]interface{}) (*domain.LedgerEntry, error) {
	next := w.Balance.Add(amount)
	if direction == domain.DirectionDebit {
		next = w.Balance.Sub(amount)
	}
	if next.IsNegative() {
		return nil, ErrInsufficientBalance
	}
	if err := tx.Model(&domain.Wallet{}).Where("id = ?", w.ID).Update("balance", next).Error; err != nil {
		return nil, err
	}
	w.Balance = next

	entry := domain.LedgerEntry{
		WalletID:     w.ID,
		Direction:    direction,
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: next,
		Reference:    reference,
		Status:       status,
	}
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			return nil, err
		}
		entry.Metadata = datatypes.JSON(b)
	}
	if err := tx.Create(&entry).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrPaymentAlreadyProcessed
		}
		return nil, err
	}
	return &entry, nil
}

func referenceTaken(tx *gorm.DB, reference string) (bool, error) {
	var n int64
	if err := tx.Model(&domain.LedgerEntry{}).Where("reference = ?", reference).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// AddFunds credits a verified gateway payment. A reference is credited at most once.
func (s *Service) AddFunds(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, flutterwaveRef string) (*domain.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, ErrAmountRequired
	}
	reference := "manual:" + ulid.Make().String()
	metadata := map[string]interface{}{"source": "manual"}
	if flutterwaveRef != "" {
		if s.Gateway == nil {
			return nil, payments.ErrGatewayNotConfigured
		}
		v, err := s.Gateway.VerifyTransaction(ctx, flutterwaveRef)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID.String()).Str("reference", flutterwaveRef).Msg("flutterwave verify failed")
			return nil, ErrPaymentVerificationFailed
		}
		if !v.Successful() {
			return nil, ErrPaymentVerificationFailed
		}
		if !v.Amount.Equal(amount) {
			return nil, ErrPaymentAmountMismatch
		}
		reference = "flw:" + flutterwaveRef
		metadata = map[string]interface{}{"source": domain.ProviderFlutterwave, "flutterwave_ref": flutterwaveRef, "currency": v.Currency}
	}

	var entry *domain.LedgerEntry
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := referenceTaken(tx, reference)
		if err != nil {
			return err
		}
		if taken {
			return ErrPaymentAlreadyProcessed
		}
		w, err := s.ensureWallet(tx, userID)
		if err != nil {
			return err
		}
		entry, err = s.apply(tx, w, domain.DirectionCredit, domain.LedgerDeposit, domain.LedgerCompleted, reference, amount, metadata)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// WithdrawFunds reserves the amount, then asks the gateway to pay out.
// A payout the gateway rejects restores the balance with a REVERSAL entry. When the
// outcome is unknown (transport error, gateway 5xx) the entry stays PENDING and
// the reservation is kept until it is reconciled against the gateway.
func (s *Service) WithdrawFunds(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, bank BankAccount) (*domain.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, ErrAmountRequired
	}
	if bank.AccountBank == "" || bank.AccountNumber == "" {
		return nil, ErrBankDetailsRequired
	}
	if s.Gateway == nil {
		return nil, payments.ErrGatewayNotConfigured
	}

	reference := "wd_" + ulid.Make().String()
	var entry *domain.LedgerEntry
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := s.ensureWallet(tx, userID)
		if err != nil {
			return err
		}
		if w.Balance.LessThan(amount) {
			return ErrInsufficientBalance
		}
		entry, err = s.apply(tx, w, domain.DirectionDebit, domain.LedgerWithdrawal, domain.LedgerPending, reference, amount, map[string]interface{}{
			"account_bank":   bank.AccountBank,
			"account_number": bank.AccountNumber,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	narration := bank.Narration
	if narration == "" {
		narration = "StableBricks wallet withdrawal"
	}
	result, transferErr := s.Gateway.Transfer(ctx, payments.TransferRequest{
		Reference:     reference,
		Amount:        amount,
		Currency:      "NGN",
		AccountBank:   bank.AccountBank,
		AccountNumber: bank.AccountNumber,
		Narration:     narration,
	})
	if transferErr == nil && result.Successful() {
		if err := s.DB.WithContext(ctx).Model(entry).Update("status", domain.LedgerCompleted).Error; err != nil {
			log.Error().Err(err).Str("reference", reference).Msg("withdrawal paid out but status update failed")
		}
		entry.Status = domain.LedgerCompleted
		return entry, nil
	}

	if transferErr != nil && !errors.Is(transferErr, payments.ErrGatewayNotConfigured) {
		log.Warn().Err(transferErr).Str("user_id", userID.String()).Str("reference", reference).
			Msg("withdrawal transfer outcome unknown, left pending")
		return entry, nil
	}

	ev := log.Warn().Str("user_id", userID.String()).Str("reference", reference)
	if transferErr != nil {
		ev = ev.Err(transferErr)
	} else {
		ev = ev.Str("gateway_status", result.Status).Str("gateway_message", result.Message)
	}
	ev.Msg("withdrawal transfer failed, reversing")

	if err := s.reverse(ctx, entry); err != nil {
		log.Error().Err(err).Str("reference", reference).Msg("withdrawal reversal failed")
		return nil, err
	}
	return nil, ErrWithdrawalFailed
}

func (s *Service) reverse(ctx context.Context, pending *domain.LedgerEntry) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var w domain.Wallet
		if err := database.ForUpdate(tx).Where("id = ?", pending.WalletID).First(&w).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.LedgerEntry{}).Where("id = ?", pending.ID).Update("status", domain.LedgerFailed).Error; err != nil {
			return err
		}
		_, err := s.apply(tx, &w, domain.DirectionCredit, domain.LedgerReversal, domain.LedgerCompleted, pending.Reference+":reversal", pending.Amount, map[string]interface{}{
			"reverses": pending.Reference,
		})
		return err
	})
}

// AddReferralBonus records a bonus row and credits the same amount to the balance.
func (s *Service) AddReferralBonus(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, name string) (*domain.Bonus, error) {
	if !amount.IsPositive() {
		return nil, ErrAmountRequired
	}
	if name == "" {
		return nil, ErrBonusNameRequired
	}
	var bonus domain.Bonus
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := s.ensureWallet(tx, userID)
		if err != nil {
			return err
		}
		bonus = domain.Bonus{WalletID: w.ID, Name: name, Amount: amount}
		if err := tx.Create(&bonus).Error; err != nil {
			return err
		}
		_, err = s.apply(tx, w, domain.DirectionCredit, domain.LedgerBonus, domain.LedgerCompleted, "bonus:"+bonus.ID.String(), amount, map[string]interface{}{
			"bonus_id": bonus.ID.String(),
			"name":     name,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &bonus, nil
}

// CreditStripeTopUp records the Stripe payment and credits the wallet once per PaymentIntent.
func (s *Service) CreditStripeTopUp(ctx context.Context, topUp *payments.StripeTopUp) error {
	if !topUp.Amount.IsPositive() {
		return ErrAmountRequired
	}
	if topUp.AmountReceived > 0 && topUp.AmountReceived != payments.ToMinorUnits(topUp.Amount) {
		return ErrPaymentAmountMismatch
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&domain.Payment{}).Where("provider_ref = ?", topUp.IntentID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrPaymentAlreadyProcessed
		}
		payment := domain.Payment{
			Provider:    domain.ProviderStripe,
			ProviderRef: topUp.IntentID,
			EventID:     topUp.EventID,
			UserID:      topUp.UserID,
			Amount:      topUp.Amount,
			Currency:    topUp.Currency,
			Status:      topUp.Status,
			Raw:         datatypes.JSON(topUp.Raw),
		}
		if err := tx.Create(&payment).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrPaymentAlreadyProcessed
			}
			return err
		}
		w, err := s.ensureWallet(tx, topUp.UserID)
		if err != nil {
			return err
		}
		_, err = s.apply(tx, w, domain.DirectionCredit, domain.LedgerDeposit, domain.LedgerCompleted, "stripe:"+topUp.IntentID, topUp.Amount, map[string]interface{}{
			"source":     domain.ProviderStripe,
			"payment_id": payment.ID.String(),
			"event_id":   topUp.EventID,
		})
		return err
	})
}

// History returns the caller's ledger, newest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int64, error) {
	var w domain.Wallet
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []domain.LedgerEntry{}, 0, nil
		}
		return nil, 0, err
	}
	q := s.DB.WithContext(ctx).Model(&domain.LedgerEntry{}).Where("wallet_id = ?", w.ID).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var entries []domain.LedgerEntry
	if err := q.Order(`"createdAt" DESC`).Order("id").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
