package wallet

import (
	"context"
	"errors"
	"testing"

	"stablebricks-backend/internal/application/payments"
	"stablebricks-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeGateway struct {
	verification *payments.Verification
	verifyErr    error
	transfer     *payments.TransferResult
	transferErr  error
	transfers    []payments.TransferRequest
}

func (f *fakeGateway) VerifyTransaction(ctx context.Context, reference string) (*payments.Verification, error) {
	return f.verification, f.verifyErr
}

func (f *fakeGateway) Transfer(ctx context.Context, req payments.TransferRequest) (*payments.TransferResult, error) {
	f.transfers = append(f.transfers, req)
	return f.transfer, f.transferErr
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Wallet{}, &domain.Bonus{}, &domain.LedgerEntry{}, &domain.Payment{}))
	return db
}

func newService(t *testing.T, gw payments.Gateway) *Service {
	return &Service{DB: setupTestDB(t), Gateway: gw, WelcomeBonus: decimal.NewFromInt(5000)}
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func balanceOf(t *testing.T, db *gorm.DB, userID uuid.UUID) decimal.Decimal {
	var w domain.Wallet
	require.NoError(t, db.Where("user_id = ?", userID).First(&w).Error)
	return w.Balance
}

func TestGetWallet_CreatesWithWelcomeBonusOnce(t *testing.T) {
	svc := newService(t, nil)
	uid := uuid.New()
	ctx := context.Background()

	w, err := svc.GetWallet(ctx, uid)
	require.NoError(t, err)
	assert.True(t, w.Balance.IsZero())
	require.Len(t, w.Bonuses, 1)
	assert.Equal(t, WelcomeBonusName, w.Bonuses[0].Name)
	assert.True(t, w.TotalBonus.Equal(d("5000")))

	again, err := svc.GetWallet(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, w.ID, again.ID)
	assert.Len(t, again.Bonuses, 1)
}

func TestAddFunds_RejectsNonPositive(t *testing.T) {
	svc := newService(t, nil)
	_, err := svc.AddFunds(context.Background(), uuid.New(), d("0"), "")
	assert.Equal(t, ErrAmountRequired, err)

	var n int64
	svc.DB.Model(&domain.Wallet{}).Count(&n)
	assert.Zero(t, n)
}

func TestAddFunds_VerifiedReferenceCreditsOnce(t *testing.T) {
	gw := &fakeGateway{verification: &payments.Verification{Status: "successful", Amount: d("15000"), Currency: "NGN"}}
	svc := newService(t, gw)
	uid := uuid.New()
	ctx := context.Background()

	entry, err := svc.AddFunds(ctx, uid, d("15000"), "FLW-123")
	require.NoError(t, err)
	assert.Equal(t, "flw:FLW-123", entry.Reference)
	assert.Equal(t, domain.DirectionCredit, entry.Direction)
	assert.Equal(t, domain.LedgerDeposit, entry.Kind)
	assert.True(t, entry.BalanceAfter.Equal(d("15000")))

	_, err = svc.AddFunds(ctx, uid, d("15000"), "FLW-123")
	assert.Equal(t, ErrPaymentAlreadyProcessed, err)
	assert.True(t, balanceOf(t, svc.DB, uid).Equal(d("15000")))
}

func TestAddFunds_VerificationFailures(t *testing.T) {
	ctx := context.Background()

	gw := &fakeGateway{verification: &payments.Verification{Status: "failed", Amount: d("100")}}
	svc := newService(t, gw)
	_, err := svc.AddFunds(ctx, uuid.New(), d("100"), "FLW-1")
	assert.Equal(t, ErrPaymentVerificationFailed, err)

	gw.verification = nil
	gw.verifyErr = errors.New("timeout")
	_, err = svc.AddFunds(ctx, uuid.New(), d("100"), "FLW-1")
	assert.Equal(t, ErrPaymentVerificationFailed, err)

	gw.verifyErr = nil
	gw.verification = &payments.Verification{Status: "success", Amount: d("99.99")}
	_, err = svc.AddFunds(ctx, uuid.New(), d("100"), "FLW-1")
	assert.Equal(t, ErrPaymentAmountMismatch, err)
}

func TestWithdrawFunds_Success(t *testing.T) {
	gw := &fakeGateway{
		verification: &payments.Verification{Status: "successful", Amount: d("10000")},
		transfer:     &payments.TransferResult{Status: "success"},
	}
	svc := newService(t, gw)
	uid := uuid.New()
	ctx := context.Background()
	_, err := svc.AddFunds(ctx, uid, d("10000"), "FLW-9")
	require.NoError(t, err)

	entry, err := svc.WithdrawFunds(ctx, uid, d("4000"), BankAccount{AccountBank: "044", AccountNumber: "0690000031"})
	require.NoError(t, err)
	assert.Equal(t, domain.LedgerCompleted, entry.Status)
	assert.True(t, balanceOf(t, svc.DB, uid).Equal(d("6000")))
	require.Len(t, gw.transfers, 1)
	assert.Equal(t, entry.Reference, gw.transfers[0].Reference)

	var stored domain.LedgerEntry
	require.NoError(t, svc.DB.Where("reference = ?", entry.Reference).First(&stored).Error)
	assert.Equal(t, domain.LedgerCompleted, stored.Status)
}

func TestWithdrawFunds_InsufficientBalance(t *testing.T) {
	gw := &fakeGateway{transfer: &payments.TransferResult{Status: "success"}}
	svc := newService(t, gw)
	_, err := svc.WithdrawFunds(context.Background(), uuid.New(), d("1"), BankAccount{AccountBank: "044", AccountNumber: "1"})
	assert.Equal(t, ErrInsufficientBalance, err)
	assert.Empty(t, gw.transfers)
}

func TestWithdrawFunds_FailedTransferIsReversed(t *testing.T) {
	gw := &fakeGateway{
		verification: &payments.Verification{Status: "successful", Amount: d("5000")},
		transfer:     &payments.TransferResult{Status: "error", Message: "Insufficient payout balance"},
	}
	svc := newService(t, gw)
	uid := uuid.New()
	ctx := context.Background()
	_, err := svc.AddFunds(ctx, uid, d("5000"), "FLW-5")
	require.NoError(t, err)

	_, err = svc.WithdrawFunds(ctx, uid, d("5000"), BankAccount{AccountBank: "044", AccountNumber: "0690000031"})
	assert.Equal(t, ErrWithdrawalFailed, err)
	assert.True(t, balanceOf(t, svc.DB, uid).Equal(d("5000")))

	var entries []domain.LedgerEntry
	require.NoError(t, svc.DB.Order(`"createdAt" ASC`).Find(&entries).Error)
	require.Len(t, entries, 3)
	kinds := map[string]string{}
	for _, e := range entries {
		kinds[e.Kind] = e.Status
	}
	assert.Equal(t, domain.LedgerFailed, kinds[domain.LedgerWithdrawal])
	assert.Equal(t, domain.LedgerCompleted, kinds[domain.LedgerReversal])
}

func TestWithdrawFunds_TransportErrorStaysPending(t *testing.T) {
	gw := &fakeGateway{
		verification: &payments.Verification{Status: "successful", Amount: d("300")},
		transferErr:  errors.New("connection reset"),
	}
	svc := newService(t, gw)
	uid := uuid.New()
	ctx := context.Background()
	_, err := svc.AddFunds(ctx, uid, d("300"), "FLW-3")
	require.NoError(t, err)

	entry, err := svc.WithdrawFunds(ctx, uid, d("300"), BankAccount{AccountBank: "044", AccountNumber: "1"})
	require.NoError(t, err)
	assert.Equal(t, domain.LedgerPending, entry.Status)
	assert.True(t, balanceOf(t, svc.DB, uid).IsZero())

	var reversals int64
	require.NoError(t, svc.DB.Model(&domain.LedgerEntry{}).Where("kind = ?", domain.LedgerReversal).Count(&reversals).Error)
	assert.Zero(t, reversals)
}

func TestWithdrawFunds_UnconfiguredGatewayIsReversed(t *testing.T) {
	gw := &fakeGateway{
		verification: &payments.Verification{Status: "successful", Amount: d("300")},
		transferErr:  payments.ErrGatewayNotConfigured,
	}
	svc := newService(t, gw)
	uid := uuid.New()
	ctx := context.Background()
	_, err := svc.AddFunds(ctx, uid, d("300"), "FLW-4")
	require.NoError(t, err)

	_, err = svc.WithdrawFunds(ctx, uid, d("300"), BankAccount{AccountBank: "044", AccountNumber: "1"})
	assert.Equal(t, ErrWithdrawalFailed, err)
	assert.True(t, balanceOf(t, svc.DB, uid).Equal(d("300")))
}

func TestAddReferralBonus(t *testing.T) {
	svc := newService(t, nil)
	uid := uuid.New()
	ctx := context.Background()

	bonus, err := svc.AddReferralBonus(ctx, uid, d("1000"), "Referral Bonus")
	require.NoError(t, err)
	assert.Equal(t, "Referral Bonus", bonus.Name)

	w, err := svc.GetWallet(ctx, uid)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(d("1000")))
	assert.Len(t, w.Bonuses, 2)
	assert.True(t, w.TotalBonus.Equal(d("6000")))

	entries, total, err := svc.History(ctx, uid, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, domain.LedgerBonus, entries[0].Kind)
}

func TestCreditStripeTopUp_Idempotent(t *testing.T) {
	svc := newService(t, nil)
	uid := uuid.New()
	ctx := context.Background()
	topUp := &payments.StripeTopUp{
		EventID:        "evt_1",
		IntentID:       "pi_1",
		UserID:         uid,
		Amount:         d("5000"),
		AmountReceived: 500000,
		Currency:       "ngn",
		Status:         "succeeded",
		Raw:            []byte(`{"id":"pi_1"}`),
	}
	require.NoError(t, svc.CreditStripeTopUp(ctx, topUp))
	assert.Equal(t, ErrPaymentAlreadyProcessed, svc.CreditStripeTopUp(ctx, topUp))
	assert.True(t, balanceOf(t, svc.DB, uid).Equal(d("5000")))

	topUp.IntentID = "pi_2"
	topUp.AmountReceived = 100
	assert.Equal(t, ErrPaymentAmountMismatch, svc.CreditStripeTopUp(ctx, topUp))
}

func TestHistory_NoWallet(t *testing.T) {
	svc := newService(t, nil)
	entries, total, err := svc.History(context.Background(), uuid.New(), 20, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Zero(t, total)
}
