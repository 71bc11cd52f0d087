package investments

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	authsvc "stablebricks-backend/internal/application/auth"
	"stablebricks-backend/internal/domain"
	"stablebricks-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ShareUnit is the amount one share represents when the caller does not say how many shares it buys.
var ShareUnit = decimal.NewFromInt(100000)

// Certificates generates and serves certificate documents outside the investment transaction.
type Certificates interface {
	Submit(investmentID uuid.UUID) error
	Document(ctx context.Context, inv *domain.Investment) ([]byte, error)
}

type Service struct {
	DB           *gorm.DB
	Certificates Certificates
	Now          func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type CreateInput struct {
	UserID         uuid.UUID       `json:"user_id"`
	ProjectID      uuid.UUID       `json:"project_id"`
	Amount         decimal.Decimal `json:"amount"`
	Shares         *int            `json:"shares"`
	TransactionRef *string         `json:"transaction_ref"`
	FlutterwaveRef *string         `json:"flutterwave_ref"`
}

// NewVerificationToken returns 32 random bytes as hex.
func NewVerificationToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewCertificateID builds SB-CERT-<first 3 chars of project id>-<unix millis>.
func NewCertificateID(projectID uuid.UUID, at time.Time) string {
	return "SB-CERT-" + projectID.String()[:3] + "-" + strconv.FormatInt(at.UnixMilli(), 10)
}

// SharesFor returns the requested share count, or one share per ShareUnit of amount.
func SharesFor(amount decimal.Decimal, requested *int) int {
	if requested != nil {
		return *requested
	}
	return int(amount.Div(ShareUnit).Floor().IntPart())
}

// Create records an investment and consumes project shares in one transaction.
// The project row stays locked from the availability check to the increment.
// The certificate is queued after commit; its failure is tracked on the investment only.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Investment, error) {
	inv, err := s.create(ctx, in)
	if err != nil {
		for _, known := range createErrors {
			if errors.Is(err, known) {
				return nil, known
			}
		}
		log.Error().Err(err).
			Str("user_id", in.UserID.String()).
			Str("project_id", in.ProjectID.String()).
			Msg("create investment failed")
		return nil, ErrCreateFailed
	}
	if s.Certificates != nil {
		if err := s.Certificates.Submit(inv.ID); err != nil {
			log.Error().Err(err).Str("investment_id", inv.ID.String()).Msg("could not queue certificate")
		}
	}
	return inv, nil
}

func (s *Service) create(ctx context.Context, in CreateInput) (*domain.Investment, error) {
	if !in.Amount.IsPositive() {
		return nil, ErrAmountRequired
	}
	var userCount int64
	if err := s.DB.WithContext(ctx).Model(&domain.User{}).Where("id = ?", in.UserID).Count(&userCount).Error; err != nil {
		return nil, err
	}
	if userCount == 0 {
		return nil, ErrUserNotFound
	}

	token, err := NewVerificationToken()
	if err != nil {
		return nil, fmt.Errorf("verification token: %w", err)
	}
	now := s.now()
	inv := &domain.Investment{
		UserID:            in.UserID,
		ProjectID:         in.ProjectID,
		InvestmentAmount:  in.Amount,
		Shares:            SharesFor(in.Amount, in.Shares),
		Status:            domain.InvestmentActive,
		CertificateID:     NewCertificateID(in.ProjectID, now),
		VerificationToken: token,
		DateOfInvestment:  now,
		DateOfReturn:      now.Add(domain.InvestmentTerm),
		TransactionRef:    in.TransactionRef,
		FlutterwaveRef:    in.FlutterwaveRef,
		CertificateStatus: domain.CertificatePending,
		CreatedAt:         now,
	}
	if inv.Shares < 1 {
		return nil, ErrNoShares
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.Project
		if err := database.ForUpdate(tx).Where("id = ?", in.ProjectID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return err
		}
		if p.ProjectStatus != domain.ProjectOpen {
			return ErrProjectNotOpen
		}
		if inv.Shares > p.AvailableShares() {
			return ErrNotEnoughShares
		}
		if err := tx.Create(inv).Error; err != nil {
			return err
		}
		sold := p.SoldShares + inv.Shares
		upd := map[string]interface{}{"sold_shares": sold}
		if sold == p.TotalShares {
			if err := p.ProjectStatus.TransitionTo(domain.ProjectFunded); err != nil {
				return err
			}
			upd["project_status"] = domain.ProjectFunded
		}
		return tx.Model(&domain.Project{}).Where("id = ?", p.ID).Updates(upd).Error
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvestmentNotFound
	}
	return err
}

// GetByToken resolves a verification token to the investment with its project and investor.
func (s *Service) GetByToken(ctx context.Context, token string) (*domain.Investment, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvestmentNotFound
	}
	var inv domain.Investment
	err := s.DB.WithContext(ctx).Preload("Project").Preload("User").
		Where("verification_token = ?", token).First(&inv).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

// Detail is an investment as its owner sees it.
type Detail struct {
	domain.Investment
	CertificateNumber string `json:"certificate_number"`
}

// GetByID returns the investment to its owner or an admin.
func (s *Service) GetByID(ctx context.Context, actor authsvc.Principal, id uuid.UUID) (*Detail, error) {
	var inv domain.Investment
	if err := s.DB.WithContext(ctx).Preload("Project").Where("id = ?", id).First(&inv).Error; err != nil {
		return nil, notFound(err)
	}
	if !actor.CanAccess(inv.UserID) {
		return nil, ErrForbidden
	}
	return &Detail{Investment: inv, CertificateNumber: inv.CertificateNumber()}, nil
}

// Public is what anyone holding a verification token may see.
type Public struct {
	CertificateNumber string                   `json:"certificate_number"`
	InvestorName      string                   `json:"investor_name"`
	InvestmentAmount  decimal.Decimal          `json:"investment_amount"`
	Shares            int                      `json:"shares"`
	Status            domain.InvestmentStatus  `json:"status"`
	CertificateStatus domain.CertificateStatus `json:"certificate_status"`
	DateOfInvestment  time.Time                `json:"date_of_investment"`
	DateOfReturn      time.Time                `json:"date_of_return"`
	ProjectName       string                   `json:"project_name"`
	ProjectLocation   string                   `json:"project_location"`
}

func (s *Service) GetPublicByToken(ctx context.Context, token string) (*Public, error) {
	inv, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	out := &Public{
		CertificateNumber: inv.CertificateNumber(),
		InvestmentAmount:  inv.InvestmentAmount,
		Shares:            inv.Shares,
		Status:            inv.Status,
		CertificateStatus: inv.CertificateStatus,
		DateOfInvestment:  inv.DateOfInvestment,
		DateOfReturn:      inv.DateOfReturn,
	}
	if inv.User != nil {
		out.InvestorName = inv.User.Name
	}
	if inv.Project != nil {
		out.ProjectName = inv.Project.Name
		out.ProjectLocation = inv.Project.Location
	}
	return out, nil
}

// ListMine returns the caller's investments newest first.
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Investment, int64, error) {
	return s.list(ctx, s.DB.WithContext(ctx).Model(&domain.Investment{}).Where("user_id = ?", userID), limit, offset)
}

// ListAll returns every investment, optionally filtered by status.
func (s *Service) ListAll(ctx context.Context, status string, limit, offset int) ([]domain.Investment, int64, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Investment{})
	if status != "" {
		st, err := domain.ParseInvestmentStatus(status)
		if err != nil {
			return nil, 0, err
		}
		q = q.Where("status = ?", st)
	}
	return s.list(ctx, q.Preload("User"), limit, offset)
}

func (s *Service) list(ctx context.Context, q *gorm.DB, limit, offset int) ([]domain.Investment, int64, error) {
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []domain.Investment
	if err := q.Preload("Project").Order(`"createdAt" DESC`).Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ChangeStatus moves an investment along its lifecycle. Cancelling returns its shares to the project
// and reopens a FUNDED project.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Investment, error) {
	to := domain.InvestmentStatus(strings.ToUpper(strings.TrimSpace(status)))
	var inv domain.Investment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := database.ForUpdate(tx).Where("id = ?", id).First(&inv).Error; err != nil {
			return notFound(err)
		}
		if err := inv.Status.TransitionTo(to); err != nil {
			return err
		}
		if err := tx.Model(&domain.Investment{}).Where("id = ?", id).Update("status", to).Error; err != nil {
			return err
		}
		if to == domain.InvestmentCancelled {
			if err := releaseShares(tx, inv.ProjectID, inv.Shares); err != nil {
				return err
			}
		}
		inv.Status = to
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func releaseShares(tx *gorm.DB, projectID uuid.UUID, shares int) error {
	var p domain.Project
	if err := database.ForUpdate(tx).Where("id = ?", projectID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	sold := p.SoldShares - shares
	if sold < 0 {
		sold = 0
	}
	upd := map[string]interface{}{"sold_shares": sold}
	if p.ProjectStatus == domain.ProjectFunded && sold < p.TotalShares {
		upd["project_status"] = domain.ProjectOpen
	}
	return tx.Model(&domain.Project{}).Where("id = ?", p.ID).Updates(upd).Error
}

// Certificate returns the PDF for an investment the caller may see.
func (s *Service) Certificate(ctx context.Context, actor authsvc.Principal, id uuid.UUID) ([]byte, string, error) {
	d, err := s.GetByID(ctx, actor, id)
	if err != nil {
		return nil, "", err
	}
	if s.Certificates == nil {
		return nil, "", ErrCertificateUnavailable
	}
	pdf, err := s.Certificates.Document(ctx, &d.Investment)
	if err != nil {
		log.Error().Err(err).Str("investment_id", id.String()).Msg("certificate document failed")
		return nil, "", ErrCertificateUnavailable
	}
	return pdf, d.CertificateNumber + ".pdf", nil
}

// MatureDue marks ACTIVE investments whose return date has passed as MATURED.
func (s *Service) MatureDue(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&domain.Investment{}).
		Where("status = ? AND date_of_return <= ?", domain.InvestmentActive, s.now()).
		Update("status", domain.InvestmentMatured)
	return res.RowsAffected, res.Error
}

// RetryCertificates resets FAILED certificates to PENDING and queues every PENDING one older than staleAfter.
func (s *Service) RetryCertificates(ctx context.Context, staleAfter time.Duration) (int, error) {
	if s.Certificates == nil {
		return 0, nil
	}
	db := s.DB.WithContext(ctx)
	var failed []uuid.UUID
	if err := db.Model(&domain.Investment{}).Where("certificate_status = ?", domain.CertificateFailed).Pluck("id", &failed).Error; err != nil {
		return 0, err
	}
	if len(failed) > 0 {
		if err := db.Model(&domain.Investment{}).Where("id IN ? AND certificate_status = ?", failed, domain.CertificateFailed).
			Update("certificate_status", domain.CertificatePending).Error; err != nil {
			return 0, err
		}
	}
	var stale []uuid.UUID
	cutoff := s.now().Add(-staleAfter)
	if err := db.Model(&domain.Investment{}).
		Where(`certificate_status = ? AND "createdAt" <= ?`, domain.CertificatePending, cutoff).
		Pluck("id", &stale).Error; err != nil {
		return 0, err
	}
	queue := append(failed, stale...)
	seen := make(map[uuid.UUID]bool, len(queue))
	n := 0
	for _, id := range queue {
		if seen[id] {
			continue
		}
		seen[id] = true
		if err := s.Certificates.Submit(id); err != nil {
			log.Error().Err(err).Str("investment_id", id.String()).Msg("could not queue certificate retry")
			continue
		}
		n++
	}
	return n, nil
}
