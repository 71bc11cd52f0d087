package certificates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stablebricks-backend/internal/application/emails"
	"stablebricks-backend/internal/domain"
	"stablebricks-backend/internal/infrastructure/storage"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	issueTimeout = 2 * time.Minute
	claimLease   = 10 * time.Minute
	linkTTL      = 7 * 24 * time.Hour
)

var ErrInvestmentNotFound = errors.New("Investment not found")

// Issuer renders, stores and mails investment certificates.
// Work submitted with Submit runs on a bounded ants pool, outside any request transaction.
type Issuer struct {
	DB         *gorm.DB
	Store      storage.Store
	Mailer     emails.Sender
	AppBaseURL string
	Now        func() time.Time

	pool *ants.Pool
}

func (i *Issuer) now() time.Time {
	if i.Now != nil {
		return i.Now().UTC()
	}
	return time.Now().UTC()
}

// NewIssuer starts a pool of the given size. A size below one runs Submit inline.
func NewIssuer(db *gorm.DB, store storage.Store, mailer emails.Sender, appBaseURL string, workers int) (*Issuer, error) {
	i := &Issuer{DB: db, Store: store, Mailer: mailer, AppBaseURL: appBaseURL}
	if workers > 0 {
		p, err := ants.NewPool(workers, ants.WithPanicHandler(func(v interface{}) {
			log.Error().Interface("panic", v).Msg("certificate worker panicked")
		}))
		if err != nil {
			return nil, fmt.Errorf("certificate pool: %w", err)
		}
		i.pool = p
	}
	return i, nil
}

// VerificationURL is the public page a certificate's QR code points to.
func VerificationURL(appBaseURL, token string) string {
	return strings.TrimRight(appBaseURL, "/") + "/user-investment/" + token
}

// ObjectKey is where a certificate PDF is stored.
func ObjectKey(certificateID string) string {
	return "certificates/" + certificateID + ".pdf"
}

// DownloadPath is the API path recorded as an investment's certificate URL.
func DownloadPath(investmentID uuid.UUID) string {
	return "/api/v1/investments/" + investmentID.String() + "/certificate"
}

// Submit queues certificate generation for a committed investment.
func (i *Issuer) Submit(investmentID uuid.UUID) error {
	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), issueTimeout)
		defer cancel()
		if err := i.Issue(ctx, investmentID); err != nil {
			log.Error().Err(err).Str("investment_id", investmentID.String()).Msg("certificate generation failed")
		}
	}
	if i.pool == nil {
		run()
		return nil
	}
	return i.pool.Submit(run)
}

// Close waits for queued work to drain, up to timeout.
func (i *Issuer) Close(timeout time.Duration) error {
	if i.pool == nil {
		return nil
	}
	return i.pool.ReleaseTimeout(timeout)
}

func (i *Issuer) load(ctx context.Context, investmentID uuid.UUID) (*domain.Investment, error) {
	var inv domain.Investment
	err := i.DB.WithContext(ctx).Preload("Project").Preload("User").Where("id = ?", investmentID).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvestmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (i *Issuer) view(inv *domain.Investment) View {
	v := View{
		CertificateID:    inv.CertificateNumber(),
		Amount:           inv.InvestmentAmount,
		Shares:           inv.Shares,
		DateOfInvestment: inv.DateOfInvestment,
		DateOfReturn:     inv.DateOfReturn,
		VerificationURL:  VerificationURL(i.AppBaseURL, inv.VerificationToken),
	}
	if inv.User != nil {
		v.InvestorName = inv.User.Name
	}
	if inv.Project != nil {
		v.ProjectName = inv.Project.Name
		v.ProjectLocation = inv.Project.Location
	}
	return v
}

// Issue generates the certificate for a PENDING investment. Already issued certificates are left alone.
// Failures are recorded on the investment as FAILED and never touch the investment itself.
// A worker claims the row before rendering; a claim younger than claimLease makes Issue a no-op.
func (i *Issuer) Issue(ctx context.Context, investmentID uuid.UUID) error {
	inv, err := i.load(ctx, investmentID)
	if err != nil {
		return err
	}
	if inv.CertificateStatus == domain.CertificateIssued {
		return nil
	}
	if err := inv.CertificateStatus.TransitionTo(domain.CertificateIssued); err != nil {
		return err
	}
	claimed, err := i.claim(ctx, inv.ID)
	if err != nil {
		return err
	}
	if !claimed {
		log.Debug().Str("investment_id", inv.ID.String()).Msg("certificate already claimed")
		return nil
	}

	if err := i.store(ctx, inv); err != nil {
		i.markFailed(ctx, inv.ID, err)
		return err
	}

	url := DownloadPath(inv.ID)
	res := i.DB.WithContext(ctx).Model(&domain.Investment{}).
		Where("id = ? AND certificate_status = ?", inv.ID, domain.CertificatePending).
		Updates(map[string]interface{}{
			"certificate_status": domain.CertificateIssued,
			"certificate_url":    url,
			"certificate_error":  nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// another worker got there first
		return nil
	}

	i.notify(ctx, inv)
	return nil
}

func (i *Issuer) claim(ctx context.Context, id uuid.UUID) (bool, error) {
	now := i.now()
	res := i.DB.WithContext(ctx).Model(&domain.Investment{}).
		Where("id = ? AND certificate_status = ?", id, domain.CertificatePending).
		Where("certificate_claimed_at IS NULL OR certificate_claimed_at < ?", now.Add(-claimLease)).
		Update("certificate_claimed_at", now)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (i *Issuer) store(ctx context.Context, inv *domain.Investment) error {
	if i.Store == nil {
		return errors.New("certificate store not configured")
	}
	pdf, err := Render(i.view(inv))
	if err != nil {
		return err
	}
	return i.Store.Put(ctx, ObjectKey(inv.CertificateNumber()), pdf, "application/pdf")
}

func (i *Issuer) markFailed(ctx context.Context, id uuid.UUID, cause error) {
	msg := cause.Error()
	err := i.DB.WithContext(ctx).Model(&domain.Investment{}).
		Where("id = ? AND certificate_status = ?", id, domain.CertificatePending).
		Updates(map[string]interface{}{
			"certificate_status":     domain.CertificateFailed,
			"certificate_error":      msg,
			"certificate_claimed_at": nil,
		}).Error
	if err != nil {
		log.Error().Err(err).Str("investment_id", id.String()).Msg("could not record certificate failure")
	}
}

func (i *Issuer) notify(ctx context.Context, inv *domain.Investment) {
	if i.Mailer == nil || inv.User == nil {
		return
	}
	verify := VerificationURL(i.AppBaseURL, inv.VerificationToken)
	link := verify
	if i.Store != nil {
		signed, err := i.Store.SignedURL(ctx, ObjectKey(inv.CertificateNumber()), linkTTL)
		if err != nil {
			log.Warn().Err(err).Str("investment_id", inv.ID.String()).Msg("could not sign certificate link")
		} else if signed != "" {
			link = signed
		}
	}
	m := emails.InvestmentMail{
		InvestorName:    inv.User.Name,
		Amount:          inv.InvestmentAmount.StringFixedBank(2),
		Shares:          inv.Shares,
		CertificateID:   inv.CertificateNumber(),
		CertificateURL:  link,
		VerificationURL: verify,
	}
	if inv.Project != nil {
		m.ProjectName = inv.Project.Name
	}
	if err := i.Mailer.SendInvestmentConfirmation(ctx, inv.User.Email, m); err != nil {
		log.Error().Err(err).Str("investment_id", inv.ID.String()).Msg("investment confirmation email failed")
	}
}

// Document returns the stored PDF, rendering it on the fly when it has not been stored yet.
func (i *Issuer) Document(ctx context.Context, inv *domain.Investment) ([]byte, error) {
	if i.Store != nil {
		b, err := i.Store.Get(ctx, ObjectKey(inv.CertificateNumber()))
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
	}
	if inv.User == nil || inv.Project == nil {
		full, err := i.load(ctx, inv.ID)
		if err != nil {
			return nil, err
		}
		inv = full
	}
	return Render(i.view(inv))
}
