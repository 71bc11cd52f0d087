package investments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	authsvc "stablebricks-backend/internal/application/auth"
	"stablebricks-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeCertificates struct {
	mu        sync.Mutex
	submitted []uuid.UUID
	submitErr error
}

func (f *fakeCertificates) Submit(id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, id)
	return f.submitErr
}

func (f *fakeCertificates) Document(ctx context.Context, inv *domain.Investment) ([]byte, error) {
	return []byte("%PDF-1.3 " + inv.CertificateNumber()), nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Project{}, &domain.Investment{}))
	return db
}

type fixture struct {
	svc     *Service
	db      *gorm.DB
	certs   *fakeCertificates
	user    domain.User
	project domain.Project
	now     time.Time
}

func newFixture(t *testing.T, totalShares int) *fixture {
	db := setupTestDB(t)
	f := &fixture{db: db, certs: &fakeCertificates{}, now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	f.svc = &Service{DB: db, Certificates: f.certs, Now: func() time.Time { return f.now }}
	f.user = domain.User{Name: "Ngozi Eze", Email: "ngozi@example.com", PasswordHash: "x", Role: "USER", ReferralCode: "NGOZI001"}
	require.NoError(t, db.Create(&f.user).Error)
	f.project = domain.Project{
		Name:               "Ikoyi Towers",
		Location:           "Lagos",
		InvestmentRequired: decimal.NewFromInt(int64(totalShares) * 100000),
		SharePrice:         decimal.NewFromInt(100000),
		TotalShares:        totalShares,
		ProjectStatus:      domain.ProjectOpen,
	}
	require.NoError(t, db.Create(&f.project).Error)
	return f
}

func (f *fixture) reloadProject(t *testing.T) domain.Project {
	var p domain.Project
	require.NoError(t, f.db.First(&p, "id = ?", f.project.ID).Error)
	return p
}

func (f *fixture) invest(amount int64, shares *int) (*domain.Investment, error) {
	return f.svc.Create(context.Background(), CreateInput{
		UserID:    f.user.ID,
		ProjectID: f.project.ID,
		Amount:    decimal.NewFromInt(amount),
		Shares:    shares,
	})
}

func intPtr(v int) *int { return &v }

func TestSharesFor(t *testing.T) {
	assert.Equal(t, 5, SharesFor(decimal.NewFromInt(500000), nil))
	assert.Equal(t, 0, SharesFor(decimal.NewFromInt(99999), nil))
	assert.Equal(t, 3, SharesFor(decimal.NewFromInt(1), intPtr(3)))
}

func TestNewCertificateID(t *testing.T) {
	id := uuid.MustParse("abcdef12-0000-0000-0000-000000000000")
	at := time.UnixMilli(1767225600123)
	assert.Equal(t, "SB-CERT-abc-1767225600123", NewCertificateID(id, at))
}

func TestNewVerificationToken(t *testing.T) {
	a, err := NewVerificationToken()
	require.NoError(t, err)
	b, err := NewVerificationToken()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestCreate_ConsumesSharesAndQueuesCertificate(t *testing.T) {
	f := newFixture(t, 10)

	inv, err := f.invest(500000, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, inv.Shares)
	assert.Equal(t, domain.InvestmentActive, inv.Status)
	assert.Equal(t, domain.CertificatePending, inv.CertificateStatus)
	assert.Equal(t, NewCertificateID(f.project.ID, f.now), inv.CertificateID)
	assert.True(t, inv.DateOfReturn.Equal(f.now.Add(365*24*time.Hour)))
	assert.Len(t, inv.VerificationToken, 64)

	p := f.reloadProject(t)
	assert.Equal(t, 5, p.SoldShares)
	assert.Equal(t, domain.ProjectOpen, p.ProjectStatus)
	assert.Equal(t, []uuid.UUID{inv.ID}, f.certs.submitted)
}

func TestCreate_FundsProjectWhenSoldOut(t *testing.T) {
	f := newFixture(t, 3)
	_, err := f.invest(300000, nil)
	require.NoError(t, err)

	p := f.reloadProject(t)
	assert.Equal(t, 3, p.SoldShares)
	assert.Equal(t, domain.ProjectFunded, p.ProjectStatus)

	_, err = f.invest(100000, nil)
	assert.ErrorIs(t, err, ErrProjectNotOpen)
}

func TestCreate_Errors(t *testing.T) {
	f := newFixture(t, 2)

	_, err := f.invest(0, nil)
	assert.ErrorIs(t, err, ErrAmountRequired)

	_, err = f.invest(50000, nil)
	assert.ErrorIs(t, err, ErrNoShares)

	_, err = f.invest(300000, nil)
	assert.ErrorIs(t, err, ErrNotEnoughShares)

	_, err = f.svc.Create(context.Background(), CreateInput{UserID: uuid.New(), ProjectID: f.project.ID, Amount: decimal.NewFromInt(100000)})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.svc.Create(context.Background(), CreateInput{UserID: f.user.ID, ProjectID: uuid.New(), Amount: decimal.NewFromInt(100000)})
	assert.ErrorIs(t, err, ErrProjectNotFound)

	assert.Equal(t, 0, f.reloadProject(t).SoldShares)
	assert.Empty(t, f.certs.submitted)
}

func TestCreate_UnexpectedFailureIsGeneric(t *testing.T) {
	f := newFixture(t, 2)
	require.NoError(t, f.db.Migrator().DropTable(&domain.Investment{}))

	_, err := f.invest(100000, nil)
	assert.Equal(t, ErrCreateFailed, err)
	assert.Equal(t, 0, f.reloadProject(t).SoldShares)
}

func TestCreate_CertificateQueueFailureKeepsInvestment(t *testing.T) {
	f := newFixture(t, 2)
	f.certs.submitErr = errors.New("pool closed")

	inv, err := f.invest(100000, nil)
	require.NoError(t, err)
	var n int64
	require.NoError(t, f.db.Model(&domain.Investment{}).Where("id = ?", inv.ID).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestCreate_ConcurrentNeverOversells(t *testing.T) {
	f := newFixture(t, 5)
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.invest(100000, nil); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	p := f.reloadProject(t)
	assert.Equal(t, 5, p.SoldShares)
	assert.Equal(t, domain.ProjectFunded, p.ProjectStatus)
}

func TestLookups(t *testing.T) {
	f := newFixture(t, 10)
	inv, err := f.invest(200000, nil)
	require.NoError(t, err)
	ctx := context.Background()

	byToken, err := f.svc.GetByToken(ctx, inv.VerificationToken)
	require.NoError(t, err)
	require.NotNil(t, byToken.Project)
	require.NotNil(t, byToken.User)
	assert.Equal(t, "Ikoyi Towers", byToken.Project.Name)

	_, err = f.svc.GetByToken(ctx, "missing")
	assert.ErrorIs(t, err, ErrInvestmentNotFound)

	pub, err := f.svc.GetPublicByToken(ctx, inv.VerificationToken)
	require.NoError(t, err)
	assert.Equal(t, "Ngozi Eze", pub.InvestorName)
	assert.Equal(t, inv.CertificateID, pub.CertificateNumber)
	assert.Equal(t, "Lagos", pub.ProjectLocation)

	owner := authsvc.Principal{UserID: f.user.ID, Role: "USER"}
	detail, err := f.svc.GetByID(ctx, owner, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.CertificateID, detail.CertificateNumber)

	_, err = f.svc.GetByID(ctx, authsvc.Principal{UserID: uuid.New(), Role: "USER"}, inv.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.GetByID(ctx, authsvc.Principal{UserID: uuid.New(), Role: "ADMIN"}, inv.ID)
	assert.NoError(t, err)
}

func TestGetByID_CertificateNumberFallback(t *testing.T) {
	f := newFixture(t, 10)
	inv, err := f.invest(100000, nil)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&domain.Investment{}).Where("id = ?", inv.ID).Update("certificate_id", "").Error)

	detail, err := f.svc.GetByID(context.Background(), authsvc.Principal{UserID: f.user.ID}, inv.ID)
	require.NoError(t, err)
	id := inv.ID.String()
	assert.Equal(t, "SB-CERT-"+id[len(id)-8:], detail.CertificateNumber)
}

func TestLists(t *testing.T) {
	f := newFixture(t, 10)
	_, err := f.invest(100000, nil)
	require.NoError(t, err)
	second, err := f.invest(100000, nil)
	require.NoError(t, err)
	_, err = f.svc.ChangeStatus(context.Background(), second.ID, "CANCELLED")
	require.NoError(t, err)

	mine, total, err := f.svc.ListMine(context.Background(), f.user.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, mine, 2)

	cancelled, total, err := f.svc.ListAll(context.Background(), "cancelled", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, second.ID, cancelled[0].ID)

	_, _, err = f.svc.ListAll(context.Background(), "LOST", 10, 0)
	assert.ErrorIs(t, err, domain.ErrUnknownStatus)
}

func TestChangeStatus_CancelReleasesShares(t *testing.T) {
	f := newFixture(t, 10)
	inv, err := f.invest(300000, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, f.reloadProject(t).SoldShares)

	got, err := f.svc.ChangeStatus(context.Background(), inv.ID, "CANCELLED")
	require.NoError(t, err)
	assert.Equal(t, domain.InvestmentCancelled, got.Status)
	assert.Equal(t, 0, f.reloadProject(t).SoldShares)

	_, err = f.svc.ChangeStatus(context.Background(), inv.ID, "ACTIVE")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.svc.ChangeStatus(context.Background(), uuid.New(), "MATURED")
	assert.ErrorIs(t, err, ErrInvestmentNotFound)
}

func TestChangeStatus_CancelReopensFundedProject(t *testing.T) {
	f := newFixture(t, 3)
	inv, err := f.invest(300000, nil)
	require.NoError(t, err)
	require.Equal(t, domain.ProjectFunded, f.reloadProject(t).ProjectStatus)

	_, err = f.svc.ChangeStatus(context.Background(), inv.ID, "cancelled")
	require.NoError(t, err)
	p := f.reloadProject(t)
	assert.Equal(t, 0, p.SoldShares)
	assert.Equal(t, domain.ProjectOpen, p.ProjectStatus)

	again, err := f.invest(300000, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, again.Shares)
	assert.Equal(t, domain.ProjectFunded, f.reloadProject(t).ProjectStatus)
}

func TestCertificate(t *testing.T) {
	f := newFixture(t, 10)
	inv, err := f.invest(100000, nil)
	require.NoError(t, err)

	pdf, name, err := f.svc.Certificate(context.Background(), authsvc.Principal{UserID: f.user.ID}, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.CertificateID+".pdf", name)
	assert.Contains(t, string(pdf), inv.CertificateID)
}

func TestMatureDue(t *testing.T) {
	f := newFixture(t, 10)
	_, err := f.invest(100000, nil)
	require.NoError(t, err)

	n, err := f.svc.MatureDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	f.now = f.now.Add(366 * 24 * time.Hour)
	n, err = f.svc.MatureDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRetryCertificates(t *testing.T) {
	f := newFixture(t, 10)
	failed, err := f.invest(100000, nil)
	require.NoError(t, err)
	pending, err := f.invest(100000, nil)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&domain.Investment{}).Where("id = ?", failed.ID).Update("certificate_status", domain.CertificateFailed).Error)
	f.certs.submitted = nil

	f.now = f.now.Add(time.Hour)
	n, err := f.svc.RetryCertificates(context.Background(), 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.ElementsMatch(t, []uuid.UUID{failed.ID, pending.ID}, f.certs.submitted)

	var got domain.Investment
	require.NoError(t, f.db.First(&got, "id = ?", failed.ID).Error)
	assert.Equal(t, domain.CertificatePending, got.CertificateStatus)
}
