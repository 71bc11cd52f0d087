package certificates

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stablebricks-backend/internal/application/emails"
	"stablebricks-backend/internal/domain"
	"stablebricks-backend/internal/infrastructure/storage"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []emails.InvestmentMail
}

func (m *recordingMailer) SendWelcome(ctx context.Context, toEmail, name string) error { return nil }
func (m *recordingMailer) SendPasswordReset(ctx context.Context, toEmail, name, resetLink string) error {
	return nil
}
func (m *recordingMailer) SendInvestmentConfirmation(ctx context.Context, toEmail string, im emails.InvestmentMail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, im)
	return nil
}
func (m *recordingMailer) SendComplaintResponse(ctx context.Context, toEmail, name, subject, reply string) error {
	return nil
}
func (m *recordingMailer) SendContactResponse(ctx context.Context, toEmail, name, subject, reply string) error {
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type brokenStore struct{}

func (brokenStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	return errors.New("bucket unavailable")
}
func (brokenStore) Get(ctx context.Context, key string) ([]byte, error) { return nil, storage.ErrNotFound }
func (brokenStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "", nil
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

func seedInvestment(t *testing.T, db *gorm.DB) *domain.Investment {
	user := domain.User{Name: "Ada Obi", Email: "ada@example.com", PasswordHash: "x", Role: "USER", ReferralCode: "ADA123"}
	require.NoError(t, db.Create(&user).Error)
	project := domain.Project{
		Name:               "Lekki Gardens",
		Location:           "Lagos",
		InvestmentRequired: decimal.NewFromInt(10000000),
		SharePrice:         decimal.NewFromInt(100000),
		TotalShares:        100,
		ProjectStatus:      domain.ProjectOpen,
	}
	require.NoError(t, db.Create(&project).Error)
	now := time.Now()
	inv := domain.Investment{
		UserID:            user.ID,
		ProjectID:         project.ID,
		InvestmentAmount:  decimal.NewFromInt(200000),
		Shares:            2,
		Status:            domain.InvestmentActive,
		CertificateID:     "SB-CERT-abc-1700000000000",
		VerificationToken: "tok-" + user.ID.String(),
		DateOfInvestment:  now,
		DateOfReturn:      now.Add(domain.InvestmentTerm),
		CertificateStatus: domain.CertificatePending,
	}
	require.NoError(t, db.Create(&inv).Error)
	return &inv
}

func reload(t *testing.T, db *gorm.DB, inv *domain.Investment) domain.Investment {
	var got domain.Investment
	require.NoError(t, db.First(&got, "id = ?", inv.ID).Error)
	return got
}

func TestRender_ProducesPDF(t *testing.T) {
	b, err := Render(View{
		CertificateID:    "SB-CERT-abc-1",
		InvestorName:     "Chidi Okafor",
		ProjectName:      "Abuja Heights",
		ProjectLocation:  "Abuja",
		Amount:           decimal.NewFromInt(500000),
		Shares:           5,
		DateOfInvestment: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		DateOfReturn:     time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC),
		VerificationURL:  "https://stablebricks.com/user-investment/abc",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF-")))
}

func TestVerificationURL(t *testing.T) {
	assert.Equal(t, "https://stablebricks.com/user-investment/t1", VerificationURL("https://stablebricks.com/", "t1"))
	assert.Equal(t, "certificates/SB-CERT-1.pdf", ObjectKey("SB-CERT-1"))
}

func TestIssue_StoresMarksIssuedAndMails(t *testing.T) {
	db := setupTestDB(t)
	inv := seedInvestment(t, db)
	store := &storage.DiskStore{Dir: t.TempDir()}
	mailer := &recordingMailer{}
	issuer, err := NewIssuer(db, store, mailer, "https://stablebricks.com", 0)
	require.NoError(t, err)

	require.NoError(t, issuer.Issue(context.Background(), inv.ID))

	got := reload(t, db, inv)
	assert.Equal(t, domain.CertificateIssued, got.CertificateStatus)
	require.NotNil(t, got.CertificateURL)
	assert.Equal(t, DownloadPath(inv.ID), *got.CertificateURL)
	assert.Nil(t, got.CertificateError)

	stored, err := store.Get(context.Background(), ObjectKey(inv.CertificateID))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(stored, []byte("%PDF-")))

	require.Equal(t, 1, mailer.count())
	assert.Equal(t, "Lekki Gardens", mailer.sent[0].ProjectName)
	assert.Equal(t, "https://stablebricks.com/user-investment/"+inv.VerificationToken, mailer.sent[0].VerificationURL)

	// issuing again is a no-op
	require.NoError(t, issuer.Issue(context.Background(), inv.ID))
	assert.Equal(t, 1, mailer.count())
}

func TestIssue_StoreFailureMarksFailedOnly(t *testing.T) {
	db := setupTestDB(t)
	inv := seedInvestment(t, db)
	mailer := &recordingMailer{}
	issuer, err := NewIssuer(db, brokenStore{}, mailer, "https://stablebricks.com", 0)
	require.NoError(t, err)

	err = issuer.Issue(context.Background(), inv.ID)
	require.Error(t, err)

	got := reload(t, db, inv)
	assert.Equal(t, domain.CertificateFailed, got.CertificateStatus)
	require.NotNil(t, got.CertificateError)
	assert.Contains(t, *got.CertificateError, "bucket unavailable")
	assert.Equal(t, domain.InvestmentActive, got.Status)
	assert.Equal(t, 0, mailer.count())
}

func TestIssue_SkipsRowClaimedByAnotherWorker(t *testing.T) {
	db := setupTestDB(t)
	inv := seedInvestment(t, db)
	store := &storage.DiskStore{Dir: t.TempDir()}
	mailer := &recordingMailer{}
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	issuer, err := NewIssuer(db, store, mailer, "https://stablebricks.com", 0)
	require.NoError(t, err)
	issuer.Now = func() time.Time { return now }

	claimedAt := now.Add(-time.Minute)
	require.NoError(t, db.Model(&domain.Investment{}).Where("id = ?", inv.ID).Update("certificate_claimed_at", claimedAt).Error)

	require.NoError(t, issuer.Issue(context.Background(), inv.ID))
	assert.Equal(t, domain.CertificatePending, reload(t, db, inv).CertificateStatus)
	assert.Equal(t, 0, mailer.count())
	_, err = store.Get(context.Background(), ObjectKey(inv.CertificateID))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	now = now.Add(claimLease)
	require.NoError(t, issuer.Issue(context.Background(), inv.ID))
	assert.Equal(t, domain.CertificateIssued, reload(t, db, inv).CertificateStatus)
	assert.Equal(t, 1, mailer.count())
}

func TestIssue_FailureReleasesClaim(t *testing.T) {
	db := setupTestDB(t)
	inv := seedInvestment(t, db)
	issuer, err := NewIssuer(db, brokenStore{}, nil, "https://stablebricks.com", 0)
	require.NoError(t, err)

	require.Error(t, issuer.Issue(context.Background(), inv.ID))
	got := reload(t, db, inv)
	assert.Equal(t, domain.CertificateFailed, got.CertificateStatus)
	assert.Nil(t, got.ClaimedAt)
}

func TestIssue_UnknownInvestment(t *testing.T) {
	db := setupTestDB(t)
	issuer, err := NewIssuer(db, &storage.DiskStore{Dir: t.TempDir()}, nil, "https://stablebricks.com", 0)
	require.NoError(t, err)
	err = issuer.Issue(context.Background(), seedInvestment(t, db).ProjectID)
	assert.ErrorIs(t, err, ErrInvestmentNotFound)
}

func TestSubmit_RunsOnPool(t *testing.T) {
	db := setupTestDB(t)
	inv := seedInvestment(t, db)
	mailer := &recordingMailer{}
	issuer, err := NewIssuer(db, &storage.DiskStore{Dir: t.TempDir()}, mailer, "https://stablebricks.com", 2)
	require.NoError(t, err)

	require.NoError(t, issuer.Submit(inv.ID))
	require.NoError(t, issuer.Close(5*time.Second))

	assert.Eventually(t, func() bool { return mailer.count() == 1 }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, domain.CertificateIssued, reload(t, db, inv).CertificateStatus)
}

func TestDocument_RendersWhenNotStored(t *testing.T) {
	db := setupTestDB(t)
	inv := seedInvestment(t, db)
	issuer, err := NewIssuer(db, &storage.DiskStore{Dir: t.TempDir()}, nil, "https://stablebricks.com", 0)
	require.NoError(t, err)

	b, err := issuer.Document(context.Background(), inv)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF-")))
}
