// Package testutil holds fixtures shared by handler tests.
package testutil

import (
	"context"
	"sync"
	"testing"

	"stablebricks-backend/internal/application/emails"
	"stablebricks-backend/internal/domain"
	"stablebricks-backend/internal/infrastructure/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// NewDB opens an in-memory SQLite database with every table migrated.
// A single connection keeps the in-memory database shared across goroutines.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// NewRedis starts a miniredis server and returns a client for it.
func NewRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return rdb, mr
}

// CreateUser inserts a user with the given role and password.
func CreateUser(t *testing.T, db *gorm.DB, email, role, password string) domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := domain.User{
		Name:         "Test " + role,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		ReferralCode: uuid.NewString()[:8],
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// AsUser puts u in the session locals the way the session middleware does.
func AsUser(u domain.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{
			"user_id": u.ID.String(),
			"name":    u.Name,
			"email":   u.Email,
			"role":    u.Role,
		})
		return c.Next()
	}
}

// Mailer records every email it is asked to send.
type Mailer struct {
	mu   sync.Mutex
	Sent []Mail
}

type Mail struct {
	Kind string
	To   string
	Body string
}

func (m *Mailer) record(kind, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, Mail{Kind: kind, To: to, Body: body})
	return nil
}

func (m *Mailer) SendWelcome(_ context.Context, to, name string) error {
	return m.record("welcome", to, name)
}

func (m *Mailer) SendPasswordReset(_ context.Context, to, _, link string) error {
	return m.record("reset", to, link)
}

func (m *Mailer) SendInvestmentConfirmation(_ context.Context, to string, im emails.InvestmentMail) error {
	return m.record("investment", to, im.CertificateID)
}

func (m *Mailer) SendComplaintResponse(_ context.Context, to, _, _, reply string) error {
	return m.record("complaint", to, reply)
}

func (m *Mailer) SendContactResponse(_ context.Context, to, _, _, reply string) error {
	return m.record("contact", to, reply)
}

// Kinds lists the kinds of the recorded emails in order.
func (m *Mailer) Kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Sent))
	for i, s := range m.Sent {
		out[i] = s.Kind
	}
	return out
}
