package land

import (
	"context"
	"testing"

	authsvc "stablebricks-backend/internal/application/auth"
	"stablebricks-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newService(t *testing.T) *Service {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.LandSubmission{}))
	return &Service{DB: db}
}

func TestSubmitAndReview(t *testing.T) {
	s := newService(t)
	owner := authsvc.Principal{UserID: uuid.New(), Role: "USER"}
	admin := authsvc.Principal{UserID: uuid.New(), Role: "ADMIN"}
	ctx := context.Background()

	_, err := s.Submit(ctx, owner, SubmitInput{Location: "Epe", SizeSqm: decimal.Zero, AskingPrice: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrInvalidSize)

	sub, err := s.Submit(ctx, owner, SubmitInput{Location: "Epe", SizeSqm: decimal.NewFromInt(600), AskingPrice: decimal.NewFromInt(15000000)})
	require.NoError(t, err)
	assert.Equal(t, domain.LandPending, sub.Status)

	got, err := s.Review(ctx, admin, sub.ID, ReviewInput{Status: "under_review"})
	require.NoError(t, err)
	assert.Equal(t, domain.LandUnderReview, got.Status)

	got, err = s.Review(ctx, admin, sub.ID, ReviewInput{Status: "APPROVED", Note: "Title verified"})
	require.NoError(t, err)
	require.NotNil(t, got.ReviewNote)
	assert.Equal(t, "Title verified", *got.ReviewNote)
	assert.Equal(t, admin.UserID, *got.ReviewedBy)

	_, err = s.Review(ctx, admin, sub.ID, ReviewInput{Status: "REJECTED"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = s.Review(ctx, admin, uuid.New(), ReviewInput{Status: "REJECTED"})
	assert.ErrorIs(t, err, ErrSubmissionNotFound)

	mine, total, err := s.ListMine(ctx, owner.UserID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, mine, 1)

	_, total, err = s.ListAll(ctx, "approved", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
