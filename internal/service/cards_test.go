package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardvault/card-service/internal/apperrors"
	"github.com/cardvault/card-service/internal/models"
)

func TestCreateCard(t *testing.T) {
	svc, store := newTestService(t)
	user := seedUser(t, store, "alice@example.com")

	card, err := svc.CreateCard(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Equal(t, models.CardStatusActive, card.Status)
	assert.True(t, card.Balance.IsZero())
	assert.True(t, card.DailySpent.IsZero())
	assert.True(t, card.MonthlySpent.IsZero())
	assert.Nil(t, card.DailyLimit)
	assert.NotEmpty(t, card.NumberEncrypted)
	assert.Len(t, card.MaskedNumber, 16)
	assert.Equal(t, "4000", card.MaskedNumber[:4])
	assert.Equal(t, "********", card.MaskedNumber[4:12])

	// Issued mid-June 2025, valid three years: expires end of June 2028
	assert.Equal(t, time.Date(2028, time.June, 30, 0, 0, 0, 0, time.UTC), card.ExpiryDate)
}

func TestCreateCardNumbersAreUnique(t *testing.T) {
	svc, store := newTestService(t)
	user := seedUser(t, store, "alice@example.com")

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		card, err := svc.CreateCard(context.Background(), user.ID)
		require.NoError(t, err)
		assert.False(t, seen[card.NumberEncrypted], "duplicate token issued")
		seen[card.NumberEncrypted] = true
	}
}

func TestListCardsMasksNumbers(t *testing.T) {
	svc, store := newTestService(t)
	user := seedUser(t, store, "alice@example.com")
	seedCard(t, svc, store, user.ID, "4000001111111111", "10.00")
	seedCard(t, svc, store, user.ID, "4000002222222222", "20.00")

	cards, err := svc.ListCards(context.Background(), user.Email, 1, 20)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "4000********1111", cards[0].MaskedNumber)
	assert.Equal(t, "4000********2222", cards[1].MaskedNumber)
}

func TestSetCardStatus(t *testing.T) {
	svc, store := newTestService(t)
	user := seedUser(t, store, "alice@example.com")
	card := seedCard(t, svc, store, user.ID, "4000001111111111", "10.00")

	got, err := svc.SetCardStatus(context.Background(), card.ID, models.CardStatusBlocked)
	require.NoError(t, err)
	assert.Equal(t, models.CardStatusBlocked, got.Status)

	got, err = svc.SetCardStatus(context.Background(), card.ID, models.CardStatusActive)
	require.NoError(t, err)
	assert.Equal(t, models.CardStatusActive, got.Status)
}

func TestSetCardStatusRejectsExpired(t *testing.T) {
	svc, store := newTestService(t)
	user := seedUser(t, store, "alice@example.com")
	card := seedCard(t, svc, store, user.ID, "4000001111111111", "10.00")

	// EXPIRED is reserved for the scheduler
	_, err := svc.SetCardStatus(context.Background(), card.ID, models.CardStatusExpired)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "got %v", err)
}

func TestSetCardStatusOnExpiredCard(t *testing.T) {
	svc, store := newTestService(t)
	user := seedUser(t, store, "alice@example.com")
	card := seedCard(t, svc, store, user.ID, "4000001111111111", "10.00")
	card.Status = models.CardStatusExpired
	require.NoError(t, store.UpdateCard(context.Background(), card))

	// Expiry is irreversible
	_, err := svc.SetCardStatus(context.Background(), card.ID, models.CardStatusActive)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnprocessable), "got %v", err)
}

func TestSetCardLimits(t *testing.T) {
	svc, store := newTestService(t)
	user := seedUser(t, store, "alice@example.com")
	card := seedCard(t, svc, store, user.ID, "4000001111111111", "10.00")

	got, err := svc.SetCardLimits(context.Background(), card.ID, decPtr("500"), decPtr("2000"))
	require.NoError(t, err)
	require.NotNil(t, got.DailyLimit)
	require.NotNil(t, got.MonthlyLimit)
	assert.True(t, got.DailyLimit.Equal(dec("500")))
	assert.True(t, got.MonthlyLimit.Equal(dec("2000")))

	// Clearing limits
	got, err = svc.SetCardLimits(context.Background(), card.ID, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, got.DailyLimit)
	assert.Nil(t, got.MonthlyLimit)
}

func TestSetCardLimitsRejectsNegative(t *testing.T) {
	svc, store := newTestService(t)
	user := seedUser(t, store, "alice@example.com")
	card := seedCard(t, svc, store, user.ID, "4000001111111111", "10.00")

	_, err := svc.SetCardLimits(context.Background(), card.ID, decPtr("-1"), nil)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "got %v", err)
}

func TestDeleteCard(t *testing.T) {
	svc, store := newTestService(t)
	user := seedUser(t, store, "alice@example.com")
	card := seedCard(t, svc, store, user.ID, "4000001111111111", "10.00")

	require.NoError(t, svc.DeleteCard(context.Background(), card.ID))

	_, err := store.GetCard(context.Background(), card.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	err = svc.DeleteCard(context.Background(), card.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound), "got %v", err)
}
