package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/cardvault/card-service/internal/apperrors"
	"github.com/cardvault/card-service/internal/models"
	"github.com/cardvault/card-service/internal/utils"
)

const (
	cardNumberPrefix = "400000"
	// Retries on a generated-number collision. Collisions are practically
	// unreachable, so running out of retries surfaces as Conflict.
	cardNumberAttempts = 5
)

// CreateCard issues a new ACTIVE card with zero balance and zero spend
// counters for the given user.
func (s *Service) CreateCard(ctx context.Context, userID int64) (*models.Card, error) {
	var number, token string
	for attempt := 0; ; attempt++ {
		if attempt == cardNumberAttempts {
			return nil, apperrors.New(apperrors.KindConflict, "card number already exists")
		}

		n, err := utils.GenerateCardNumber(cardNumberPrefix, 16)
		if err != nil {
			return nil, fmt.Errorf("failed to generate card number: %w", err)
		}
		tok, err := s.vault.Encrypt(n)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt card number: %w", err)
		}
		exists, err := s.store.CardNumberExists(ctx, tok)
		if err != nil {
			return nil, err
		}
		if !exists {
			number, token = n, tok
			break
		}
	}

	cvvHash, err := bcrypt.GenerateFromPassword([]byte(utils.GenerateCVV()), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash CVV: %w", err)
	}

	card := &models.Card{
		UserID:          userID,
		NumberEncrypted: token,
		CVVHash:         string(cvvHash),
		ExpiryDate:      utils.ExpiryDate(s.clock.Now()),
		Status:          models.CardStatusActive,
		Balance:         decimal.Zero,
		DailySpent:      decimal.Zero,
		MonthlySpent:    decimal.Zero,
	}
	if err := s.store.CreateCard(ctx, card); err != nil {
		return nil, err
	}

	card.MaskedNumber = number[:4] + "********" + number[12:]
	s.log.Infof("Card %d issued for user %d", card.ID, userID)
	return card, nil
}

// ListCards returns the cards owned by the acting user, numbers masked.
func (s *Service) ListCards(ctx context.Context, ownerEmail string, page, size int) ([]*models.Card, error) {
	user, err := s.resolveUser(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}

	cards, err := s.store.ListCardsByUser(ctx, user.ID, page, size)
	if err != nil {
		return nil, err
	}
	for _, card := range cards {
		masked, err := s.vault.Mask(card.NumberEncrypted)
		if err != nil {
			return nil, err
		}
		card.MaskedNumber = masked
	}
	return cards, nil
}

// SetCardStatus switches a card between ACTIVE and BLOCKED. EXPIRED is
// reserved for the maintenance scheduler and cannot be set here.
func (s *Service) SetCardStatus(ctx context.Context, cardID int64, status string) (*models.Card, error) {
	if status != models.CardStatusActive && status != models.CardStatusBlocked {
		return nil, apperrors.Newf(apperrors.KindValidation, "invalid card status: %s", status)
	}

	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card.Status == models.CardStatusExpired {
		return nil, apperrors.New(apperrors.KindUnprocessable, "card has expired")
	}

	card.Status = status
	if err := s.store.UpdateCard(ctx, card); err != nil {
		return nil, err
	}
	s.log.Infof("Card %d status set to %s", card.ID, status)
	return card, nil
}

// SetCardLimits assigns or clears the daily and monthly spend limits.
func (s *Service) SetCardLimits(ctx context.Context, cardID int64, daily, monthly *decimal.Decimal) (*models.Card, error) {
	if daily != nil && daily.IsNegative() {
		return nil, apperrors.New(apperrors.KindValidation, "daily limit must not be negative")
	}
	if monthly != nil && monthly.IsNegative() {
		return nil, apperrors.New(apperrors.KindValidation, "monthly limit must not be negative")
	}

	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}

	card.DailyLimit = daily
	card.MonthlyLimit = monthly
	if err := s.store.UpdateCard(ctx, card); err != nil {
		return nil, err
	}
	s.log.Infof("Card %d limits updated", card.ID)
	return card, nil
}

// DeleteCard removes a card record. This is a raw store operation used by
// administrators, not a ledger concern.
func (s *Service) DeleteCard(ctx context.Context, cardID int64) error {
	if err := s.store.DeleteCard(ctx, cardID); err != nil {
		return err
	}
	s.log.Infof("Card %d deleted", cardID)
	return nil
}
