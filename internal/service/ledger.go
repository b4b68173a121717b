package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cardvault/card-service/internal/apperrors"
	"github.com/cardvault/card-service/internal/models"
)

// checkDebitEligibility gates a balance subtraction from a card. The
// daily/monthly limit counters apply only to DEBIT operations, not to
// the debit side of a TRANSFER.
func checkDebitEligibility(card *models.Card, amount decimal.Decimal, opType string) error {
	switch card.Status {
	case models.CardStatusBlocked:
		return apperrors.New(apperrors.KindLocked, "card is blocked")
	case models.CardStatusExpired:
		return apperrors.New(apperrors.KindUnprocessable, "card has expired")
	}
	if card.Balance.LessThan(amount) {
		return apperrors.New(apperrors.KindUnprocessable, "insufficient funds")
	}
	if opType == models.TransactionDebit {
		if card.DailyLimit != nil && card.DailySpent.Add(amount).GreaterThan(*card.DailyLimit) {
			return apperrors.New(apperrors.KindUnprocessable, "exceeds daily limit")
		}
		if card.MonthlyLimit != nil && card.MonthlySpent.Add(amount).GreaterThan(*card.MonthlyLimit) {
			return apperrors.New(apperrors.KindUnprocessable, "exceeds monthly limit")
		}
	}
	return nil
}

// checkCreditEligibility gates a balance addition to a card. Receiving
// funds has no balance or limit constraint.
func checkCreditEligibility(card *models.Card) error {
	switch card.Status {
	case models.CardStatusBlocked:
		return apperrors.New(apperrors.KindLocked, "receiving card is blocked")
	case models.CardStatusExpired:
		return apperrors.New(apperrors.KindUnprocessable, "receiving card has expired")
	}
	return nil
}

// Transfer moves amount between two cards owned by the acting user. Both
// rows are locked in ascending id order to avoid deadlock between two
// concurrent opposite-direction transfers.
func (s *Service) Transfer(ctx context.Context, sourceID, destID int64, amount decimal.Decimal, actingUserEmail string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, apperrors.New(apperrors.KindValidation, "amount must be positive")
	}
	if sourceID == destID {
		return nil, apperrors.New(apperrors.KindValidation, "source and destination cards are the same")
	}

	user, err := s.resolveUser(ctx, actingUserEmail)
	if err != nil {
		return nil, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	firstID, secondID := sourceID, destID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}
	first, err := tx.GetCardForUpdate(ctx, firstID)
	if err != nil {
		return nil, err
	}
	second, err := tx.GetCardForUpdate(ctx, secondID)
	if err != nil {
		return nil, err
	}
	source, dest := first, second
	if source.ID != sourceID {
		source, dest = second, first
	}

	if source.UserID != user.ID || dest.UserID != user.ID {
		return nil, apperrors.New(apperrors.KindForbidden, "card does not belong to user")
	}
	if err := checkDebitEligibility(source, amount, models.TransactionTransfer); err != nil {
		return nil, err
	}
	if err := checkCreditEligibility(dest); err != nil {
		return nil, err
	}

	source.Balance = source.Balance.Sub(amount)
	dest.Balance = dest.Balance.Add(amount)
	if err := tx.SaveCard(ctx, source); err != nil {
		return nil, err
	}
	if err := tx.SaveCard(ctx, dest); err != nil {
		return nil, err
	}

	record := models.NewTransferTransaction(source.ID, dest.ID, amount)
	if err := tx.InsertTransaction(ctx, record); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transfer: %w", err)
	}

	s.log.Infof("Transfer committed: %d -> %d, amount %s", source.ID, dest.ID, amount.StringFixed(2))
	s.notifier.OperationCommitted(user, record)
	return record, nil
}

// Debit subtracts amount from a card owned by the acting user and adds it
// to both running spend counters.
func (s *Service) Debit(ctx context.Context, cardID int64, amount decimal.Decimal, actingUserEmail string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, apperrors.New(apperrors.KindValidation, "amount must be positive")
	}

	user, err := s.resolveUser(ctx, actingUserEmail)
	if err != nil {
		return nil, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	card, err := tx.GetCardForUpdate(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card.UserID != user.ID {
		return nil, apperrors.New(apperrors.KindForbidden, "card does not belong to user")
	}
	if err := checkDebitEligibility(card, amount, models.TransactionDebit); err != nil {
		return nil, err
	}

	card.Balance = card.Balance.Sub(amount)
	card.DailySpent = card.DailySpent.Add(amount)
	card.MonthlySpent = card.MonthlySpent.Add(amount)
	if err := tx.SaveCard(ctx, card); err != nil {
		return nil, err
	}

	record := models.NewDebitTransaction(card.ID, amount)
	if err := tx.InsertTransaction(ctx, record); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit debit: %w", err)
	}

	s.log.Infof("Debit committed: card %d, amount %s", card.ID, amount.StringFixed(2))
	s.notifier.OperationCommitted(user, record)
	return record, nil
}

// TopUp adds amount to a card owned by the acting user. Top-ups never
// consume or reset the spend counters.
func (s *Service) TopUp(ctx context.Context, cardID int64, amount decimal.Decimal, actingUserEmail string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, apperrors.New(apperrors.KindValidation, "amount must be positive")
	}

	user, err := s.resolveUser(ctx, actingUserEmail)
	if err != nil {
		return nil, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	card, err := tx.GetCardForUpdate(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card.UserID != user.ID {
		return nil, apperrors.New(apperrors.KindForbidden, "card does not belong to user")
	}
	if err := checkCreditEligibility(card); err != nil {
		return nil, err
	}

	card.Balance = card.Balance.Add(amount)
	if err := tx.SaveCard(ctx, card); err != nil {
		return nil, err
	}

	record := models.NewCreditTransaction(card.ID, amount)
	if err := tx.InsertTransaction(ctx, record); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit top-up: %w", err)
	}

	s.log.Infof("Top-up committed: card %d, amount %s", card.ID, amount.StringFixed(2))
	s.notifier.OperationCommitted(user, record)
	return record, nil
}

// TransactionView is a transaction prepared for display: card numbers are
// masked, never raw or encrypted.
type TransactionView struct {
	ID        int64           `json:"id"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	FromCard  string          `json:"from_card,omitempty"`
	ToCard    string          `json:"to_card,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ListTransactions returns filtered transactions. When ownerEmail is
// non-empty, results are restricted to transactions touching any card
// owned by that user.
func (s *Service) ListTransactions(ctx context.Context, ownerEmail string, filter models.TransactionFilter) ([]*TransactionView, error) {
	if ownerEmail != "" {
		user, err := s.store.FindUserByEmail(ctx, ownerEmail)
		if err != nil {
			return nil, err
		}
		filter.OwnerID = &user.ID
	}

	records, err := s.store.ListTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}

	views := make([]*TransactionView, 0, len(records))
	for _, rec := range records {
		view := &TransactionView{
			ID:        rec.ID,
			Type:      rec.Type,
			Amount:    rec.Amount,
			CreatedAt: rec.CreatedAt,
		}
		if rec.FromCardToken != nil {
			masked, err := s.vault.Mask(*rec.FromCardToken)
			if err != nil {
				return nil, err
			}
			view.FromCard = masked
		}
		if rec.ToCardToken != nil {
			masked, err := s.vault.Mask(*rec.ToCardToken)
			if err != nil {
				return nil, err
			}
			view.ToCard = masked
		}
		views = append(views, view)
	}
	return views, nil
}
