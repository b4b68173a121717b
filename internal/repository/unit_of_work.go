package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cardvault/card-service/internal/apperrors"
	"github.com/cardvault/card-service/internal/models"
)

// unitOfWork wraps a sql.Tx for one ledger operation: load-validate-
// mutate-persist with row locks held until commit.
type unitOfWork struct {
	tx *sql.Tx
}

// GetCardForUpdate loads a card under a row lock.
func (u *unitOfWork) GetCardForUpdate(ctx context.Context, id int64) (*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM bank.cards WHERE id = $1 FOR UPDATE`
	card, err := scanCard(u.tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.New(apperrors.KindNotFound, "card not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find card: %w", err)
	}
	return card, nil
}

// SaveCard persists the balance, counters and status of a locked card.
func (u *unitOfWork) SaveCard(ctx context.Context, card *models.Card) error {
	query := `
		UPDATE bank.cards
		SET status = $2, balance = $3, daily_spent = $4, monthly_spent = $5,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	if _, err := u.tx.ExecContext(ctx, query, card.ID, card.Status, card.Balance,
		card.DailySpent, card.MonthlySpent); err != nil {
		return fmt.Errorf("failed to save card: %w", err)
	}
	return nil
}

// InsertTransaction appends an immutable transaction record.
func (u *unitOfWork) InsertTransaction(ctx context.Context, t *models.Transaction) error {
	query := `
		INSERT INTO bank.transactions (type, amount, from_card_id, to_card_id, created_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := u.tx.QueryRowContext(ctx, query, t.Type, t.Amount, t.FromCardID, t.ToCardID).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (u *unitOfWork) Commit() error {
	return u.tx.Commit()
}

func (u *unitOfWork) Rollback() error {
	return u.tx.Rollback()
}
