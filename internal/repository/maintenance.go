package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/cardvault/card-service/internal/models"
)

// ExpireOverdueCards marks every ACTIVE or BLOCKED card with an expiry
// date strictly before the cutoff as EXPIRED. Atomic per row only.
func (r *Repository) ExpireOverdueCards(ctx context.Context, before time.Time) (int64, error) {
	query := `
		UPDATE bank.cards
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE status IN ($2, $3) AND expiry_date < $4`
	res, err := r.db.ExecContext(ctx, query, models.CardStatusExpired,
		models.CardStatusActive, models.CardStatusBlocked, before)
	if err != nil {
		return 0, fmt.Errorf("failed to expire cards: %w", err)
	}
	return res.RowsAffected()
}

// ResetDailySpending zeroes every non-zero daily spend counter
func (r *Repository) ResetDailySpending(ctx context.Context) (int64, error) {
	query := `
		UPDATE bank.cards
		SET daily_spent = 0, updated_at = CURRENT_TIMESTAMP
		WHERE daily_spent <> 0`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to reset daily spending: %w", err)
	}
	return res.RowsAffected()
}

// ResetMonthlySpending zeroes every non-zero monthly spend counter
func (r *Repository) ResetMonthlySpending(ctx context.Context) (int64, error) {
	query := `
		UPDATE bank.cards
		SET monthly_spent = 0, updated_at = CURRENT_TIMESTAMP
		WHERE monthly_spent <> 0`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to reset monthly spending: %w", err)
	}
	return res.RowsAffected()
}
