package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cardvault/card-service/internal/apperrors"
	"github.com/cardvault/card-service/internal/models"
)

const cardColumns = `id, user_id, number_encrypted, cvv_hash, expiry_date, status,
		balance, daily_limit, monthly_limit, daily_spent, monthly_spent, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*models.Card, error) {
	card := &models.Card{}
	var daily, monthly decimal.NullDecimal
	err := row.Scan(&card.ID, &card.UserID, &card.NumberEncrypted, &card.CVVHash,
		&card.ExpiryDate, &card.Status, &card.Balance, &daily, &monthly,
		&card.DailySpent, &card.MonthlySpent, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if daily.Valid {
		card.DailyLimit = &daily.Decimal
	}
	if monthly.Valid {
		card.MonthlyLimit = &monthly.Decimal
	}
	return card, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

// CreateCard inserts a new card
func (r *Repository) CreateCard(ctx context.Context, card *models.Card) error {
	query := `
		INSERT INTO bank.cards (user_id, number_encrypted, cvv_hash, expiry_date, status,
			balance, daily_limit, monthly_limit, daily_spent, monthly_spent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, card.UserID, card.NumberEncrypted, card.CVVHash,
		card.ExpiryDate, card.Status, card.Balance, nullDecimal(card.DailyLimit),
		nullDecimal(card.MonthlyLimit), card.DailySpent, card.MonthlySpent).
		Scan(&card.ID, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

// GetCard retrieves a card by id
func (r *Repository) GetCard(ctx context.Context, id int64) (*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM bank.cards WHERE id = $1`
	card, err := scanCard(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.New(apperrors.KindNotFound, "card not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find card: %w", err)
	}
	return card, nil
}

// FindCardByNumberToken retrieves a card by its encrypted number token.
// Tokens are deterministic, so equality lookup replaces plaintext search.
func (r *Repository) FindCardByNumberToken(ctx context.Context, token string) (*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM bank.cards WHERE number_encrypted = $1`
	card, err := scanCard(r.db.QueryRowContext(ctx, query, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.New(apperrors.KindNotFound, "card not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find card: %w", err)
	}
	return card, nil
}

// CardNumberExists checks whether a card with the encrypted number exists
func (r *Repository) CardNumberExists(ctx context.Context, token string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM bank.cards WHERE number_encrypted = $1)`
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check card number: %w", err)
	}
	return exists, nil
}

// UpdateCard persists the mutable card fields
func (r *Repository) UpdateCard(ctx context.Context, card *models.Card) error {
	query := `
		UPDATE bank.cards
		SET status = $2, balance = $3, daily_limit = $4, monthly_limit = $5,
			daily_spent = $6, monthly_spent = $7, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, card.ID, card.Status, card.Balance,
		nullDecimal(card.DailyLimit), nullDecimal(card.MonthlyLimit), card.DailySpent, card.MonthlySpent)
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.New(apperrors.KindNotFound, "card not found")
	}
	return nil
}

// DeleteCard removes a card record
func (r *Repository) DeleteCard(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bank.cards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.New(apperrors.KindNotFound, "card not found")
	}
	return nil
}

// ListCardsByUser retrieves a page of the user's cards
func (r *Repository) ListCardsByUser(ctx context.Context, userID int64, page, size int) ([]*models.Card, error) {
	limit, offset := pageBounds(page, size)
	query := `SELECT ` + cardColumns + `
		FROM bank.cards
		WHERE user_id = $1
		ORDER BY id
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []*models.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func pageBounds(page, size int) (limit, offset int) {
	if size <= 0 {
		size = 20
	}
	if page < 1 {
		page = 1
	}
	return size, (page - 1) * size
}
