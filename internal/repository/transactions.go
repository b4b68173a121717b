package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/cardvault/card-service/internal/models"
)

// ListTransactions retrieves a filtered, paginated page of transactions
// joined with the encrypted numbers of the cards they reference.
func (r *Repository) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]*models.TransactionRecord, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.OwnerID != nil {
		p := arg(*filter.OwnerID)
		conds = append(conds, fmt.Sprintf("(cf.user_id = %s OR ct.user_id = %s)", p, p))
	}
	if filter.Type != "" {
		conds = append(conds, "t.type = "+arg(filter.Type))
	}
	if filter.MinAmount != nil {
		conds = append(conds, "t.amount >= "+arg(*filter.MinAmount))
	}
	if filter.MaxAmount != nil {
		conds = append(conds, "t.amount <= "+arg(*filter.MaxAmount))
	}
	if filter.From != nil {
		conds = append(conds, "t.created_at >= "+arg(*filter.From))
	}
	if filter.To != nil {
		conds = append(conds, "t.created_at <= "+arg(*filter.To))
	}
	if filter.CardID != nil {
		p := arg(*filter.CardID)
		conds = append(conds, fmt.Sprintf("(t.from_card_id = %s OR t.to_card_id = %s)", p, p))
	}

	query := `
		SELECT t.id, t.type, t.amount, t.from_card_id, t.to_card_id, t.created_at,
			cf.number_encrypted, ct.number_encrypted
		FROM bank.transactions t
		LEFT JOIN bank.cards cf ON cf.id = t.from_card_id
		LEFT JOIN bank.cards ct ON ct.id = t.to_card_id`
	if len(conds) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conds, " AND ")
	}
	limit, offset := pageBounds(filter.Page, filter.Size)
	query += "\n\t\tORDER BY t.created_at DESC, t.id DESC\n\t\tLIMIT " + arg(limit) + " OFFSET " + arg(offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var records []*models.TransactionRecord
	for rows.Next() {
		rec := &models.TransactionRecord{}
		err := rows.Scan(&rec.ID, &rec.Type, &rec.Amount, &rec.FromCardID, &rec.ToCardID,
			&rec.CreatedAt, &rec.FromCardToken, &rec.ToCardToken)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
