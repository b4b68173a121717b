package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/cardvault/card-service/internal/apperrors"
	"github.com/cardvault/card-service/internal/models"
)

// CreateRequest inserts a new card request
func (r *Repository) CreateRequest(ctx context.Context, req *models.CardRequest) error {
	query := `
		INSERT INTO bank.card_requests (user_id, type, card_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, req.UserID, req.Type, req.CardID, req.Status).
		Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create card request: %w", err)
	}
	return nil
}

// GetRequest retrieves a card request by id
func (r *Repository) GetRequest(ctx context.Context, id int64) (*models.CardRequest, error) {
	req := &models.CardRequest{}
	query := `
		SELECT id, user_id, type, card_id, status, created_at, updated_at
		FROM bank.card_requests
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&req.ID, &req.UserID, &req.Type, &req.CardID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.New(apperrors.KindNotFound, "card request not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find card request: %w", err)
	}
	return req, nil
}

// UpdateRequestStatus transitions a request's status
func (r *Repository) UpdateRequestStatus(ctx context.Context, id int64, status string) error {
	query := `
		UPDATE bank.card_requests
		SET status = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update card request: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.New(apperrors.KindNotFound, "card request not found")
	}
	return nil
}

// ListRequests retrieves a filtered, paginated page of card requests
func (r *Repository) ListRequests(ctx context.Context, filter models.RequestFilter) ([]*models.CardRequest, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.OwnerID != nil {
		conds = append(conds, "user_id = "+arg(*filter.OwnerID))
	}
	if filter.Type != "" {
		conds = append(conds, "type = "+arg(filter.Type))
	}
	if filter.Status != "" {
		conds = append(conds, "status = "+arg(filter.Status))
	}
	if filter.From != nil {
		conds = append(conds, "created_at >= "+arg(*filter.From))
	}
	if filter.To != nil {
		conds = append(conds, "created_at <= "+arg(*filter.To))
	}

	query := `
		SELECT id, user_id, type, card_id, status, created_at, updated_at
		FROM bank.card_requests`
	if len(conds) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conds, " AND ")
	}
	limit, offset := pageBounds(filter.Page, filter.Size)
	query += "\n\t\tORDER BY created_at DESC, id DESC\n\t\tLIMIT " + arg(limit) + " OFFSET " + arg(offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list card requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.CardRequest
	for rows.Next() {
		req := &models.CardRequest{}
		err := rows.Scan(&req.ID, &req.UserID, &req.Type, &req.CardID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}
