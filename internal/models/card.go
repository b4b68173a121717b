package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Card statuses. EXPIRED is only ever set by the maintenance scheduler,
// never by a user or administrator action.
const (
	CardStatusActive  = "ACTIVE"
	CardStatusBlocked = "BLOCKED"
	CardStatusExpired = "EXPIRED"
)

// Card represents a bank card account
type Card struct {
	ID              int64            `json:"id"`
	UserID          int64            `json:"user_id"`
	NumberEncrypted string           `json:"-"` // Deterministic vault token, unique
	MaskedNumber    string           `json:"masked_number,omitempty"`
	CVVHash         string           `json:"-"` // bcrypt hash, not serialized
	ExpiryDate      time.Time        `json:"expiry_date"`
	Status          string           `json:"status"`
	Balance         decimal.Decimal  `json:"balance"`
	DailyLimit      *decimal.Decimal `json:"daily_limit,omitempty"`
	MonthlyLimit    *decimal.Decimal `json:"monthly_limit,omitempty"`
	DailySpent      decimal.Decimal  `json:"daily_spent"`
	MonthlySpent    decimal.Decimal  `json:"monthly_spent"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// IsExpiredAt reports whether the card's expiry date is strictly before
// the given day.
func (c *Card) IsExpiredAt(now time.Time) bool {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return c.ExpiryDate.Before(today)
}
