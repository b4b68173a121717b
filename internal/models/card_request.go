package models

import "time"

// Card request types
const (
	RequestCreateCard = "CREATE_CARD"
	RequestBlockCard  = "BLOCK_CARD"
)

// Card request statuses
const (
	RequestPending  = "PENDING"
	RequestApproved = "APPROVED"
	RequestRejected = "REJECTED"
)

// CardRequest represents a user-submitted action awaiting administrator
// approval. CardID is set only for BLOCK_CARD requests.
type CardRequest struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Type      string    `json:"type"`
	CardID    *int64    `json:"card_id,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
