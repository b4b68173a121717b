package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TransactionTransfer = "TRANSFER"
	TransactionDebit    = "DEBIT"
	TransactionCredit   = "CREDIT"
)

// Transaction represents an immutable financial transaction. A TRANSFER
// references both cards, a DEBIT only the source, a CREDIT only the
// destination. Use the constructors below so an ill-shaped record cannot
// be built.
type Transaction struct {
	ID         int64           `json:"id"`
	Type       string          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	FromCardID *int64          `json:"from_card_id,omitempty"`
	ToCardID   *int64          `json:"to_card_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewTransferTransaction builds a TRANSFER record referencing both cards.
func NewTransferTransaction(fromCardID, toCardID int64, amount decimal.Decimal) *Transaction {
	return &Transaction{
		Type:       TransactionTransfer,
		Amount:     amount,
		FromCardID: &fromCardID,
		ToCardID:   &toCardID,
	}
}

// NewDebitTransaction builds a DEBIT record with only a source reference.
func NewDebitTransaction(fromCardID int64, amount decimal.Decimal) *Transaction {
	return &Transaction{
		Type:       TransactionDebit,
		Amount:     amount,
		FromCardID: &fromCardID,
	}
}

// NewCreditTransaction builds a CREDIT record with only a destination reference.
func NewCreditTransaction(toCardID int64, amount decimal.Decimal) *Transaction {
	return &Transaction{
		Type:     TransactionCredit,
		Amount:   amount,
		ToCardID: &toCardID,
	}
}
