package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionFilter narrows a transaction query. Nil/zero fields are
// skipped. CardID matches either side of a TRANSFER. OwnerID restricts
// results to transactions touching any card owned by that user.
type TransactionFilter struct {
	OwnerID   *int64
	Type      string
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	From      *time.Time
	To        *time.Time
	CardID    *int64
	Page      int
	Size      int
}

// RequestFilter narrows a card request query, same shape as
// TransactionFilter.
type RequestFilter struct {
	OwnerID *int64
	Type    string
	Status  string
	From    *time.Time
	To      *time.Time
	Page    int
	Size    int
}

// TransactionRecord is a transaction joined with the encrypted numbers of
// the cards it references, so listings can be rendered with masked numbers.
type TransactionRecord struct {
	Transaction
	FromCardToken *string
	ToCardToken   *string
}
