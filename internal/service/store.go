package service

import (
	"context"
	"time"

	"github.com/cardvault/card-service/internal/models"
)

// Tx is one atomic unit of work against the backing store. Cards loaded
// through GetCardForUpdate are row-locked until Commit or Rollback, so two
// concurrent operations against the same card serialize rather than
// interleave.
type Tx interface {
	GetCardForUpdate(ctx context.Context, id int64) (*models.Card, error)
	SaveCard(ctx context.Context, card *models.Card) error
	InsertTransaction(ctx context.Context, tx *models.Transaction) error
	Commit() error
	Rollback() error
}

// Store is the persistence collaborator consumed by the service layer.
type Store interface {
	Begin(ctx context.Context) (Tx, error)

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateCard(ctx context.Context, card *models.Card) error
	GetCard(ctx context.Context, id int64) (*models.Card, error)
	FindCardByNumberToken(ctx context.Context, token string) (*models.Card, error)
	CardNumberExists(ctx context.Context, token string) (bool, error)
	UpdateCard(ctx context.Context, card *models.Card) error
	DeleteCard(ctx context.Context, id int64) error
	ListCardsByUser(ctx context.Context, userID int64, page, size int) ([]*models.Card, error)

	ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]*models.TransactionRecord, error)

	CreateRequest(ctx context.Context, req *models.CardRequest) error
	GetRequest(ctx context.Context, id int64) (*models.CardRequest, error)
	UpdateRequestStatus(ctx context.Context, id int64, status string) error
	ListRequests(ctx context.Context, filter models.RequestFilter) ([]*models.CardRequest, error)
}

// Clock is the time source, injectable for deterministic tests.
type Clock interface {
	Now() time.Time
}

// RealClock reads the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Notifier delivers best-effort user notifications after committed
// operations. Implementations must not fail the calling operation.
type Notifier interface {
	OperationCommitted(user *models.User, tx *models.Transaction)
	RequestDecided(user *models.User, req *models.CardRequest)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) OperationCommitted(*models.User, *models.Transaction) {}
func (NopNotifier) RequestDecided(*models.User, *models.CardRequest)    {}
