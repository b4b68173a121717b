package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cardvault/card-service/internal/apperrors"
	"github.com/cardvault/card-service/internal/models"
)

// fakeStore is an in-memory Store. Its unit of work buffers mutations
// until Commit, so tests can assert that failed operations leave no
// partial effect.
type fakeStore struct {
	mu       sync.Mutex
	users    map[int64]*models.User
	cards    map[int64]*models.Card
	txs      []*models.Transaction
	requests map[int64]*models.CardRequest
	nextID   int64
	now      time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[int64]*models.User),
		cards:    make(map[int64]*models.Card),
		requests: make(map[int64]*models.CardRequest),
		now:      time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC),
	}
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func copyCard(c *models.Card) *models.Card {
	cp := *c
	if c.DailyLimit != nil {
		d := *c.DailyLimit
		cp.DailyLimit = &d
	}
	if c.MonthlyLimit != nil {
		m := *c.MonthlyLimit
		cp.MonthlyLimit = &m
	}
	return &cp
}

func (s *fakeStore) Begin(ctx context.Context) (Tx, error) {
	return &fakeTx{store: s}, nil
}

func (s *fakeStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = s.id()
	s.users[user.ID] = user
	return nil
}

func (s *fakeStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound, "user not found")
	}
	return user, nil
}

func (s *fakeStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, apperrors.New(apperrors.KindNotFound, "user not found")
}

func (s *fakeStore) CreateCard(ctx context.Context, card *models.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	card.ID = s.id()
	card.CreatedAt = s.now
	card.UpdatedAt = s.now
	s.cards[card.ID] = copyCard(card)
	return nil
}

func (s *fakeStore) GetCard(ctx context.Context, id int64) (*models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[id]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound, "card not found")
	}
	return copyCard(card), nil
}

func (s *fakeStore) FindCardByNumberToken(ctx context.Context, token string) (*models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, card := range s.cards {
		if card.NumberEncrypted == token {
			return copyCard(card), nil
		}
	}
	return nil, apperrors.New(apperrors.KindNotFound, "card not found")
}

func (s *fakeStore) CardNumberExists(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, card := range s.cards {
		if card.NumberEncrypted == token {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) UpdateCard(ctx context.Context, card *models.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[card.ID]; !ok {
		return apperrors.New(apperrors.KindNotFound, "card not found")
	}
	s.cards[card.ID] = copyCard(card)
	return nil
}

func (s *fakeStore) DeleteCard(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[id]; !ok {
		return apperrors.New(apperrors.KindNotFound, "card not found")
	}
	delete(s.cards, id)
	return nil
}

func (s *fakeStore) ListCardsByUser(ctx context.Context, userID int64, page, size int) ([]*models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cards []*models.Card
	for _, card := range s.cards {
		if card.UserID == userID {
			cards = append(cards, copyCard(card))
		}
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
	return cards, nil
}

func (s *fakeStore) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]*models.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []*models.TransactionRecord
	for _, t := range s.txs {
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if filter.CardID != nil && !references(t, *filter.CardID) {
			continue
		}
		if filter.OwnerID != nil && !s.ownedBy(t, *filter.OwnerID) {
			continue
		}
		if filter.MinAmount != nil && t.Amount.LessThan(*filter.MinAmount) {
			continue
		}
		if filter.MaxAmount != nil && t.Amount.GreaterThan(*filter.MaxAmount) {
			continue
		}
		rec := &models.TransactionRecord{Transaction: *t}
		if t.FromCardID != nil {
			if card, ok := s.cards[*t.FromCardID]; ok {
				token := card.NumberEncrypted
				rec.FromCardToken = &token
			}
		}
		if t.ToCardID != nil {
			if card, ok := s.cards[*t.ToCardID]; ok {
				token := card.NumberEncrypted
				rec.ToCardToken = &token
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func references(t *models.Transaction, cardID int64) bool {
	return (t.FromCardID != nil && *t.FromCardID == cardID) ||
		(t.ToCardID != nil && *t.ToCardID == cardID)
}

func (s *fakeStore) ownedBy(t *models.Transaction, userID int64) bool {
	if t.FromCardID != nil {
		if card, ok := s.cards[*t.FromCardID]; ok && card.UserID == userID {
			return true
		}
	}
	if t.ToCardID != nil {
		if card, ok := s.cards[*t.ToCardID]; ok && card.UserID == userID {
			return true
		}
	}
	return false
}

func (s *fakeStore) CreateRequest(ctx context.Context, req *models.CardRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req.ID = s.id()
	req.CreatedAt = s.now
	req.UpdatedAt = s.now
	cp := *req
	s.requests[req.ID] = &cp
	return nil
}

func (s *fakeStore) GetRequest(ctx context.Context, id int64) (*models.CardRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound, "card request not found")
	}
	cp := *req
	return &cp, nil
}

func (s *fakeStore) UpdateRequestStatus(ctx context.Context, id int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return apperrors.New(apperrors.KindNotFound, "card request not found")
	}
	req.Status = status
	return nil
}

func (s *fakeStore) ListRequests(ctx context.Context, filter models.RequestFilter) ([]*models.CardRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var requests []*models.CardRequest
	for _, req := range s.requests {
		if filter.OwnerID != nil && req.UserID != *filter.OwnerID {
			continue
		}
		if filter.Type != "" && req.Type != filter.Type {
			continue
		}
		if filter.Status != "" && !strings.EqualFold(req.Status, filter.Status) {
			continue
		}
		cp := *req
		requests = append(requests, &cp)
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].ID < requests[j].ID })
	return requests, nil
}

// fakeTx buffers mutations until Commit.
type fakeTx struct {
	store *fakeStore
	saved []*models.Card
	txs   []*models.Transaction
}

func (t *fakeTx) GetCardForUpdate(ctx context.Context, id int64) (*models.Card, error) {
	return t.store.GetCard(ctx, id)
}

func (t *fakeTx) SaveCard(ctx context.Context, card *models.Card) error {
	t.saved = append(t.saved, copyCard(card))
	return nil
}

func (t *fakeTx) InsertTransaction(ctx context.Context, record *models.Transaction) error {
	t.store.mu.Lock()
	record.ID = t.store.id()
	t.store.mu.Unlock()
	record.CreatedAt = t.store.now
	t.txs = append(t.txs, record)
	return nil
}

func (t *fakeTx) Commit() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, card := range t.saved {
		t.store.cards[card.ID] = card
	}
	t.store.txs = append(t.store.txs, t.txs...)
	t.saved = nil
	t.txs = nil
	return nil
}

func (t *fakeTx) Rollback() error {
	t.saved = nil
	t.txs = nil
	return nil
}
