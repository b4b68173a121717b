package service

import (
	"context"

	"github.com/cardvault/card-service/internal/apperrors"
	"github.com/cardvault/card-service/internal/models"
)

// RequestCardIssuance files a PENDING CREATE_CARD request for the acting
// user. Nothing touches card state until an administrator approves it.
func (s *Service) RequestCardIssuance(ctx context.Context, ownerEmail string) (*models.CardRequest, error) {
	user, err := s.resolveUser(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}

	req := &models.CardRequest{
		UserID: user.ID,
		Type:   models.RequestCreateCard,
		Status: models.RequestPending,
	}
	if err := s.store.CreateRequest(ctx, req); err != nil {
		return nil, err
	}
	s.log.Infof("Card issuance requested by user %d", user.ID)
	return req, nil
}

// RequestCardBlock files a PENDING BLOCK_CARD request for a card the acting
// user owns, resolved by its raw number through the vault.
func (s *Service) RequestCardBlock(ctx context.Context, ownerEmail, cardNumber string) (*models.CardRequest, error) {
	user, err := s.resolveUser(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}

	token, err := s.vault.Encrypt(cardNumber)
	if err != nil {
		return nil, err
	}
	card, err := s.store.FindCardByNumberToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if card.UserID != user.ID {
		return nil, apperrors.New(apperrors.KindForbidden, "card does not belong to user")
	}

	req := &models.CardRequest{
		UserID: user.ID,
		Type:   models.RequestBlockCard,
		CardID: &card.ID,
		Status: models.RequestPending,
	}
	if err := s.store.CreateRequest(ctx, req); err != nil {
		return nil, err
	}
	s.log.Infof("Card block requested by user %d for card %d", user.ID, card.ID)
	return req, nil
}

// SetRequestStatus decides a card request. Approval drives the underlying
// account mutation: CREATE_CARD issues a card, BLOCK_CARD blocks the
// referenced one. Re-deciding an already-decided request is not guarded.
func (s *Service) SetRequestStatus(ctx context.Context, requestID int64, status string) (*models.CardRequest, error) {
	if status != models.RequestApproved && status != models.RequestRejected {
		return nil, apperrors.Newf(apperrors.KindValidation, "invalid request status: %s", status)
	}

	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateRequestStatus(ctx, req.ID, status); err != nil {
		return nil, err
	}
	req.Status = status

	if status == models.RequestApproved {
		switch req.Type {
		case models.RequestCreateCard:
			if _, err := s.CreateCard(ctx, req.UserID); err != nil {
				return nil, err
			}
		case models.RequestBlockCard:
			if req.CardID != nil {
				if _, err := s.SetCardStatus(ctx, *req.CardID, models.CardStatusBlocked); err != nil {
					return nil, err
				}
			}
		}
	}

	s.log.Infof("Request %d decided: %s", req.ID, status)
	s.notifyRequestDecision(ctx, req)
	return req, nil
}

// ListRequests returns filtered card requests. When ownerEmail is
// non-empty, only the requests of that user are returned.
func (s *Service) ListRequests(ctx context.Context, ownerEmail string, filter models.RequestFilter) ([]*models.CardRequest, error) {
	if ownerEmail != "" {
		user, err := s.store.FindUserByEmail(ctx, ownerEmail)
		if err != nil {
			return nil, err
		}
		filter.OwnerID = &user.ID
	}
	return s.store.ListRequests(ctx, filter)
}

func (s *Service) notifyRequestDecision(ctx context.Context, req *models.CardRequest) {
	// Best effort; a lookup failure only costs the email.
	user, err := s.store.GetUser(ctx, req.UserID)
	if err != nil {
		s.log.Warnf("Skipping request notification, user %d lookup failed: %v", req.UserID, err)
		return
	}
	s.notifier.RequestDecided(user, req)
}
