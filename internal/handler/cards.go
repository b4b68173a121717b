package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/cardvault/card-service/internal/middleware"
)

type createCardRequest struct {
	UserID int64 `json:"user_id"`
}

type cardStatusRequest struct {
	Status string `json:"status"`
}

type cardLimitsRequest struct {
	DailyLimit   *decimal.Decimal `json:"daily_limit"`
	MonthlyLimit *decimal.Decimal `json:"monthly_limit"`
}

// CreateCard issues a card for a user (admin only)
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if !h.decode(w, r, &req) {
		return
	}

	card, err := h.svc.CreateCard(r.Context(), req.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, card)
}

// ListCards returns the acting user's cards with masked numbers
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cards, err := h.svc.ListCards(r.Context(), middleware.UserEmail(r.Context()),
		atoiOrZero(q.Get("page")), atoiOrZero(q.Get("size")))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, cards)
}

// SetCardStatus switches a card between ACTIVE and BLOCKED (admin only)
func (h *Handler) SetCardStatus(w http.ResponseWriter, r *http.Request) {
	cardID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req cardStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	card, err := h.svc.SetCardStatus(r.Context(), cardID, req.Status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, card)
}

// SetCardLimits assigns or clears a card's spend limits (admin only)
func (h *Handler) SetCardLimits(w http.ResponseWriter, r *http.Request) {
	cardID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req cardLimitsRequest
	if !h.decode(w, r, &req) {
		return
	}

	card, err := h.svc.SetCardLimits(r.Context(), cardID, req.DailyLimit, req.MonthlyLimit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, card)
}

// DeleteCard removes a card record (admin only)
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	cardID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteCard(r.Context(), cardID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
