package handler

import (
	"net/http"
	"time"

	"github.com/cardvault/card-service/internal/middleware"
	"github.com/cardvault/card-service/internal/models"
)

type blockCardRequest struct {
	CardNumber string `json:"card_number"`
}

type decideRequest struct {
	Status string `json:"status"`
}

// RequestCardIssuance files a pending CREATE_CARD request
func (h *Handler) RequestCardIssuance(w http.ResponseWriter, r *http.Request) {
	req, err := h.svc.RequestCardIssuance(r.Context(), middleware.UserEmail(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, req)
}

// RequestCardBlock files a pending BLOCK_CARD request
func (h *Handler) RequestCardBlock(w http.ResponseWriter, r *http.Request) {
	var body blockCardRequest
	if !h.decode(w, r, &body) {
		return
	}

	req, err := h.svc.RequestCardBlock(r.Context(), middleware.UserEmail(r.Context()), body.CardNumber)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, req)
}

// DecideRequest approves or rejects a pending request (admin only)
func (h *Handler) DecideRequest(w http.ResponseWriter, r *http.Request) {
	requestID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var body decideRequest
	if !h.decode(w, r, &body) {
		return
	}

	req, err := h.svc.SetRequestStatus(r.Context(), requestID, body.Status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, req)
}

// ListRequests returns the acting user's card requests, filtered
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	h.listRequests(w, r, middleware.UserEmail(r.Context()))
}

// ListAllRequests returns card requests of all users (admin only)
func (h *Handler) ListAllRequests(w http.ResponseWriter, r *http.Request) {
	h.listRequests(w, r, "")
}

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request, ownerEmail string) {
	filter, err := requestFilterFromQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	requests, err := h.svc.ListRequests(r.Context(), ownerEmail, filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, requests)
}

func requestFilterFromQuery(r *http.Request) (models.RequestFilter, error) {
	q := r.URL.Query()
	filter := models.RequestFilter{
		Type:   q.Get("type"),
		Status: q.Get("status"),
		Page:   atoiOrZero(q.Get("page")),
		Size:   atoiOrZero(q.Get("size")),
	}

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, badQuery("from")
		}
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, badQuery("to")
		}
		filter.To = &t
	}
	return filter, nil
}
