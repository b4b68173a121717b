package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/cardvault/card-service/internal/apperrors"
	"github.com/cardvault/card-service/internal/middleware"
	"github.com/cardvault/card-service/internal/models"
)

func badQuery(param string) error {
	return apperrors.Newf(apperrors.KindValidation, "invalid query parameter: %s", param)
}

type transferRequest struct {
	FromCardID int64           `json:"from_card_id"`
	ToCardID   int64           `json:"to_card_id"`
	Amount     decimal.Decimal `json:"amount"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Transfer moves money between two of the acting user's cards
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !h.decode(w, r, &req) {
		return
	}

	record, err := h.svc.Transfer(r.Context(), req.FromCardID, req.ToCardID, req.Amount,
		middleware.UserEmail(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, record)
}

// Debit withdraws money from one of the acting user's cards
func (h *Handler) Debit(w http.ResponseWriter, r *http.Request) {
	cardID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req amountRequest
	if !h.decode(w, r, &req) {
		return
	}

	record, err := h.svc.Debit(r.Context(), cardID, req.Amount, middleware.UserEmail(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, record)
}

// TopUp deposits money onto one of the acting user's cards
func (h *Handler) TopUp(w http.ResponseWriter, r *http.Request) {
	cardID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req amountRequest
	if !h.decode(w, r, &req) {
		return
	}

	record, err := h.svc.TopUp(r.Context(), cardID, req.Amount, middleware.UserEmail(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, record)
}

// ListTransactions returns the acting user's transactions, filtered
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	h.listTransactions(w, r, middleware.UserEmail(r.Context()))
}

// ListAllTransactions returns transactions of all users (admin only)
func (h *Handler) ListAllTransactions(w http.ResponseWriter, r *http.Request) {
	h.listTransactions(w, r, "")
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request, ownerEmail string) {
	filter, err := transactionFilterFromQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	views, err := h.svc.ListTransactions(r.Context(), ownerEmail, filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, views)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func transactionFilterFromQuery(r *http.Request) (models.TransactionFilter, error) {
	q := r.URL.Query()
	filter := models.TransactionFilter{
		Type: q.Get("type"),
		Page: atoiOrZero(q.Get("page")),
		Size: atoiOrZero(q.Get("size")),
	}

	if v := q.Get("min_amount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return filter, badQuery("min_amount")
		}
		filter.MinAmount = &d
	}
	if v := q.Get("max_amount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return filter, badQuery("max_amount")
		}
		filter.MaxAmount = &d
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
	if v := q.Get("card_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, badQuery("card_id")
		}
		filter.CardID = &id
	}
	return filter, nil
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
