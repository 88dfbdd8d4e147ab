package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Dan9191/loan-ledger/internal/ledger"
	"github.com/Dan9191/loan-ledger/internal/models"
	"github.com/Dan9191/loan-ledger/internal/service"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// KeyRateSource provides a reference annual rate
type KeyRateSource interface {
	GetKeyRate(ctx context.Context) (decimal.Decimal, error)
}

type Handler struct {
	svc   *service.Service
	rates KeyRateSource
	now   func() time.Time
}

func NewHandler(svc *service.Service, rates KeyRateSource) *Handler {
	return &Handler{svc: svc, rates: rates, now: time.Now}
}

type loginRequest struct {
	Password string `json:"password"`
}

type paymentRequest struct {
	Amount ledger.Amount `json:"amount"`
	Date   string        `json:"date"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// Router registers public routes and wraps the rest with auth
func (h *Handler) Router(auth mux.MiddlewareFunc) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/login", h.Login).Methods("POST")

	protected := r.PathPrefix("/").Subrouter()
	protected.Use(auth)
	protected.HandleFunc("/loans", h.CreateLoan).Methods("POST")
	protected.HandleFunc("/loans", h.ListLoans).Methods("GET")
	protected.HandleFunc("/loans/{id:[0-9]+}", h.GetLoan).Methods("GET")
	protected.HandleFunc("/loans/{id:[0-9]+}/payments", h.RecordPayment).Methods("POST")
	protected.HandleFunc("/reference-rate", h.ReferenceRate).Methods("GET")
	return r
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Login exchanges the lender password for a token
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.svc.Login(req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// CreateLoan handles loan creation
func (h *Handler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req ledger.LoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	id, err := h.svc.CreateLoan(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]models.LoanID{"id": id})
}

// RecordPayment handles payment recording
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := loanID(w, r)
	if !ok {
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := h.svc.RecordPayment(r.Context(), id, string(req.Amount), req.Date); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetLoan returns one loan with interest due as of ?as_of or today
func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	id, ok := loanID(w, r)
	if !ok {
		return
	}
	asOf, ok := h.referenceDate(w, r)
	if !ok {
		return
	}

	view, err := h.svc.GetLoanView(r.Context(), id, asOf)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ListLoans returns every loan with interest due as of ?as_of or today
func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	asOf, ok := h.referenceDate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.ListLoanViews(r.Context(), asOf))
}

// ReferenceRate returns the central bank key rate
func (h *Handler) ReferenceRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.rates.GetKeyRate(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "failed to get key rate: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"key_rate": rate})
}

func (h *Handler) referenceDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return h.now(), true
	}
	t, err := ledger.ParseDate(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: "as_of"})
		return time.Time{}, false
	}
	return t, true
}

func loanID(w http.ResponseWriter, r *http.Request) (models.LoanID, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid loan id"})
		return 0, false
	}
	return models.LoanID(id), true
}

func writeError(w http.ResponseWriter, err error) {
	var verr *ledger.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Field: verr.Field})
	case errors.Is(err, ledger.ErrLoanNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
