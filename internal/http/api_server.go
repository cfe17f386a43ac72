package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"budgetboard/internal/core"
	applog "budgetboard/internal/log"
	"budgetboard/internal/middleware/security"
	"budgetboard/internal/middleware/trace"
)

// Ledger is the ledger service the API exposes.
type Ledger interface {
	SaveIncome(ctx context.Context, in core.Income) (core.Income, error)
	AddExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
	ListExpenses(ctx context.Context, p core.Period) ([]core.Expense, error)
	Summary(ctx context.Context, p core.Period) (core.Summary, error)
}

const msgMissingFields = "Missing required fields"

// APIServer serves the JSON budget API the dashboard consumes.
type APIServer struct {
	http.Server
	ledger Ledger
	ready  func(ctx context.Context) error
	logger *applog.Logger
}

// NewAPIServer wires the API routes. ready may be nil.
func NewAPIServer(addr string, ledger Ledger, ready func(ctx context.Context) error, logger *applog.Logger) (*APIServer, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentAPI)

	resolver, err := security.NewClientIPResolver()
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	s := &APIServer{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ledger: ledger,
		ready:  ready,
		logger: logger,
	}

	mux.HandleFunc("POST /api/income", s.handleSaveIncome)
	mux.HandleFunc("POST /api/expense", s.handleAddExpense)
	mux.HandleFunc("DELETE /api/expense/{id}", s.handleDeleteExpense)
	mux.HandleFunc("GET /api/expenses/{year}/{month}", s.handleListExpenses)
	mux.HandleFunc("GET /api/summary/{year}/{month}", s.handleSummary)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	headers := security.NewHeadersMiddleware(security.APIHeadersConfig()).Middleware(mux)
	s.Handler = trace.NewMiddleware(logger, resolver.ClientIP).Middleware(headers)
	return s, nil
}

func (s *APIServer) handleSaveIncome(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeJSONError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !p.Has("amount") || !p.Has("month") || !p.Has("year") {
		writeJSONError(w, r, http.StatusBadRequest, msgMissingFields)
		return
	}

	month, errM := strconv.Atoi(p.Get("month"))
	year, errY := strconv.Atoi(p.Get("year"))
	if errM != nil || errY != nil {
		writeJSONError(w, r, http.StatusBadRequest, "month and year must be integers")
		return
	}
	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		writeJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := s.ledger.SaveIncome(r.Context(), core.Income{Amount: amount, Month: month, Year: year})
	if err != nil {
		s.writeLedgerError(w, r, applog.OpSaveIncome, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"message": "Income saved successfully",
		"amount":  saved.Amount,
	})
}

func (s *APIServer) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeJSONError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !p.Has("category") || !p.Has("amount") || !p.Has("date") {
		writeJSONError(w, r, http.StatusBadRequest, msgMissingFields)
		return
	}

	date, err := core.ParseDate(p.Get("date"))
	if err != nil {
		writeJSONError(w, r, http.StatusBadRequest, core.ErrInvalidDate.Error())
		return
	}
	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		writeJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.ledger.AddExpense(r.Context(), core.Expense{
		Date:        date,
		Category:    p.Get("category"),
		Description: p.Get("description"),
		Amount:      amount,
	})
	if err != nil {
		s.writeLedgerError(w, r, applog.OpAddExpense, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"message": "Expense added successfully",
		"expense": created,
	})
}

func (s *APIServer) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := ParsePathID(r)
	if err != nil {
		writeJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.ledger.DeleteExpense(r.Context(), id); err != nil {
		s.writeLedgerError(w, r, applog.OpDeleteExpense, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "Expense deleted"})
}

func (s *APIServer) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePathPeriod(r)
	if err != nil {
		writeJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	expenses, err := s.ledger.ListExpenses(r.Context(), period)
	if err != nil {
		s.writeLedgerError(w, r, applog.OpListExpenses, err)
		return
	}
	writeJSON(w, r, http.StatusOK, expenses)
}

func (s *APIServer) handleSummary(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePathPeriod(r)
	if err != nil {
		writeJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := s.ledger.Summary(r.Context(), period)
	if err != nil {
		s.writeLedgerError(w, r, applog.OpSummary, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *APIServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "not_ready", "storage": err.Error()})
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// validationErrors are reported to the client as 400 with their message.
var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrInvalidMonth,
	core.ErrInvalidYear,
	core.ErrInvalidDate,
	core.ErrEmptyCategory,
	core.ErrCategoryTooLong,
	core.ErrDescriptionTooLong,
}

func (s *APIServer) writeLedgerError(w http.ResponseWriter, r *http.Request, op string, err error) {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			writeJSONError(w, r, http.StatusBadRequest, target.Error())
			return
		}
	}
	applog.FromContext(r.Context()).ErrorOp(r.Context(), "Ledger operation failed", op, err)
	writeJSONError(w, r, http.StatusInternalServerError, err.Error())
}
