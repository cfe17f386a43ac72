package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetboard/internal/core"
	"budgetboard/internal/ledger"
	applog "budgetboard/internal/log"
	"budgetboard/internal/storage/memory"
)

func newTestAPI(t *testing.T) *APIServer {
	t.Helper()
	svc := ledger.NewService(memory.New(), nil, applog.Discard())
	srv, err := NewAPIServer(":0", svc, nil, applog.Discard())
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var out map[string]interface{}
	if strings.HasPrefix(strings.TrimSpace(rr.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	}
	return rr, out
}

func TestAPI_SaveIncome(t *testing.T) {
	srv := newTestAPI(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"missing year", `{"amount": 100, "month": 3}`, http.StatusBadRequest, msgMissingFields},
		{"month not integer", `{"amount": 100, "month": "March", "year": 2025}`, http.StatusBadRequest, "month and year must be integers"},
		{"bad amount", `{"amount": "lots", "month": 3, "year": 2025}`, http.StatusBadRequest, "invalid amount"},
		{"month out of range", `{"amount": 100, "month": 13, "year": 2025}`, http.StatusBadRequest, "invalid month"},
		{"malformed", `{"amount":`, http.StatusBadRequest, "Invalid request body"},
		{"ok", `{"amount": 2500.50, "month": 3, "year": 2025}`, http.StatusOK, ""},
		{"upsert", `{"amount": "3000", "month": 3, "year": 2025}`, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, body := doJSON(t, srv.Handler, http.MethodPost, "/api/income", tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
				return
			}
			assert.Equal(t, "Income saved successfully", body["message"])
		})
	}

	_, summary := doJSON(t, srv.Handler, http.MethodGet, "/api/summary/2025/3", "")
	assert.Equal(t, 3000.0, summary["income"])
}

func TestAPI_ExpenseLifecycle(t *testing.T) {
	srv := newTestAPI(t)
	h := srv.Handler

	rr, body := doJSON(t, h, http.MethodPost, "/api/expense", `{"category": "Food", "amount": "12.50"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, msgMissingFields, body["error"])

	rr, body = doJSON(t, h, http.MethodPost, "/api/expense", `{"category": "Food", "amount": 12.5, "date": "2025-13-01"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid date", body["error"])

	rr, body = doJSON(t, h, http.MethodPost, "/api/expense", `{"category": "  ", "amount": 12.5, "date": "2025-03-01"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "empty category", body["error"])

	for _, in := range []string{
		`{"category": "Food", "amount": 120, "date": "2025-03-02", "description": "groceries"}`,
		`{"category": "Transport", "amount": 30, "date": "2025-03-05"}`,
		`{"category": "Food", "amount": 5, "date": "2025-04-01"}`,
	} {
		rr, body = doJSON(t, h, http.MethodPost, "/api/expense", in)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, "Expense added successfully", body["message"])
		require.IsType(t, map[string]interface{}{}, body["expense"])
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/expenses/2025/3", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list []core.Expense
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "2025-03-05", list[0].Date.String(), "newest first")
	assert.Equal(t, "groceries", list[1].Description)

	_, summary := doJSON(t, h, http.MethodGet, "/api/summary/2025/3", "")
	assert.Equal(t, 150.0, summary["total_expenses"])
	assert.Equal(t, -150.0, summary["balance"])
	assert.Equal(t, 0.0, summary["percentage"])
	assert.Equal(t, map[string]interface{}{"Food": 120.0, "Transport": 30.0}, summary["category_data"])

	rr, body = doJSON(t, h, http.MethodDelete, "/api/expense/"+strconv.FormatInt(list[0].ID, 10), "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Expense deleted", body["message"])

	rr, _ = doJSON(t, h, http.MethodDelete, "/api/expense/9999", "")
	assert.Equal(t, http.StatusOK, rr.Code, "deleting an unknown id is not an error")

	rr, _ = doJSON(t, h, http.MethodGet, "/api/expenses/2025/13", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPI_EmptyListIsArray(t *testing.T) {
	srv := newTestAPI(t)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/expenses/2024/1", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

type failingLedger struct{ Ledger }

func (failingLedger) Summary(context.Context, core.Period) (core.Summary, error) {
	return core.Summary{}, errors.New("database is locked")
}

func TestAPI_StorageFailure(t *testing.T) {
	srv, err := NewAPIServer(":0", failingLedger{}, func(context.Context) error { return errors.New("down") }, nil)
	require.NoError(t, err)

	rr, body := doJSON(t, srv.Handler, http.MethodGet, "/api/summary/2025/3", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "database is locked", body["error"])

	rr, body = doJSON(t, srv.Handler, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "not_ready", body["status"])
}
