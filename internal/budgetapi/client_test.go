package budgetapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetboard/internal/core"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

type fakeServer struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  http.HandlerFunc
}

func newFakeServer(t *testing.T, handler http.HandlerFunc) (*fakeServer, *Client) {
	t.Helper()
	fs := &fakeServer{handler: handler}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fs.mu.Lock()
		fs.requests = append(fs.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		fs.mu.Unlock()
		fs.handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := New(srv.URL)
	require.NoError(t, err)
	return fs, client
}

func (f *fakeServer) Requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{"http", "http://localhost:5000", false},
		{"https with trailing slash", "https://budget.example.com/", false},
		{"missing scheme", "localhost:5000", true},
		{"unsupported scheme", "ftp://example.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.baseURL)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClient_SaveIncome(t *testing.T) {
	fs, client := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "Income saved", "income": 2500.5})
	})

	err := client.SaveIncome(context.Background(), core.MustDecimal("2500.50"), core.NewPeriod(2025, 3))
	require.NoError(t, err)

	reqs := fs.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/api/income", reqs[0].Path)
	assert.JSONEq(t, `{"amount": 2500.5, "month": 3, "year": 2025}`, reqs[0].Body)
}

func TestClient_SaveIncomeServerError(t *testing.T) {
	_, client := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := client.SaveIncome(context.Background(), core.DecimalFromInt(10), core.NewPeriod(2025, 3))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "Failed to save income", apiErr.Message)
}

func TestClient_AddExpense(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		response    string
		wantErr     string
		wantExpense bool
	}{
		{
			name:        "created",
			status:      http.StatusCreated,
			response:    `{"message":"Expense added","expense":{"id":7,"date":"2025-03-14","category":"Food","description":"","amount":12.5}}`,
			wantExpense: true,
		},
		{
			name:     "server message",
			status:   http.StatusBadRequest,
			response: `{"error":"Missing required fields"}`,
			wantErr:  "Missing required fields",
		},
		{
			name:     "fallback message",
			status:   http.StatusBadGateway,
			response: `<html>bad gateway</html>`,
			wantErr:  "Failed to add expense",
		},
		{
			name:     "empty error field uses fallback",
			status:   http.StatusBadRequest,
			response: `{"error":""}`,
			wantErr:  "Failed to add expense",
		},
		{
			name:     "success without record",
			status:   http.StatusOK,
			response: `not json`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, client := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.response)
			})

			in := ExpenseInput{Category: "Food", Amount: "12,50", Date: "2025-03-14"}
			expense, err := client.AddExpense(context.Background(), in)

			reqs := fs.Requests()
			require.Len(t, reqs, 1)
			assert.JSONEq(t, `{"description":"","category":"Food","amount":"12,50","date":"2025-03-14"}`, reqs[0].Body)

			if tt.wantErr != "" {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.wantErr, apiErr.Message)
				assert.Equal(t, tt.status, apiErr.StatusCode)
				return
			}
			require.NoError(t, err)
			if tt.wantExpense {
				require.NotNil(t, expense)
				assert.Equal(t, int64(7), expense.ID)
				assert.True(t, expense.Amount.Equal(core.MustDecimal("12.5")))
			} else {
				assert.Nil(t, expense)
			}
		})
	}
}

func TestClient_DeleteExpense(t *testing.T) {
	fs, client := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.DeleteExpense(context.Background(), 42))

	reqs := fs.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodDelete, reqs[0].Method)
	assert.Equal(t, "/api/expense/42", reqs[0].Path)
}

func TestClient_FetchSummary(t *testing.T) {
	fs, client := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"income":1000,"total_expenses":1200,"balance":-200,"percentage":120,"category_data":{"Rent":900,"Food":300}}`)
	})

	summary, err := client.FetchSummary(context.Background(), core.NewPeriod(2025, 3))
	require.NoError(t, err)

	assert.Equal(t, "/api/summary/2025/3", fs.Requests()[0].Path)
	assert.True(t, summary.Balance.Equal(core.DecimalFromInt(-200)))
	require.Len(t, summary.CategoryData, 2)
	assert.Equal(t, "Rent", summary.CategoryData[0].Name)
	assert.Equal(t, "Food", summary.CategoryData[1].Name)
	assert.True(t, summary.Overspent())
}

func TestClient_FetchExpenses(t *testing.T) {
	t.Run("keeps server order", func(t *testing.T) {
		fs, client := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `[{"id":2,"date":"2025-03-20","category":"Food","description":"","amount":5},{"id":1,"date":"2025-03-01","category":"Rent","description":"March","amount":900}]`)
		})

		expenses, err := client.FetchExpenses(context.Background(), core.NewPeriod(2025, 3))
		require.NoError(t, err)
		assert.Equal(t, "/api/expenses/2025/3", fs.Requests()[0].Path)
		require.Len(t, expenses, 2)
		assert.Equal(t, int64(2), expenses[0].ID)
		assert.Equal(t, int64(1), expenses[1].ID)
	})

	t.Run("null body is an empty list", func(t *testing.T) {
		_, client := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `null`)
		})

		expenses, err := client.FetchExpenses(context.Background(), core.NewPeriod(2025, 3))
		require.NoError(t, err)
		assert.NotNil(t, expenses)
		assert.Empty(t, expenses)
	})

	t.Run("malformed body", func(t *testing.T) {
		_, client := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"oops"`)
		})

		_, err := client.FetchExpenses(context.Background(), core.NewPeriod(2025, 3))
		require.Error(t, err)
		assert.False(t, isAPIError(err))
	})
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	client, err := New(srv.URL)
	require.NoError(t, err)
	srv.Close()

	_, err = client.FetchSummary(context.Background(), core.NewPeriod(2025, 1))
	require.Error(t, err)
	assert.False(t, isAPIError(err))
}

func TestClient_ContextCanceled(t *testing.T) {
	_, client := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchExpenses(ctx, core.NewPeriod(2025, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClient_Ping(t *testing.T) {
	healthy := true
	fs, client := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		if healthy {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	require.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, "/healthz", fs.Requests()[0].Path)

	healthy = false
	assert.Error(t, client.Ping(context.Background()))
}

type countingTransport struct {
	calls int
	next  http.RoundTripper
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.calls++
	return c.next.RoundTrip(r)
}

func TestClient_WithHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{})
	}))
	t.Cleanup(srv.Close)

	transport := &countingTransport{next: http.DefaultTransport}
	client, err := New(srv.URL, WithHTTPClient(&http.Client{Transport: transport}))
	require.NoError(t, err)

	_, err = client.FetchExpenses(context.Background(), core.NewPeriod(2025, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, transport.calls)
}

func isAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
