// Package budgetapi is the HTTP client for the budget API consumed by the
// dashboard. It performs a single attempt per call: no retry, no cache and no
// client-side timeout beyond the caller's context.
package budgetapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"budgetboard/internal/core"
	applog "budgetboard/internal/log"
)

const (
	fallbackSaveIncome    = "Failed to save income"
	fallbackAddExpense    = "Failed to add expense"
	fallbackDeleteExpense = "Failed to delete expense"
	fallbackFetch         = "Failed to load dashboard data"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// ExpenseInput carries the expense form values as typed by the user. Amount
// and Date are forwarded untouched; the server validates them.
type ExpenseInput struct {
	Description string `json:"description"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
}

type incomeRequest struct {
	Amount core.Decimal `json:"amount"`
	Month  int          `json:"month"`
	Year   int          `json:"year"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Client talks to the budget API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *applog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for response logging.
func WithLogger(logger *applog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.WithComponent(applog.ComponentAPIClient)
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base URL scheme %q", u.Scheme)
	}
	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{},
		logger:     applog.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SaveIncome upserts the income of period p.
func (c *Client) SaveIncome(ctx context.Context, amount core.Decimal, p core.Period) error {
	body := incomeRequest{Amount: amount, Month: p.Month, Year: p.Year}
	resp, err := c.do(ctx, http.MethodPost, "/api/income", body)
	if err != nil {
		return fmt.Errorf("save income: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if !success(resp) {
		return newAPIError(applog.OpSaveIncome, resp.StatusCode, raw, fallbackSaveIncome)
	}
	c.logger.Debug("Income saved",
		applog.FieldPeriod, p.String(),
		"response", string(bytes.TrimSpace(raw)))
	return nil
}

// AddExpense creates an expense. The created record is returned when the
// server echoes it; a success without a decodable record returns nil.
func (c *Client) AddExpense(ctx context.Context, in ExpenseInput) (*core.Expense, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/expense", in)
	if err != nil {
		return nil, fmt.Errorf("add expense: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("add expense: read response: %w", err)
	}
	if !success(resp) {
		return nil, newAPIError(applog.OpAddExpense, resp.StatusCode, raw, fallbackAddExpense)
	}

	var created struct {
		Expense *core.Expense `json:"expense"`
	}
	if err := json.Unmarshal(raw, &created); err != nil {
		c.logger.Warn("Unexpected add expense response", applog.FieldError, err)
		return nil, nil
	}
	return created.Expense, nil
}

// DeleteExpense deletes an expense by id. Success is signalled by status only.
func (c *Client) DeleteExpense(ctx context.Context, id int64) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/expense/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	defer resp.Body.Close()

	if !success(resp) {
		raw, _ := io.ReadAll(resp.Body)
		return newAPIError(applog.OpDeleteExpense, resp.StatusCode, raw, fallbackDeleteExpense)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// FetchSummary returns the server-computed summary of period p.
func (c *Client) FetchSummary(ctx context.Context, p core.Period) (core.Summary, error) {
	var summary core.Summary
	if err := c.getJSON(ctx, applog.OpSummary, periodPath("/api/summary", p), &summary); err != nil {
		return core.Summary{}, fmt.Errorf("fetch summary: %w", err)
	}
	return summary, nil
}

// FetchExpenses returns the expenses of period p in server order.
func (c *Client) FetchExpenses(ctx context.Context, p core.Period) ([]core.Expense, error) {
	var expenses []core.Expense
	if err := c.getJSON(ctx, applog.OpListExpenses, periodPath("/api/expenses", p), &expenses); err != nil {
		return nil, fmt.Errorf("fetch expenses: %w", err)
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	return expenses, nil
}

// Ping checks that the API answers its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if !success(resp) {
		return fmt.Errorf("health check: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !success(resp) {
		raw, _ := io.ReadAll(resp.Body)
		return newAPIError(op, resp.StatusCode, raw, fallbackFetch)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("API call",
		applog.FieldMethod, method,
		applog.FieldPath, path,
		applog.FieldStatusCode, resp.StatusCode)
	return resp, nil
}

func periodPath(prefix string, p core.Period) string {
	return fmt.Sprintf("%s/%d/%d", prefix, p.Year, p.Month)
}

func success(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func newAPIError(op string, status int, raw []byte, fallback string) *APIError {
	msg := fallback
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil && strings.TrimSpace(body.Error) != "" {
		msg = body.Error
	}
	return &APIError{Op: op, StatusCode: status, Message: msg}
}
