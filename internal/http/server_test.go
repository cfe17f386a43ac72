package http

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetboard/internal/budgetapi"
	"budgetboard/internal/core"
	"budgetboard/internal/dashboard"
	applog "budgetboard/internal/log"
)

type fakeBudgetAPI struct {
	mu         sync.Mutex
	incomes    int
	added      []budgetapi.ExpenseInput
	deleted    []int64
	summary    core.Summary
	expenses   []core.Expense
	saveErr    error
	addErr     error
	summaryErr error
}

func (f *fakeBudgetAPI) SaveIncome(context.Context, core.Decimal, core.Period) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incomes++
	return f.saveErr
}

func (f *fakeBudgetAPI) AddExpense(_ context.Context, in budgetapi.ExpenseInput) (*core.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, in)
	if f.addErr != nil {
		return nil, f.addErr
	}
	return &core.Expense{ID: 99, Category: in.Category}, nil
}

func (f *fakeBudgetAPI) DeleteExpense(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBudgetAPI) FetchSummary(context.Context, core.Period) (core.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summary, f.summaryErr
}

func (f *fakeBudgetAPI) FetchExpenses(context.Context, core.Period) ([]core.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.expenses, nil
}

var marchNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func marchSummary() core.Summary {
	return core.Summary{
		Income:        core.DecimalFromInt(1000),
		TotalExpenses: core.DecimalFromInt(1200),
		Balance:       core.DecimalFromInt(-200),
		Percentage:    core.DecimalFromInt(120),
		CategoryData: core.CategoryTotals{
			{Name: "Food", Amount: core.DecimalFromInt(120)},
			{Name: "Transport", Amount: core.DecimalFromInt(30)},
		},
	}
}

// browser replays the session cookie like a real browser would.
type browser struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func (b *browser) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("HX-Request", "true")
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	b.handler.ServeHTTP(rr, req)
	if set := rr.Result().Cookies(); len(set) > 0 {
		b.cookies = set
	}
	return rr
}

func newTestServer(t *testing.T, api *fakeBudgetAPI, rateLimit int) (*Server, *browser) {
	t.Helper()
	logger := applog.Discard()
	controller := dashboard.NewController(api, dashboard.NewRefresher(api, nil, logger), logger)
	srv, err := NewServer(ServerConfig{
		Addr:               ":0",
		SessionTTL:         time.Hour,
		SessionMax:         10,
		RateLimitPerMinute: rateLimit,
	}, controller, logger)
	require.NoError(t, err)
	srv.sessions.now = func() time.Time { return marchNow }
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, &browser{t: t, handler: srv.Handler}
}

func triggers(t *testing.T, rr *httptest.ResponseRecorder) map[string]map[string]interface{} {
	t.Helper()
	out := map[string]map[string]interface{}{}
	if raw := rr.Header().Get("HX-Trigger"); raw != "" {
		require.NoError(t, json.Unmarshal([]byte(raw), &out))
	}
	return out
}

func TestIndexRendersDashboard(t *testing.T) {
	api := &fakeBudgetAPI{
		summary: marchSummary(),
		expenses: []core.Expense{
			{ID: 7, Date: core.NewDate(2025, 3, 4), Category: "Food", Amount: core.MustDecimal("1234.5")},
		},
	}
	_, b := newTestServer(t, api, 60)

	rr := b.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotEmpty(t, b.cookies, "session cookie set")
	body := rr.Body.String()

	for _, id := range []string{"incomeMonth", "expDate", "incomeInput", "expDesc", "expCat", "expAmt",
		"dispincome", "dispSpent", "dispBalance", "dispPercent", "expensePieChart", "expenseTableBody"} {
		assert.Contains(t, body, `id="`+id+`"`)
	}
	assert.Contains(t, body, `value="2025-03"`)
	assert.Contains(t, body, `value="2025-03-10"`, "expense date defaults to today")
	assert.Contains(t, body, "stat-warning")
	assert.Contains(t, body, "120.00%")
	assert.Equal(t, 2, strings.Count(body, "<circle"))
	assert.Contains(t, body, "80.0%")
	assert.Contains(t, body, "$1,234.5")
	assert.Contains(t, body, `hx-delete="/ui/expense/7"`)
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "default-src 'self'")
}

func TestIndexEmptyMonth(t *testing.T) {
	_, b := newTestServer(t, &fakeBudgetAPI{}, 60)

	body := b.do(http.MethodGet, "/", nil).Body.String()
	assert.Contains(t, body, `colspan="5"`)
	assert.Contains(t, body, "No expenses found for this month")
	assert.Contains(t, body, "No expenses recorded for this month")
	assert.NotContains(t, body, "<circle")
	assert.NotContains(t, body, "stat-warning")
}

func TestSaveIncome(t *testing.T) {
	api := &fakeBudgetAPI{summary: marchSummary()}
	_, b := newTestServer(t, api, 60)

	rr := b.do(http.MethodPost, "/ui/income", url.Values{"incomeInput": {"abc"}, "incomeMonth": {"2025-03"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, dashboard.MsgInvalidIncome, triggers(t, rr)[EventShowAlert]["message"])
	assert.Zero(t, api.incomes)

	rr = b.do(http.MethodPost, "/ui/income", url.Values{"incomeInput": {"2500"}, "incomeMonth": {""}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, dashboard.MsgSelectMonth, triggers(t, rr)[EventShowAlert]["message"])

	rr = b.do(http.MethodPost, "/ui/income", url.Values{"incomeInput": {"2500"}, "incomeMonth": {"2025-03"}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, api.incomes)
	trig := triggers(t, rr)
	assert.Equal(t, []interface{}{"incomeInput"}, trig[EventFormReset]["fields"])
	assert.Equal(t, "2025-03", trig[EventDashboardRefreshed]["period"])
	assert.Contains(t, rr.Body.String(), `id="dashboard"`)
}

func TestSaveIncomeNetworkFailure(t *testing.T) {
	api := &fakeBudgetAPI{saveErr: errors.New("connection refused")}
	_, b := newTestServer(t, api, 60)

	rr := b.do(http.MethodPost, "/ui/income", url.Values{"incomeInput": {"10"}, "incomeMonth": {"2025-03"}})
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	note := triggers(t, rr)[EventShowNotification]
	assert.Equal(t, "error", note["type"])
	assert.Equal(t, dashboard.MsgSaveIncomeFailed, note["message"])
}

func TestAddExpense(t *testing.T) {
	api := &fakeBudgetAPI{}
	_, b := newTestServer(t, api, 60)

	rr := b.do(http.MethodPost, "/ui/expense", url.Values{"expCat": {"Food"}, "expAmt": {""}, "expDate": {"2025-03-01"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, dashboard.MsgMissingExpense, triggers(t, rr)[EventShowAlert]["message"])
	assert.Empty(t, api.added)

	rr = b.do(http.MethodPost, "/ui/expense", url.Values{
		"expDesc": {"lunch"}, "expCat": {"Food"}, "expAmt": {"12.50"}, "expDate": {"2025-03-01"},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, api.added, 1)
	assert.Equal(t, budgetapi.ExpenseInput{Description: "lunch", Category: "Food", Amount: "12.50", Date: "2025-03-01"}, api.added[0])
	assert.Equal(t, []interface{}{"expDesc", "expAmt"}, triggers(t, rr)[EventFormReset]["fields"])

	api.addErr = &budgetapi.APIError{Op: "add expense", StatusCode: http.StatusBadRequest, Message: "invalid date"}
	rr = b.do(http.MethodPost, "/ui/expense", url.Values{"expCat": {"Food"}, "expAmt": {"1"}, "expDate": {"2025-03-01"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "invalid date", triggers(t, rr)[EventShowAlert]["message"])
}

func TestDeleteExpenseRequiresConfirmation(t *testing.T) {
	api := &fakeBudgetAPI{}
	_, b := newTestServer(t, api, 60)

	rr := b.do(http.MethodDelete, "/ui/expense/5", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, api.deleted)

	rr = b.do(http.MethodDelete, "/ui/expense/5?confirmed=true", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []int64{5}, api.deleted)

	rr = b.do(http.MethodPost, "/ui/expense/6", url.Values{"confirmed": {"true"}})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []int64{5, 6}, api.deleted)

	rr = b.do(http.MethodDelete, "/ui/expense/abc?confirmed=true", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

var deleteButton = regexp.MustCompile(`hx-delete="([^"]+)"`)

func TestDeleteButtonFromRenderedPage(t *testing.T) {
	api := &fakeBudgetAPI{
		summary: marchSummary(),
		expenses: []core.Expense{
			{ID: 7, Date: core.NewDate(2025, 3, 4), Category: "Food", Amount: core.DecimalFromInt(12)},
		},
	}
	_, b := newTestServer(t, api, 60)

	body := b.do(http.MethodGet, "/", nil).Body.String()
	m := deleteButton.FindStringSubmatch(body)
	require.Len(t, m, 2, "delete control rendered")
	target := html.UnescapeString(m[1])
	assert.NotContains(t, body, "hx-vals", "the confirmation flag travels in the URL")

	// A declined hx-confirm sends nothing; a request without the flag deletes nothing.
	rr := b.do(http.MethodDelete, "/ui/expense/7", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, api.deleted)

	// Confirmed: htmx issues a DELETE to the rendered URL with an empty body.
	rr = b.do(http.MethodDelete, target, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []int64{7}, api.deleted)
	assert.Contains(t, rr.Body.String(), `id="dashboard"`)
}

func TestMonthChangeWithFailedRefreshKeepsLastData(t *testing.T) {
	api := &fakeBudgetAPI{summary: marchSummary()}
	_, b := newTestServer(t, api, 60)
	require.Equal(t, http.StatusOK, b.do(http.MethodGet, "/", nil).Code)

	api.summaryErr = errors.New("timeout")
	rr := b.do(http.MethodGet, "/ui/dashboard?incomeMonth=2025-02", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	note := triggers(t, rr)[EventShowNotification]
	assert.Equal(t, "warning", note["type"])
	assert.Equal(t, dashboard.MsgRefreshFailed, note["message"])
	assert.Contains(t, rr.Body.String(), "<circle", "previous chart still shown")

	rr = b.do(http.MethodGet, "/ui/dashboard?incomeMonth=2025-14", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestSessionsAreIsolated(t *testing.T) {
	srv, first := newTestServer(t, &fakeBudgetAPI{}, 60)
	second := &browser{t: t, handler: srv.Handler}

	first.do(http.MethodGet, "/ui/dashboard?incomeMonth=2024-12", nil)
	body := second.do(http.MethodGet, "/", nil).Body.String()
	assert.Contains(t, body, `data-period="2025-03"`)
	assert.Equal(t, 2, srv.sessions.Size())
}

func TestRateLimitedMutations(t *testing.T) {
	_, b := newTestServer(t, &fakeBudgetAPI{}, 1)

	b.do(http.MethodPost, "/ui/expense", url.Values{"expCat": {"Food"}, "expAmt": {"1"}, "expDate": {"2025-03-01"}})
	rr := b.do(http.MethodPost, "/ui/expense", url.Values{"expCat": {"Food"}, "expAmt": {"1"}, "expDate": {"2025-03-01"}})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "error", triggers(t, rr)[EventShowNotification]["type"])

	assert.Equal(t, http.StatusOK, b.do(http.MethodGet, "/", nil).Code, "reads are not limited")
}

func TestHealthReadyAndMetrics(t *testing.T) {
	srv, b := newTestServer(t, &fakeBudgetAPI{}, 60)

	assert.Equal(t, http.StatusOK, b.do(http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, b.do(http.MethodGet, "/readyz", nil).Code)

	srv.ready = func(context.Context) error { return errors.New("api unreachable") }
	assert.Equal(t, http.StatusServiceUnavailable, b.do(http.MethodGet, "/readyz", nil).Code)

	rr := b.do(http.MethodGet, "/metrics", nil)
	assert.Contains(t, rr.Body.String(), "http_requests_total")
	assert.Contains(t, rr.Body.String(), "dashboard_sessions")

	rr = b.do(http.MethodGet, "/static/app.js", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Cache-Control"), "max-age=3600")
}
