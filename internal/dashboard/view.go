package dashboard

import (
	"sync"
	"time"

	"budgetboard/internal/core"
	"budgetboard/internal/render"
)

// ElementIDs names the page elements the dashboard binds to.
type ElementIDs struct {
	Period             string
	ExpenseDate        string
	IncomeInput        string
	ExpenseDescription string
	ExpenseCategory    string
	ExpenseAmount      string
	Income             string
	Spent              string
	Balance            string
	Percent            string
	Chart              string
	TableBody          string
}

// IDs is the markup contract shared by templates, handlers and scripts.
var IDs = ElementIDs{
	Period:             "incomeMonth",
	ExpenseDate:        "expDate",
	IncomeInput:        "incomeInput",
	ExpenseDescription: "expDesc",
	ExpenseCategory:    "expCat",
	ExpenseAmount:      "expAmt",
	Income:             "dispincome",
	Spent:              "dispSpent",
	Balance:            "dispBalance",
	Percent:            "dispPercent",
	Chart:              "expensePieChart",
	TableBody:          "expenseTableBody",
}

// ExpenseDraft holds the expense form fields as typed.
type ExpenseDraft struct {
	Description string
	Category    string
	Amount      string
	Date        string
}

// Stats are the formatted stat displays.
type Stats struct {
	Income  string
	Spent   string
	Balance string
	Percent string
	// Warning marks the spent display when spending exceeds a positive income.
	Warning bool
}

// View is the state of one dashboard: the selected period, the form inputs
// and the rendered displays. It owns its chart canvas.
type View struct {
	mu sync.Mutex

	period      core.Period
	incomeInput string
	draft       ExpenseDraft

	stats       Stats
	table       render.Table
	canvas      *render.Canvas
	loaded      bool
	refreshedAt time.Time

	// generation of the most recently started refresh
	generation uint64
}

// NewView returns a view showing the month of now, with the expense date
// defaulting to today.
func NewView(now time.Time) *View {
	return &View{
		period: core.CurrentPeriod(now),
		draft:  ExpenseDraft{Date: now.Format("2006-01-02")},
		table:  render.ExpenseTable(nil, render.DefaultNumberFormat()),
		canvas: render.NewCanvas(IDs.Chart),
	}
}

func (v *View) Period() core.Period {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.period
}

func (v *View) SetPeriod(p core.Period) {
	v.mu.Lock()
	v.period = p
	v.mu.Unlock()
}

func (v *View) SetIncomeInput(s string) {
	v.mu.Lock()
	v.incomeInput = s
	v.mu.Unlock()
}

func (v *View) Draft() ExpenseDraft {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.draft
}

func (v *View) SetDraft(d ExpenseDraft) {
	v.mu.Lock()
	v.draft = d
	v.mu.Unlock()
}

// ResetDraft clears description and amount. Category and date are kept for
// repeated entry.
func (v *View) ResetDraft() {
	v.mu.Lock()
	v.draft.Description = ""
	v.draft.Amount = ""
	v.mu.Unlock()
}

// Canvas returns the chart canvas owned by the view.
func (v *View) Canvas() *render.Canvas {
	return v.canvas
}

func (v *View) beginRefresh() (uint64, core.Period) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.period.IsZero() {
		return 0, core.Period{}
	}
	v.generation++
	return v.generation, v.period
}

func (v *View) isCurrent(gen uint64) bool {
	return gen == v.generation
}

// superseded reports whether a newer refresh than gen has started.
func (v *View) superseded(gen uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.isCurrent(gen)
}

func (v *View) commitSummary(gen uint64, stats Stats, data core.CategoryTotals) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.isCurrent(gen) {
		return false
	}
	v.stats = stats
	v.canvas.Render(data)
	v.loaded = true
	v.refreshedAt = time.Now()
	return true
}

func (v *View) commitTable(gen uint64, table render.Table) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.isCurrent(gen) {
		return false
	}
	v.table = table
	return true
}

// Snapshot is an immutable copy of a view for rendering.
type Snapshot struct {
	IDs         ElementIDs
	Period      core.Period
	IncomeInput string
	Draft       ExpenseDraft
	Stats       Stats
	Segments    []render.Segment
	ChartTotal  core.Decimal
	HasChart    bool
	Donut       render.Geometry
	EmptyChart  string
	Table       render.Table
	Loaded      bool
	RefreshedAt time.Time
}

// PeriodValue is the period in month selector form ("2025-03").
func (s Snapshot) PeriodValue() string {
	return s.Period.String()
}

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	snap := Snapshot{
		IDs:         IDs,
		Period:      v.period,
		IncomeInput: v.incomeInput,
		Draft:       v.draft,
		Stats:       v.stats,
		Donut:       render.DonutGeometry(),
		EmptyChart:  render.EmptyChartMessage,
		Table:       v.table,
		Loaded:      v.loaded,
		RefreshedAt: v.refreshedAt,
	}
	snap.Table.Rows = append([]render.Row(nil), v.table.Rows...)
	if chart := v.canvas.Current(); chart != nil {
		snap.HasChart = true
		snap.Segments = append([]render.Segment(nil), chart.Segments...)
		snap.ChartTotal = chart.Total
	}
	return snap
}
