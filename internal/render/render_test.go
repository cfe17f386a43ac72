package render

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetboard/internal/core"
)

func totals(pairs ...any) core.CategoryTotals {
	var out core.CategoryTotals
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, core.CategoryAmount{
			Name:   pairs[i].(string),
			Amount: core.MustDecimal(pairs[i+1].(string)),
		})
	}
	return out
}

func TestCanvas_RenderReplacesPreviousChart(t *testing.T) {
	canvas := NewCanvas("expensePieChart")

	first := canvas.Render(totals("Food", "120"))
	require.NotNil(t, first)
	second := canvas.Render(totals("Rent", "900"))
	require.NotNil(t, second)

	assert.Equal(t, 1, canvas.Attached())
	assert.True(t, first.Destroyed())
	assert.False(t, second.Destroyed())
	assert.Same(t, second, canvas.Current())
}

func TestCanvas_RenderEmptyClears(t *testing.T) {
	canvas := NewCanvas("expensePieChart")
	chart := canvas.Render(totals("Food", "120"))

	assert.Nil(t, canvas.Render(nil))
	assert.True(t, chart.Destroyed())
	assert.Equal(t, 0, canvas.Attached())
	assert.Nil(t, canvas.Current())
}

func TestCanvas_ConcurrentRenders(t *testing.T) {
	canvas := NewCanvas("expensePieChart")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			canvas.Render(totals("Food", "1"))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, canvas.Attached())
}

func TestNewChart_Segments(t *testing.T) {
	chart := NewChart(totals("Food", "120", "Transport", "30"))

	require.Len(t, chart.Segments, 2)
	assert.True(t, chart.Total.Equal(core.DecimalFromInt(150)))

	assert.Equal(t, "Food", chart.Segments[0].Label)
	assert.InDelta(t, 0.8, chart.Segments[0].Share, 1e-9)
	assert.InDelta(t, 0.2, chart.Segments[1].Share, 1e-9)
	assert.Equal(t, "80.0%", chart.Segments[0].SharePercent())

	var arc float64
	for _, s := range chart.Segments {
		arc += s.Length
	}
	assert.InDelta(t, Circumference, arc, 1e-9)
	assert.InDelta(t, chart.Segments[0].Length, chart.Segments[1].Offset, 1e-9)
}

func TestNewChart_PaletteCycles(t *testing.T) {
	var data core.CategoryTotals
	for i := 0; i < len(Palette)+2; i++ {
		data = append(data, core.CategoryAmount{Name: string(rune('A' + i)), Amount: core.DecimalFromInt(1)})
	}

	chart := NewChart(data)

	assert.Equal(t, Palette[0], chart.Segments[0].Color)
	assert.Equal(t, Palette[0], chart.Segments[len(Palette)].Color)
	assert.Equal(t, Palette[1], chart.Segments[len(Palette)+1].Color)
}

func TestNewChart_NonPositiveAmountsHaveNoArc(t *testing.T) {
	chart := NewChart(totals("Refund", "-20", "Food", "40"))

	require.Len(t, chart.Segments, 2)
	assert.Zero(t, chart.Segments[0].Length)
	assert.InDelta(t, 1.0, chart.Segments[1].Share, 1e-9)
}

func TestSegment_DashArray(t *testing.T) {
	s := Segment{Length: Circumference / 4, Offset: Circumference / 2}

	assert.True(t, strings.HasPrefix(s.DashArray(), formatFloat(Circumference/4)+" "))
	assert.Equal(t, formatFloat(-Circumference/2), s.DashOffset())
}

func TestExpenseTable(t *testing.T) {
	f := DefaultNumberFormat()

	t.Run("empty list has one placeholder row", func(t *testing.T) {
		table := ExpenseTable(nil, f)

		assert.True(t, table.Empty())
		assert.Equal(t, 1, table.RowCount())
		assert.Equal(t, 5, table.ColSpan)
		assert.Equal(t, "No expenses found for this month", table.Placeholder)
	})

	t.Run("rows keep order and fill blanks", func(t *testing.T) {
		expenses := []core.Expense{
			{ID: 2, Date: core.NewDate(2025, 3, 20), Category: "Food", Amount: core.MustDecimal("1234.5")},
			{ID: 1, Date: core.NewDate(2025, 3, 1), Category: "Rent", Description: "March", Amount: core.DecimalFromInt(900)},
		}

		table := ExpenseTable(expenses, f)

		require.Len(t, table.Rows, 2)
		assert.Equal(t, Row{ID: 2, Date: "2025-03-20", Category: "Food", Description: "-", Amount: "$1,234.5"}, table.Rows[0])
		assert.Equal(t, "March", table.Rows[1].Description)
		assert.Equal(t, "$900", table.Rows[1].Amount)
	})
}

func TestNumberFormat(t *testing.T) {
	f := DefaultNumberFormat()

	tests := []struct {
		name  string
		value string
		fn    func(core.Decimal) string
		want  string
	}{
		{"grouping", "1234567", f.Number, "1,234,567"},
		{"fraction", "1234.5", f.Number, "1,234.5"},
		{"rounds to three digits", "0.12345", f.Number, "0.123"},
		{"negative", "-200", f.Number, "-200"},
		{"currency", "12.5", f.Currency, "$12.5"},
		{"negative currency", "-12.5", f.Currency, "-$12.5"},
		{"percent", "120", f.Percent, "120.00%"},
		{"percent rounding", "33.33333", f.Percent, "33.33%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn(core.MustDecimal(tt.value)))
		})
	}
}

func TestNewNumberFormat(t *testing.T) {
	f, err := NewNumberFormat("de-DE", "€")
	require.NoError(t, err)
	assert.Equal(t, "€1.234,5", f.Currency(core.MustDecimal("1234.5")))

	_, err = NewNumberFormat("not a locale!", "$")
	assert.Error(t, err)
}
