package render

import (
	"strings"

	"budgetboard/internal/core"
)

const (
	// TableColumns is the column count of the expense table.
	TableColumns = 5

	EmptyTableMessage = "No expenses found for this month"
	EmptyChartMessage = "No expenses recorded for this month"
)

// Row is one displayed expense.
type Row struct {
	ID          int64
	Date        string
	Category    string
	Description string
	Amount      string
}

// Table is the expense table body. A table without expenses has exactly one
// placeholder row spanning every column.
type Table struct {
	Rows        []Row
	Placeholder string
	ColSpan     int
}

// Empty reports whether the table shows the placeholder row.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// RowCount is the number of rendered rows, placeholder included.
func (t Table) RowCount() int {
	if t.Empty() {
		return 1
	}
	return len(t.Rows)
}

// ExpenseTable builds the table in the given order.
func ExpenseTable(expenses []core.Expense, f *NumberFormat) Table {
	if len(expenses) == 0 {
		return Table{Placeholder: EmptyTableMessage, ColSpan: TableColumns}
	}
	rows := make([]Row, 0, len(expenses))
	for _, e := range expenses {
		desc := strings.TrimSpace(e.Description)
		if desc == "" {
			desc = "-"
		}
		rows = append(rows, Row{
			ID:          e.ID,
			Date:        e.Date.String(),
			Category:    e.Category,
			Description: desc,
			Amount:      f.Currency(e.Amount),
		})
	}
	return Table{Rows: rows, ColSpan: TableColumns}
}
