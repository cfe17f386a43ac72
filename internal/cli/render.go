package cli

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"budgetboard/internal/dashboard"
)

const barWidth = 30

// Styles for the terminal dashboard.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Warning lipgloss.Style
	Box     lipgloss.Style
	Muted   lipgloss.Style
	Header  lipgloss.Style
}

func defaultStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#36A2EB")),
		Label:   r.NewStyle().Foreground(lipgloss.Color("#828282")),
		Value:   r.NewStyle().Bold(true),
		Warning: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6384")),
		Box:     r.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2),
		Muted:   r.NewStyle().Italic(true).Foreground(lipgloss.Color("#828282")),
		Header:  r.NewStyle().Bold(true).Padding(0, 1),
	}
}

// Renderer draws a dashboard snapshot as text: the stats, one bar per
// category and the expense table.
type Renderer struct {
	out      io.Writer
	lg       *lipgloss.Renderer
	styles   Styles
	currency string
}

// NewRenderer writes to out, picking colors for out's terminal capabilities.
func NewRenderer(out io.Writer, currency string) *Renderer {
	lg := lipgloss.NewRenderer(out)
	return &Renderer{
		out:      out,
		lg:       lg,
		styles:   defaultStyles(lg),
		currency: currency,
	}
}

func (r *Renderer) Render(s dashboard.Snapshot) error {
	view := lipgloss.JoinVertical(lipgloss.Left,
		r.styles.Title.Render(s.Period.Label()),
		r.stats(s),
		"",
		r.chart(s),
		"",
		r.table(s),
	)
	_, err := fmt.Fprintln(r.out, view)
	return err
}

func (r *Renderer) stats(s dashboard.Snapshot) string {
	spent := r.styles.Value
	if s.Stats.Warning {
		spent = r.styles.Warning
	}
	cell := func(label, value string, style lipgloss.Style) string {
		return r.styles.Box.Render(lipgloss.JoinVertical(lipgloss.Left,
			r.styles.Label.Render(label),
			style.Render(value),
		))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		cell("Income", r.currency+orZero(s.Stats.Income), r.styles.Value),
		cell("Spent", r.currency+orZero(s.Stats.Spent), spent),
		cell("Balance", r.currency+orZero(s.Stats.Balance), r.styles.Value),
		cell("Spent of income", orDefault(s.Stats.Percent, "0.00%"), r.styles.Value),
	)
}

func (r *Renderer) chart(s dashboard.Snapshot) string {
	if !s.HasChart {
		return r.styles.Muted.Render(s.EmptyChart)
	}
	width := 0
	for _, seg := range s.Segments {
		width = max(width, lipgloss.Width(seg.Label))
	}
	lines := make([]string, 0, len(s.Segments))
	for _, seg := range s.Segments {
		n := int(math.Round(seg.Share * barWidth))
		if n == 0 && seg.Share > 0 {
			n = 1
		}
		bar := r.lg.NewStyle().Foreground(lipgloss.Color(seg.Color)).Render(strings.Repeat("█", n))
		lines = append(lines, fmt.Sprintf("%-*s %s%s %s",
			width, seg.Label, bar, strings.Repeat(" ", barWidth-n), seg.SharePercent()))
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) table(s dashboard.Snapshot) string {
	if s.Table.Empty() {
		return r.styles.Muted.Render(s.Table.Placeholder)
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Date", "Category", "Description", "Amount").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.styles.Header
			}
			return r.lg.NewStyle().Padding(0, 1)
		})
	for _, row := range s.Table.Rows {
		t.Row(fmt.Sprint(row.ID), row.Date, row.Category, row.Description, row.Amount)
	}
	return t.String()
}

func orZero(s string) string {
	return orDefault(s, "0")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
