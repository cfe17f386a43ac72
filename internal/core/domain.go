package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout   = "2006-01-02"
	periodLayout = "2006-01"

	MaxDescriptionLen = 200
	MaxCategoryLen    = 50
)

type (
	// Period identifies one calendar month. It is the single key driving
	// both the summary and the expense list of the dashboard.
	Period struct {
		Year  int
		Month int // 1-12
	}

	// Date is a calendar date without time of day.
	Date struct {
		time.Time
	}

	// Income is the declared income of one month. There is at most one per period.
	Income struct {
		ID     int64   `json:"id,omitempty"`
		Amount Decimal `json:"amount"`
		Month  int     `json:"month"`
		Year   int     `json:"year"`
	}

	// Expense is a single spending entry. It is never mutated once created.
	Expense struct {
		ID          int64   `json:"id"`
		Date        Date    `json:"date"`
		Category    string  `json:"category"`
		Description string  `json:"description"`
		Amount      Decimal `json:"amount"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidYear        = errors.New("invalid year")
	ErrInvalidDate        = errors.New("invalid date")
	ErrEmptyCategory      = errors.New("empty category")
	ErrCategoryTooLong    = errors.New("category too long (max 50 characters)")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

// NewPeriod returns the period for year and month without validating it.
func NewPeriod(year, month int) Period {
	return Period{Year: year, Month: month}
}

// ParsePeriod parses a "YYYY-MM" month selector value.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Period{}, ErrInvalidMonth
	}
	year, month, ok := strings.Cut(s, "-")
	if !ok {
		return Period{}, fmt.Errorf("parse period %q: %w", s, ErrInvalidMonth)
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return Period{}, fmt.Errorf("parse period %q: %w", s, ErrInvalidYear)
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return Period{}, fmt.Errorf("parse period %q: %w", s, ErrInvalidMonth)
	}
	p := Period{Year: y, Month: m}
	if err := p.Validate(); err != nil {
		return Period{}, fmt.Errorf("parse period %q: %w", s, err)
	}
	return p, nil
}

// PeriodOf returns the period containing d.
func PeriodOf(d Date) Period {
	return Period{Year: d.Year(), Month: int(d.Month())}
}

// CurrentPeriod returns the period containing t.
func CurrentPeriod(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return ErrInvalidMonth
	}
	if p.Year < 1 || p.Year > 9999 {
		return ErrInvalidYear
	}
	return nil
}

// String returns the "YYYY-MM" form used by the month selector.
func (p Period) String() string {
	if p.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Label returns a human label such as "March 2025".
func (p Period) Label() string {
	if p.IsZero() {
		return ""
	}
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO 8601 calendar date ("YYYY-MM-DD").
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, ErrInvalidDate)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String returns the ISO 8601 form.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", ErrInvalidDate)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Period returns the period of the income record.
func (i Income) Period() Period {
	return Period{Year: i.Year, Month: i.Month}
}

func (i Income) Validate() error {
	return i.Period().Validate()
}

// Period returns the period the expense belongs to.
func (e Expense) Period() Period {
	return PeriodOf(e.Date)
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if len(e.Category) > MaxCategoryLen {
		return ErrCategoryTooLong
	}
	if len(e.Description) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}
