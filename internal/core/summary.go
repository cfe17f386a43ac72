package core

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Decimal
}

// CategoryTotals is an ordered category breakdown. On the wire it is a JSON
// object whose key order is preserved in both directions.
type CategoryTotals []CategoryAmount

// Summary is the server-computed aggregate for one period.
type Summary struct {
	Income        Decimal        `json:"income"`
	TotalExpenses Decimal        `json:"total_expenses"`
	Balance       Decimal        `json:"balance"`
	Percentage    Decimal        `json:"percentage"`
	CategoryData  CategoryTotals `json:"category_data"`
}

var hundred = decimal.NewFromInt(100)

// Summarize aggregates income and the period's expenses. Categories keep the
// order in which they first appear in expenses.
func Summarize(income Decimal, expenses []Expense) Summary {
	var total Decimal
	var cats CategoryTotals
	index := make(map[string]int)
	for _, e := range expenses {
		total = total.Add(e.Amount)
		if i, ok := index[e.Category]; ok {
			cats[i].Amount = cats[i].Amount.Add(e.Amount)
			continue
		}
		index[e.Category] = len(cats)
		cats = append(cats, CategoryAmount{Name: e.Category, Amount: e.Amount})
	}

	percentage := Zero
	if income.IsPositive() {
		percentage = NewDecimal(total.Decimal.Div(income.Decimal).Mul(hundred))
	}
	return Summary{
		Income:        income,
		TotalExpenses: total,
		Balance:       income.Sub(total),
		Percentage:    percentage,
		CategoryData:  cats,
	}
}

// Overspent reports whether spending exceeds a positive income.
func (s Summary) Overspent() bool {
	return s.Income.IsPositive() && s.TotalExpenses.GreaterThan(s.Income)
}

// Total returns the sum of all category amounts.
func (c CategoryTotals) Total() Decimal {
	var total Decimal
	for _, ca := range c {
		total = total.Add(ca.Amount)
	}
	return total
}

func (c CategoryTotals) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ca := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(ca.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(ca.Amount.Decimal.String())
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c *CategoryTotals) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*c = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("category data: expected object, got %v", tok)
	}
	out := CategoryTotals{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("category data: unexpected key %v", keyTok)
		}
		var amount Decimal
		if err := dec.Decode(&amount); err != nil {
			return fmt.Errorf("category data %q: %w", name, err)
		}
		out = append(out, CategoryAmount{Name: name, Amount: amount})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = out
	return nil
}
