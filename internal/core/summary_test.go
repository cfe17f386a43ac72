package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expense(cat, amount string) Expense {
	return Expense{Date: NewDate(2025, 3, 1), Category: cat, Amount: MustDecimal(amount)}
}

func TestSummarize(t *testing.T) {
	s := Summarize(MustDecimal("1000"), []Expense{
		expense("Food", "100"),
		expense("Transport", "30"),
		expense("Food", "20"),
	})
	assert.Equal(t, "150", s.TotalExpenses.String())
	assert.Equal(t, "850", s.Balance.String())
	assert.Equal(t, "15", s.Percentage.String())
	require.Len(t, s.CategoryData, 2)
	assert.Equal(t, "Food", s.CategoryData[0].Name)
	assert.Equal(t, "120", s.CategoryData[0].Amount.String())
	assert.Equal(t, "Transport", s.CategoryData[1].Name)
	assert.False(t, s.Overspent())
}

func TestSummarizeWithoutIncome(t *testing.T) {
	s := Summarize(Zero, []Expense{expense("Food", "50")})
	assert.True(t, s.Percentage.IsZero())
	assert.Equal(t, "-50", s.Balance.String())
	assert.False(t, s.Overspent(), "no income means no warning")
}

func TestSummaryOverspent(t *testing.T) {
	s := Summarize(MustDecimal("1000"), []Expense{expense("Rent", "1200")})
	assert.Equal(t, "120", s.Percentage.String())
	assert.Equal(t, "-200", s.Balance.String())
	assert.True(t, s.Overspent())
}

func TestCategoryTotalsKeepOrder(t *testing.T) {
	in := `{"income":0,"total_expenses":150,"balance":-150,"percentage":0,"category_data":{"Transport":30,"Food":120}}`
	var s Summary
	require.NoError(t, json.Unmarshal([]byte(in), &s))
	require.Len(t, s.CategoryData, 2)
	assert.Equal(t, "Transport", s.CategoryData[0].Name)
	assert.Equal(t, "Food", s.CategoryData[1].Name)
	assert.Equal(t, "150", s.CategoryData.Total().String())

	out, err := json.Marshal(s.CategoryData)
	require.NoError(t, err)
	assert.Equal(t, `{"Transport":30,"Food":120}`, string(out))
}

func TestCategoryTotalsEmptyAndNull(t *testing.T) {
	var c CategoryTotals
	require.NoError(t, json.Unmarshal([]byte(`{}`), &c))
	assert.Empty(t, c)
	require.NoError(t, json.Unmarshal([]byte(`null`), &c))
	assert.Nil(t, c)
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &c))
}
