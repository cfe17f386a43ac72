package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{" 2.50 ", "2.5", true},
		{"-1", "-1", true},
		{"0", "0", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1,2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.out, got.String(), "input %q", tc.in)
	}
}

func TestDecimalJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Decimal `json:"a"`
	}{A: MustDecimal("12.5")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":12.5}`, string(b))

	var in struct {
		Num Decimal `json:"num"`
		Str Decimal `json:"str"`
		Nil Decimal `json:"nil"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"num": 3.25, "str": "4,75", "nil": null}`), &in))
	assert.Equal(t, "3.25", in.Num.String())
	assert.Equal(t, "4.75", in.Str.String())
	assert.True(t, in.Nil.IsZero())

	var bad struct {
		A Decimal `json:"a"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"a":"twelve"}`), &bad))
}
