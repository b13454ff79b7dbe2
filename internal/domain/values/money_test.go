package values

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoneyFromString(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		expected string
		wantErr  bool
	}{
		{
			name:     "whole amount",
			amount:   "1500",
			expected: "1500.00",
		},
		{
			name:     "fractional amount",
			amount:   "123.45",
			expected: "123.45",
		},
		{
			name:     "negative amount",
			amount:   "-800",
			expected: "-800.00",
		},
		{
			name:     "zero",
			amount:   "0",
			expected: "0.00",
		},
		{
			name:    "not a number",
			amount:  "abc",
			wantErr: true,
		},
		{
			name:    "empty string",
			amount:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMoneyFromString(tt.amount)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, m.String())
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := MustNewMoneyFromString("1550")
	b := MustNewMoneyFromString("1500")

	assert.Equal(t, "3050.00", a.Add(b).String())
	assert.Equal(t, "50.00", a.Sub(b).String())
	assert.Equal(t, "-1550.00", a.Neg().String())
	assert.Equal(t, "1550.00", a.Neg().Abs().String())
	assert.Equal(t, "600.00", b.Mul(decimal.NewFromFloat(0.4)).String())
}

// Adding and then subtracting the same value must restore the original
// amount exactly, or charge cancellation would drift.
func TestMoneyAddSubSymmetry(t *testing.T) {
	amounts := []string{"0.1", "600", "150.55", "1333.33", "-200.01"}

	balance := Zero()
	for _, s := range amounts {
		balance = balance.Add(MustNewMoneyFromString(s))
	}
	for _, s := range amounts {
		balance = balance.Sub(MustNewMoneyFromString(s))
	}

	assert.True(t, balance.IsZero(), "balance = %s", balance)
}

func TestMoneyDiv(t *testing.T) {
	m := MustNewMoneyFromString("100")

	half, err := m.Div(decimal.NewFromInt(2))
	require.NoError(t, err)
	assert.Equal(t, "50.00", half.String())

	_, err = m.Div(decimal.Zero)
	assert.Error(t, err)
}

func TestMoneyComparisons(t *testing.T) {
	pos := MustNewMoneyFromString("10")
	neg := MustNewMoneyFromString("-10")

	assert.True(t, pos.IsPositive())
	assert.True(t, neg.IsNegative())
	assert.True(t, Zero().IsZero())
	assert.Equal(t, 1, pos.Cmp(neg))
	assert.Equal(t, -1, neg.Cmp(pos))
	assert.True(t, pos.Equal(MustNewMoneyFromString("10.00")))
}

func TestMoneyJSON(t *testing.T) {
	m := MustNewMoneyFromString("1550.50")

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `"1550.5"`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, m.Equal(decoded))

	var bad Money
	assert.Error(t, json.Unmarshal([]byte(`"not-money"`), &bad))
}

func TestMoneyScan(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected string
		wantErr  bool
	}{
		{
			name:     "string",
			value:    "1500.25",
			expected: "1500.25",
		},
		{
			name:     "bytes",
			value:    []byte("-800"),
			expected: "-800.00",
		},
		{
			name:     "int64",
			value:    int64(42),
			expected: "42.00",
		},
		{
			name:     "nil resets to zero",
			value:    nil,
			expected: "0.00",
		},
		{
			name:    "unsupported type",
			value:   true,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Money
			err := m.Scan(tt.value)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, m.String())
		})
	}
}

func TestMoneyValue(t *testing.T) {
	m := MustNewMoneyFromString("99.90")

	v, err := m.Value()
	require.NoError(t, err)
	assert.Equal(t, "99.9", v)
}
