package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound2(t *testing.T) {
	cases := map[string]string{
		"10":      "10",
		"10.004":  "10",
		"10.005":  "10.01",
		"0.1":     "0.1",
		"99.9999": "100",
		"-1.005":  "-1.01",
	}
	for in, want := range cases {
		got := Round2(decimal.RequireFromString(in))
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "Round2(%s) = %s, want %s", in, got, want)
	}
}

func TestRound2_NoDriftOverRepeatedSubtraction(t *testing.T) {
	balance := decimal.RequireFromString("100.00")
	step := decimal.RequireFromString("0.10")
	for i := 0; i < 1000; i++ {
		balance = Round2(balance.Sub(step))
	}
	assert.Equal(t, "0.00", FormatAmount(balance))
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount(" 50.00 ")
	require.NoError(t, err)
	assert.Equal(t, "50.00", FormatAmount(d))

	d, err = ParseAmount("12.345")
	require.NoError(t, err)
	assert.Equal(t, "12.35", FormatAmount(d))

	_, err = ParseAmount("")
	assert.Error(t, err)

	_, err = ParseAmount("abc")
	assert.Error(t, err)

	_, err = ParseAmount("12abc")
	assert.Error(t, err)
}

func TestParseAmount_RejectsOversizedInput(t *testing.T) {
	inputs := []string{
		"1e20000000",
		"1e-20000000",
		"5E2",
		"1.5e1",
		strings.Repeat("9", 33),
		"0." + strings.Repeat("0", 40) + "1",
	}
	for _, in := range inputs {
		start := time.Now()
		_, err := ParseAmount(in)
		assert.Error(t, err, in)
		assert.Less(t, time.Since(start), 100*time.Millisecond, in)
	}

	d, err := ParseAmount(strings.Repeat("9", 29) + ".99")
	require.NoError(t, err)
	assert.True(t, d.IsPositive())
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1234.50", FormatAmount(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "0.00", FormatAmount(decimal.Zero))
}
