package grid

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func strs(ps []decimal.Decimal) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}

func TestPlanConcreteScenario(t *testing.T) {
	l, err := Plan(d("100"), d("10"), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"90", "80"}, strs(l.Buy))
	assert.Equal(t, []string{"110", "120"}, strs(l.Sell))
}

func TestPlanProperties(t *testing.T) {
	tests := []struct {
		bid, spacing string
		buy, sell    int
	}{
		{"100", "10", 5, 5},
		{"27123.45", "0.01", 20, 3},
		{"0.3471", "0.0005", 7, 12},
		{"1", "0.1", 0, 4},
	}
	for _, tt := range tests {
		t.Run(tt.bid+"/"+tt.spacing, func(t *testing.T) {
			bid, s := d(tt.bid), d(tt.spacing)
			l, err := Plan(bid, s, tt.buy, tt.sell)
			require.NoError(t, err)
			require.Len(t, l.Buy, tt.buy)
			require.Len(t, l.Sell, tt.sell)

			seen := map[string]bool{}
			for i, p := range l.Buy {
				assert.True(t, p.Equal(bid.Sub(s.Mul(decimal.NewFromInt(int64(i+1))))))
				assert.True(t, p.LessThan(bid))
				seen[p.String()] = true
			}
			assert.Len(t, seen, tt.buy)

			seen = map[string]bool{}
			for i, p := range l.Sell {
				assert.True(t, p.Equal(bid.Add(s.Mul(decimal.NewFromInt(int64(i+1))))))
				assert.True(t, p.GreaterThan(bid))
				seen[p.String()] = true
			}
			assert.Len(t, seen, tt.sell)
		})
	}
}

func TestPlanInvalid(t *testing.T) {
	_, err := Plan(d("100"), d("0"), 1, 1)
	assert.EqualError(t, err, "spacing must be positive")
	_, err = Plan(d("100"), d("-1"), 1, 1)
	assert.Error(t, err)
	_, err = Plan(d("0"), d("1"), 1, 1)
	assert.EqualError(t, err, "bid must be positive")
	_, err = Plan(d("100"), d("1"), -1, 1)
	assert.Error(t, err)
}

func TestPlanDoesNotClampNegativePrices(t *testing.T) {
	l, err := Plan(d("15"), d("10"), 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"5", "-5"}, strs(l.Buy))
}

func TestMirror(t *testing.T) {
	assert.Equal(t, "100", Mirror(d("90"), d("10"), true).String())
	assert.Equal(t, "100", Mirror(d("110"), d("10"), false).String())
	assert.Equal(t, "0.3", Mirror(d("0.1"), d("0.2"), true).String())
}
