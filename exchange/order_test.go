package exchange

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderJSONPassThrough(t *testing.T) {
	t.Parallel()

	in := `{"clientOrderId":"abc","orderId":28457,"origQty":"0.001","price":"90.5","side":"BUY","status":"NEW","symbol":"BTCUSDT","timeInForce":"GTC"}`

	var o Order
	require.NoError(t, json.Unmarshal([]byte(in), &o))

	assert.Equal(t, "28457", o.ID)
	assert.Equal(t, "BTCUSDT", o.Symbol)
	assert.Equal(t, Buy, o.Side)
	assert.True(t, o.Price.Equal(decimal.RequireFromString("90.5")))
	assert.True(t, o.Size.Equal(decimal.RequireFromString("0.001")))
	assert.Equal(t, "NEW", o.Status)
	assert.Len(t, o.Extra, 2)

	out, err := json.Marshal(o)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestOrderJSONStringID(t *testing.T) {
	t.Parallel()

	var o Order
	require.NoError(t, json.Unmarshal([]byte(`{"orderId":"a-1","price":100,"status":"FILLED"}`), &o))
	assert.Equal(t, "a-1", o.ID)
	assert.True(t, o.Price.Equal(decimal.NewFromInt(100)))
	assert.Empty(t, o.Side)

	out, err := json.Marshal(o)
	require.NoError(t, err)
	assert.JSONEq(t, `{"orderId":"a-1","price":"100","status":"FILLED"}`, string(out))
}

func TestOrderJSONErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"missing id": `{"price":"1"}`,
		"empty id":   `{"orderId":""}`,
		"null id":    `{"orderId":null}`,
		"bool id":    `{"orderId":true}`,
		"bad side":   `{"orderId":"1","side":"HOLD"}`,
		"bad price":  `{"orderId":"1","price":"abc"}`,
		"not object": `[1,2]`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			var o Order
			assert.Error(t, json.Unmarshal([]byte(in), &o))
		})
	}
}

func TestParseSide(t *testing.T) {
	t.Parallel()

	s, err := ParseSide(" buy ")
	require.NoError(t, err)
	assert.Equal(t, Buy, s)
	assert.Equal(t, Sell, s.Opposite())
	assert.Equal(t, Buy, Sell.Opposite())
	assert.Equal(t, "sell", Sell.Key())

	_, err = ParseSide("short")
	assert.Error(t, err)
}

func TestNormalizeSymbol(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "BTCUSDT", NormalizeSymbol("btc/usdt"))
	assert.Equal(t, "ETHUSDT", NormalizeSymbol(" ETH-USDT "))
	assert.Equal(t, "BNBUSDT", NormalizeSymbol("BNBUSDT"))
}

func TestRejectionError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("create order: %w", &RejectionError{Code: -2010, Message: "insufficient balance"})
	assert.True(t, IsRejection(err))
	assert.Contains(t, err.Error(), "-2010")
	assert.False(t, IsRejection(errors.New("timeout")))
	assert.Equal(t, "order rejected: bad", (&RejectionError{Message: "bad"}).Error())
}
