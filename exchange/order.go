package exchange

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Order is the exchange's view of a single limit order. Fields the bot does
// not interpret are kept in Extra so they round-trip through the ledger.
type Order struct {
	ID     string
	Symbol string
	Side   Side
	Price  decimal.Decimal
	Size   decimal.Decimal
	Status string
	Extra  map[string]json.RawMessage

	// numericID remembers that the exchange sent orderId as a JSON number.
	numericID bool
}

const (
	keyID     = "orderId"
	keySymbol = "symbol"
	keySide   = "side"
	keyPrice  = "price"
	keySize   = "origQty"
	keyStatus = "status"
)

func (o Order) String() string {
	return fmt.Sprintf("%s %s %s@%s [%s]", o.ID, o.Side, o.Size, o.Price, o.Status)
}

func (o Order) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(o.Extra)+6)
	for k, v := range o.Extra {
		m[k] = v
	}
	if o.numericID {
		m[keyID] = json.RawMessage(o.ID)
	} else {
		m[keyID] = o.ID
	}
	if o.Symbol != "" {
		m[keySymbol] = o.Symbol
	}
	if o.Side != "" {
		m[keySide] = string(o.Side)
	}
	m[keyPrice] = o.Price
	if !o.Size.IsZero() {
		m[keySize] = o.Size
	}
	m[keyStatus] = o.Status
	return json.Marshal(m)
}

func (o *Order) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	idRaw, ok := raw[keyID]
	if !ok {
		return errors.New("order info missing orderId")
	}
	id, numeric, err := decodeID(idRaw)
	if err != nil {
		return err
	}

	out := Order{ID: id, numericID: numeric}
	if v, ok := raw[keySymbol]; ok {
		if err := json.Unmarshal(v, &out.Symbol); err != nil {
			return fmt.Errorf("order %s symbol: %w", id, err)
		}
	}
	if v, ok := raw[keySide]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("order %s side: %w", id, err)
		}
		if s != "" {
			if out.Side, err = ParseSide(s); err != nil {
				return fmt.Errorf("order %s: %w", id, err)
			}
		}
	}
	if v, ok := raw[keyPrice]; ok {
		if err := out.Price.UnmarshalJSON(v); err != nil {
			return fmt.Errorf("order %s price: %w", id, err)
		}
	}
	if v, ok := raw[keySize]; ok {
		if err := out.Size.UnmarshalJSON(v); err != nil {
			return fmt.Errorf("order %s origQty: %w", id, err)
		}
	}
	if v, ok := raw[keyStatus]; ok {
		if err := json.Unmarshal(v, &out.Status); err != nil {
			return fmt.Errorf("order %s status: %w", id, err)
		}
	}

	for _, k := range []string{keyID, keySymbol, keySide, keyPrice, keySize, keyStatus} {
		delete(raw, k)
	}
	if len(raw) > 0 {
		out.Extra = raw
	}

	*o = out
	return nil
}

func decodeID(v json.RawMessage) (id string, numeric bool, err error) {
	v = bytes.TrimSpace(v)
	if len(v) > 0 && v[0] == '"' {
		if err := json.Unmarshal(v, &id); err != nil {
			return "", false, fmt.Errorf("orderId: %w", err)
		}
		if id == "" {
			return "", false, errors.New("orderId is empty")
		}
		return id, false, nil
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		return "", false, fmt.Errorf("orderId must be a string or number: %w", err)
	}
	if n == "" {
		return "", false, errors.New("orderId is empty")
	}
	return n.String(), true, nil
}
