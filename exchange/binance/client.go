// Package binance is a minimal Binance Spot REST client covering the calls the
// grid bot makes: limit orders, order status, book ticker, open orders and
// account balances.
package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/gridbot/exchange"
	"github.com/shopspring/decimal"
)

const (
	// LiveURL is the production Spot API
	LiveURL = "https://api.binance.com"
	// TestnetURL is the Spot testnet sandbox
	TestnetURL = "https://testnet.binance.vision"
)

// Binance error codes the client interprets.
const (
	codeNoSuchOrder   = -2013
	codeUnknownCancel = -2011
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status int    `json:"-"`
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance API error (status %d, code %d): %s", e.Status, e.Code, e.Msg)
}

// Client is a Binance Spot REST client
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	recvWindow int64
	httpClient *http.Client
	now        func() time.Time
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithRecvWindow sets how long (ms) a signed request stays valid.
func WithRecvWindow(ms int64) Option { return func(c *Client) { c.recvWindow = ms } }

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient = &http.Client{Timeout: d} }
}

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }

// NewClient creates a client for the live API unless WithBaseURL says otherwise.
// Public endpoints work without credentials.
func NewClient(apiKey, apiSecret string, opts ...Option) *Client {
	c := &Client{
		baseURL:    LiveURL,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		recvWindow: 5000,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateLimitOrder places a GTC limit order. Client errors from the API are
// returned as *exchange.RejectionError.
func (c *Client) CreateLimitOrder(ctx context.Context, symbol string, side exchange.Side, size, price decimal.Decimal) (exchange.Order, error) {
	q := url.Values{}
	q.Set("symbol", exchange.NormalizeSymbol(symbol))
	q.Set("side", string(side))
	q.Set("type", "LIMIT")
	q.Set("timeInForce", "GTC")
	q.Set("quantity", size.String())
	q.Set("price", price.String())
	q.Set("newOrderRespType", "RESULT")

	var o exchange.Order
	if err := c.do(ctx, http.MethodPost, "/api/v3/order", q, true, &o); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && rejected(apiErr.Status) {
			return exchange.Order{}, &exchange.RejectionError{Code: apiErr.Code, Message: apiErr.Msg}
		}
		return exchange.Order{}, fmt.Errorf("create limit order: %w", err)
	}
	return o, nil
}

// rejected reports whether a status means the request itself was refused,
// as opposed to rate limiting or a server fault.
func rejected(status int) bool {
	return status >= 400 && status < 500 &&
		status != http.StatusTooManyRequests && status != http.StatusTeapot
}

func (c *Client) FetchOrder(ctx context.Context, id, symbol string) (exchange.Order, error) {
	q := url.Values{}
	q.Set("symbol", exchange.NormalizeSymbol(symbol))
	q.Set("orderId", id)

	var o exchange.Order
	if err := c.do(ctx, http.MethodGet, "/api/v3/order", q, true, &o); err != nil {
		return exchange.Order{}, fmt.Errorf("fetch order %s: %w", id, err)
	}
	return o, nil
}

type bookTicker struct {
	Symbol   string          `json:"symbol"`
	BidPrice decimal.Decimal `json:"bidPrice"`
	AskPrice decimal.Decimal `json:"askPrice"`
}

func (c *Client) FetchTicker(ctx context.Context, symbol string) (exchange.Ticker, error) {
	q := url.Values{}
	q.Set("symbol", exchange.NormalizeSymbol(symbol))

	var bt bookTicker
	if err := c.do(ctx, http.MethodGet, "/api/v3/ticker/bookTicker", q, false, &bt); err != nil {
		return exchange.Ticker{}, fmt.Errorf("fetch ticker: %w", err)
	}
	return exchange.Ticker{Symbol: bt.Symbol, Bid: bt.BidPrice, Ask: bt.AskPrice}, nil
}

// CancelAllOrders cancels every open order on symbol. Having nothing to
// cancel is not an error.
func (c *Client) CancelAllOrders(ctx context.Context, symbol string) error {
	q := url.Values{}
	q.Set("symbol", exchange.NormalizeSymbol(symbol))

	err := c.do(ctx, http.MethodDelete, "/api/v3/openOrders", q, true, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == codeUnknownCancel {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cancel open orders: %w", err)
	}
	return nil
}

func (c *Client) ListOrders(ctx context.Context, symbol string) ([]exchange.Order, error) {
	q := url.Values{}
	q.Set("symbol", exchange.NormalizeSymbol(symbol))

	var orders []exchange.Order
	if err := c.do(ctx, http.MethodGet, "/api/v3/openOrders", q, true, &orders); err != nil {
		return nil, fmt.Errorf("list open orders: %w", err)
	}
	return orders, nil
}

type account struct {
	Balances []struct {
		Asset  string          `json:"asset"`
		Free   decimal.Decimal `json:"free"`
		Locked decimal.Decimal `json:"locked"`
	} `json:"balances"`
}

func (c *Client) FetchBalance(ctx context.Context, asset string) (exchange.Balance, error) {
	asset = strings.ToUpper(asset)
	q := url.Values{}
	q.Set("omitZeroBalances", "true")

	var acct account
	if err := c.do(ctx, http.MethodGet, "/api/v3/account", q, true, &acct); err != nil {
		return exchange.Balance{}, fmt.Errorf("fetch account: %w", err)
	}
	for _, b := range acct.Balances {
		if strings.EqualFold(b.Asset, asset) {
			return exchange.Balance{Asset: asset, Free: b.Free, Locked: b.Locked}, nil
		}
	}
	return exchange.Balance{Asset: asset}, nil
}

// sign appends timestamp, recvWindow and the HMAC-SHA256 signature of the
// resulting query string. The signature must come last.
func (c *Client) sign(q url.Values) string {
	q.Set("timestamp", strconv.FormatInt(c.now().UnixMilli(), 10))
	if c.recvWindow > 0 {
		q.Set("recvWindow", strconv.FormatInt(c.recvWindow, 10))
	}
	payload := q.Encode()
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	_, _ = io.WriteString(mac, payload)
	return payload + "&signature=" + hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, signed bool, out any) error {
	if signed && (c.apiKey == "" || c.apiSecret == "") {
		return fmt.Errorf("%s %s: API key and secret required", method, path)
	}

	payload := q.Encode()
	if signed {
		payload = c.sign(q)
	}

	var body io.Reader
	u := c.baseURL + path
	if method == http.MethodPost {
		body = strings.NewReader(payload)
	} else if payload != "" {
		u += "?" + payload
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Msg == "" {
		apiErr.Msg = strings.TrimSpace(string(body))
	}
	if apiErr.Code == codeNoSuchOrder {
		return fmt.Errorf("%w: %s", exchange.ErrOrderNotFound, apiErr.Msg)
	}
	return apiErr
}
