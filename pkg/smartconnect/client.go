// Package smartconnect is a client for the Angel One SmartAPI: REST
// session handling, order placement, quotes, historical candles, and the
// market data WebSocket feed.
//
// All broker calls from the trading engine go through the rate-limited
// Queue rather than calling the client directly; the broker enforces a
// hard request ceiling and rejects bursts.
package smartconnect

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
)

// ErrSessionExpired marks auth failures the caller can recover from by
// renewing the session (HTTP 401/403, TokenException, AG8002).
var ErrSessionExpired = errors.New("smartconnect: session expired")

// Config configures the SmartConnect client.
type Config struct {
	APIKey     string
	ClientCode string
	Password   string // trading PIN
	TOTPSecret string // base32 secret for time-based OTP login

	RootURL string        // default https://apiconnect.angelone.in
	Timeout time.Duration // default 7s
	Debug   bool
}

// SmartConnect is the REST client. Safe for use from a single goroutine;
// the Queue serializes all callers in live setups.
type SmartConnect struct {
	cfg Config

	accessToken  string
	refreshToken string
	feedToken    string

	rootURL    string
	httpClient *http.Client
	debug      bool

	// SessionExpiryHook fires when the broker reports an expired token.
	SessionExpiryHook func()
}

const defaultRoot = "https://apiconnect.angelone.in"

var routes = map[string]string{
	"api.login":   "/rest/auth/angelbroking/user/v1/loginByPassword",
	"api.logout":  "/rest/secure/angelbroking/user/v1/logout",
	"api.refresh": "/rest/auth/angelbroking/jwt/v1/generateTokens",
	"api.profile": "/rest/secure/angelbroking/user/v1/getProfile",

	"api.order.place":  "/rest/secure/angelbroking/order/v1/placeOrder",
	"api.order.modify": "/rest/secure/angelbroking/order/v1/modifyOrder",
	"api.order.cancel": "/rest/secure/angelbroking/order/v1/cancelOrder",
	"api.order.book":   "/rest/secure/angelbroking/order/v1/getOrderBook",

	"api.ltp.data":    "/rest/secure/angelbroking/order/v1/getLtpData",
	"api.candle.data": "/rest/secure/angelbroking/historical/v1/getCandleData",
}

// New creates a SmartConnect client. Call Login before any secure route.
func New(cfg Config) *SmartConnect {
	if cfg.RootURL == "" {
		cfg.RootURL = defaultRoot
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 7 * time.Second
	}
	return &SmartConnect{
		cfg:        cfg,
		rootURL:    strings.TrimRight(cfg.RootURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		debug:      cfg.Debug,
	}
}

// FeedToken returns the token the WebSocket feed authenticates with.
func (sc *SmartConnect) FeedToken() string { return sc.feedToken }

// ClientCode returns the logged-in client code.
func (sc *SmartConnect) ClientCode() string { return sc.cfg.ClientCode }

// APIKey returns the configured API key.
func (sc *SmartConnect) APIKey() string { return sc.cfg.APIKey }

func (sc *SmartConnect) requestHeaders() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	h.Set("X-UserType", "USER")
	h.Set("X-SourceID", "WEB")
	h.Set("X-ClientLocalIP", "127.0.0.1")
	h.Set("X-ClientPublicIP", "127.0.0.1")
	h.Set("X-MACAddress", "00:11:22:33:44:55")
	h.Set("X-PrivateKey", sc.cfg.APIKey)
	if sc.accessToken != "" {
		h.Set("Authorization", "Bearer "+sc.accessToken)
	}
	return h
}

func (sc *SmartConnect) post(route string, params map[string]any) (map[string]any, error) {
	uri, ok := routes[route]
	if !ok {
		return nil, fmt.Errorf("smartconnect: unknown route %s", route)
	}
	reqURL := sc.rootURL + uri

	if params == nil {
		params = map[string]any{}
	}
	body, _ := json.Marshal(params)

	req, err := http.NewRequest(http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header = sc.requestHeaders()

	if sc.debug {
		log.Printf("[smartconnect] POST %s %s", reqURL, string(body))
	}

	resp, err := sc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("smartconnect: %s: %w", route, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("smartconnect: %s: read body: %w", route, err)
	}
	if sc.debug {
		log.Printf("[smartconnect] %s -> %d %s", route, resp.StatusCode, string(raw))
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		if sc.SessionExpiryHook != nil {
			sc.SessionExpiryHook()
		}
		return nil, fmt.Errorf("smartconnect: %s: http %d: %w", route, resp.StatusCode, ErrSessionExpired)
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("smartconnect: %s: parse response: %w", route, err)
	}

	if code, _ := out["errorcode"].(string); code == "AG8002" {
		if sc.SessionExpiryHook != nil {
			sc.SessionExpiryHook()
		}
		return out, fmt.Errorf("smartconnect: %s: AG8002: %w", route, ErrSessionExpired)
	}
	if et, _ := out["error_type"].(string); et == "TokenException" {
		if sc.SessionExpiryHook != nil {
			sc.SessionExpiryHook()
		}
		msg, _ := out["message"].(string)
		return out, fmt.Errorf("smartconnect: %s: %s: %w", route, msg, ErrSessionExpired)
	}
	if st, ok := out["status"].(bool); ok && !st {
		msg, _ := out["message"].(string)
		return out, fmt.Errorf("smartconnect: %s failed: %s", route, msg)
	}
	return out, nil
}

// Login authenticates with password plus a fresh TOTP code and stores the
// session tokens.
func (sc *SmartConnect) Login() error {
	code, err := totp.GenerateCode(sc.cfg.TOTPSecret, time.Now())
	if err != nil {
		return fmt.Errorf("smartconnect: totp generation: %w", err)
	}

	res, err := sc.post("api.login", map[string]any{
		"clientcode": sc.cfg.ClientCode,
		"password":   sc.cfg.Password,
		"totp":       code,
	})
	if err != nil {
		return err
	}

	data, ok := res["data"].(map[string]any)
	if !ok {
		return fmt.Errorf("smartconnect: unexpected login response")
	}
	sc.accessToken, _ = data["jwtToken"].(string)
	sc.refreshToken, _ = data["refreshToken"].(string)
	sc.feedToken, _ = data["feedToken"].(string)

	log.Printf("[smartconnect] session established for %s", sc.cfg.ClientCode)
	return nil
}

// RenewSession exchanges the refresh token for new session tokens.
func (sc *SmartConnect) RenewSession() error {
	res, err := sc.post("api.refresh", map[string]any{
		"jwtToken":     sc.accessToken,
		"refreshToken": sc.refreshToken,
	})
	if err != nil {
		// Refresh itself can be expired; fall back to a full login.
		if errors.Is(err, ErrSessionExpired) {
			log.Printf("[smartconnect] refresh token rejected, re-logging in")
			return sc.Login()
		}
		return err
	}

	if data, ok := res["data"].(map[string]any); ok {
		if jwt, _ := data["jwtToken"].(string); jwt != "" {
			sc.accessToken = jwt
		}
		if rt, _ := data["refreshToken"].(string); rt != "" {
			sc.refreshToken = rt
		}
		if ft, _ := data["feedToken"].(string); ft != "" {
			sc.feedToken = ft
		}
	}
	log.Printf("[smartconnect] session renewed")
	return nil
}

// Logout terminates the session.
func (sc *SmartConnect) Logout() error {
	_, err := sc.post("api.logout", map[string]any{"clientcode": sc.cfg.ClientCode})
	return err
}

// OrderParams is the broker's order payload.
type OrderParams struct {
	Variety         string `json:"variety"`
	TradingSymbol   string `json:"tradingsymbol"`
	SymbolToken     string `json:"symboltoken"`
	TransactionType string `json:"transactiontype"`
	Exchange        string `json:"exchange"`
	OrderType       string `json:"ordertype"`
	ProductType     string `json:"producttype"`
	Duration        string `json:"duration"`
	Price           string `json:"price"`
	TriggerPrice    string `json:"triggerprice,omitempty"`
	Quantity        string `json:"quantity"`
	OrderID         string `json:"orderid,omitempty"`
}

func orderParamsMap(p OrderParams) map[string]any {
	b, _ := json.Marshal(p)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// PlaceOrder submits an order and returns the broker order id.
func (sc *SmartConnect) PlaceOrder(p OrderParams) (string, error) {
	if p.Duration == "" {
		p.Duration = "DAY"
	}
	res, err := sc.post("api.order.place", orderParamsMap(p))
	if err != nil {
		return "", err
	}
	if data, ok := res["data"].(map[string]any); ok {
		if oid, _ := data["orderid"].(string); oid != "" {
			return oid, nil
		}
	}
	return "", fmt.Errorf("smartconnect: place order: no orderid in response")
}

// ModifyOrder amends price/trigger/qty on a pending order.
func (sc *SmartConnect) ModifyOrder(p OrderParams) error {
	if p.OrderID == "" {
		return fmt.Errorf("smartconnect: modify order: missing orderid")
	}
	if p.Duration == "" {
		p.Duration = "DAY"
	}
	_, err := sc.post("api.order.modify", orderParamsMap(p))
	return err
}

// CancelOrder cancels a pending order.
func (sc *SmartConnect) CancelOrder(orderID, variety string) error {
	_, err := sc.post("api.order.cancel", map[string]any{
		"variety": variety,
		"orderid": orderID,
	})
	return err
}

// LTP returns the last traded price in rupees.
func (sc *SmartConnect) LTP(exchange, tradingSymbol, symbolToken string) (float64, error) {
	res, err := sc.post("api.ltp.data", map[string]any{
		"exchange":      exchange,
		"tradingsymbol": tradingSymbol,
		"symboltoken":   symbolToken,
	})
	if err != nil {
		return 0, err
	}
	data, ok := res["data"].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("smartconnect: ltp: unexpected response")
	}
	switch v := data["ltp"].(type) {
	case float64:
		return v, nil
	case string:
		return strconv.ParseFloat(v, 64)
	}
	return 0, fmt.Errorf("smartconnect: ltp: missing price for %s:%s", exchange, tradingSymbol)
}

// CandleBar is one historical bar as the broker reports it, in rupees.
type CandleBar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

const candleTimeLayout = "2006-01-02 15:04"

// GetCandles fetches historical bars. Interval is a broker interval name
// such as ONE_DAY or FIVE_MINUTE.
func (sc *SmartConnect) GetCandles(exchange, symbolToken, interval string, from, to time.Time) ([]CandleBar, error) {
	res, err := sc.post("api.candle.data", map[string]any{
		"exchange":    exchange,
		"symboltoken": symbolToken,
		"interval":    interval,
		"fromdate":    from.Format(candleTimeLayout),
		"todate":      to.Format(candleTimeLayout),
	})
	if err != nil {
		return nil, err
	}

	rows, ok := res["data"].([]any)
	if !ok {
		return nil, fmt.Errorf("smartconnect: candles: unexpected response")
	}
	bars := make([]CandleBar, 0, len(rows))
	for _, r := range rows {
		row, ok := r.([]any)
		if !ok || len(row) < 6 {
			continue
		}
		ts, _ := row[0].(string)
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			continue
		}
		bar := CandleBar{Timestamp: t}
		bar.Open, _ = row[1].(float64)
		bar.High, _ = row[2].(float64)
		bar.Low, _ = row[3].(float64)
		bar.Close, _ = row[4].(float64)
		if v, ok := row[5].(float64); ok {
			bar.Volume = int64(v)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// OrderBook returns the raw order book payload.
func (sc *SmartConnect) OrderBook() (map[string]any, error) {
	return sc.get("api.order.book")
}

func (sc *SmartConnect) get(route string) (map[string]any, error) {
	uri, ok := routes[route]
	if !ok {
		return nil, fmt.Errorf("smartconnect: unknown route %s", route)
	}
	req, err := http.NewRequest(http.MethodGet, sc.rootURL+uri, nil)
	if err != nil {
		return nil, err
	}
	req.Header = sc.requestHeaders()

	resp, err := sc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("smartconnect: %s: %w", route, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		if sc.SessionExpiryHook != nil {
			sc.SessionExpiryHook()
		}
		return nil, fmt.Errorf("smartconnect: %s: http %d: %w", route, resp.StatusCode, ErrSessionExpired)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("smartconnect: %s: parse response: %w", route, err)
	}
	return out, nil
}
