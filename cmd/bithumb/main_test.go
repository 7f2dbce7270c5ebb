package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/bithumbkit/bithumb/client"
	"github.com/betbot/bithumbkit/internal/domain"
	"github.com/betbot/bithumbkit/internal/services"
	"github.com/betbot/bithumbkit/pkg/config"
)

type fakeServer struct {
	*httptest.Server
	mu    sync.Mutex
	paths []string
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.paths = append(fs.paths, r.Method+" "+r.URL.Path)
		fs.mu.Unlock()

		private := r.URL.Path == client.EndpointAccounts || strings.HasPrefix(r.URL.Path, "/v1/order")
		if private && !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":{"name":"jwt_verification","message":"missing token"}}`)
			return
		}

		switch {
		case r.URL.Path == client.EndpointMarketAll:
			_, _ = io.WriteString(w, `[{"market":"KRW-BTC","korean_name":"비트코인","english_name":"Bitcoin"},{"market":"KRW-ETH","korean_name":"이더리움","english_name":"Ethereum"}]`)
		case r.URL.Path == client.EndpointTicker:
			_, _ = io.WriteString(w, `[{"market":"KRW-BTC","trade_price":50123456,"change":"RISE","change_rate":0.0123,"acc_trade_price_24h":"1000000000"}]`)
		case r.URL.Path == client.EndpointCandlesDay:
			_, _ = io.WriteString(w, `[
				{"market":"KRW-BTC","candle_date_time_utc":"2024-03-02T00:00:00","candle_date_time_kst":"2024-03-02T09:00:00","opening_price":2,"high_price":2,"low_price":2,"trade_price":2,"candle_acc_trade_volume":1.5},
				{"market":"KRW-BTC","candle_date_time_utc":"2024-03-01T00:00:00","candle_date_time_kst":"2024-03-01T09:00:00","opening_price":1,"high_price":1,"low_price":1,"trade_price":1,"candle_acc_trade_volume":1}
			]`)
		case r.URL.Path == client.EndpointAccounts:
			_, _ = io.WriteString(w, `[{"currency":"KRW","balance":"1500000","locked":"0","avg_buy_price":"0","unit_currency":"KRW"},{"currency":"BTC","balance":"0.25","locked":"0","avg_buy_price":"40000000","unit_currency":"KRW"}]`)
		case r.Method == http.MethodPost && r.URL.Path == client.EndpointPostOrder:
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"uuid": "new-order-uuid", "side": body["side"], "ord_type": body["ord_type"],
				"price": body["price"], "volume": body["volume"], "state": "wait",
				"market": body["market"], "executed_volume": "0",
			})
		case r.Method == http.MethodGet && r.URL.Path == client.EndpointListOrders:
			_, _ = io.WriteString(w, `[{"uuid":"listed-1","side":"ask","ord_type":"limit","price":"60000000","volume":"0.1","state":"wait","market":"KRW-BTC","executed_volume":"0"}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":{"name":"not_found","message":"no route"}}`)
		}
	}))
	t.Cleanup(fs.Close)
	return fs
}

func runCLI(t *testing.T, srv *fakeServer, args ...string) (int, string, string) {
	t.Helper()
	for _, k := range []string{config.EnvAccessKey, config.EnvSecretKey, config.EnvTimeout, config.EnvMaxRetries, config.EnvMinOrderValue, config.EnvLogLevel, config.EnvLogFile} {
		t.Setenv(k, "")
	}
	t.Setenv(config.EnvAPIURL, srv.URL)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestMarketPrice(t *testing.T) {
	srv := newFakeServer(t)
	code, out, errOut := runCLI(t, srv, "market", "price", "krw-btc")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "KRW-BTC")
	assert.Contains(t, out, "50,123,456")
	assert.Contains(t, out, "1.23%")
}

func TestMarketCodes(t *testing.T) {
	srv := newFakeServer(t)
	code, out, errOut := runCLI(t, srv, "market", "codes", "-limit", "1")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "KRW-BTC")
	assert.NotContains(t, out, "KRW-ETH")
	assert.Contains(t, out, "共 2 个交易对")
}

func TestMarketCandle(t *testing.T) {
	srv := newFakeServer(t)
	code, out, errOut := runCLI(t, srv, "market", "candle", "KRW-BTC", "-period", "daily", "-count", "2")
	require.Equal(t, 0, code, errOut)
	first := strings.Index(out, "2024-03-01 09:00")
	second := strings.Index(out, "2024-03-02 09:00")
	require.True(t, first >= 0 && second >= 0, out)
	assert.Less(t, first, second)
}

func TestPrivateCommandsRequireCredentials(t *testing.T) {
	srv := newFakeServer(t)
	for _, args := range [][]string{
		{"account", "balance"},
		{"trade", "buy", "KRW-BTC", "0.001", "50000000"},
	} {
		code, _, errOut := runCLI(t, srv, args...)
		assert.Equal(t, 1, code)
		assert.Contains(t, errOut, config.EnvAccessKey)
	}
	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Empty(t, srv.paths)
}

func TestAccountBalance(t *testing.T) {
	srv := newFakeServer(t)
	code, out, errOut := runCLI(t, srv, "-access-key", "ak", "-secret-key", "sk", "account", "balance")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "1,500,000")
	assert.Contains(t, out, "BTC")
	assert.Contains(t, out, "0.25000000")
}

func TestTradeBuyAndOrders(t *testing.T) {
	srv := newFakeServer(t)
	code, out, errOut := runCLI(t, srv, "-access-key", "ak", "-secret-key", "sk", "trade", "buy", "KRW-BTC", "0.001", "50000000")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "new-order-uuid")
	assert.Contains(t, out, "open")

	code, out, errOut = runCLI(t, srv, "-access-key", "ak", "-secret-key", "sk", "trade", "orders", "-market", "KRW-BTC")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "listed-1")
}

func TestTradeTooSmallNeverReachesExchange(t *testing.T) {
	srv := newFakeServer(t)
	code, _, errOut := runCLI(t, srv, "-access-key", "ak", "-secret-key", "sk", "trade", "buy", "KRW-BTC", "0.00001", "1000000")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "order_too_small")
	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Empty(t, srv.paths)
}

func TestUsageErrors(t *testing.T) {
	srv := newFakeServer(t)
	code, _, errOut := runCLI(t, srv, "market")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "Usage:")
	for _, flag := range []string{"-market M", "-state", "-page-size N", "-pages N", "-stream", "-interval"} {
		assert.Contains(t, errOut, flag)
	}

	code, _, _ = runCLI(t, srv, "market", "price")
	assert.Equal(t, 2, code)

	code, _, _ = runCLI(t, srv, "nope", "x")
	assert.Equal(t, 2, code)
}

func TestParseArgsInterspersed(t *testing.T) {
	fs := newFlagSet("t", io.Discard)
	price := fs.String("price", "", "")
	pos, err := parseArgs(fs, []string{"KRW-BTC", "0.1", "-price", "100"})
	require.NoError(t, err)
	assert.Equal(t, []string{"KRW-BTC", "0.1"}, pos)
	assert.Equal(t, "100", *price)
}

func TestGroupThousands(t *testing.T) {
	assert.Equal(t, "0", groupThousands("0"))
	assert.Equal(t, "999", groupThousands("999"))
	assert.Equal(t, "1,000", groupThousands("1000"))
	assert.Equal(t, "123,456,789", groupThousands("123456789"))
	assert.Equal(t, "-12,345", groupThousands("-12345"))
}

func TestWatchModel(t *testing.T) {
	srv := newFakeServer(t)
	c := client.New(client.Config{BaseURL: srv.URL})
	m := newWatchModel(context.Background(), services.NewMarketDataService(c), []string{"KRW-BTC", "KRW-ETH"}, time.Second)

	view := m.View()
	assert.Contains(t, view, "KRW-BTC")
	assert.Contains(t, view, "等待数据")

	msg := m.Init()()
	require.IsType(t, tickersMsg{}, msg)

	next, cmd := m.Update(msg)
	assert.NotNil(t, cmd)
	wm := next.(watchModel)
	assert.Equal(t, 1, wm.polls)
	assert.Contains(t, wm.View(), "50,123,456")

	next, _ = wm.Update(fetchErrMsg{err: errors.New("boom")})
	wm = next.(watchModel)
	assert.Contains(t, wm.View(), "boom")
	assert.Contains(t, wm.View(), "50,123,456")

	_, cmd = wm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

}

func TestWatchModelStream(t *testing.T) {
	srv := newFakeServer(t)
	c := client.New(client.Config{BaseURL: srv.URL})
	updates := make(chan *domain.Ticker, 1)
	m := newWatchModel(context.Background(), services.NewMarketDataService(c), []string{"KRW-BTC"}, time.Second).
		withStream(updates)
	assert.Contains(t, m.View(), "实时推送")

	updates <- &domain.Ticker{Market: "KRW-BTC", TradePrice: decimal.NewFromInt(61000000), Change: "RISE"}
	msg := m.waitCmd()()
	require.IsType(t, streamMsg{}, msg)

	next, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	wm := next.(watchModel)
	assert.Contains(t, wm.View(), "61,000,000")

	// 推送模式下快照不再安排轮询
	next, cmd = wm.Update(fetchErrMsg{err: errors.New("boom")})
	assert.Nil(t, cmd)
	wm = next.(watchModel)

	close(updates)
	assert.IsType(t, streamEndMsg{}, wm.waitCmd()())
	next, cmd = wm.Update(streamEndMsg{})
	require.NotNil(t, cmd)
	wm = next.(watchModel)
	assert.Nil(t, wm.updates)
	assert.Contains(t, wm.View(), "每 1s 刷新")
}
