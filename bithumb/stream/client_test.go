package stream

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/bithumbkit/bithumb/types"
)

type wsServer struct {
	t        *testing.T
	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu      sync.Mutex
	subs    [][]json.RawMessage
	conns   atomic.Int32
	handler func(n int, conn *websocket.Conn)
}

func newWSServer(t *testing.T, handler func(n int, conn *websocket.Conn)) *wsServer {
	s := &wsServer{t: t, handler: handler}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var sub []json.RawMessage
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		s.mu.Lock()
		s.subs = append(s.subs, sub)
		s.mu.Unlock()

		n := int(s.conns.Add(1))
		s.handler(n, conn)
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *wsServer) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *wsServer) subscriptions() [][]json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]json.RawMessage(nil), s.subs...)
}

func tickerFrame(code, price string) []byte {
	return []byte(`{"type":"ticker","code":"` + code + `","trade_price":` + price +
		`,"change":"RISE","change_rate":0.01,"acc_trade_price_24h":"1000000","timestamp":1700000000000,"stream_type":"REALTIME"}`)
}

// 读到连接关闭为止，保持服务端处理 ping/close
func drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func testConfig(url string) Config {
	cfg := DefaultConfig()
	cfg.URL = url
	cfg.ReconnectDelay = 10 * time.Millisecond
	cfg.MaxReconnectDelay = 20 * time.Millisecond
	cfg.MaxReconnectAttempts = 3
	return cfg
}

func receive(t *testing.T, c *Client) types.Ticker {
	t.Helper()
	select {
	case tk, ok := <-c.Tickers():
		require.True(t, ok, "ticker channel closed")
		return tk
	case <-time.After(3 * time.Second):
		t.Fatal("no ticker received")
	}
	return types.Ticker{}
}

func TestClient_SubscribeAndReceive(t *testing.T) {
	srv := newWSServer(t, func(_ int, conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"status":"UP"}`))
		_ = conn.WriteMessage(websocket.BinaryMessage, tickerFrame("KRW-BTC", "50000000"))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"trade","code":"KRW-BTC"}`))
		_ = conn.WriteMessage(websocket.TextMessage, tickerFrame("KRW-ETH", "3000000"))
		drain(conn)
	})

	c := New(testConfig(srv.url()))
	require.NoError(t, c.Subscribe("krw-btc", " KRW-ETH "))
	require.NoError(t, c.Start(t.Context()))
	defer c.Stop()
	assert.True(t, c.IsRunning())

	btc := receive(t, c)
	assert.Equal(t, "KRW-BTC", btc.Market)
	assert.Equal(t, "50000000", btc.TradePrice.Decimal().String())
	assert.Equal(t, "RISE", btc.Change)
	assert.Equal(t, int64(1700000000000), btc.Timestamp)

	eth := receive(t, c)
	assert.Equal(t, "KRW-ETH", eth.Market)

	subs := srv.subscriptions()
	require.Len(t, subs, 1)
	require.Len(t, subs[0], 3)
	assert.Contains(t, string(subs[0][0]), `"ticket"`)
	assert.JSONEq(t, `{"type":"ticker","codes":["KRW-BTC","KRW-ETH"]}`, string(subs[0][1]))
	assert.JSONEq(t, `{"format":"DEFAULT"}`, string(subs[0][2]))
}

func TestClient_ServerError(t *testing.T) {
	srv := newWSServer(t, func(_ int, conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":{"name":"INVALID_PARAM","message":"bad codes"}}`))
		drain(conn)
	})

	c := New(testConfig(srv.url()))
	require.NoError(t, c.Subscribe("KRW-XXX"))
	require.NoError(t, c.Start(t.Context()))
	defer c.Stop()

	select {
	case err := <-c.Errors():
		assert.Equal(t, types.KindExchangeRejected, types.KindOf(err))
		assert.Contains(t, err.Error(), "INVALID_PARAM")
	case <-time.After(3 * time.Second):
		t.Fatal("no error received")
	}
}

func TestClient_ReconnectResubscribes(t *testing.T) {
	srv := newWSServer(t, func(n int, conn *websocket.Conn) {
		if n == 1 {
			_ = conn.WriteMessage(websocket.TextMessage, tickerFrame("KRW-BTC", "1"))
			// 异常断开
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, tickerFrame("KRW-BTC", "2"))
		drain(conn)
	})

	c := New(testConfig(srv.url()))
	require.NoError(t, c.Subscribe("KRW-BTC"))
	require.NoError(t, c.Start(t.Context()))
	defer c.Stop()

	assert.Equal(t, "1", receive(t, c).TradePrice.Decimal().String())
	assert.Equal(t, "2", receive(t, c).TradePrice.Decimal().String())

	subs := srv.subscriptions()
	require.Len(t, subs, 2)
	assert.JSONEq(t, string(subs[0][1]), string(subs[1][1]))
}

func TestClient_StopClosesTickers(t *testing.T) {
	srv := newWSServer(t, func(_ int, conn *websocket.Conn) {
		drain(conn)
	})

	c := New(testConfig(srv.url()))
	require.NoError(t, c.Subscribe("KRW-BTC"))
	require.NoError(t, c.Start(t.Context()))
	c.Stop()
	c.Stop()

	assert.False(t, c.IsRunning())
	select {
	case _, ok := <-c.Tickers():
		assert.False(t, ok)
	case <-time.After(3 * time.Second):
		t.Fatal("ticker channel not closed")
	}
	assert.Error(t, c.Start(t.Context()), "client cannot be restarted")
}

func TestClient_StartFailsWithoutServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	c := New(testConfig(url))
	err := c.Start(t.Context())
	require.Error(t, err)
	assert.Equal(t, types.KindExchangeUnavailable, types.KindOf(err))
	assert.False(t, c.IsRunning())
	c.Stop()
}

func TestClient_SubscribeValidation(t *testing.T) {
	c := New(Config{})
	err := c.Subscribe(" ", "")
	require.Error(t, err)
	assert.Equal(t, types.KindConfiguration, types.KindOf(err))

	require.NoError(t, c.Subscribe("krw-btc"))
	assert.Equal(t, []string{"KRW-BTC"}, c.Codes())
	assert.Equal(t, DefaultURL, c.cfg.URL)
}
