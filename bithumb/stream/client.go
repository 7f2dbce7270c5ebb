package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/betbot/bithumbkit/bithumb/types"
)

// Client 行情推送客户端
//
// 每条连接只有一个有效订阅，Subscribe 会替换之前的市场列表。
// 断线后按退避重连并重新发送订阅。
type Client struct {
	cfg Config
	log *logrus.Entry

	conn   *websocket.Conn
	connMu sync.Mutex

	codes []string
	subMu sync.RWMutex

	tickers chan types.Ticker
	errs    chan error

	ctx       context.Context
	cancel    context.CancelFunc
	running   bool
	runningMu sync.RWMutex
	stopOnce  sync.Once
	doneCh    chan struct{}

	reconnectAttempts int
}

// New 创建推送客户端
func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:     cfg,
		log:     logrus.WithField("component", "stream"),
		tickers: make(chan types.Ticker, cfg.BufferSize),
		errs:    make(chan error, 16),
		doneCh:  make(chan struct{}),
	}
}

// Start 建立连接并启动读循环与心跳。客户端只能启动一次
func (c *Client) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.runningMu.Lock()
	defer c.runningMu.Unlock()
	if c.running || c.ctx != nil {
		return errors.New("stream client already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	if err := c.connect(); err != nil {
		c.cancel()
		return err
	}
	if err := c.resubscribe(); err != nil {
		c.cancel()
		c.closeConn()
		return err
	}

	c.running = true
	go c.readLoop()
	go c.pingLoop()
	c.log.WithField("url", c.cfg.URL).Info("stream connected")
	return nil
}

// Stop 关闭连接，等待读循环退出
func (c *Client) Stop() {
	c.stopOnce.Do(func() {
		c.runningMu.RLock()
		started := c.running
		c.runningMu.RUnlock()
		if !started {
			return
		}

		c.cancel()
		c.connMu.Lock()
		if c.conn != nil {
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
		}
		c.connMu.Unlock()
		c.closeConn()

		select {
		case <-c.doneCh:
		case <-time.After(5 * time.Second):
			c.log.Warn("stream read loop did not exit in time")
		}

		c.runningMu.Lock()
		c.running = false
		c.runningMu.Unlock()
	})
}

// Subscribe 订阅行情，替换之前的市场列表
func (c *Client) Subscribe(codes ...string) error {
	normalized := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code != "" {
			normalized = append(normalized, code)
		}
	}
	if len(normalized) == 0 {
		return types.NewError(types.KindConfiguration, "no market codes to subscribe")
	}

	c.subMu.Lock()
	c.codes = normalized
	c.subMu.Unlock()

	if !c.IsRunning() {
		return nil
	}
	return c.sendSubscription(normalized)
}

// Codes 当前订阅的市场
func (c *Client) Codes() []string {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return append([]string(nil), c.codes...)
}

// Tickers 行情通道，读循环退出后关闭
func (c *Client) Tickers() <-chan types.Ticker {
	return c.tickers
}

// Errors 错误通道（服务端错误、重连耗尽）
func (c *Client) Errors() <-chan error {
	return c.errs
}

// IsRunning 是否运行中
func (c *Client) IsRunning() bool {
	c.runningMu.RLock()
	defer c.runningMu.RUnlock()
	return c.running
}

func (c *Client) connect() error {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(c.ctx, c.cfg.URL, nil)
	if err != nil {
		return types.WrapError(types.KindExchangeUnavailable, err, "dial %s", c.cfg.URL)
	}

	c.connMu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = conn
	c.reconnectAttempts = 0
	c.connMu.Unlock()
	return nil
}

func (c *Client) closeConn() {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// sendSubscription [{ticket},{type,codes},{format}]
func (c *Client) sendSubscription(codes []string) error {
	msg := []interface{}{
		map[string]string{"ticket": uuid.NewString()},
		map[string]interface{}{"type": TypeTicker, "codes": codes},
		map[string]string{"format": "DEFAULT"},
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return types.NewError(types.KindExchangeUnavailable, "stream not connected")
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return types.WrapError(types.KindExchangeUnavailable, err, "send subscription")
	}
	c.log.WithField("codes", codes).Debug("subscribed")
	return nil
}

func (c *Client) resubscribe() error {
	codes := c.Codes()
	if len(codes) == 0 {
		return nil
	}
	return c.sendSubscription(codes)
}

func (c *Client) currentConn() *websocket.Conn {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn
}

func (c *Client) readLoop() {
	defer close(c.doneCh)
	defer close(c.tickers)

	for {
		if c.ctx.Err() != nil {
			return
		}

		conn := c.currentConn()
		if conn == nil {
			if !c.cfg.ReconnectEnabled || !c.reconnect() {
				return
			}
			continue
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			c.connMu.Lock()
			if c.conn == conn {
				_ = c.conn.Close()
				c.conn = nil
			}
			c.connMu.Unlock()

			if c.ctx.Err() != nil {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) && !c.cfg.ReconnectEnabled {
				return
			}
			c.log.WithError(err).Warn("stream read failed")
			if !c.cfg.ReconnectEnabled {
				c.pushError(types.WrapError(types.KindExchangeUnavailable, err, "stream read"))
				return
			}
			continue
		}

		c.handleMessage(data)
	}
}

// pingLoop 定期发送 ping 帧；写失败由读循环发现并重连
func (c *Client) pingLoop() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			conn := c.currentConn()
			if conn == nil {
				continue
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				c.log.WithError(err).Debug("ping failed")
			}
		}
	}
}

// reconnect 退避后重连，返回 false 表示放弃
func (c *Client) reconnect() bool {
	c.connMu.Lock()
	c.reconnectAttempts++
	attempts := c.reconnectAttempts
	c.connMu.Unlock()

	if attempts > c.cfg.MaxReconnectAttempts {
		c.pushError(types.NewError(types.KindExchangeUnavailable, "stream reconnect gave up after %d attempts", c.cfg.MaxReconnectAttempts))
		return false
	}

	delay := c.cfg.ReconnectDelay * time.Duration(attempts)
	if delay > c.cfg.MaxReconnectDelay {
		delay = c.cfg.MaxReconnectDelay
	}
	c.log.WithField("attempt", attempts).Infof("reconnecting in %s", delay)

	select {
	case <-c.ctx.Done():
		return false
	case <-time.After(delay):
	}

	if err := c.connect(); err != nil {
		c.log.WithError(err).Warn("reconnect failed")
		return true
	}
	if err := c.resubscribe(); err != nil {
		c.log.WithError(err).Warn("resubscribe failed")
		c.closeConn()
	}
	return true
}

func (c *Client) handleMessage(data []byte) {
	var probe struct {
		Type string `json:"type"`
		serverError
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		c.log.WithError(err).Debug("skip undecodable message")
		return
	}
	if probe.Error != nil {
		c.pushError(types.NewError(types.KindExchangeRejected, "%s: %s", probe.Error.Name, probe.Error.Message))
		return
	}

	switch probe.Type {
	case TypeTicker:
		var msg TickerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.WithError(err).Warn("bad ticker message")
			return
		}
		select {
		case c.tickers <- msg.Ticker():
		case <-c.ctx.Done():
		}
	case "":
		// {"status":"UP"} 等心跳回复
	default:
		c.log.WithField("type", probe.Type).Debug("ignore message")
	}
}

func (c *Client) pushError(err error) {
	select {
	case c.errs <- err:
	default:
		c.log.WithError(err).Warn("error channel full")
	}
}
