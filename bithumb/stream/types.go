// Package stream 提供 Bithumb WebSocket 行情推送客户端
package stream

import (
	"time"

	"github.com/betbot/bithumbkit/bithumb/types"
)

const (
	// DefaultURL 公共行情推送端点
	DefaultURL = "wss://ws-api.bithumb.com/websocket/v1"

	defaultPingInterval         = 30 * time.Second
	defaultReconnectDelay       = 2 * time.Second
	defaultMaxReconnectDelay    = 30 * time.Second
	defaultMaxReconnectAttempts = 10
	defaultHandshakeTimeout     = 10 * time.Second
	defaultBufferSize           = 256
)

// 订阅类型
const (
	TypeTicker = "ticker"
)

// Config 推送客户端配置
type Config struct {
	URL                  string
	PingInterval         time.Duration
	ReconnectEnabled     bool
	ReconnectDelay       time.Duration
	MaxReconnectDelay    time.Duration
	MaxReconnectAttempts int
	HandshakeTimeout     time.Duration
	BufferSize           int
}

// DefaultConfig 默认配置（自动重连）
func DefaultConfig() Config {
	return Config{
		URL:                  DefaultURL,
		PingInterval:         defaultPingInterval,
		ReconnectEnabled:     true,
		ReconnectDelay:       defaultReconnectDelay,
		MaxReconnectDelay:    defaultMaxReconnectDelay,
		MaxReconnectAttempts: defaultMaxReconnectAttempts,
		HandshakeTimeout:     defaultHandshakeTimeout,
		BufferSize:           defaultBufferSize,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.URL == "" {
		c.URL = d.URL
	}
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = d.ReconnectDelay
	}
	if c.MaxReconnectDelay <= 0 {
		c.MaxReconnectDelay = d.MaxReconnectDelay
	}
	if c.MaxReconnectAttempts <= 0 {
		c.MaxReconnectAttempts = d.MaxReconnectAttempts
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.BufferSize <= 0 {
		c.BufferSize = d.BufferSize
	}
	return c
}

// TickerMessage 行情推送（DEFAULT 格式）
type TickerMessage struct {
	Type              string       `json:"type"`
	Code              string       `json:"code"`
	OpeningPrice      types.Number `json:"opening_price"`
	HighPrice         types.Number `json:"high_price"`
	LowPrice          types.Number `json:"low_price"`
	TradePrice        types.Number `json:"trade_price"`
	PrevClosingPrice  types.Number `json:"prev_closing_price"`
	Change            string       `json:"change"`
	ChangePrice       types.Number `json:"change_price"`
	SignedChangePrice types.Number `json:"signed_change_price"`
	ChangeRate        types.Number `json:"change_rate"`
	SignedChangeRate  types.Number `json:"signed_change_rate"`
	TradeVolume       types.Number `json:"trade_volume"`
	AccTradeVolume    types.Number `json:"acc_trade_volume"`
	AccTradeVolume24h types.Number `json:"acc_trade_volume_24h"`
	AccTradePrice     types.Number `json:"acc_trade_price"`
	AccTradePrice24h  types.Number `json:"acc_trade_price_24h"`
	TradeDate         string       `json:"trade_date"`
	TradeTime         string       `json:"trade_time"`
	TradeTimestamp    int64        `json:"trade_timestamp"`
	Timestamp         int64        `json:"timestamp"`
	StreamType        string       `json:"stream_type"` // SNAPSHOT | REALTIME
}

// Ticker 转换为 REST 行情结构，两者字段一致
func (m TickerMessage) Ticker() types.Ticker {
	return types.Ticker{
		Market:            m.Code,
		TradeDate:         m.TradeDate,
		TradeTime:         m.TradeTime,
		TradeTimestamp:    m.TradeTimestamp,
		OpeningPrice:      m.OpeningPrice,
		HighPrice:         m.HighPrice,
		LowPrice:          m.LowPrice,
		TradePrice:        m.TradePrice,
		PrevClosingPrice:  m.PrevClosingPrice,
		Change:            m.Change,
		ChangePrice:       m.ChangePrice,
		ChangeRate:        m.ChangeRate,
		SignedChangePrice: m.SignedChangePrice,
		SignedChangeRate:  m.SignedChangeRate,
		TradeVolume:       m.TradeVolume,
		AccTradePrice:     m.AccTradePrice,
		AccTradePrice24h:  m.AccTradePrice24h,
		AccTradeVolume:    m.AccTradeVolume,
		AccTradeVolume24h: m.AccTradeVolume24h,
		Timestamp:         m.Timestamp,
	}
}

// serverError 服务端错误推送 {"error":{"name":..,"message":..}}
type serverError struct {
	Error *struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
	Status string `json:"status"` // 心跳回复 {"status":"UP"}
}
