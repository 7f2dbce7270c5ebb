package client

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/betbot/bithumbkit/bithumb/signing"
	"github.com/betbot/bithumbkit/bithumb/types"
	"github.com/betbot/bithumbkit/pkg/ratelimit"
)

// Config 传输层配置
type Config struct {
	BaseURL string
	Timeout time.Duration

	// MaxRetries 可重试错误的最大重试次数（不含首次请求）
	MaxRetries int
	// RetryBaseDelay 指数退避基数：base * 2^n，上限 RetryMaxDelay
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	// RateLimitBackoff 429 未携带 Retry-After 时的等待
	RateLimitBackoff time.Duration
	// MaxRetryAfter 429 单次等待上限（含服务端 Retry-After）
	MaxRetryAfter time.Duration

	Limits    ratelimit.Limits
	UserAgent string
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		BaseURL:          DefaultBaseURL,
		Timeout:          10 * time.Second,
		MaxRetries:       3,
		RetryBaseDelay:   200 * time.Millisecond,
		RetryMaxDelay:    5 * time.Second,
		RateLimitBackoff: time.Second,
		MaxRetryAfter:    30 * time.Second,
		Limits:           ratelimit.DefaultLimits(),
		UserAgent:        "bithumbkit",
	}
}

// Client Bithumb REST 传输层：签名、限流、重试与错误分类
// 并发安全，多个服务共享同一个实例
type Client struct {
	cfg     Config
	http    *resty.Client
	signer  signing.Signer
	limiter *ratelimit.RateLimitManager
	log     *logrus.Entry
	sleep   func(ctx context.Context, d time.Duration) error
}

// Option 客户端选项
type Option func(*Client)

// WithSigner 设置签名器（私有接口必需）
func WithSigner(s signing.Signer) Option {
	return func(c *Client) { c.signer = s }
}

// WithCredentials 用凭证创建默认 JWT 签名器，凭证无效时忽略（私有调用会返回配置错误）
func WithCredentials(creds types.Credentials) Option {
	return func(c *Client) {
		if s, err := signing.NewJWTSigner(creds); err == nil {
			c.signer = s
		}
	}
}

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = resty.NewWithClient(hc)
		}
	}
}

// WithRateLimiter 替换限流器，nil 关闭本地限流
func WithRateLimiter(rl *ratelimit.RateLimitManager) Option {
	return func(c *Client) { c.limiter = rl }
}

// WithLogger 设置日志
func WithLogger(l *logrus.Entry) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithSleep 替换退避等待（测试用）
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// New 创建客户端
func New(cfg Config, opts ...Option) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = def.RetryBaseDelay
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = def.RetryMaxDelay
	}
	if cfg.RateLimitBackoff <= 0 {
		cfg.RateLimitBackoff = def.RateLimitBackoff
	}
	if cfg.MaxRetryAfter <= 0 {
		cfg.MaxRetryAfter = def.MaxRetryAfter
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}

	c := &Client{
		cfg:     cfg,
		http:    resty.New(),
		limiter: ratelimit.NewRateLimitManagerWithLimits(cfg.Limits),
		log:     logrus.WithField("component", "bithumb"),
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}

	// 重试由 Execute 自己控制（每次尝试都要重新签名），resty 只负责单次请求
	c.http.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")

	return c
}

// BaseURL 返回接口地址
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// HasSigner 是否可以调用私有接口
func (c *Client) HasSigner() bool {
	return c.signer != nil
}

// Config 返回生效的配置
func (c *Client) Config() Config {
	return c.cfg
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
