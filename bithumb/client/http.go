package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/betbot/bithumbkit/bithumb/signing"
	"github.com/betbot/bithumbkit/bithumb/types"
	"github.com/betbot/bithumbkit/internal/metrics"
	"github.com/betbot/bithumbkit/pkg/ratelimit"
)

// Execute 发送请求并把成功响应解码到 out（out 为 nil 时丢弃响应体）
//
// 重试规则：
//   - 网络错误与 5xx：指数退避，最多 MaxRetries 次；RetryUnsafe 请求只重试连接失败
//   - 429：优先使用 Retry-After（不超过 MaxRetryAfter），超过次数返回 RateLimited
//   - 401 时间戳类错误：换新令牌重试一次
//   - 其余 4xx 不重试
//
// 每次尝试都重新签名（新 nonce）。
func (c *Client) Execute(ctx context.Context, req *types.Request, out interface{}) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return types.NewError(types.KindConfiguration, "nil request")
	}
	if req.Private && c.signer == nil {
		return c.fail(types.NewError(types.KindConfiguration, "%s %s requires credentials", req.Method, req.Path))
	}

	group := limitGroup(req)
	log := c.log.WithFields(logrus.Fields{"method": req.Method, "path": req.Path})
	skewRetried := false

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return c.fail(types.WrapError(types.KindExchangeUnavailable, err, "%s %s", req.Method, req.Path))
		}
		if !c.limiter.Allow(group) {
			metrics.RateLimitWaits.Add(1)
			if err := c.limiter.Wait(ctx, group); err != nil {
				return c.fail(types.WrapError(types.KindExchangeUnavailable, err, "%s %s", req.Method, req.Path))
			}
		}
		if attempt > 0 {
			metrics.Retries.Add(1)
		}
		metrics.Requests.Add(1)

		start := time.Now()
		resp, err := c.roundTrip(ctx, req)
		elapsed := time.Since(start)
		metrics.ObserveLatency(group, elapsed.Milliseconds())

		if err != nil {
			var apiErr *types.Error
			if errors.As(err, &apiErr) {
				return c.fail(apiErr)
			}
			if ctx.Err() != nil {
				return c.fail(types.WrapError(types.KindExchangeUnavailable, ctx.Err(), "%s %s", req.Method, req.Path))
			}
			if attempt < c.cfg.MaxRetries && (!req.RetryUnsafe || isDialError(err)) {
				wait := c.backoff(attempt)
				log.WithError(err).WithField("attempt", attempt+1).Warnf("request failed, retry in %s", wait)
				if werr := c.sleep(ctx, wait); werr != nil {
					return c.fail(types.WrapError(types.KindExchangeUnavailable, werr, "%s %s", req.Method, req.Path))
				}
				continue
			}
			return c.fail(types.WrapError(types.KindExchangeUnavailable, err, "%s %s", req.Method, req.Path))
		}

		status := resp.StatusCode()
		body := resp.Body()
		log.WithFields(logrus.Fields{"status": status, "attempt": attempt + 1, "elapsed": elapsed}).Debug("response")

		apiErr := classifyResponse(status, body)
		if apiErr == nil {
			if out == nil || len(body) == 0 {
				return nil
			}
			if err := json.Unmarshal(body, out); err != nil {
				return c.fail(types.WrapError(types.KindExchangeUnavailable, err, "decode %s %s response", req.Method, req.Path))
			}
			return nil
		}

		var wait time.Duration
		switch {
		case apiErr.Kind == types.KindRateLimited && attempt < c.cfg.MaxRetries:
			wait = c.rateLimitWait(resp.Header(), attempt, time.Now())
		case apiErr.Kind == types.KindExchangeUnavailable && status >= 500 && !req.RetryUnsafe && attempt < c.cfg.MaxRetries:
			wait = c.backoff(attempt)
		case isClockSkew(apiErr) && !skewRetried:
			skewRetried = true
		default:
			return c.fail(apiErr)
		}

		log.WithFields(logrus.Fields{"status": status, "reason": apiErr.Reason, "attempt": attempt + 1}).
			Warnf("%s, retry in %s", apiErr.Kind, wait)
		if err := c.sleep(ctx, wait); err != nil {
			return c.fail(types.WrapError(types.KindExchangeUnavailable, err, "%s %s", req.Method, req.Path))
		}
	}
}

// roundTrip 单次请求：签名、编码、发送
func (c *Client) roundTrip(ctx context.Context, req *types.Request) (*resty.Response, error) {
	r := c.http.R().SetContext(ctx)

	if req.Private {
		tok, err := c.signer.Sign(req)
		if err != nil {
			return nil, err
		}
		r.SetHeader(signing.AuthorizationHeader, tok.Header())
	}

	// 发送内容与签名使用同一个规范串
	url := req.Path
	switch req.Method {
	case http.MethodGet, http.MethodDelete:
		if q := req.QueryString(); q != "" {
			url += "?" + q
		}
	case http.MethodPost:
		body, err := req.Params.MarshalJSON()
		if err != nil {
			return nil, types.WrapError(types.KindConfiguration, err, "encode body")
		}
		r.SetHeader("Content-Type", "application/json; charset=utf-8").SetBody(body)
	default:
		return nil, types.NewError(types.KindConfiguration, "unsupported method %s", req.Method)
	}

	return r.Execute(req.Method, url)
}

func (c *Client) fail(e *types.Error) error {
	metrics.ObserveError(string(e.Kind))
	return e
}

// backoff base * 2^attempt，上限 RetryMaxDelay
func (c *Client) backoff(attempt int) time.Duration {
	d := c.cfg.RetryBaseDelay
	for i := 0; i < attempt && d < c.cfg.RetryMaxDelay; i++ {
		d *= 2
	}
	if d > c.cfg.RetryMaxDelay {
		d = c.cfg.RetryMaxDelay
	}
	return d
}

// rateLimitWait 429 的等待：优先 Retry-After，否则线性退避，均不超过 MaxRetryAfter
func (c *Client) rateLimitWait(h http.Header, attempt int, now time.Time) time.Duration {
	wait := retryAfter(h, now)
	if wait <= 0 {
		wait = c.cfg.RateLimitBackoff * time.Duration(attempt+1)
	}
	return min(wait, c.cfg.MaxRetryAfter)
}

// retryAfter 解析 Retry-After（秒数或 HTTP 日期），无效返回 0
func retryAfter(h http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func limitGroup(req *types.Request) string {
	switch {
	case req.Limit != "":
		return req.Limit
	case req.Private:
		return ratelimit.GroupPrivate
	default:
		return ratelimit.GroupPublic
	}
}
