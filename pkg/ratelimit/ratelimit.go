package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// 请求分组（与交易所公布的限流口径对应）
const (
	GroupPublic  = "public"  // 行情接口
	GroupPrivate = "private" // 账户、订单查询
	GroupOrder   = "order"   // 下单、撤单
)

// RateLimiter 速率限制器接口
type RateLimiter interface {
	Wait(ctx context.Context) error
	Allow() bool
	GetRemaining() int
	GetResetTime() time.Time
}

// TokenBucket 令牌桶速率限制器
type TokenBucket struct {
	capacity   float64 // 桶容量
	tokens     float64 // 当前令牌数
	refillRate float64 // 每秒补充的令牌数
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket 创建新的令牌桶，容量至少为 1
func NewTokenBucket(capacity int, refillRate float64) *TokenBucket {
	if capacity < 1 {
		capacity = 1
	}
	return &TokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// refill 按经过时间连续补充（亚秒级）
func (tb *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	tb.tokens += elapsed * tb.refillRate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now
}

// Allow 检查是否允许请求
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(time.Now())
	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// Wait 等待直到允许请求
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		tb.mu.Lock()
		tb.refill(time.Now())
		if tb.tokens >= 1 {
			tb.tokens--
			tb.mu.Unlock()
			return nil
		}
		var wait time.Duration
		if tb.refillRate > 0 {
			wait = time.Duration((1 - tb.tokens) / tb.refillRate * float64(time.Second))
		}
		tb.mu.Unlock()

		if wait <= 0 {
			wait = time.Millisecond
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// GetRemaining 获取剩余令牌数
func (tb *TokenBucket) GetRemaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill(time.Now())
	return int(tb.tokens)
}

// GetResetTime 桶重新填满的时间
func (tb *TokenBucket) GetResetTime() time.Time {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	now := time.Now()
	tb.refill(now)
	if tb.tokens >= tb.capacity || tb.refillRate <= 0 {
		return now
	}
	seconds := (tb.capacity - tb.tokens) / tb.refillRate
	return now.Add(time.Duration(seconds * float64(time.Second)))
}

// SlidingWindow 滑动窗口速率限制器
type SlidingWindow struct {
	limit      int
	windowSize time.Duration
	requests   []time.Time
	mu         sync.Mutex
}

// NewSlidingWindow 创建新的滑动窗口速率限制器，限额至少为 1
func NewSlidingWindow(limit int, windowSize time.Duration) *SlidingWindow {
	if limit < 1 {
		limit = 1
	}
	return &SlidingWindow{
		limit:      limit,
		windowSize: windowSize,
		requests:   make([]time.Time, 0, limit),
	}
}

func (sw *SlidingWindow) evict(now time.Time) {
	cutoff := now.Add(-sw.windowSize)
	i := 0
	for i < len(sw.requests) && !sw.requests[i].After(cutoff) {
		i++
	}
	if i > 0 {
		sw.requests = append(sw.requests[:0], sw.requests[i:]...)
	}
}

// Allow 检查是否允许请求
func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.evict(now)
	if len(sw.requests) >= sw.limit {
		return false
	}
	sw.requests = append(sw.requests, now)
	return true
}

// Wait 等待直到允许请求
func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for {
		if sw.Allow() {
			return nil
		}

		sw.mu.Lock()
		wait := 10 * time.Millisecond
		if len(sw.requests) > 0 {
			if d := sw.windowSize - time.Since(sw.requests[0]); d > 0 {
				wait = d
			}
		}
		sw.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// GetRemaining 获取剩余请求数
func (sw *SlidingWindow) GetRemaining() int {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.evict(time.Now())
	if n := sw.limit - len(sw.requests); n > 0 {
		return n
	}
	return 0
}

// GetResetTime 获取重置时间
func (sw *SlidingWindow) GetResetTime() time.Time {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if len(sw.requests) == 0 {
		return time.Now()
	}
	return sw.requests[0].Add(sw.windowSize)
}

// Limits 每秒请求数配置，<=0 表示该分组不限流
type Limits struct {
	Public  float64 `yaml:"public" json:"public"`
	Private float64 `yaml:"private" json:"private"`
	Order   float64 `yaml:"order" json:"order"`
}

// DefaultLimits 略低于交易所公布值（行情 150/s，私有 140/s，下单 10/s）
func DefaultLimits() Limits {
	return Limits{Public: 150, Private: 140, Order: 10}
}

// RateLimitManager 按分组管理速率限制器
type RateLimitManager struct {
	limiters map[string]RateLimiter
	mu       sync.RWMutex
}

// NewRateLimitManager 使用默认限额创建管理器
func NewRateLimitManager() *RateLimitManager {
	return NewRateLimitManagerWithLimits(DefaultLimits())
}

// NewRateLimitManagerWithLimits 按指定限额创建管理器
func NewRateLimitManagerWithLimits(l Limits) *RateLimitManager {
	rlm := &RateLimitManager{limiters: make(map[string]RateLimiter)}
	rlm.initLimiters(l)
	return rlm
}

func (rlm *RateLimitManager) initLimiters(l Limits) {
	if l.Public > 0 {
		rlm.limiters[GroupPublic] = NewTokenBucket(burst(l.Public), l.Public)
	}
	if l.Private > 0 {
		rlm.limiters[GroupPrivate] = NewTokenBucket(burst(l.Private), l.Private)
	}
	if l.Order > 0 {
		// 下单接口按秒计，突发也不能超过一秒的额度
		limit, window := orderWindow(l.Order)
		rlm.limiters[GroupOrder] = NewSlidingWindow(limit, window)
	}
}

// burst 令牌桶容量，小数速率向上取整
func burst(rate float64) int {
	return max(1, int(math.Ceil(rate)))
}

// orderWindow 速率不足 1/s 时放大窗口：0.5/s → 每 2s 一次
func orderWindow(rate float64) (int, time.Duration) {
	if rate < 1 {
		return 1, time.Duration(float64(time.Second) / rate)
	}
	return int(rate), time.Second
}

// SetLimiter 替换指定分组的限制器，nil 表示取消限流
func (rlm *RateLimitManager) SetLimiter(group string, limiter RateLimiter) {
	rlm.mu.Lock()
	defer rlm.mu.Unlock()
	if limiter == nil {
		delete(rlm.limiters, group)
		return
	}
	rlm.limiters[group] = limiter
}

// GetLimiter 获取指定分组的限制器，未配置返回 nil
func (rlm *RateLimitManager) GetLimiter(group string) RateLimiter {
	rlm.mu.RLock()
	defer rlm.mu.RUnlock()
	return rlm.limiters[group]
}

// Wait 等待直到允许请求；未配置的分组直接放行
func (rlm *RateLimitManager) Wait(ctx context.Context, group string) error {
	if rlm == nil {
		return nil
	}
	limiter := rlm.GetLimiter(group)
	if limiter == nil {
		return ctx.Err()
	}
	return limiter.Wait(ctx)
}

// Allow 检查是否允许请求
func (rlm *RateLimitManager) Allow(group string) bool {
	if rlm == nil {
		return true
	}
	limiter := rlm.GetLimiter(group)
	if limiter == nil {
		return true
	}
	return limiter.Allow()
}

// GetRemaining 获取剩余请求数，未配置返回 -1
func (rlm *RateLimitManager) GetRemaining(group string) int {
	if rlm == nil {
		return -1
	}
	limiter := rlm.GetLimiter(group)
	if limiter == nil {
		return -1
	}
	return limiter.GetRemaining()
}
