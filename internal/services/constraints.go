package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betbot/bithumbkit/internal/domain"
	"github.com/betbot/bithumbkit/pkg/cache"
)

// ConstraintsProvider 市场下单限制来源
type ConstraintsProvider interface {
	Constraints(ctx context.Context, market string) (*domain.OrderConstraints, error)
}

// MinimumFloor 无需请求即可确定的最小下单金额
type MinimumFloor interface {
	Floor() decimal.Decimal
}

// StaticConstraints 固定最小金额 + 默认下单类型
type StaticConstraints struct {
	MinTotal decimal.Decimal
}

// Constraints 实现 ConstraintsProvider
func (s StaticConstraints) Constraints(_ context.Context, market string) (*domain.OrderConstraints, error) {
	return domain.StaticConstraints(market, s.MinTotal), nil
}

// Floor 实现 MinimumFloor
func (s StaticConstraints) Floor() decimal.Decimal {
	return positiveOr(s.MinTotal, domain.DefaultMinOrderValue)
}

// ExchangeConstraints 读取 /v1/orders/chance，按 TTL 缓存
type ExchangeConstraints struct {
	api   ChanceAPI
	floor decimal.Decimal
	cache *cache.InMemoryCache[string, *domain.OrderConstraints]
}

// NewExchangeConstraints floor 为交易所未返回 min_total 时的兜底值
func NewExchangeConstraints(api ChanceAPI, ttl time.Duration, floor decimal.Decimal) *ExchangeConstraints {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ExchangeConstraints{
		api:   api,
		floor: floor,
		cache: cache.NewInMemoryCache[string, *domain.OrderConstraints](ttl),
	}
}

// Constraints 实现 ConstraintsProvider
func (e *ExchangeConstraints) Constraints(ctx context.Context, market string) (*domain.OrderConstraints, error) {
	return e.cache.GetOrLoad(market, func() (*domain.OrderConstraints, error) {
		chance, err := e.api.GetOrderChance(ctx, market)
		if err != nil {
			return nil, err
		}
		c := constraintsFromChance(market, chance, e.floor)
		log.WithField("market", market).Debugf("order constraints loaded: min_total=%s", c.MinTotal)
		return c, nil
	})
}

// Floor 配置的下限，交易所返回的 min_total 可能更高
func (e *ExchangeConstraints) Floor() decimal.Decimal {
	return positiveOr(e.floor, domain.DefaultMinOrderValue)
}

// Invalidate 丢弃某个市场的缓存
func (e *ExchangeConstraints) Invalidate(market string) {
	e.cache.Delete(market)
}

// Close 停止缓存清理
func (e *ExchangeConstraints) Close() {
	e.cache.Close()
}

func positiveOr(d, fallback decimal.Decimal) decimal.Decimal {
	if d.IsPositive() {
		return d
	}
	return fallback
}
