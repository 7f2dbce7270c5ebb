package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/betbot/bithumbkit/bithumb/client"
	"github.com/betbot/bithumbkit/bithumb/types"
	"github.com/betbot/bithumbkit/internal/domain"
	"github.com/betbot/bithumbkit/internal/metrics"
	"github.com/betbot/bithumbkit/pkg/orderbook"
)

// OrderService 订单生命周期（轮询模型）
//
// 状态只由交易所响应驱动：下单、查询、撤单。本地从不推测成交。
// 已追踪订单保存在 ActiveOrderBook 中，直到调用方 Forget。
type OrderService struct {
	api         OrderAPI
	constraints ConstraintsProvider
	prices      PriceEstimator
	book        *orderbook.ActiveOrderBook
	now         func() time.Time
}

// OrderServiceOption 选项
type OrderServiceOption func(*OrderService)

// WithConstraints 替换下单限制来源（默认静态 5000 KRW）
func WithConstraints(p ConstraintsProvider) OrderServiceOption {
	return func(s *OrderService) {
		if p != nil {
			s.constraints = p
		}
	}
}

// WithPriceEstimator 市价卖单估值来源
func WithPriceEstimator(p PriceEstimator) OrderServiceOption {
	return func(s *OrderService) { s.prices = p }
}

// WithOrderBook 共享订单表
func WithOrderBook(b *orderbook.ActiveOrderBook) OrderServiceOption {
	return func(s *OrderService) {
		if b != nil {
			s.book = b
		}
	}
}

// WithClock 替换时钟（测试用）
func WithClock(now func() time.Time) OrderServiceOption {
	return func(s *OrderService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewOrderService 创建订单服务
func NewOrderService(api OrderAPI, opts ...OrderServiceOption) *OrderService {
	s := &OrderService{
		api:         api,
		constraints: StaticConstraints{MinTotal: domain.DefaultMinOrderValue},
		book:        orderbook.NewActiveOrderBook(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.book.OnNew(func(*domain.Order) {
		metrics.OrdersTracked.Set(int64(s.book.NumOfOrders()))
	})
	return s
}

// OrderBook 订单表（注册 OnFilled/OnCancelled 回调）
func (s *OrderService) OrderBook() *orderbook.ActiveOrderBook {
	return s.book
}

// PlaceOrder 校验并下单
//
// 本地校验失败（InvalidOrderParameters / OrderTooSmall）不会发出任何请求。
// 交易所拒绝时返回状态为 rejected 的订单副本和分类错误，该订单不会被追踪；
// 限流、认证、配置错误只返回错误。
func (s *OrderService) PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 本地可算出金额时先对照下限，过小的订单不查询交易所限制
	notional, known := req.Notional()
	if f, ok := s.constraints.(MinimumFloor); ok && known {
		if floor := f.Floor(); notional.LessThan(floor) {
			return nil, types.NewError(types.KindOrderTooSmall, "order value %s is below minimum %s", notional.String(), floor.String())
		}
	}

	cons, err := s.constraints.Constraints(ctx, req.Market)
	if err != nil {
		return nil, err
	}

	if !known && s.prices != nil {
		price, err := s.prices.CurrentPrice(ctx, req.Market)
		if err != nil {
			return nil, errors.Wrapf(err, "estimate %s order value", req.Market)
		}
		notional, known = req.Volume.Mul(price), true
	}
	if known && notional.LessThan(cons.MinTotal) {
		return nil, types.NewError(types.KindOrderTooSmall, "order value %s is below minimum %s", notional.String(), cons.MinTotal.String())
	}
	if known && cons.MaxTotal.IsPositive() && notional.GreaterThan(cons.MaxTotal) {
		return nil, types.NewError(types.KindInvalidOrderParameters, "order value %s exceeds maximum %s", notional.String(), cons.MaxTotal.String())
	}

	ordType := domain.WireOrdType(req.Type, req.Side)
	if !cons.Supports(req.Side, ordType) {
		return nil, types.NewError(types.KindInvalidOrderParameters, "%s does not accept %s %s orders", req.Market, req.Side, ordType)
	}

	order := domain.NewPendingOrder(req, s.now())
	entry := log.WithFields(logrus.Fields{
		"market": req.Market, "side": req.Side, "type": req.Type,
		"volume": req.Volume.String(), "price": req.Price.String(),
	})

	resp, err := s.api.PostOrder(ctx, client.PostOrderRequest{
		Market:  req.Market,
		Side:    req.Side.Wire(),
		OrdType: ordType,
		Volume:  wireAmount(req.Volume),
		Price:   wireAmount(req.Price),
	})
	if err != nil {
		switch types.KindOf(err) {
		case types.KindExchangeUnavailable:
			// 请求可能已到达交易所，结果未知，不标记 rejected
			entry.WithError(err).Warn("order placement outcome unknown")
			return nil, err
		case types.KindExchangeRejected, types.KindInvalidOrderParameters, types.KindOrderTooSmall:
			_ = order.Apply(domain.StateRejected, s.now())
			var apiErr *types.Error
			if errors.As(err, &apiErr) {
				order.Reason = apiErr.Reason
			}
			metrics.OrdersRejected.Add(1)
			entry.WithError(err).Warn("order rejected")
			return order, err
		default:
			// 限流、认证、配置错误：订单未被交易所受理
			entry.WithError(err).Warn("order not submitted")
			return nil, err
		}
	}

	if err := order.AssignUUID(resp.UUID); err != nil {
		return nil, types.WrapError(types.KindExchangeUnavailable, err, "order acknowledgment")
	}
	// 部分接口的下单确认不带 state，视为已挂单
	var ackState domain.OrderState
	if resp.State == "" {
		ackState = domain.StateOpen
	}
	incoming, err := orderFromWire(resp, ackState, s.now())
	if err != nil {
		return nil, err
	}
	if err := mergeOrder(order, incoming); err != nil {
		return nil, types.WrapError(types.KindExchangeUnavailable, err, "order acknowledgment")
	}
	if err := s.book.Add(order); err != nil {
		return nil, err
	}

	metrics.OrdersPlaced.Add(1)
	entry.WithFields(logrus.Fields{"uuid": order.UUID, "state": order.State}).Info("order placed")
	return order.Clone(), nil
}

// PlaceLimitOrder 限价单
func (s *OrderService) PlaceLimitOrder(ctx context.Context, market string, side domain.OrderSide, volume, price decimal.Decimal) (*domain.Order, error) {
	return s.PlaceOrder(ctx, domain.LimitOrder(market, side, volume, price))
}

// PlaceMarketBuy 市价买入，funds 为投入金额
func (s *OrderService) PlaceMarketBuy(ctx context.Context, market string, funds decimal.Decimal) (*domain.Order, error) {
	return s.PlaceOrder(ctx, domain.MarketBuy(market, funds))
}

// PlaceMarketSell 市价卖出
func (s *OrderService) PlaceMarketSell(ctx context.Context, market string, volume decimal.Decimal) (*domain.Order, error) {
	return s.PlaceOrder(ctx, domain.MarketSell(market, volume))
}

// CancelOrder 撤单
//
// 已追踪且处于终态的订单直接返回；撤单因订单已结束被拒时重新查询，终态则不视为错误。
// 出错时本地记录保持不变。
func (s *OrderService) CancelOrder(ctx context.Context, uuid string) (*domain.Order, error) {
	if uuid == "" {
		return nil, types.NewError(types.KindInvalidOrderParameters, "uuid is required")
	}
	if o, ok := s.book.Get(uuid); ok && o.IsTerminal() {
		return o, nil
	}

	resp, err := s.api.CancelOrder(ctx, uuid)
	if err != nil {
		kind := types.KindOf(err)
		if kind != types.KindOrderNotFound && kind != types.KindExchangeRejected {
			return nil, err
		}
		cur, ferr := s.api.GetOrder(ctx, uuid)
		if ferr != nil {
			return nil, err
		}
		incoming, ferr := orderFromWire(cur, "", s.now())
		if ferr != nil || !incoming.IsTerminal() {
			return nil, err
		}
		log.WithField("uuid", uuid).Infof("cancel raced with completion, order is %s", incoming.State)
		return s.track(incoming)
	}

	// 撤单确认：交易所返回 done 说明已先成交
	if resp.UUID == "" {
		resp.UUID = uuid
	}
	state := domain.StateCancelled
	if resp.State == types.OrderStateDone {
		state = domain.StateFilled
	}
	incoming, err := orderFromWire(resp, state, s.now())
	if err != nil {
		return nil, err
	}
	out, err := s.track(incoming)
	if err != nil {
		return nil, err
	}
	if out.State == domain.StateCancelled {
		metrics.OrdersCancelled.Add(1)
	}
	return out, nil
}

// OrderStatus 重新查询并覆盖本地记录（未追踪则开始追踪）
func (s *OrderService) OrderStatus(ctx context.Context, uuid string) (*domain.Order, error) {
	if uuid == "" {
		return nil, types.NewError(types.KindInvalidOrderParameters, "uuid is required")
	}
	resp, err := s.api.GetOrder(ctx, uuid)
	if err != nil {
		return nil, err
	}
	incoming, err := orderFromWire(resp, "", s.now())
	if err != nil {
		return nil, err
	}
	return s.track(incoming)
}

// track 写入订单表；过期的结果不会让状态倒退，此时返回本地记录
func (s *OrderService) track(incoming *domain.Order) (*domain.Order, error) {
	out, _, err := s.book.Upsert(incoming, func(existing *domain.Order) error {
		return mergeOrder(existing, incoming)
	})
	if err != nil {
		var te *domain.TransitionError
		if errors.As(err, &te) {
			log.WithField("uuid", incoming.UUID).Debugf("ignore stale order state: %v", te)
			return out, nil
		}
		return nil, err
	}
	return out, nil
}

// OrderChance 市场下单限制（实时查询）
func (s *OrderService) OrderChance(ctx context.Context, market string) (*domain.OrderConstraints, error) {
	chance, err := s.api.GetOrderChance(ctx, market)
	if err != nil {
		return nil, err
	}
	return constraintsFromChance(market, chance, decimal.Zero), nil
}

// Orders 分页订单列表（惰性）
func (s *OrderService) Orders(filter OrderFilter) *OrderPager {
	return NewOrderPager(s.api, filter, s.now)
}

// AllOrders 读取全部页
func (s *OrderService) AllOrders(ctx context.Context, filter OrderFilter) ([]*domain.Order, error) {
	return s.Orders(filter).All(ctx)
}

// Tracked 本地追踪的订单
func (s *OrderService) Tracked(uuid string) (*domain.Order, bool) {
	return s.book.Get(uuid)
}

// TrackedOrders 全部追踪订单
func (s *OrderService) TrackedOrders() []*domain.Order {
	return s.book.Orders()
}

// Forget 停止追踪
func (s *OrderService) Forget(uuid string) bool {
	ok := s.book.Remove(uuid)
	metrics.OrdersTracked.Set(int64(s.book.NumOfOrders()))
	return ok
}

// CancelAll 撤销所有未结束的追踪订单
func (s *OrderService) CancelAll(ctx context.Context) error {
	failed, err := s.book.GracefulCancel(ctx, func(ctx context.Context, uuid string) error {
		_, err := s.CancelOrder(ctx, uuid)
		return err
	})
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d orders failed to cancel", failed)
	}
	return nil
}

// wireAmount 0 表示不发送该字段
func wireAmount(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}
