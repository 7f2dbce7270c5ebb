package orderbook

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/betbot/bithumbkit/internal/domain"
	"github.com/betbot/bithumbkit/pkg/logger"
)

const (
	DefaultCancelOrderWaitTime = 50 * time.Millisecond
	DefaultOrderCancelTimeout  = 15 * time.Second
)

// ActiveOrderBook 本地订单追踪表（按 UUID）
//
// 终态订单仍保留，直到调用方显式 Remove；对外只返回副本。
type ActiveOrderBook struct {
	orders map[string]*domain.Order
	mu     sync.RWMutex

	cbMu               sync.RWMutex
	newCallbacks       []func(order *domain.Order)
	updateCallbacks    []func(order *domain.Order)
	filledCallbacks    []func(order *domain.Order)
	cancelledCallbacks []func(order *domain.Order)

	// changed 非阻塞信号：任一订单变化
	changed chan struct{}

	cancelOrderWaitTime time.Duration
	cancelOrderTimeout  time.Duration
}

// NewActiveOrderBook 创建订单追踪表
func NewActiveOrderBook() *ActiveOrderBook {
	return &ActiveOrderBook{
		orders:              make(map[string]*domain.Order),
		changed:             make(chan struct{}, 1),
		cancelOrderWaitTime: DefaultCancelOrderWaitTime,
		cancelOrderTimeout:  DefaultOrderCancelTimeout,
	}
}

// SetCancelTimeout GracefulCancel 的等待上限
func (b *ActiveOrderBook) SetCancelTimeout(d time.Duration) {
	if d > 0 {
		b.cancelOrderTimeout = d
	}
}

func (b *ActiveOrderBook) emit() {
	select {
	case b.changed <- struct{}{}:
	default:
	}
}

// Add 添加订单（必须已有 UUID），已存在时覆盖
func (b *ActiveOrderBook) Add(order *domain.Order) error {
	if order == nil || order.UUID == "" {
		return fmt.Errorf("cannot track order without uuid")
	}
	stored := order.Clone()

	b.mu.Lock()
	b.orders[stored.UUID] = stored
	b.mu.Unlock()

	b.fire(nil, stored.Clone())
	return nil
}

// Upsert 不存在则添加 incoming；存在则在锁内调用 merge 修改已有记录。
// merge 返回错误时记录保持原样。返回修改后的副本与是否新建。
func (b *ActiveOrderBook) Upsert(incoming *domain.Order, merge func(existing *domain.Order) error) (*domain.Order, bool, error) {
	if incoming == nil || incoming.UUID == "" {
		return nil, false, fmt.Errorf("cannot track order without uuid")
	}

	b.mu.Lock()
	existing, ok := b.orders[incoming.UUID]
	if !ok {
		stored := incoming.Clone()
		b.orders[stored.UUID] = stored
		b.mu.Unlock()

		out := stored.Clone()
		b.fire(nil, out)
		return out.Clone(), true, nil
	}

	before := existing.Clone()
	work := existing.Clone()
	if err := merge(work); err != nil {
		b.mu.Unlock()
		return before, false, err
	}
	b.orders[work.UUID] = work
	b.mu.Unlock()

	out := work.Clone()
	b.fire(before, out)
	return out.Clone(), false, nil
}

// fire 在锁外触发回调
func (b *ActiveOrderBook) fire(before, after *domain.Order) {
	b.cbMu.RLock()
	defer b.cbMu.RUnlock()

	if before == nil {
		for _, cb := range b.newCallbacks {
			cb(after)
		}
	} else {
		for _, cb := range b.updateCallbacks {
			cb(after)
		}
	}

	if before == nil || before.State != after.State {
		switch after.State {
		case domain.StateFilled:
			for _, cb := range b.filledCallbacks {
				cb(after)
			}
		case domain.StateCancelled:
			for _, cb := range b.cancelledCallbacks {
				cb(after)
			}
		}
	}
	b.emit()
}

// Remove 移除订单
func (b *ActiveOrderBook) Remove(uuid string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.orders[uuid]; exists {
		delete(b.orders, uuid)
		return true
	}
	return false
}

// Get 获取订单副本
func (b *ActiveOrderBook) Get(uuid string) (*domain.Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	order, ok := b.orders[uuid]
	if !ok {
		return nil, false
	}
	return order.Clone(), true
}

// Exists 检查订单是否存在
func (b *ActiveOrderBook) Exists(uuid string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, exists := b.orders[uuid]
	return exists
}

// NumOfOrders 订单数量（含终态）
func (b *ActiveOrderBook) NumOfOrders() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.orders)
}

// NumOfActive 非终态订单数量
func (b *ActiveOrderBook) NumOfActive() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, o := range b.orders {
		if !o.IsTerminal() {
			n++
		}
	}
	return n
}

// Orders 所有订单副本，按创建时间排序
func (b *ActiveOrderBook) Orders() []*domain.Order {
	return b.collect(func(*domain.Order) bool { return true })
}

// ActiveOrders 非终态订单副本
func (b *ActiveOrderBook) ActiveOrders() []*domain.Order {
	return b.collect(func(o *domain.Order) bool { return !o.IsTerminal() })
}

func (b *ActiveOrderBook) collect(keep func(*domain.Order) bool) []*domain.Order {
	b.mu.RLock()
	orders := make([]*domain.Order, 0, len(b.orders))
	for _, order := range b.orders {
		if keep(order) {
			orders = append(orders, order.Clone())
		}
	}
	b.mu.RUnlock()

	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].UUID < orders[j].UUID
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
	return orders
}

// OnNew 注册新订单回调
func (b *ActiveOrderBook) OnNew(cb func(order *domain.Order)) {
	b.cbMu.Lock()
	defer b.cbMu.Unlock()
	b.newCallbacks = append(b.newCallbacks, cb)
}

// OnUpdate 注册订单更新回调
func (b *ActiveOrderBook) OnUpdate(cb func(order *domain.Order)) {
	b.cbMu.Lock()
	defer b.cbMu.Unlock()
	b.updateCallbacks = append(b.updateCallbacks, cb)
}

// OnFilled 注册订单成交回调
func (b *ActiveOrderBook) OnFilled(cb func(order *domain.Order)) {
	b.cbMu.Lock()
	defer b.cbMu.Unlock()
	b.filledCallbacks = append(b.filledCallbacks, cb)
}

// OnCancelled 注册订单取消回调
func (b *ActiveOrderBook) OnCancelled(cb func(order *domain.Order)) {
	b.cbMu.Lock()
	defer b.cbMu.Unlock()
	b.cancelledCallbacks = append(b.cancelledCallbacks, cb)
}

// GracefulCancel 逐个撤销非终态订单，并等待它们全部进入终态。
// cancelFunc 负责把结果写回本表（例如 OrderService.CancelOrder）。
// 返回撤单失败的订单数。
func (b *ActiveOrderBook) GracefulCancel(ctx context.Context, cancelFunc func(ctx context.Context, uuid string) error) (int, error) {
	failed := 0
	for _, order := range b.ActiveOrders() {
		if err := cancelFunc(ctx, order.UUID); err != nil {
			failed++
			logger.Warnf("取消订单 %s 失败: %v", order.UUID, err)
		}
	}
	if failed > 0 {
		return failed, nil
	}
	return 0, b.waitActiveClear(ctx)
}

func (b *ActiveOrderBook) waitActiveClear(ctx context.Context) error {
	ticker := time.NewTicker(b.cancelOrderWaitTime)
	defer ticker.Stop()

	timeout := time.NewTimer(b.cancelOrderTimeout)
	defer timeout.Stop()

	for {
		if b.NumOfActive() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout.C:
			return fmt.Errorf("order cancel timeout: %d still active", b.NumOfActive())
		case <-ticker.C:
		case <-b.changed:
		}
	}
}
