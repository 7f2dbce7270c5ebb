package services

import (
	"context"
	"iter"
	"time"

	"github.com/betbot/bithumbkit/bithumb/client"
	"github.com/betbot/bithumbkit/bithumb/types"
	"github.com/betbot/bithumbkit/internal/domain"
)

// DefaultOrderPageSize 每页订单数
const DefaultOrderPageSize = client.MaxOrderPageLimit

// OrderFilter 订单列表过滤条件
type OrderFilter struct {
	Market   string
	State    types.OrderState   // wait | watch | done | cancel
	States   []types.OrderState // 多状态（与 State 二选一）
	UUIDs    []string
	PageSize int    // 默认 100，上限 100
	OrderBy  string // asc | desc，默认交易所排序
	MaxPages int    // 0 不限制
}

func (f OrderFilter) pageSize() int {
	if f.PageSize <= 0 || f.PageSize > client.MaxOrderPageLimit {
		return DefaultOrderPageSize
	}
	return f.PageSize
}

// OrderPager 惰性分页：每次 Next 才请求下一页，不跨调用缓存。
// 同一轮迭代内跨页重复的 uuid 只返回一次，保持交易所顺序。Reset 后可重新开始。
// 非并发安全。
type OrderPager struct {
	api    OrderAPI
	filter OrderFilter
	now    func() time.Time

	page int
	seen map[string]struct{}
	done bool
}

// NewOrderPager 创建分页器
func NewOrderPager(api OrderAPI, filter OrderFilter, now func() time.Time) *OrderPager {
	if now == nil {
		now = time.Now
	}
	p := &OrderPager{api: api, filter: filter, now: now}
	p.Reset()
	return p
}

// Reset 从第一页重新开始
func (p *OrderPager) Reset() {
	p.page = 0
	p.seen = make(map[string]struct{})
	p.done = false
}

// Done 是否已读完
func (p *OrderPager) Done() bool {
	return p.done
}

// Page 已读取的页数
func (p *OrderPager) Page() int {
	return p.page
}

// Next 读取下一页；读完后返回 nil, nil
func (p *OrderPager) Next(ctx context.Context) ([]*domain.Order, error) {
	if p.done {
		return nil, nil
	}
	size := p.filter.pageSize()
	raw, err := p.api.ListOrders(ctx, types.OrderListParams{
		Market:  p.filter.Market,
		UUIDs:   p.filter.UUIDs,
		State:   p.filter.State,
		States:  p.filter.States,
		Page:    p.page + 1,
		Limit:   size,
		OrderBy: p.filter.OrderBy,
	})
	if err != nil {
		return nil, err
	}
	p.page++
	if len(raw) < size || (p.filter.MaxPages > 0 && p.page >= p.filter.MaxPages) {
		p.done = true
	}

	now := p.now()
	out := make([]*domain.Order, 0, len(raw))
	for i := range raw {
		if _, dup := p.seen[raw[i].UUID]; dup {
			continue
		}
		o, err := orderFromWire(&raw[i], "", now)
		if err != nil {
			log.WithError(err).Warn("skip malformed order in list")
			continue
		}
		p.seen[o.UUID] = struct{}{}
		out = append(out, o)
	}
	return out, nil
}

// All 从当前位置读到最后一页
func (p *OrderPager) All(ctx context.Context) ([]*domain.Order, error) {
	var all []*domain.Order
	for !p.done {
		page, err := p.Next(ctx)
		if err != nil {
			return all, err
		}
		all = append(all, page...)
	}
	return all, nil
}

// Seq 以迭代器形式遍历；每次调用都从第一页开始，互不影响
func (p *OrderPager) Seq(ctx context.Context) iter.Seq2[*domain.Order, error] {
	return func(yield func(*domain.Order, error) bool) {
		cursor := NewOrderPager(p.api, p.filter, p.now)
		for !cursor.Done() {
			page, err := cursor.Next(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, o := range page {
				if !yield(o, nil) {
					return
				}
			}
		}
	}
}
