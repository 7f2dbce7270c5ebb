package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betbot/bithumbkit/bithumb/types"
)

// OrderSide 订单方向
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// Wire 交易所编码
func (s OrderSide) Wire() types.Side {
	if s == SideSell {
		return types.SideAsk
	}
	return types.SideBid
}

// SideFromWire bid/ask → buy/sell
func SideFromWire(s types.Side) OrderSide {
	if s == types.SideAsk {
		return SideSell
	}
	return SideBuy
}

// OrderType 订单类型
type OrderType string

const (
	TypeLimit  OrderType = "limit"
	TypeMarket OrderType = "market"
)

// WireOrdType 交易所下单类型：市价买为 price（按金额），市价卖为 market（按数量）
func WireOrdType(t OrderType, side OrderSide) types.OrdType {
	switch {
	case t == TypeLimit:
		return types.OrdTypeLimit
	case side == SideBuy:
		return types.OrdTypePrice
	default:
		return types.OrdTypeMarket
	}
}

// TypeFromWire limit → limit，price/market → market
func TypeFromWire(t types.OrdType) OrderType {
	if t == types.OrdTypeLimit {
		return TypeLimit
	}
	return TypeMarket
}

// OrderState 订单状态
type OrderState string

const (
	StatePending         OrderState = "pending"          // 本地创建，交易所尚未确认
	StateOpen            OrderState = "open"             // 挂单中
	StatePartiallyFilled OrderState = "partially_filled" // 部分成交
	StateFilled          OrderState = "filled"           // 全部成交（终态）
	StateCancelled       OrderState = "cancelled"        // 已取消（终态）
	StateRejected        OrderState = "rejected"         // 被拒绝（终态）
)

// IsTerminal 终态不再变化
func (s OrderState) IsTerminal() bool {
	return s == StateFilled || s == StateCancelled || s == StateRejected
}

var transitions = map[OrderState][]OrderState{
	StatePending:         {StateOpen, StatePartiallyFilled, StateFilled, StateCancelled, StateRejected},
	StateOpen:            {StatePartiallyFilled, StateFilled, StateCancelled},
	StatePartiallyFilled: {StateFilled, StateCancelled},
}

// CanTransition 状态只能前进；同状态视为允许（无变化）
func CanTransition(from, to OrderState) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// StateFromExchange 把交易所状态映射为本地状态
// wait/watch 根据成交量区分 open 与 partially_filled
func StateFromExchange(state types.OrderState, executed decimal.Decimal) (OrderState, error) {
	switch state {
	case types.OrderStateWait, types.OrderStateWatch:
		if executed.IsPositive() {
			return StatePartiallyFilled, nil
		}
		return StateOpen, nil
	case types.OrderStateDone:
		return StateFilled, nil
	case types.OrderStateCancel:
		return StateCancelled, nil
	}
	return "", fmt.Errorf("unknown exchange order state %q", state)
}

// TransitionError 非法状态迁移（通常是过期的查询结果）
type TransitionError struct {
	UUID string
	From OrderState
	To   OrderState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order %s: illegal transition %s -> %s", e.UUID, e.From, e.To)
}

// Order 订单领域模型
type Order struct {
	UUID   string    // 交易所分配，确认前为空，赋值后不可变
	Market string    // KRW-BTC
	Side   OrderSide // 方向
	Type   OrderType // 类型

	// Volume 请求数量（市价买为空）
	Volume decimal.Decimal
	// Price 限价单价格；市价买为总金额；市价卖为空
	Price decimal.Decimal

	State           OrderState
	ExecutedVolume  decimal.Decimal
	RemainingVolume decimal.Decimal
	PaidFee         decimal.Decimal
	Locked          decimal.Decimal
	TradesCount     int
	Reason          string // 被拒绝时的交易所错误名

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPendingOrder 由下单请求创建本地 pending 订单
func NewPendingOrder(req OrderRequest, now time.Time) *Order {
	return &Order{
		Market:    req.Market,
		Side:      req.Side,
		Type:      req.Type,
		Volume:    req.Volume,
		Price:     req.Price,
		State:     StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AssignUUID 只能赋值一次；重复赋相同值是允许的
func (o *Order) AssignUUID(uuid string) error {
	if uuid == "" {
		return fmt.Errorf("empty order uuid")
	}
	if o.UUID != "" && o.UUID != uuid {
		return fmt.Errorf("order uuid already assigned: %s (got %s)", o.UUID, uuid)
	}
	o.UUID = uuid
	return nil
}

// Apply 按交易所结果迁移状态，非法迁移返回 *TransitionError 且不修改订单
func (o *Order) Apply(next OrderState, at time.Time) error {
	if !CanTransition(o.State, next) {
		return &TransitionError{UUID: o.UUID, From: o.State, To: next}
	}
	o.State = next
	if !at.IsZero() {
		o.UpdatedAt = at
	}
	return nil
}

// IsTerminal 是否终态
func (o *Order) IsTerminal() bool {
	return o.State.IsTerminal()
}

// Notional 订单金额：限价为 数量×价格，市价买为总金额，市价卖无法本地计算（返回 false）
func (o *Order) Notional() (decimal.Decimal, bool) {
	return OrderRequest{Market: o.Market, Side: o.Side, Type: o.Type, Volume: o.Volume, Price: o.Price}.Notional()
}

// Clone 深拷贝（decimal 为值类型）
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	return &c
}

func (o *Order) String() string {
	return fmt.Sprintf("Order{%s %s %s %s vol=%s price=%s state=%s}",
		o.UUID, o.Market, o.Side, o.Type, o.Volume.String(), o.Price.String(), o.State)
}

// OrderRequest 下单请求
//
//	limit  买/卖: Volume + Price
//	market 买:   Price = 投入总金额（不传 Volume）
//	market 卖:   Volume（不传 Price）
type OrderRequest struct {
	Market string
	Side   OrderSide
	Type   OrderType
	Volume decimal.Decimal
	Price  decimal.Decimal
}

// LimitOrder 限价单
func LimitOrder(market string, side OrderSide, volume, price decimal.Decimal) OrderRequest {
	return OrderRequest{Market: market, Side: side, Type: TypeLimit, Volume: volume, Price: price}
}

// MarketBuy 市价买入，funds 为投入金额
func MarketBuy(market string, funds decimal.Decimal) OrderRequest {
	return OrderRequest{Market: market, Side: SideBuy, Type: TypeMarket, Price: funds}
}

// MarketSell 市价卖出
func MarketSell(market string, volume decimal.Decimal) OrderRequest {
	return OrderRequest{Market: market, Side: SideSell, Type: TypeMarket, Volume: volume}
}

// Validate 检查参数组合，返回 InvalidOrderParameters
func (r OrderRequest) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return types.NewError(types.KindInvalidOrderParameters, format, args...)
	}
	if r.Market == "" {
		return invalid("market is required")
	}
	if r.Side != SideBuy && r.Side != SideSell {
		return invalid("unknown side %q", r.Side)
	}
	if r.Volume.IsNegative() || r.Price.IsNegative() {
		return invalid("volume and price must not be negative")
	}

	switch r.Type {
	case TypeLimit:
		if !r.Volume.IsPositive() || !r.Price.IsPositive() {
			return invalid("limit order requires volume and price")
		}
	case TypeMarket:
		if r.Side == SideBuy {
			if !r.Price.IsPositive() {
				return invalid("market buy requires total funds as price")
			}
			if !r.Volume.IsZero() {
				return invalid("market buy must not carry volume")
			}
		} else {
			if !r.Volume.IsPositive() {
				return invalid("market sell requires volume")
			}
			if !r.Price.IsZero() {
				return invalid("market sell must not carry price")
			}
		}
	default:
		return invalid("unknown order type %q", r.Type)
	}
	return nil
}

// Notional 可本地计算的订单金额
func (r OrderRequest) Notional() (decimal.Decimal, bool) {
	switch {
	case r.Type == TypeLimit:
		return r.Volume.Mul(r.Price), true
	case r.Type == TypeMarket && r.Side == SideBuy:
		return r.Price, true
	}
	return decimal.Zero, false
}
