package domain

import (
	"github.com/shopspring/decimal"

	"github.com/betbot/bithumbkit/bithumb/types"
)

// DefaultMinOrderValue 交易所最小下单金额（KRW）
var DefaultMinOrderValue = decimal.NewFromInt(5000)

// OrderConstraints 市场下单限制
type OrderConstraints struct {
	Market   string
	MinTotal decimal.Decimal
	// BidTypes/AskTypes 支持的交易所下单类型，空表示不限制
	BidTypes []types.OrdType
	AskTypes []types.OrdType
	BidFee   decimal.Decimal
	AskFee   decimal.Decimal
	MaxTotal decimal.Decimal // 0 表示不限制
}

// StaticConstraints 默认限制：最小金额 + limit/price/market
func StaticConstraints(market string, minTotal decimal.Decimal) *OrderConstraints {
	if !minTotal.IsPositive() {
		minTotal = DefaultMinOrderValue
	}
	return &OrderConstraints{
		Market:   market,
		MinTotal: minTotal,
		BidTypes: []types.OrdType{types.OrdTypeLimit, types.OrdTypePrice},
		AskTypes: []types.OrdType{types.OrdTypeLimit, types.OrdTypeMarket},
	}
}

// Supports 该方向是否支持此下单类型
func (c *OrderConstraints) Supports(side OrderSide, t types.OrdType) bool {
	allowed := c.BidTypes
	if side == SideSell {
		allowed = c.AskTypes
	}
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == t {
			return true
		}
	}
	return false
}
