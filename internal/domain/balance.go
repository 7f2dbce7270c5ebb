package domain

import "github.com/shopspring/decimal"

// Balance 资产快照（不缓存）
type Balance struct {
	Currency     string
	UnitCurrency string
	Total        decimal.Decimal // Available + Locked
	Available    decimal.Decimal
	Locked       decimal.Decimal
	AvgBuyPrice  decimal.Decimal
}

// NewBalance Total 由 Available + Locked 计算
func NewBalance(currency, unit string, available, locked, avg decimal.Decimal) *Balance {
	return &Balance{
		Currency:     currency,
		UnitCurrency: unit,
		Total:        available.Add(locked),
		Available:    available,
		Locked:       locked,
		AvgBuyPrice:  avg,
	}
}

// ZeroBalance 未持有的币种
func ZeroBalance(currency string) *Balance {
	return NewBalance(currency, "", decimal.Zero, decimal.Zero, decimal.Zero)
}

// IsZero 总额为 0
func (b *Balance) IsZero() bool {
	return b == nil || b.Total.IsZero()
}

// Valuation 按均价估算的持仓成本
func (b *Balance) Valuation() decimal.Decimal {
	return b.Total.Mul(b.AvgBuyPrice)
}
