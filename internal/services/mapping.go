package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betbot/bithumbkit/bithumb/types"
	"github.com/betbot/bithumbkit/internal/domain"
)

var kst = time.FixedZone("KST", 9*60*60)

const candleTimeLayout = "2006-01-02T15:04:05"

func parseCandleTime(s string, loc *time.Location) time.Time {
	t, err := time.ParseInLocation(candleTimeLayout, s, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseOrderTime created_at 形如 2024-01-01T12:00:00+09:00
func parseOrderTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return parseCandleTime(s, kst)
}

func candleFromWire(c types.Candle) domain.Candle {
	return domain.Candle{
		Market:    c.Market,
		Time:      parseCandleTime(c.CandleDateTimeKST, kst),
		TimeUTC:   parseCandleTime(c.CandleDateTimeUTC, time.UTC),
		Open:      c.OpeningPrice.Decimal(),
		High:      c.HighPrice.Decimal(),
		Low:       c.LowPrice.Decimal(),
		Close:     c.TradePrice.Decimal(),
		Volume:    c.CandleAccTradeVolume.Decimal(),
		Value:     c.CandleAccTradePrice.Decimal(),
		Timestamp: time.UnixMilli(c.Timestamp),
	}
}

func tickerFromWire(t types.Ticker) *domain.Ticker {
	return &domain.Ticker{
		Market:           t.Market,
		TradePrice:       t.TradePrice.Decimal(),
		OpeningPrice:     t.OpeningPrice.Decimal(),
		HighPrice:        t.HighPrice.Decimal(),
		LowPrice:         t.LowPrice.Decimal(),
		PrevClosingPrice: t.PrevClosingPrice.Decimal(),
		Change:           t.Change,
		ChangeRate:       t.ChangeRate.Decimal(),
		AccTradeVolume:   t.AccTradeVolume.Decimal(),
		AccTradePrice24h: t.AccTradePrice24h.Decimal(),
		Timestamp:        time.UnixMilli(t.Timestamp),
	}
}

func marketCodeFromWire(m types.MarketCode) domain.MarketCode {
	warning := m.MarketWarning
	if warning == "NONE" {
		warning = ""
	}
	return domain.MarketCode{
		Market:      m.Market,
		KoreanName:  m.KoreanName,
		EnglishName: m.EnglishName,
		Warning:     warning,
	}
}

func balanceFromWire(a types.Account) *domain.Balance {
	return domain.NewBalance(
		strings.ToUpper(a.Currency),
		a.UnitCurrency,
		a.Balance.Decimal(),
		a.Locked.Decimal(),
		a.AvgBuyPrice.Decimal(),
	)
}

// orderFromWire 交易所订单 → 本地订单。state 为空时由交易所状态推导
func orderFromWire(resp *types.OrderResponse, state domain.OrderState, now time.Time) (*domain.Order, error) {
	executed := resp.ExecutedVolume.Decimal()
	if state == "" {
		s, err := domain.StateFromExchange(resp.State, executed)
		if err != nil {
			return nil, types.WrapError(types.KindExchangeUnavailable, err, "order %s", resp.UUID)
		}
		state = s
	}

	side := domain.SideFromWire(resp.Side)
	o := &domain.Order{
		Market:          resp.Market,
		Side:            side,
		Type:            domain.TypeFromWire(resp.OrdType),
		Volume:          resp.Volume.Decimal(),
		Price:           resp.Price.Decimal(),
		State:           state,
		ExecutedVolume:  executed,
		RemainingVolume: resp.RemainingVolume.Decimal(),
		PaidFee:         resp.PaidFee.Decimal(),
		Locked:          resp.Locked.Decimal(),
		TradesCount:     resp.TradesCount,
		CreatedAt:       parseOrderTime(resp.CreatedAt),
		UpdatedAt:       now,
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	if err := o.AssignUUID(resp.UUID); err != nil {
		return nil, types.WrapError(types.KindExchangeUnavailable, err, "order response without uuid")
	}
	return o, nil
}

// mergeOrder 用交易所最新结果覆盖本地记录；状态只能前进
func mergeOrder(existing, incoming *domain.Order) error {
	if err := existing.Apply(incoming.State, incoming.UpdatedAt); err != nil {
		return err
	}
	existing.ExecutedVolume = incoming.ExecutedVolume
	existing.RemainingVolume = incoming.RemainingVolume
	existing.PaidFee = incoming.PaidFee
	existing.Locked = incoming.Locked
	existing.TradesCount = incoming.TradesCount
	if existing.Market == "" {
		existing.Market = incoming.Market
		existing.Side = incoming.Side
		existing.Type = incoming.Type
	}
	if existing.Volume.IsZero() {
		existing.Volume = incoming.Volume
	}
	if existing.Price.IsZero() {
		existing.Price = incoming.Price
	}
	return nil
}

func maxDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

func constraintsFromChance(market string, c *types.OrderChance, floor decimal.Decimal) *domain.OrderConstraints {
	minTotal := maxDecimal(c.Market.Bid.MinTotal.Decimal(), c.Market.Ask.MinTotal.Decimal())
	if !minTotal.IsPositive() {
		minTotal = floor
	}
	if !minTotal.IsPositive() {
		minTotal = domain.DefaultMinOrderValue
	}

	if c.Market.ID != "" {
		market = c.Market.ID
	}
	return &domain.OrderConstraints{
		Market:   market,
		MinTotal: minTotal,
		BidTypes: ordTypes(c.Market.BidTypes, c.Market.OrderTypes),
		AskTypes: ordTypes(c.Market.AskTypes, c.Market.OrderTypes),
		BidFee:   c.BidFee.Decimal(),
		AskFee:   c.AskFee.Decimal(),
		MaxTotal: c.Market.MaxTotal.Decimal(),
	}
}

func ordTypes(sideTypes, all []string) []types.OrdType {
	src := sideTypes
	if len(src) == 0 {
		src = all
	}
	out := make([]types.OrdType, 0, len(src))
	for _, s := range src {
		out = append(out, types.OrdType(s))
	}
	return out
}
