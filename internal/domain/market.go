package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MarketCode 交易对
type MarketCode struct {
	Market      string
	KoreanName  string
	EnglishName string
	Warning     string // CAUTION 等投资警告，空为无
}

// Ticker 当前行情
type Ticker struct {
	Market           string
	TradePrice       decimal.Decimal
	OpeningPrice     decimal.Decimal
	HighPrice        decimal.Decimal
	LowPrice         decimal.Decimal
	PrevClosingPrice decimal.Decimal
	Change           string // RISE | EVEN | FALL
	ChangeRate       decimal.Decimal
	AccTradeVolume   decimal.Decimal
	AccTradePrice24h decimal.Decimal
	Timestamp        time.Time
}

// Candle K 线
type Candle struct {
	Market    string
	Time      time.Time // KST
	TimeUTC   time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal // 成交量
	Value     decimal.Decimal // 成交额
	Timestamp time.Time       // 最后成交时间
}

// IntervalKind K 线周期类别
type IntervalKind string

const (
	IntervalMinutes IntervalKind = "minutes"
	IntervalDays    IntervalKind = "days"
	IntervalWeeks   IntervalKind = "weeks"
	IntervalMonths  IntervalKind = "months"
)

// Interval K 线周期，分钟周期需要 Unit
type Interval struct {
	Kind IntervalKind
	Unit int
}

var (
	Daily   = Interval{Kind: IntervalDays}
	Weekly  = Interval{Kind: IntervalWeeks}
	Monthly = Interval{Kind: IntervalMonths}
)

// Minutes 分钟周期：1, 3, 5, 10, 15, 30, 60, 240
func Minutes(unit int) Interval {
	return Interval{Kind: IntervalMinutes, Unit: unit}
}

func (i Interval) String() string {
	if i.Kind == IntervalMinutes {
		return fmt.Sprintf("minutes/%d", i.Unit)
	}
	return string(i.Kind)
}

// ParseInterval 解析 CLI 周期：minutes|daily|weekly|monthly（及 days/weeks/months）
func ParseInterval(period string, unit int) (Interval, error) {
	switch period {
	case "minutes", "minute", "min":
		if unit <= 0 {
			unit = 1
		}
		return Minutes(unit), nil
	case "daily", "days", "day":
		return Daily, nil
	case "weekly", "weeks", "week":
		return Weekly, nil
	case "monthly", "months", "month":
		return Monthly, nil
	}
	return Interval{}, fmt.Errorf("unknown candle period %q", period)
}
