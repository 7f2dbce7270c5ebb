package services

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/betbot/bithumbkit/bithumb/client"
	"github.com/betbot/bithumbkit/bithumb/types"
	"github.com/betbot/bithumbkit/internal/domain"
)

// PriceEstimator 市价卖单的金额估算来源
type PriceEstimator interface {
	CurrentPrice(ctx context.Context, market string) (decimal.Decimal, error)
}

// MarketDataService 行情查询，只使用公共接口，无状态
type MarketDataService struct {
	api MarketAPI
}

// NewMarketDataService 创建行情服务
func NewMarketDataService(api MarketAPI) *MarketDataService {
	return &MarketDataService{api: api}
}

// MarketCodes 交易对列表
func (s *MarketDataService) MarketCodes(ctx context.Context, details bool) ([]domain.MarketCode, error) {
	codes, err := s.api.GetMarketCodes(ctx, details)
	if err != nil {
		return nil, err
	}
	out := make([]domain.MarketCode, 0, len(codes))
	for _, c := range codes {
		out = append(out, marketCodeFromWire(c))
	}
	return out, nil
}

// Tickers 批量行情，按请求顺序返回交易所有数据的市场
func (s *MarketDataService) Tickers(ctx context.Context, markets ...string) ([]*domain.Ticker, error) {
	raw, err := s.api.GetTickers(ctx, markets...)
	if err != nil {
		return nil, err
	}
	byMarket := make(map[string]*domain.Ticker, len(raw))
	for _, t := range raw {
		byMarket[t.Market] = tickerFromWire(t)
	}
	out := make([]*domain.Ticker, 0, len(raw))
	for _, m := range markets {
		if t, ok := byMarket[m]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// Ticker 单个市场行情
func (s *MarketDataService) Ticker(ctx context.Context, market string) (*domain.Ticker, error) {
	tickers, err := s.Tickers(ctx, market)
	if err != nil {
		return nil, err
	}
	if len(tickers) == 0 {
		return nil, types.NewError(types.KindExchangeRejected, "no ticker for %s", market)
	}
	return tickers[0], nil
}

// CurrentPrice 最新成交价
func (s *MarketDataService) CurrentPrice(ctx context.Context, market string) (decimal.Decimal, error) {
	t, err := s.Ticker(ctx, market)
	if err != nil {
		return decimal.Zero, err
	}
	return t.TradePrice, nil
}

// ClampCandleCount 交易所单次最多 200 根，超出截断，小于 1 取 1
func ClampCandleCount(count int) int {
	switch {
	case count < 1:
		return 1
	case count > client.MaxCandleCount:
		return client.MaxCandleCount
	}
	return count
}

// Candles K 线，按时间从旧到新
func (s *MarketDataService) Candles(ctx context.Context, market string, interval domain.Interval, count int) ([]domain.Candle, error) {
	unit := client.CandleUnit{Period: string(interval.Kind)}
	if interval.Kind == domain.IntervalMinutes {
		unit = client.CandleUnit{Minutes: interval.Unit}
	}

	raw, err := s.api.GetCandles(ctx, market, unit, ClampCandleCount(count))
	if err != nil {
		return nil, err
	}

	candles := make([]domain.Candle, 0, len(raw))
	for _, c := range raw {
		candles = append(candles, candleFromWire(c))
	}
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].TimeUTC.Before(candles[j].TimeUTC)
	})
	return candles, nil
}

// MinuteCandles 分钟 K 线
func (s *MarketDataService) MinuteCandles(ctx context.Context, market string, unit, count int) ([]domain.Candle, error) {
	return s.Candles(ctx, market, domain.Minutes(unit), count)
}

// DailyCandles 日 K 线
func (s *MarketDataService) DailyCandles(ctx context.Context, market string, count int) ([]domain.Candle, error) {
	return s.Candles(ctx, market, domain.Daily, count)
}

// WeeklyCandles 周 K 线
func (s *MarketDataService) WeeklyCandles(ctx context.Context, market string, count int) ([]domain.Candle, error) {
	return s.Candles(ctx, market, domain.Weekly, count)
}

// MonthlyCandles 月 K 线
func (s *MarketDataService) MonthlyCandles(ctx context.Context, market string, count int) ([]domain.Candle, error) {
	return s.Candles(ctx, market, domain.Monthly, count)
}

// TickerFeed 推送行情源（见 bithumb/stream）
type TickerFeed interface {
	Tickers() <-chan types.Ticker
}

// Stream 转换推送行情，行情源关闭或 ctx 结束时关闭返回的通道
func (s *MarketDataService) Stream(ctx context.Context, feed TickerFeed) <-chan *domain.Ticker {
	out := make(chan *domain.Ticker)
	go func() {
		defer close(out)
		in := feed.Tickers()
		for {
			select {
			case <-ctx.Done():
				return
			case t, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- tickerFromWire(t):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
