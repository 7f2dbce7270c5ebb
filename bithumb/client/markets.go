package client

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/betbot/bithumbkit/bithumb/types"
	"github.com/betbot/bithumbkit/pkg/ratelimit"
)

// CandleUnit K 线周期
type CandleUnit struct {
	Minutes int    // 分钟周期，非 0 时使用 /v1/candles/minutes/{unit}
	Period  string // days | weeks | months
}

// Path 对应的端点
func (u CandleUnit) Path() (string, error) {
	if u.Minutes > 0 {
		for _, m := range MinuteUnits {
			if m == u.Minutes {
				return EndpointCandlesMinute + strconv.Itoa(u.Minutes), nil
			}
		}
		return "", types.NewError(types.KindConfiguration, "unsupported minute unit %d", u.Minutes)
	}
	switch u.Period {
	case "days":
		return EndpointCandlesDay, nil
	case "weeks":
		return EndpointCandlesWeek, nil
	case "months":
		return EndpointCandlesMonth, nil
	}
	return "", types.NewError(types.KindConfiguration, "unsupported candle period %q", u.Period)
}

// GetMarketCodes 交易对列表
func (c *Client) GetMarketCodes(ctx context.Context, details bool) ([]types.MarketCode, error) {
	req := &types.Request{
		Method: http.MethodGet,
		Path:   EndpointMarketAll,
		Params: types.NewParams().Add("isDetails", strconv.FormatBool(details)),
		Limit:  ratelimit.GroupPublic,
	}
	var out []types.MarketCode
	if err := c.Execute(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTickers 当前行情，markets 为 KRW-BTC 形式
func (c *Client) GetTickers(ctx context.Context, markets ...string) ([]types.Ticker, error) {
	if len(markets) == 0 {
		return nil, types.NewError(types.KindConfiguration, "at least one market is required")
	}
	req := &types.Request{
		Method: http.MethodGet,
		Path:   EndpointTicker,
		Params: types.NewParams().Add("markets", strings.Join(markets, ",")),
		Limit:  ratelimit.GroupPublic,
	}
	var out []types.Ticker
	if err := c.Execute(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCandles K 线，交易所按时间倒序返回
func (c *Client) GetCandles(ctx context.Context, market string, unit CandleUnit, count int) ([]types.Candle, error) {
	path, err := unit.Path()
	if err != nil {
		return nil, err
	}
	req := &types.Request{
		Method: http.MethodGet,
		Path:   path,
		Params: types.NewParams().
			Add("market", market).
			Add("count", strconv.Itoa(count)),
		Limit: ratelimit.GroupPublic,
	}
	var out []types.Candle
	if err := c.Execute(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}
