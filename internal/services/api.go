package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/betbot/bithumbkit/bithumb/client"
	"github.com/betbot/bithumbkit/bithumb/types"
)

var log = logrus.WithField("component", "bithumb_services")

// MarketAPI 行情接口（*client.Client 实现）
type MarketAPI interface {
	GetMarketCodes(ctx context.Context, details bool) ([]types.MarketCode, error)
	GetTickers(ctx context.Context, markets ...string) ([]types.Ticker, error)
	GetCandles(ctx context.Context, market string, unit client.CandleUnit, count int) ([]types.Candle, error)
}

// AccountAPI 资产接口
type AccountAPI interface {
	GetAccounts(ctx context.Context) ([]types.Account, error)
}

// ChanceAPI 下单限制接口
type ChanceAPI interface {
	GetOrderChance(ctx context.Context, market string) (*types.OrderChance, error)
}

// OrderAPI 订单接口
type OrderAPI interface {
	ChanceAPI
	PostOrder(ctx context.Context, order client.PostOrderRequest) (*types.OrderResponse, error)
	GetOrder(ctx context.Context, uuid string) (*types.OrderResponse, error)
	CancelOrder(ctx context.Context, uuid string) (*types.OrderResponse, error)
	ListOrders(ctx context.Context, params types.OrderListParams) ([]types.OrderResponse, error)
}

var (
	_ MarketAPI  = (*client.Client)(nil)
	_ AccountAPI = (*client.Client)(nil)
	_ OrderAPI   = (*client.Client)(nil)
)
