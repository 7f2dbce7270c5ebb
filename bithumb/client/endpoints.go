package client

// API 端点常量
const (
	DefaultBaseURL = "https://api.bithumb.com"

	// Market (public)
	EndpointMarketAll     = "/v1/market/all"
	EndpointTicker        = "/v1/ticker"
	EndpointCandlesMinute = "/v1/candles/minutes/" // + unit
	EndpointCandlesDay    = "/v1/candles/days"
	EndpointCandlesWeek   = "/v1/candles/weeks"
	EndpointCandlesMonth  = "/v1/candles/months"

	// Account (private)
	EndpointAccounts = "/v1/accounts"

	// Order (private)
	EndpointOrderChance = "/v1/orders/chance"
	EndpointPostOrder   = "/v1/orders"
	EndpointGetOrder    = "/v1/order"
	EndpointCancelOrder = "/v1/order"
	EndpointListOrders  = "/v1/orders"
)

// 交易所接口上限
const (
	MaxCandleCount    = 200
	MaxOrderPageLimit = 100
)

// MinuteUnits 分钟 K 线支持的周期
var MinuteUnits = []int{1, 3, 5, 10, 15, 30, 60, 240}
