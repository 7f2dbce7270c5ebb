package metrics

import "expvar"

var (
	// 传输层
	Requests       = expvar.NewInt("bithumb_requests")
	Retries        = expvar.NewInt("bithumb_retries")
	RateLimitWaits = expvar.NewInt("bithumb_rate_limit_waits")
	RequestErrors  = expvar.NewMap("bithumb_request_errors") // 按错误分类计数
	RequestLatency = expvar.NewMap("bithumb_request_latency_ms")

	// 订单
	OrdersPlaced    = expvar.NewInt("orders_placed")
	OrdersRejected  = expvar.NewInt("orders_rejected")
	OrdersCancelled = expvar.NewInt("orders_cancelled")
	OrdersTracked   = expvar.NewInt("orders_tracked")
)

// ObserveError 按分类计数，空分类记为 unknown
func ObserveError(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	RequestErrors.Add(kind, 1)
}

// ObserveLatency 记录最近一次请求耗时（毫秒），按分组
func ObserveLatency(group string, ms int64) {
	v := new(expvar.Int)
	v.Set(ms)
	RequestLatency.Set(group, v)
}
