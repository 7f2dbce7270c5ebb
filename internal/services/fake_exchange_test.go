package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/betbot/bithumbkit/bithumb/client"
	"github.com/betbot/bithumbkit/bithumb/types"
)

// fakeExchange 内存版交易所，记录每个接口的调用次数
type fakeExchange struct {
	mu     sync.Mutex
	calls  map[string]int
	seq    int
	orders map[string]*types.OrderResponse

	chance    *types.OrderChance
	accounts  []types.Account
	tickers   []types.Ticker
	candles   []types.Candle
	pages     [][]types.OrderResponse
	listCalls []types.OrderListParams
	lastUnit  client.CandleUnit
	lastCount int

	postErr   error
	cancelErr error
	getErr    error
	// afterCancel 撤单失败时交易所上订单的最终状态
	afterCancel types.OrderState
}

func newFakeExchange() *fakeExchange {
	return &fakeExchange{
		calls:  make(map[string]int),
		orders: make(map[string]*types.OrderResponse),
	}
}

func (f *fakeExchange) hit(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeExchange) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeExchange) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeExchange) setState(uuid string, state types.OrderState, executed string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.orders[uuid]
	o.State = state
	o.ExecutedVolume = types.Number(executed)
}

func (f *fakeExchange) GetMarketCodes(_ context.Context, _ bool) ([]types.MarketCode, error) {
	f.hit("markets")
	return []types.MarketCode{
		{Market: "KRW-BTC", KoreanName: "비트코인", EnglishName: "Bitcoin", MarketWarning: "NONE"},
		{Market: "KRW-XYZ", KoreanName: "엑스", EnglishName: "Xyz", MarketWarning: "CAUTION"},
	}, nil
}

func (f *fakeExchange) GetTickers(_ context.Context, _ ...string) ([]types.Ticker, error) {
	f.hit("ticker")
	return f.tickers, nil
}

func (f *fakeExchange) GetCandles(_ context.Context, _ string, unit client.CandleUnit, count int) ([]types.Candle, error) {
	f.hit("candles")
	f.lastUnit, f.lastCount = unit, count
	return f.candles, nil
}

func (f *fakeExchange) GetAccounts(_ context.Context) ([]types.Account, error) {
	f.hit("accounts")
	return f.accounts, nil
}

func (f *fakeExchange) GetOrderChance(_ context.Context, market string) (*types.OrderChance, error) {
	f.hit("chance")
	if f.chance == nil {
		return nil, types.NewError(types.KindExchangeRejected, "no chance for %s", market)
	}
	return f.chance, nil
}

func (f *fakeExchange) PostOrder(_ context.Context, req client.PostOrderRequest) (*types.OrderResponse, error) {
	f.hit("post")
	if f.postErr != nil {
		return nil, f.postErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	resp := &types.OrderResponse{
		UUID:           fmt.Sprintf("order-%d", f.seq),
		Side:           req.Side,
		OrdType:        req.OrdType,
		Price:          types.Number(req.Price),
		Volume:         types.Number(req.Volume),
		State:          types.OrderStateWait,
		Market:         req.Market,
		CreatedAt:      "2024-03-01T10:00:00+09:00",
		ExecutedVolume: "0",
	}
	stored := *resp
	f.orders[resp.UUID] = &stored
	return resp, nil
}

func (f *fakeExchange) GetOrder(_ context.Context, uuid string) (*types.OrderResponse, error) {
	f.hit("get")
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[uuid]
	if !ok {
		return nil, &types.Error{Kind: types.KindOrderNotFound, StatusCode: 404, Reason: "order_not_found"}
	}
	c := *o
	return &c, nil
}

func (f *fakeExchange) CancelOrder(_ context.Context, uuid string) (*types.OrderResponse, error) {
	f.hit("cancel")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelErr != nil {
		if f.afterCancel != "" {
			if o, ok := f.orders[uuid]; ok {
				o.State = f.afterCancel
			}
		}
		return nil, f.cancelErr
	}
	o, ok := f.orders[uuid]
	if !ok {
		return nil, &types.Error{Kind: types.KindOrderNotFound, StatusCode: 404, Reason: "order_not_found"}
	}
	// 撤单确认返回的是撤单前的状态
	ack := *o
	o.State = types.OrderStateCancel
	return &ack, nil
}

func (f *fakeExchange) ListOrders(_ context.Context, params types.OrderListParams) ([]types.OrderResponse, error) {
	f.hit("list")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, params)
	if params.Page < 1 || params.Page > len(f.pages) {
		return nil, nil
	}
	return f.pages[params.Page-1], nil
}

var (
	_ MarketAPI  = (*fakeExchange)(nil)
	_ AccountAPI = (*fakeExchange)(nil)
	_ OrderAPI   = (*fakeExchange)(nil)
)
