package client

import (
	"context"
	"net/http"
	"strconv"

	"github.com/betbot/bithumbkit/bithumb/types"
	"github.com/betbot/bithumbkit/pkg/ratelimit"
)

// PostOrderRequest 下单参数（交易所编码）
//
//	limit:  Volume + Price
//	price:  Price 为买入总金额（市价买）
//	market: Volume（市价卖）
type PostOrderRequest struct {
	Market  string
	Side    types.Side
	OrdType types.OrdType
	Volume  string
	Price   string
}

// Params 编码为请求参数，空字段不发送
func (r PostOrderRequest) Params() *types.Params {
	p := types.NewParams().
		Add("market", r.Market).
		Add("side", string(r.Side)).
		Add("ord_type", string(r.OrdType))
	if r.Volume != "" {
		p.Add("volume", r.Volume)
	}
	if r.Price != "" {
		p.Add("price", r.Price)
	}
	return p
}

// GetOrderChance 下单可用信息
func (c *Client) GetOrderChance(ctx context.Context, market string) (*types.OrderChance, error) {
	req := &types.Request{
		Method:  http.MethodGet,
		Path:    EndpointOrderChance,
		Params:  types.NewParams().Add("market", market),
		Private: true,
	}
	var out types.OrderChance
	if err := c.Execute(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PostOrder 下单。非幂等：只在确定请求未到达交易所时重试
func (c *Client) PostOrder(ctx context.Context, order PostOrderRequest) (*types.OrderResponse, error) {
	req := &types.Request{
		Method:      http.MethodPost,
		Path:        EndpointPostOrder,
		Params:      order.Params(),
		Private:     true,
		RetryUnsafe: true,
		Limit:       ratelimit.GroupOrder,
	}
	var out types.OrderResponse
	if err := c.Execute(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOrder 单笔订单（含成交明细）
func (c *Client) GetOrder(ctx context.Context, uuid string) (*types.OrderResponse, error) {
	req := &types.Request{
		Method:  http.MethodGet,
		Path:    EndpointGetOrder,
		Params:  types.NewParams().Add("uuid", uuid),
		Private: true,
	}
	var out types.OrderResponse
	if err := c.Execute(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelOrder 撤单，撤单本身幂等（重复撤单只会得到错误而不会产生副作用）
func (c *Client) CancelOrder(ctx context.Context, uuid string) (*types.OrderResponse, error) {
	req := &types.Request{
		Method:  http.MethodDelete,
		Path:    EndpointCancelOrder,
		Params:  types.NewParams().Add("uuid", uuid),
		Private: true,
		Limit:   ratelimit.GroupOrder,
	}
	var out types.OrderResponse
	if err := c.Execute(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListOrders 订单列表（单页）
func (c *Client) ListOrders(ctx context.Context, params types.OrderListParams) ([]types.OrderResponse, error) {
	p := types.NewParams()
	if params.Market != "" {
		p.Add("market", params.Market)
	}
	for _, id := range params.UUIDs {
		p.Add("uuids[]", id)
	}
	if params.State != "" {
		p.Add("state", string(params.State))
	}
	for _, s := range params.States {
		p.Add("states[]", string(s))
	}
	if params.Page > 0 {
		p.Add("page", strconv.Itoa(params.Page))
	}
	if params.Limit > 0 {
		limit := params.Limit
		if limit > MaxOrderPageLimit {
			limit = MaxOrderPageLimit
		}
		p.Add("limit", strconv.Itoa(limit))
	}
	if params.OrderBy != "" {
		p.Add("order_by", params.OrderBy)
	}

	req := &types.Request{
		Method:  http.MethodGet,
		Path:    EndpointListOrders,
		Params:  p,
		Private: true,
	}
	var out []types.OrderResponse
	if err := c.Execute(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}
