package client

import (
	"context"
	"net/http"

	"github.com/betbot/bithumbkit/bithumb/types"
)

// GetAccounts 全部资产
func (c *Client) GetAccounts(ctx context.Context) ([]types.Account, error) {
	req := &types.Request{
		Method:  http.MethodGet,
		Path:    EndpointAccounts,
		Private: true,
	}
	var out []types.Account
	if err := c.Execute(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}
