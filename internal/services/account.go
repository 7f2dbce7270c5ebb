package services

import (
	"context"
	"strings"

	"github.com/betbot/bithumbkit/internal/domain"
)

// AccountService 资产查询，不做本地缓存
type AccountService struct {
	api AccountAPI
}

// NewAccountService 创建资产服务
func NewAccountService(api AccountAPI) *AccountService {
	return &AccountService{api: api}
}

// Balance 单个币种；未持有返回 0 余额而不是错误
func (s *AccountService) Balance(ctx context.Context, currency string) (*domain.Balance, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	accounts, err := s.api.GetAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		if strings.EqualFold(a.Currency, currency) {
			return balanceFromWire(a), nil
		}
	}
	return domain.ZeroBalance(currency), nil
}

// Balances 全部持仓，省略总额为 0 的币种
func (s *AccountService) Balances(ctx context.Context) ([]*domain.Balance, error) {
	accounts, err := s.api.GetAccounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Balance, 0, len(accounts))
	for _, a := range accounts {
		b := balanceFromWire(a)
		if b.IsZero() {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}
