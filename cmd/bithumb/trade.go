package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/betbot/bithumbkit/bithumb/types"
	"github.com/betbot/bithumbkit/internal/domain"
	"github.com/betbot/bithumbkit/internal/services"
)

func (a *app) runTrade(ctx context.Context, command string, args []string) error {
	if err := a.requireCredentials(); err != nil {
		return err
	}
	switch command {
	case "buy":
		return a.tradeBuy(ctx, args)
	case "market-buy":
		return a.tradeMarketBuy(ctx, args)
	case "sell":
		return a.tradeSell(ctx, args)
	case "cancel":
		return a.tradeCancel(ctx, args)
	case "status":
		return a.tradeStatus(ctx, args)
	case "orders":
		return a.tradeOrders(ctx, args)
	case "chance":
		return a.tradeChance(ctx, args)
	}
	return errUsage
}

func parseDecimal(name, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, types.NewError(types.KindInvalidOrderParameters, "invalid %s %q", name, s)
	}
	return d, nil
}

// placed 下单结果输出；被拒时返回错误
func (a *app) placed(order *domain.Order, err error) error {
	if err != nil {
		if order != nil && order.State == domain.StateRejected {
			fmt.Fprintf(a.errOut, "订单被拒绝: %s\n", order.Reason)
		}
		return err
	}
	printOrder(a.out, "下单成功", order)
	return nil
}

func (a *app) tradeBuy(ctx context.Context, args []string) error {
	pos, err := parseArgs(newFlagSet("trade buy", a.errOut), args)
	if err != nil {
		return err
	}
	if len(pos) != 3 {
		return errUsage
	}
	volume, err := parseDecimal("volume", pos[1])
	if err != nil {
		return err
	}
	price, err := parseDecimal("price", pos[2])
	if err != nil {
		return err
	}
	return a.placed(a.orders.PlaceLimitOrder(ctx, normalizeMarket(pos[0]), domain.SideBuy, volume, price))
}

func (a *app) tradeMarketBuy(ctx context.Context, args []string) error {
	pos, err := parseArgs(newFlagSet("trade market-buy", a.errOut), args)
	if err != nil {
		return err
	}
	if len(pos) != 2 {
		return errUsage
	}
	funds, err := parseDecimal("funds", pos[1])
	if err != nil {
		return err
	}
	return a.placed(a.orders.PlaceMarketBuy(ctx, normalizeMarket(pos[0]), funds))
}

func (a *app) tradeSell(ctx context.Context, args []string) error {
	fs := newFlagSet("trade sell", a.errOut)
	priceFlag := fs.String("price", "", "限价（省略则市价卖出）")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 2 {
		return errUsage
	}
	market := normalizeMarket(pos[0])
	volume, err := parseDecimal("volume", pos[1])
	if err != nil {
		return err
	}
	if *priceFlag == "" {
		return a.placed(a.orders.PlaceMarketSell(ctx, market, volume))
	}
	price, err := parseDecimal("price", *priceFlag)
	if err != nil {
		return err
	}
	return a.placed(a.orders.PlaceLimitOrder(ctx, market, domain.SideSell, volume, price))
}

func (a *app) tradeCancel(ctx context.Context, args []string) error {
	pos, err := parseArgs(newFlagSet("trade cancel", a.errOut), args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return errUsage
	}
	order, err := a.orders.CancelOrder(ctx, pos[0])
	if err != nil {
		return err
	}
	printOrder(a.out, "撤单结果", order)
	return nil
}

func (a *app) tradeStatus(ctx context.Context, args []string) error {
	pos, err := parseArgs(newFlagSet("trade status", a.errOut), args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return errUsage
	}
	order, err := a.orders.OrderStatus(ctx, pos[0])
	if err != nil {
		return err
	}
	printOrder(a.out, "订单状态", order)
	return nil
}

func (a *app) tradeOrders(ctx context.Context, args []string) error {
	fs := newFlagSet("trade orders", a.errOut)
	market := fs.String("market", "", "市场，例如 KRW-BTC")
	state := fs.String("state", string(types.OrderStateWait), "wait|watch|done|cancel")
	pageSize := fs.Int("page-size", 100, "每页数量（最多 100）")
	pages := fs.Int("pages", 1, "最多读取页数，0 为全部")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	switch types.OrderState(*state) {
	case types.OrderStateWait, types.OrderStateWatch, types.OrderStateDone, types.OrderStateCancel:
	default:
		return types.NewError(types.KindInvalidOrderParameters, "unknown order state %q", *state)
	}

	orders, err := a.orders.AllOrders(ctx, services.OrderFilter{
		Market:   normalizeMarket(*market),
		State:    types.OrderState(*state),
		PageSize: *pageSize,
		MaxPages: *pages,
	})
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Fprintln(a.out, "没有订单")
		return nil
	}
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, orderRow(o))
	}
	printTable(a.out, fmt.Sprintf("订单（%s, %d）", *state, len(orders)), orderHeaders, rows)
	return nil
}

func (a *app) tradeChance(ctx context.Context, args []string) error {
	pos, err := parseArgs(newFlagSet("trade chance", a.errOut), args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return errUsage
	}
	market := normalizeMarket(pos[0])
	c, err := a.orders.OrderChance(ctx, market)
	if err != nil {
		return err
	}
	maxTotal := "-"
	if c.MaxTotal.IsPositive() {
		maxTotal = formatKRW(c.MaxTotal)
	}
	printTable(a.out, market+" 下单限制",
		[]string{"MIN TOTAL", "MAX TOTAL", "BID FEE", "ASK FEE", "BID TYPES", "ASK TYPES"},
		[][]string{{
			formatKRW(c.MinTotal), maxTotal,
			formatRate(c.BidFee), formatRate(c.AskFee),
			fmt.Sprint(c.BidTypes), fmt.Sprint(c.AskTypes),
		}})
	return nil
}
