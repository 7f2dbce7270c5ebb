package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/betbot/bithumbkit/bithumb/stream"
	"github.com/betbot/bithumbkit/internal/domain"
)

func (a *app) runMarket(ctx context.Context, command string, args []string) error {
	switch command {
	case "codes":
		return a.marketCodes(ctx, args)
	case "price":
		return a.marketPrice(ctx, args)
	case "candle":
		return a.marketCandle(ctx, args)
	case "watch":
		return a.marketWatch(ctx, args)
	}
	return errUsage
}

func (a *app) marketCodes(ctx context.Context, args []string) error {
	fs := newFlagSet("market codes", a.errOut)
	limit := fs.Int("limit", 10, "最多显示条数，0 为全部")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}

	codes, err := a.market.MarketCodes(ctx, true)
	if err != nil {
		return err
	}
	shown := codes
	if *limit > 0 && len(shown) > *limit {
		shown = shown[:*limit]
	}
	rows := make([][]string, 0, len(shown))
	for _, c := range shown {
		rows = append(rows, []string{c.Market, c.KoreanName, c.EnglishName, c.Warning})
	}
	printTable(a.out, "交易对", []string{"MARKET", "KOREAN", "ENGLISH", "WARNING"}, rows)
	fmt.Fprintf(a.out, "共 %d 个交易对\n", len(codes))
	return nil
}

func (a *app) marketPrice(ctx context.Context, args []string) error {
	fs := newFlagSet("market price", a.errOut)
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return errUsage
	}
	market := normalizeMarket(pos[0])

	t, err := a.market.Ticker(ctx, market)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s 当前价: %s KRW (%s)\n",
		market, formatKRW(t.TradePrice), changeStyle(t.Change).Render(formatRate(t.ChangeRate)))
	return nil
}

func (a *app) marketCandle(ctx context.Context, args []string) error {
	fs := newFlagSet("market candle", a.errOut)
	period := fs.String("period", "daily", "minutes|daily|weekly|monthly")
	unit := fs.Int("unit", 1, "分钟周期: 1, 3, 5, 10, 15, 30, 60, 240")
	count := fs.Int("count", 10, "数量（最多 200）")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return errUsage
	}
	market := normalizeMarket(pos[0])

	interval, err := domain.ParseInterval(*period, *unit)
	if err != nil {
		return err
	}
	candles, err := a.market.Candles(ctx, market, interval, *count)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(candles))
	for _, c := range candles {
		rows = append(rows, []string{
			c.Time.Format("2006-01-02 15:04"),
			formatKRW(c.Open),
			formatKRW(c.High),
			formatKRW(c.Low),
			formatKRW(c.Close),
			c.Volume.StringFixed(4),
		})
	}
	title := fmt.Sprintf("%s %s K 线（%d）", market, interval, len(candles))
	printTable(a.out, title, []string{"TIME (KST)", "OPEN", "HIGH", "LOW", "CLOSE", "VOLUME"}, rows)
	return nil
}

func (a *app) marketWatch(ctx context.Context, args []string) error {
	fs := newFlagSet("market watch", a.errOut)
	interval := fs.Duration("interval", 2*time.Second, "刷新间隔")
	live := fs.Bool("stream", false, "使用 WebSocket 实时推送")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) == 0 {
		return errUsage
	}
	markets := make([]string, 0, len(pos))
	for _, m := range pos {
		markets = append(markets, normalizeMarket(m))
	}
	if *interval < 500*time.Millisecond {
		return fmt.Errorf("interval too short: %s (min 500ms)", *interval)
	}

	model := newWatchModel(ctx, a.market, markets, *interval)
	if *live {
		feed := stream.New(a.cfg.StreamConfig())
		if err := feed.Subscribe(markets...); err != nil {
			return err
		}
		if err := feed.Start(ctx); err != nil {
			return fmt.Errorf("连接行情推送失败: %w", err)
		}
		a.closer.OnShutdown("ticker stream", func(context.Context) error {
			feed.Stop()
			return nil
		})
		model = model.withStream(a.market.Stream(ctx, feed))
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("运行界面失败: %w", err)
	}
	return nil
}
