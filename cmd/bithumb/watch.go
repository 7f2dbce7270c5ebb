package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/betbot/bithumbkit/internal/domain"
	"github.com/betbot/bithumbkit/internal/services"
)

// 消息
type (
	tickMsg    time.Time
	tickersMsg struct {
		tickers []*domain.Ticker
		at      time.Time
	}
	fetchErrMsg  struct{ err error }
	streamMsg    struct{ ticker *domain.Ticker }
	streamEndMsg struct{}
)

// watchModel 行情全屏界面：定时轮询，或接收推送（推送断开后退回轮询）
type watchModel struct {
	ctx      context.Context
	svc      *services.MarketDataService
	markets  []string
	interval time.Duration
	updates  <-chan *domain.Ticker

	tickers map[string]*domain.Ticker
	updated time.Time
	err     error
	polls   int
}

func newWatchModel(ctx context.Context, svc *services.MarketDataService, markets []string, interval time.Duration) watchModel {
	return watchModel{
		ctx:      ctx,
		svc:      svc,
		markets:  markets,
		interval: interval,
		tickers:  make(map[string]*domain.Ticker),
	}
}

// withStream 改为接收推送
func (m watchModel) withStream(updates <-chan *domain.Ticker) watchModel {
	m.updates = updates
	return m
}

func (m watchModel) Init() tea.Cmd {
	if m.updates != nil {
		return tea.Batch(m.fetchCmd(), m.waitCmd())
	}
	return m.fetchCmd()
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "r":
			return m, m.fetchCmd()
		}

	case tickMsg:
		return m, m.fetchCmd()

	case tickersMsg:
		m.polls++
		m.err = nil
		m.updated = msg.at
		for _, t := range msg.tickers {
			m.tickers[t.Market] = t
		}
		if m.updates != nil {
			return m, nil
		}
		return m, m.tickCmd()

	case fetchErrMsg:
		// 保留上一次的数据，下个周期继续尝试
		m.polls++
		m.err = msg.err
		if m.updates != nil {
			return m, nil
		}
		return m, m.tickCmd()

	case streamMsg:
		m.err = nil
		m.updated = time.Now()
		m.tickers[msg.ticker.Market] = msg.ticker
		return m, m.waitCmd()

	case streamEndMsg:
		m.updates = nil
		if m.ctx.Err() != nil {
			return m, tea.Quit
		}
		return m, m.fetchCmd()
	}
	return m, nil
}

func (m watchModel) View() string {
	var s strings.Builder

	status := "等待数据..."
	if !m.updated.IsZero() {
		status = "更新于 " + m.updated.Format("15:04:05")
	}
	mode := fmt.Sprintf("每 %s 刷新", m.interval)
	if m.updates != nil {
		mode = "实时推送"
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("Bithumb 行情 | %s | %s", mode, status)))
	s.WriteString("\n\n")

	rows := make([][]string, 0, len(m.markets))
	for _, market := range m.markets {
		t, ok := m.tickers[market]
		if !ok {
			rows = append(rows, []string{market, "-", "-", "-", "-"})
			continue
		}
		style := changeStyle(t.Change)
		rows = append(rows, []string{
			market,
			style.Render(formatKRW(t.TradePrice)),
			style.Render(formatRate(t.ChangeRate)),
			formatKRW(t.HighPrice) + " / " + formatKRW(t.LowPrice),
			formatKRW(t.AccTradePrice24h),
		})
	}
	s.WriteString(renderTable([]string{"MARKET", "PRICE", "CHANGE", "HIGH / LOW", "24H VALUE (KRW)"}, rows))
	s.WriteString("\n")

	if m.err != nil {
		s.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render("错误: " + m.err.Error()))
		s.WriteString("\n")
	}
	s.WriteString(mutedStyle.Render("按 r 刷新，q 退出"))
	return s.String()
}

func (m watchModel) fetchCmd() tea.Cmd {
	ctx, svc, markets := m.ctx, m.svc, m.markets
	return func() tea.Msg {
		tickers, err := svc.Tickers(ctx, markets...)
		if err != nil {
			return fetchErrMsg{err: err}
		}
		return tickersMsg{tickers: tickers, at: time.Now()}
	}
}

func (m watchModel) waitCmd() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		t, ok := <-updates
		if !ok {
			return streamEndMsg{}
		}
		return streamMsg{ticker: t}
	}
}

func (m watchModel) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
