package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/betbot/bithumbkit/internal/domain"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	upStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("1")) // 红色（韩国行情习惯：涨红跌蓝）

	downStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("4"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	cellStyle = lipgloss.NewStyle().Padding(0, 1)
)

// renderTable 带边框的表格
func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("238"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return cellStyle.Bold(true)
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	return t.String()
}

func printTable(w io.Writer, title string, headers []string, rows [][]string) {
	if title != "" {
		fmt.Fprintln(w, titleStyle.Render(title))
	}
	fmt.Fprintln(w, renderTable(headers, rows))
}

// formatKRW 千分位整数金额
func formatKRW(d decimal.Decimal) string {
	return groupThousands(d.Round(0).String())
}

// formatAmount 保留原精度，整数部分加千分位
func formatAmount(d decimal.Decimal) string {
	s := d.String()
	intPart, frac, hasFrac := strings.Cut(s, ".")
	out := groupThousands(intPart)
	if hasFrac {
		out += "." + frac
	}
	return out
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return sign + b.String()
}

func formatRate(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

// changeStyle 按涨跌着色
func changeStyle(change string) lipgloss.Style {
	switch change {
	case "RISE":
		return upStyle
	case "FALL":
		return downStyle
	}
	return lipgloss.NewStyle()
}

func orderRow(o *domain.Order) []string {
	price := "-"
	if o.Price.IsPositive() {
		price = formatKRW(o.Price)
	}
	volume := "-"
	if o.Volume.IsPositive() {
		volume = o.Volume.String()
	}
	return []string{
		o.UUID,
		o.Market,
		string(o.Side),
		string(o.Type),
		volume,
		price,
		o.ExecutedVolume.String(),
		string(o.State),
	}
}

var orderHeaders = []string{"UUID", "MARKET", "SIDE", "TYPE", "VOLUME", "PRICE", "EXECUTED", "STATE"}

func printOrder(w io.Writer, title string, o *domain.Order) {
	printTable(w, title, orderHeaders, [][]string{orderRow(o)})
}
