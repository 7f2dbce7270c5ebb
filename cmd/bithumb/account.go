package main

import (
	"context"
	"fmt"
)

func (a *app) runAccount(ctx context.Context, command string, args []string) error {
	if err := a.requireCredentials(); err != nil {
		return err
	}
	switch command {
	case "balance":
		return a.accountBalance(ctx, args)
	}
	return errUsage
}

func (a *app) accountBalance(ctx context.Context, args []string) error {
	fs := newFlagSet("account balance", a.errOut)
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}

	krw, err := a.account.Balance(ctx, "KRW")
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "KRW 余额: %s (可用 %s, 冻结 %s)\n",
		formatKRW(krw.Total), formatKRW(krw.Available), formatKRW(krw.Locked))

	balances, err := a.account.Balances(ctx)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(balances))
	for _, b := range balances {
		if b.Currency == "KRW" {
			continue
		}
		avg := "-"
		if b.AvgBuyPrice.IsPositive() {
			avg = formatKRW(b.AvgBuyPrice)
		}
		rows = append(rows, []string{b.Currency, b.Total.StringFixed(8), b.Locked.StringFixed(8), avg})
	}
	if len(rows) == 0 {
		fmt.Fprintln(a.out, "没有持有的币种")
		return nil
	}
	printTable(a.out, "持有币种", []string{"CURRENCY", "BALANCE", "LOCKED", "AVG BUY PRICE"}, rows)
	return nil
}
