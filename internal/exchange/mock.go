package exchange

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Детерминированные данные mock-режима для локальной разработки без
// сетевого доступа к бирже. Режим выбирается один раз при конструировании
// клиента (Config.UseMock), а не проверяется на каждый вызов.

func mockBalances() []Balance {
	return []Balance{
		{Asset: "BTC", Free: decimal.RequireFromString("0.5"), Locked: decimal.RequireFromString("0.1")},
		{Asset: "ETH", Free: decimal.RequireFromString("5.0"), Locked: decimal.RequireFromString("1.0")},
		{Asset: "USDT", Free: decimal.RequireFromString("10000"), Locked: decimal.RequireFromString("2000")},
	}
}

func mockDeposits(coin string) []Deposit {
	now := time.Now().UnixMilli()
	all := []Deposit{
		{ID: "1", Coin: "BTC", Network: "BTC", Amount: decimal.RequireFromString("0.5"), Status: 1, InsertTime: now - 86400000, TxID: "0x1"},
		{ID: "2", Coin: "ETH", Network: "ETH", Amount: decimal.RequireFromString("5"), Status: 1, InsertTime: now - 172800000, TxID: "0x2"},
	}
	if coin == "" {
		return all
	}
	filtered := make([]Deposit, 0, len(all))
	for _, d := range all {
		if d.Coin == coin {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

func mockWithdrawals() []Withdrawal {
	return []Withdrawal{
		{ID: "w1", Coin: "USDT", Network: "TRX", Amount: decimal.RequireFromString("150"), Status: 6, TxID: "0x3"},
	}
}

func mockPrices() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"BTCUSDT":  decimal.RequireFromString("43000"),
		"ETHUSDT":  decimal.RequireFromString("2300"),
		"USDTUSDT": decimal.RequireFromString("1"),
	}
}

func mockWithdrawResult() *WithdrawResult {
	return &WithdrawResult{
		ID:     fmt.Sprintf("withdraw_%d", time.Now().UnixMilli()),
		Status: "success",
	}
}
