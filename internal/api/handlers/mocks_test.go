package handlers

import (
	"context"
	"time"

	"treasury/internal/exchange"
	"treasury/internal/service"
	"treasury/pkg/ratelimit"

	"github.com/shopspring/decimal"
)

// mockExchange - ручной мок биржи для тестов handlers
type mockExchange struct {
	balances    exchange.BalanceSnapshot
	deposits    exchange.DepositSnapshot
	withdrawals exchange.WithdrawalSnapshot
	prices      exchange.PriceSnapshot

	validateResult exchange.KeyCapabilities
	validateErr    error

	withdrawResult *exchange.WithdrawResult
	withdrawErr    error
	withdrawCalls  int
}

func (m *mockExchange) GetAccountBalances(ctx context.Context) exchange.BalanceSnapshot {
	return m.balances
}

func (m *mockExchange) GetDepositHistory(ctx context.Context, filter exchange.DepositFilter) exchange.DepositSnapshot {
	return m.deposits
}

func (m *mockExchange) GetWithdrawHistory(ctx context.Context) exchange.WithdrawalSnapshot {
	return m.withdrawals
}

func (m *mockExchange) GetPrices(ctx context.Context) exchange.PriceSnapshot {
	return m.prices
}

func (m *mockExchange) ValidateAPIKey(ctx context.Context) (exchange.KeyCapabilities, error) {
	return m.validateResult, m.validateErr
}

func (m *mockExchange) Withdraw(ctx context.Context, req exchange.WithdrawRequest) (*exchange.WithdrawResult, error) {
	m.withdrawCalls++
	if m.withdrawErr != nil {
		return nil, m.withdrawErr
	}
	return m.withdrawResult, nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// fundedMock возвращает мок с балансом USDT и успешным выводом
func fundedMock() *mockExchange {
	return &mockExchange{
		balances: exchange.BalanceSnapshot{Balances: []exchange.Balance{
			{Asset: "USDT", Free: dec("500"), Locked: dec("0")},
		}},
		prices: exchange.PriceSnapshot{Prices: map[string]decimal.Decimal{
			"BTCUSDT": dec("40000"),
		}},
		withdrawResult: &exchange.WithdrawResult{ID: "w1", Status: "processing"},
	}
}

// newWithdrawService собирает WithdrawService поверх мока
func newWithdrawService(mock *mockExchange, actionKey string, maxAttempts int) *service.WithdrawService {
	return service.NewWithdrawService(
		mock,
		ratelimit.NewSlidingWindow(),
		service.NewActivityLog(),
		nil,
		actionKey,
		maxAttempts,
		time.Minute,
	)
}
