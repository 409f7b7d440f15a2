package service

import (
	"context"

	"treasury/internal/exchange"
)

// mockExchange - ручной мок биржи для тестов сервисного слоя
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
	lastWithdraw   exchange.WithdrawRequest

	balanceCalls int
}

func (m *mockExchange) GetAccountBalances(ctx context.Context) exchange.BalanceSnapshot {
	m.balanceCalls++
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
	m.lastWithdraw = req
	if m.withdrawErr != nil {
		return nil, m.withdrawErr
	}
	return m.withdrawResult, nil
}
