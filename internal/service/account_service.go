package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"treasury/internal/exchange"
	"treasury/pkg/utils"
)

// Статусы депозитов биржи
const depositStatusCompleted = 1

// explorerURLs - шаблоны ссылок на обозреватели блокчейнов по сетям.
// Ключ - код сети, значение - префикс URL транзакции.
var explorerURLs = map[string]string{
	"BTC":   "https://www.blockchain.com/btc/tx/",
	"ETH":   "https://etherscan.io/tx/",
	"ERC20": "https://etherscan.io/tx/",
	"BSC":   "https://bscscan.com/tx/",
	"BEP20": "https://bscscan.com/tx/",
	"TRX":   "https://tronscan.org/#/transaction/",
	"TRC20": "https://tronscan.org/#/transaction/",
	"SOL":   "https://solscan.io/tx/",
	"MATIC": "https://polygonscan.com/tx/",
}

// BalanceView - баланс актива с оценкой в USD для дашборда
type BalanceView struct {
	Asset         string          `json:"asset"`
	Free          decimal.Decimal `json:"free"`
	Locked        decimal.Decimal `json:"locked"`
	USDValue      decimal.Decimal `json:"usdValue"`
	WalletAddress string          `json:"walletAddress,omitempty"`
	Network       string          `json:"network,omitempty"`
}

// BalancesResponse - ответ операции чтения балансов
type BalancesResponse struct {
	Balances  []BalanceView   `json:"balances"`
	TotalUSD  decimal.Decimal `json:"totalUSD"`
	Timestamp int64           `json:"timestamp"`
	Degraded  bool            `json:"degraded"`
}

// DepositView - запись истории депозитов с оценкой в USD
type DepositView struct {
	ID          string          `json:"id"`
	Coin        string          `json:"coin"`
	Network     string          `json:"network"`
	Amount      decimal.Decimal `json:"amount"`
	USDValue    decimal.Decimal `json:"usdValue"`
	Status      string          `json:"status"`
	InsertTime  int64           `json:"insertTime"`
	TxID        string          `json:"txId"`
	ExplorerURL string          `json:"explorerUrl,omitempty"`
}

// DepositsResponse - ответ операции чтения истории депозитов
type DepositsResponse struct {
	Deposits []DepositView   `json:"deposits"`
	TotalUSD decimal.Decimal `json:"totalUSD"`
	Degraded bool            `json:"degraded"`
}

// TransferView - движение средств (депозит или вывод) для ленты активности
type TransferView struct {
	Coin        string          `json:"coin"`
	Network     string          `json:"network"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	TxID        string          `json:"txId"`
	ExplorerURL string          `json:"explorerUrl,omitempty"`
}

// ActivityResponse - ответ операции чтения активности: журнал действий
// дашборда плюс движения средств на бирже
type ActivityResponse struct {
	Activities  []ActivityEntry `json:"activities"`
	Deposits    []TransferView  `json:"deposits"`
	Withdrawals []TransferView  `json:"withdrawals"`
	Degraded    bool            `json:"degraded"`
}

// AccountService агрегирует данные биржи для страниц дашборда:
// балансы с оценкой в USD, историю депозитов и ленту активности.
type AccountService struct {
	client   exchange.Exchange
	activity *ActivityLog
	logger   *utils.Logger

	// Отображаемый депозитный кошелёк USDT
	usdtWalletAddress string
	usdtWalletNetwork string

	now func() int64 // миллисекунды unix, подменяется в тестах
}

// NewAccountService создаёт сервис чтения данных аккаунта
func NewAccountService(client exchange.Exchange, activity *ActivityLog, logger *utils.Logger, usdtAddress, usdtNetwork string) *AccountService {
	if logger == nil {
		logger = utils.L()
	}
	return &AccountService{
		client:            client,
		activity:          activity,
		logger:            logger.WithComponent("account"),
		usdtWalletAddress: usdtAddress,
		usdtWalletNetwork: usdtNetwork,
		now:               func() int64 { return time.Now().UnixMilli() },
	}
}

// GetBalances возвращает ненулевые балансы с оценкой в USD.
// Стоимость USDT считается 1:1, остальные активы оцениваются по цене
// пары <ASSET>USDT; актив без известной пары получает usdValue = 0.
func (s *AccountService) GetBalances(ctx context.Context) BalancesResponse {
	snap := s.client.GetAccountBalances(ctx)
	prices := s.client.GetPrices(ctx)

	resp := BalancesResponse{
		Balances:  []BalanceView{},
		TotalUSD:  decimal.Zero,
		Timestamp: s.now(),
		Degraded:  snap.Degraded || prices.Degraded,
	}

	for _, b := range snap.Balances {
		total := b.Free.Add(b.Locked)
		if total.IsZero() {
			continue
		}

		view := BalanceView{
			Asset:    b.Asset,
			Free:     b.Free,
			Locked:   b.Locked,
			USDValue: assetUSDValue(b.Asset, total, prices.Prices),
		}
		if b.Asset == "USDT" && s.usdtWalletAddress != "" {
			view.WalletAddress = s.usdtWalletAddress
			view.Network = s.usdtWalletNetwork
		}

		resp.TotalUSD = resp.TotalUSD.Add(view.USDValue)
		resp.Balances = append(resp.Balances, view)
	}

	if resp.Degraded {
		s.logger.Warn("balances served degraded")
	}
	return resp
}

// GetDeposits возвращает историю депозитов с оценкой каждого в USD
func (s *AccountService) GetDeposits(ctx context.Context, filter exchange.DepositFilter) DepositsResponse {
	snap := s.client.GetDepositHistory(ctx, filter)
	prices := s.client.GetPrices(ctx)

	resp := DepositsResponse{
		Deposits: []DepositView{},
		TotalUSD: decimal.Zero,
		Degraded: snap.Degraded || prices.Degraded,
	}

	for _, d := range snap.Deposits {
		view := DepositView{
			ID:          d.ID,
			Coin:        d.Coin,
			Network:     d.Network,
			Amount:      d.Amount,
			USDValue:    assetUSDValue(d.Coin, d.Amount, prices.Prices),
			Status:      depositStatusLabel(d.Status),
			InsertTime:  d.InsertTime,
			TxID:        d.TxID,
			ExplorerURL: explorerURL(d.Network, d.TxID),
		}
		resp.TotalUSD = resp.TotalUSD.Add(view.USDValue)
		resp.Deposits = append(resp.Deposits, view)
	}

	return resp
}

// GetActivity возвращает журнал действий дашборда вместе с последними
// движениями средств на бирже
func (s *AccountService) GetActivity(ctx context.Context) ActivityResponse {
	deposits := s.client.GetDepositHistory(ctx, exchange.DepositFilter{})
	withdrawals := s.client.GetWithdrawHistory(ctx)

	resp := ActivityResponse{
		Activities:  s.activity.Recent(),
		Deposits:    []TransferView{},
		Withdrawals: []TransferView{},
		Degraded:    deposits.Degraded || withdrawals.Degraded,
	}

	for _, d := range deposits.Deposits {
		resp.Deposits = append(resp.Deposits, TransferView{
			Coin:        d.Coin,
			Network:     d.Network,
			Amount:      d.Amount,
			Status:      depositStatusLabel(d.Status),
			TxID:        d.TxID,
			ExplorerURL: explorerURL(d.Network, d.TxID),
		})
	}

	for _, w := range withdrawals.Withdrawals {
		resp.Withdrawals = append(resp.Withdrawals, TransferView{
			Coin:        w.Coin,
			Network:     w.Network,
			Amount:      w.Amount,
			Status:      withdrawStatusLabel(w.Status),
			TxID:        w.TxID,
			ExplorerURL: explorerURL(w.Network, w.TxID),
		})
	}

	return resp
}

// assetUSDValue оценивает количество актива в USD по снимку цен
func assetUSDValue(asset string, amount decimal.Decimal, prices map[string]decimal.Decimal) decimal.Decimal {
	if asset == "USDT" {
		return amount
	}
	price, ok := prices[asset+"USDT"]
	if !ok {
		return decimal.Zero
	}
	return amount.Mul(price)
}

// depositStatusLabel переводит числовой статус депозита в текст
func depositStatusLabel(status int) string {
	if status == depositStatusCompleted {
		return "Completed"
	}
	return "Pending"
}

// withdrawStatusLabel переводит числовой статус вывода в текст
func withdrawStatusLabel(status int) string {
	switch status {
	case 6:
		return "Completed"
	case 1, 3, 5:
		return "Failed"
	default:
		return "Pending"
	}
}

// explorerURL строит ссылку на транзакцию в обозревателе сети
func explorerURL(network, txID string) string {
	if txID == "" {
		return ""
	}
	prefix, ok := explorerURLs[network]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s%s", prefix, txID)
}