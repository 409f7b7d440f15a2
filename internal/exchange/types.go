// Package exchange реализует клиент подписанного REST API биржи:
// выбор эндпоинта, синхронизацию времени, подпись запросов и трансляцию
// ошибок в категории, понятные вызывающему коду.
package exchange

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Exchange определяет операции биржи, используемые сервисным слоем.
//
// Операции чтения не возвращают ошибку: при сбое они деградируют до
// пустого снапшота с Degraded=true, чтобы дашборд показывал "данные
// недоступны" вместо страницы ошибки. Единственные операции с ошибками -
// ValidateAPIKey (тихая деградация вводила бы в заблуждение) и Withdraw
// (перемещение денег никогда не деградирует молча).
type Exchange interface {
	GetAccountBalances(ctx context.Context) BalanceSnapshot
	GetDepositHistory(ctx context.Context, filter DepositFilter) DepositSnapshot
	GetWithdrawHistory(ctx context.Context) WithdrawalSnapshot
	GetPrices(ctx context.Context) PriceSnapshot
	ValidateAPIKey(ctx context.Context) (KeyCapabilities, error)
	Withdraw(ctx context.Context, req WithdrawRequest) (*WithdrawResult, error)
}

// Balance - баланс одного актива, как его отдаёт биржа
type Balance struct {
	Asset  string          `json:"asset"`
	Free   decimal.Decimal `json:"free"`
	Locked decimal.Decimal `json:"locked"`
}

// BalanceSnapshot - результат чтения балансов.
// Degraded=true означает "данные недоступны", а не "нулевые остатки".
type BalanceSnapshot struct {
	Balances []Balance
	Degraded bool
}

// Deposit - запись истории депозитов
type Deposit struct {
	ID           string          `json:"id"`
	Coin         string          `json:"coin"`
	Network      string          `json:"network"`
	Amount       decimal.Decimal `json:"amount"`
	Status       int             `json:"status"`
	InsertTime   int64           `json:"insertTime"`
	TxID         string          `json:"txId"`
	ConfirmTimes string          `json:"confirmTimes,omitempty"`
}

// DepositSnapshot - результат чтения истории депозитов
type DepositSnapshot struct {
	Deposits []Deposit
	Degraded bool
}

// DepositFilter - необязательные фильтры истории депозитов.
// Нулевые значения не попадают в параметры запроса.
type DepositFilter struct {
	Coin      string
	StartTime int64 // миллисекунды unix
	EndTime   int64
}

// Withdrawal - запись истории выводов
type Withdrawal struct {
	ID      string          `json:"id"`
	Coin    string          `json:"coin"`
	Network string          `json:"network"`
	Amount  decimal.Decimal `json:"amount"`
	Status  int             `json:"status"`
	TxID    string          `json:"txId"`
}

// WithdrawalSnapshot - результат чтения истории выводов
type WithdrawalSnapshot struct {
	Withdrawals []Withdrawal
	Degraded    bool
}

// PriceSnapshot - снимок цен тикеров symbol -> цена в USDT.
// При ошибке запроса заполняется встроенным статическим набором цен,
// чтобы расчёт USD стоимости деградировал, а не падал.
type PriceSnapshot struct {
	Prices   map[string]decimal.Decimal
	Degraded bool
}

// WithdrawRequest - параметры заявки на вывод
type WithdrawRequest struct {
	Coin       string          `json:"coin"`
	Network    string          `json:"network"`
	Address    string          `json:"address"`
	AddressTag string          `json:"addressTag,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
}

// WithdrawResult - результат принятой биржей заявки на вывод.
// Заявки никогда не ретраятся автоматически: вывод не идемпотентен,
// повтор при неоднозначном сбое рискует двойной отправкой средств.
type WithdrawResult struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// KeyCapabilities - возможности настроенного API ключа
type KeyCapabilities struct {
	CanRead     bool `json:"canRead"`
	CanWithdraw bool `json:"canWithdraw"`
}

// Категории ошибок биржи. Проверяются через errors.Is.
var (
	// ErrCredentials - биржа отвергла API ключ или подпись
	ErrCredentials = errors.New("exchange rejected API credentials")

	// ErrClockSkew - timestamp запроса вышел за recvWindow биржи
	ErrClockSkew = errors.New("request timestamp rejected by exchange")
)

// APIError - ошибка уровня API биржи с кодом и сообщением из ответа
type APIError struct {
	Code       int
	HTTPStatus int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("exchange api error %d: %s", e.Code, e.Message)
}
