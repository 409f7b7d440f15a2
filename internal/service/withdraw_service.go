package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"treasury/internal/exchange"
	"treasury/pkg/crypto"
	"treasury/pkg/ratelimit"
	"treasury/pkg/utils"
)

// Ошибки конвейера авторизации вывода средств
var (
	// ErrInvalidActionKey - ключ действия отсутствует или не совпал.
	// Возвращается и когда ключ не настроен в конфигурации: отсутствие
	// секрета закрывает операцию, а не открывает её.
	ErrInvalidActionKey = errors.New("invalid withdrawal action key")

	// ErrRateLimited - превышена квота попыток вывода за окно
	ErrRateLimited = errors.New("too many withdrawal attempts")

	// ErrBalanceUnavailable - баланс не удалось проверить (деградация
	// чтения). Отличается от недостатка средств: операция отклоняется
	// потому, что проверка невозможна, а не потому, что денег нет.
	ErrBalanceUnavailable = errors.New("unable to verify account balance")
)

// ValidationError - структурная проверка заявки не пройдена
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "invalid withdrawal request: " + strings.Join(e.Reasons, "; ")
}

// InsufficientFundsError - свободный остаток меньше запрошенной суммы
type InsufficientFundsError struct {
	Coin      string
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("Insufficient balance. Available: %s %s", e.Available.String(), e.Coin)
}

// CoinNotFoundError - запрошенной монеты нет в аккаунте
type CoinNotFoundError struct {
	Coin string
}

func (e *CoinNotFoundError) Error() string {
	return fmt.Sprintf("%s not found in your account", e.Coin)
}

// FeeEstimate - оценка комиссии вывода
type FeeEstimate struct {
	Coin         string          `json:"coin"`
	Amount       decimal.Decimal `json:"amount"`
	EstimatedFee decimal.Decimal `json:"estimatedFee"`
	Total        decimal.Decimal `json:"total"`
}

// feeRates - статические ставки комиссии по монетам (доля от суммы)
var feeRates = map[string]decimal.Decimal{
	"BTC":  decimal.NewFromFloat(0.0005),
	"ETH":  decimal.NewFromFloat(0.005),
	"BNB":  decimal.NewFromFloat(0.001),
	"USDT": decimal.NewFromInt(1),
}

var defaultFeeRate = decimal.NewFromFloat(0.001)

// WithdrawService - конвейер авторизации вывода средств.
//
// Назначение:
// Каждая заявка проходит цепочку независимых барьеров в фиксированном
// порядке, отказ на любом шаге немедленно прекращает обработку:
//  1. ключ действия (второй секрет поверх сессии, сравнение за
//     константное время)
//  2. rate limit по идентификатору клиента (единственный потребитель
//     квоты; ни одна другая операция её не расходует)
//  3. структурная валидация заявки
//  4. достаточность свободного остатка
//  5. передача заявки бирже
//
// Rate limit расходуется ДО валидации: неудачная попытка тоже попытка,
// иначе перебором невалидных заявок можно прощупывать барьеры бесплатно.
type WithdrawService struct {
	client   exchange.Exchange
	limiter  *ratelimit.SlidingWindow
	activity *ActivityLog
	logger   *utils.Logger

	actionKey   string
	maxAttempts int
	window      time.Duration
}

// NewWithdrawService создаёт сервис выводов
func NewWithdrawService(client exchange.Exchange, limiter *ratelimit.SlidingWindow, activity *ActivityLog, logger *utils.Logger, actionKey string, maxAttempts int, window time.Duration) *WithdrawService {
	if logger == nil {
		logger = utils.L()
	}
	return &WithdrawService{
		client:      client,
		limiter:     limiter,
		activity:    activity,
		logger:      logger.WithComponent("withdraw"),
		actionKey:   actionKey,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

// Submit проводит заявку через конвейер авторизации и передаёт её бирже.
// clientIP - идентификатор клиента для rate limit'а, actionKey - значение
// заголовка X-API-ACTION-KEY.
func (s *WithdrawService) Submit(ctx context.Context, clientIP, actionKey string, req exchange.WithdrawRequest) (*exchange.WithdrawResult, error) {
	// Шаг 1: ключ действия. Ненастроенный ключ никогда не совпадает.
	if !crypto.VerifyPassword(s.actionKey, actionKey) {
		s.logger.Warn("withdrawal rejected: invalid action key", utils.ClientIP(clientIP))
		s.activity.Log("Withdrawal attempt with invalid action key", ActivityError)
		return nil, ErrInvalidActionKey
	}

	// Шаг 2: rate limit. Проверка и фиксация попытки атомарны.
	if !s.limiter.Allow(clientIP, s.maxAttempts, s.window) {
		s.logger.Warn("withdrawal rejected: rate limited", utils.ClientIP(clientIP))
		s.activity.Log("Withdrawal attempt rate limited", ActivityError)
		return nil, ErrRateLimited
	}

	// Шаг 3: структурная валидация
	result := utils.ValidateWithdrawRequest(utils.WithdrawInput{
		Coin:       req.Coin,
		Network:    req.Network,
		Address:    req.Address,
		AddressTag: req.AddressTag,
		Amount:     req.Amount,
	})
	if !result.Valid {
		return nil, &ValidationError{Reasons: result.Errors}
	}

	// Шаг 4: достаточность свободного остатка.
	// Деградированный снапшот не означает нулевой баланс - заявка
	// отклоняется с отдельной ошибкой проверки.
	snap := s.client.GetAccountBalances(ctx)
	if snap.Degraded {
		s.logger.Error("withdrawal rejected: balance check unavailable", utils.Coin(req.Coin))
		return nil, ErrBalanceUnavailable
	}

	var available decimal.Decimal
	found := false
	for _, b := range snap.Balances {
		if b.Asset == req.Coin {
			available = b.Free
			found = true
			break
		}
	}
	if !found {
		return nil, &CoinNotFoundError{Coin: req.Coin}
	}
	if available.LessThan(req.Amount) {
		return nil, &InsufficientFundsError{Coin: req.Coin, Available: available}
	}

	// Шаг 5: передача бирже. Без ретраев - вывод не идемпотентен.
	res, err := s.client.Withdraw(ctx, req)
	if err != nil {
		s.logger.Error("withdrawal failed",
			utils.Coin(req.Coin),
			utils.Amount(req.Amount.String()),
			utils.Err(err))
		s.activity.Log(fmt.Sprintf("Withdrawal failed: %s %s", req.Amount.String(), req.Coin), ActivityError)
		return nil, err
	}

	s.logger.Info("withdrawal initiated",
		utils.Coin(req.Coin),
		utils.Network(req.Network),
		utils.Amount(req.Amount.String()),
		utils.WithdrawID(res.ID))
	s.activity.Log(
		fmt.Sprintf("Withdrawal initiated: %s %s to %s", req.Amount.String(), req.Coin, shortAddress(req.Address)),
		ActivitySuccess,
	)

	return res, nil
}

// EstimateFee оценивает комиссию вывода по статической таблице ставок
func (s *WithdrawService) EstimateFee(coin string, amount decimal.Decimal) FeeEstimate {
	rate, ok := feeRates[coin]
	if !ok {
		rate = defaultFeeRate
	}

	var fee decimal.Decimal
	if coin == "USDT" {
		// USDT берёт фиксированную комиссию, не процент
		fee = rate
	} else {
		fee = amount.Mul(rate)
	}

	return FeeEstimate{
		Coin:         coin,
		Amount:       amount,
		EstimatedFee: fee,
		Total:        amount.Add(fee),
	}
}

// shortAddress сокращает адрес для журнала активности
func shortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:10] + "..."
}
