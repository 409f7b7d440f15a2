package exchange

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"treasury/pkg/crypto"
	"treasury/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Пути API биржи
const (
	timePath            = "/api/v3/time"
	accountPath         = "/api/v3/account"
	tickerPricePath     = "/api/v3/ticker/price"
	depositHistoryPath  = "/sapi/v1/capital/deposit/hisrec"
	withdrawHistoryPath = "/sapi/v1/capital/withdraw/history"
	withdrawApplyPath   = "/sapi/v1/capital/withdraw/apply"
	restrictionsPath    = "/sapi/v1/account/apiRestrictions"
)

// Бюджеты времени на сетевые вызовы: короткий для probe/time, средний
// для чтений, самый длинный для отправки вывода
const (
	probeTimeout    = 5 * time.Second
	syncTimeout     = 7 * time.Second
	readTimeout     = 10 * time.Second
	priceTimeout    = 9 * time.Second
	withdrawTimeout = 15 * time.Second
)

// Коды ошибок биржи
const (
	codeInvalidKey      = -2015 // invalid api-key, ip или permissions
	codeUnauthorizedKey = -2014 // api-key format invalid
	codeTimestampSkew   = -1021 // timestamp вне recvWindow
)

// defaultRecvWindow - допуск биржи между timestamp запроса и её часами, мс
const defaultRecvWindow int64 = 60000

// browserUserAgent - часть WAF биржи строже относится к дефолтному Go UA
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// defaultEndpoints - кандидаты базовых URL в порядке предпочтения
var defaultEndpoints = []string{
	"https://api.binance.com",
	"https://api1.binance.com",
	"https://api-gcp.binance.com",
}

// Config - параметры клиента биржи
type Config struct {
	APIKey     string
	APISecret  string
	Endpoints  []string // пусто = defaultEndpoints
	RecvWindow int64    // мс; 0 = defaultRecvWindow
	UseMock    bool     // детерминированные данные вместо сети
	HTTP       *HTTPClientConfig
}

// Binance - клиент подписанного REST API биржи.
//
// Состояние (выбранный эндпоинт, смещение серверного времени) живёт в
// экземпляре и инициализируется один раз за процесс. Конкурентная первая
// инициализация сериализуется мьютексами; результат конвергентен.
type Binance struct {
	apiKey     string
	apiSecret  string
	recvWindow int64
	endpoints  []string
	useMock    bool

	httpClient *HTTPClient
	logger     *utils.Logger

	// Выбранный базовый URL: выбирается первым успешным probe и
	// переиспользуется до рестарта процесса
	endpointMu sync.Mutex
	baseURL    string

	// Смещение серверного времени в мс; timestamp каждого подписанного
	// запроса = localNow + timeOffset
	timeMu     sync.Mutex
	timeSynced bool
	timeOffset int64
}

// NewBinance создаёт клиент биржи. Mock-режим фиксируется здесь и не
// перечитывается на каждый вызов.
func NewBinance(cfg Config, logger *utils.Logger) *Binance {
	endpoints := cfg.Endpoints
	if len(endpoints) == 0 {
		endpoints = defaultEndpoints
	}
	recvWindow := cfg.RecvWindow
	if recvWindow <= 0 {
		recvWindow = defaultRecvWindow
	}
	httpCfg := DefaultHTTPClientConfig()
	if cfg.HTTP != nil {
		httpCfg = *cfg.HTTP
	}
	if logger == nil {
		logger = utils.L()
	}

	return &Binance{
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		recvWindow: recvWindow,
		endpoints:  endpoints,
		useMock:    cfg.UseMock,
		httpClient: NewHTTPClient(httpCfg),
		logger:     logger.WithComponent("exchange"),
	}
}

// Close закрывает пул соединений клиента
func (b *Binance) Close() {
	b.httpClient.Close()
}

// resolveEndpoint возвращает рабочий базовый URL, выполняя probe по
// списку кандидатов при первом обращении. Кандидат принимается, если
// /api/v3/time отвечает валидным JSON с числовым serverTime; таймаут,
// не-JSON или отсутствие поля означают переход к следующему кандидату.
// Если ни один не прошёл - берём первый из списка: попытка ходить на
// основной эндпоинт предпочтительнее полного отказа.
func (b *Binance) resolveEndpoint(ctx context.Context) string {
	b.endpointMu.Lock()
	defer b.endpointMu.Unlock()

	if b.baseURL != "" {
		return b.baseURL
	}

	for _, candidate := range b.endpoints {
		if _, err := b.probeServerTime(ctx, candidate, probeTimeout); err != nil {
			b.logger.Warn("endpoint probe failed", utils.Endpoint(candidate), utils.Err(err))
			continue
		}
		b.baseURL = candidate
		b.logger.Info("using exchange endpoint", utils.Endpoint(candidate))
		return b.baseURL
	}

	b.baseURL = b.endpoints[0]
	b.logger.Warn("no endpoint verified, defaulting to first candidate", utils.Endpoint(b.baseURL))
	return b.baseURL
}

// probeServerTime запрашивает серверное время у кандидата
func (b *Binance) probeServerTime(ctx context.Context, base string, timeout time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+timePath, nil)
	if err != nil {
		return 0, err
	}
	b.setHeaders(req)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return 0, err
	}

	var payload struct {
		ServerTime *int64 `json:"serverTime"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("non-JSON time response: %w", err)
	}
	if payload.ServerTime == nil {
		return 0, errors.New("time response missing serverTime")
	}
	return *payload.ServerTime, nil
}

// ensureTimeSynced один раз за процесс вычисляет смещение часов биржи.
// При неудаче смещение фиксируется в 0 и повторных попыток не делается:
// иначе каждая последующая операция сериализовалась бы на retry-штормах.
// Цена компромисса: сбой при первом вызове оставляет offset=0 до рестарта
// или явного ResetTimeSync.
func (b *Binance) ensureTimeSynced(ctx context.Context) {
	if b.useMock {
		return
	}

	b.timeMu.Lock()
	defer b.timeMu.Unlock()
	if b.timeSynced {
		return
	}

	base := b.resolveEndpoint(ctx)
	serverTime, err := b.probeServerTime(ctx, base, syncTimeout)
	if err != nil {
		b.logger.Warn("time sync failed, falling back to local clock", utils.Err(err))
		b.timeOffset = 0
		b.timeSynced = true
		return
	}

	b.timeOffset = serverTime - time.Now().UnixMilli()
	b.timeSynced = true
	b.logger.Info("server time synced", utils.OffsetMs(b.timeOffset))
}

// ResetTimeSync сбрасывает кэш смещения: следующий подписанный вызов
// синхронизируется заново. Вызывается при ошибке clock-skew от биржи.
func (b *Binance) ResetTimeSync() {
	b.timeMu.Lock()
	defer b.timeMu.Unlock()
	b.timeSynced = false
	b.timeOffset = 0
}

// timestamp возвращает localNow + смещение серверного времени, мс
func (b *Binance) timestamp() int64 {
	b.timeMu.Lock()
	defer b.timeMu.Unlock()
	return time.Now().UnixMilli() + b.timeOffset
}

func (b *Binance) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	if b.apiKey != "" {
		req.Header.Set("X-MBX-APIKEY", b.apiKey)
	}
}

// doRequest выполняет вызов API биржи.
//
// Для подписанных вызовов подпись считается по той же закодированной
// строке параметров, которая уходит в запрос; signature добавляется
// последним параметром. Любое расхождение строки подписи и строки
// передачи инвалидирует подпись на стороне биржи.
func (b *Binance) doRequest(ctx context.Context, method, path string, params url.Values, signed bool, timeout time.Duration) ([]byte, error) {
	base := b.resolveEndpoint(ctx)

	if params == nil {
		params = url.Values{}
	}

	query := params.Encode()
	if signed {
		b.ensureTimeSynced(ctx)
		params.Set("timestamp", strconv.FormatInt(b.timestamp(), 10))
		params.Set("recvWindow", strconv.FormatInt(b.recvWindow, 10))
		payload := params.Encode()
		query = payload + "&signature=" + crypto.Sign(b.apiSecret, payload)
	}

	reqURL := base + path
	if query != "" {
		reqURL += "?" + query
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, reqURL, strings.NewReader(""))
	if err != nil {
		return nil, err
	}
	b.setHeaders(req)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, b.parseAPIError(resp.StatusCode, body)
	}
	return body, nil
}

// parseAPIError извлекает {code, msg} из тела ошибки биржи
func (b *Binance) parseAPIError(status int, body []byte) error {
	var envelope struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Msg == "" {
		return &APIError{
			Code:       envelope.Code,
			HTTPStatus: status,
			Message:    http.StatusText(status),
		}
	}
	return &APIError{
		Code:       envelope.Code,
		HTTPStatus: status,
		Message:    envelope.Msg,
	}
}

// GetAccountBalances возвращает балансы аккаунта.
// При любом сбое (сеть, не-2xx, кривой ответ) возвращает деградированный
// пустой снапшот: вызывающий код обязан трактовать его как "данные
// недоступны", а не "нулевые остатки".
func (b *Binance) GetAccountBalances(ctx context.Context) BalanceSnapshot {
	if b.useMock {
		return BalanceSnapshot{Balances: mockBalances()}
	}

	body, err := b.doRequest(ctx, http.MethodGet, accountPath, nil, true, readTimeout)
	if err != nil {
		b.logger.Error("failed to fetch balances", utils.Err(err))
		return BalanceSnapshot{Degraded: true}
	}

	var payload struct {
		Balances []struct {
			Asset  string `json:"asset"`
			Free   string `json:"free"`
			Locked string `json:"locked"`
		} `json:"balances"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Balances == nil {
		b.logger.Error("unexpected balances response", utils.Err(err))
		return BalanceSnapshot{Degraded: true}
	}

	balances := make([]Balance, 0, len(payload.Balances))
	for _, raw := range payload.Balances {
		balances = append(balances, Balance{
			Asset:  raw.Asset,
			Free:   b.parseDecimal(raw.Free, "free"),
			Locked: b.parseDecimal(raw.Locked, "locked"),
		})
	}
	return BalanceSnapshot{Balances: balances}
}

// GetDepositHistory возвращает историю депозитов с необязательными
// фильтрами, вшитыми в подписанную строку запроса
func (b *Binance) GetDepositHistory(ctx context.Context, filter DepositFilter) DepositSnapshot {
	if b.useMock {
		return DepositSnapshot{Deposits: mockDeposits(filter.Coin)}
	}

	params := url.Values{}
	if filter.Coin != "" {
		params.Set("coin", filter.Coin)
	}
	if filter.StartTime > 0 {
		params.Set("startTime", strconv.FormatInt(filter.StartTime, 10))
	}
	if filter.EndTime > 0 {
		params.Set("endTime", strconv.FormatInt(filter.EndTime, 10))
	}

	body, err := b.doRequest(ctx, http.MethodGet, depositHistoryPath, params, true, readTimeout)
	if err != nil {
		b.logger.Error("failed to fetch deposit history", utils.Err(err))
		return DepositSnapshot{Degraded: true}
	}

	var raw []struct {
		ID           string `json:"id"`
		Coin         string `json:"coin"`
		Network      string `json:"network"`
		Amount       string `json:"amount"`
		Status       int    `json:"status"`
		InsertTime   int64  `json:"insertTime"`
		TxID         string `json:"txId"`
		ConfirmTimes string `json:"confirmTimes"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		b.logger.Error("unexpected deposit history response", utils.Err(err))
		return DepositSnapshot{Degraded: true}
	}

	deposits := make([]Deposit, 0, len(raw))
	for _, d := range raw {
		deposits = append(deposits, Deposit{
			ID:           d.ID,
			Coin:         d.Coin,
			Network:      d.Network,
			Amount:       b.parseDecimal(d.Amount, "amount"),
			Status:       d.Status,
			InsertTime:   d.InsertTime,
			TxID:         d.TxID,
			ConfirmTimes: d.ConfirmTimes,
		})
	}
	return DepositSnapshot{Deposits: deposits}
}

// GetWithdrawHistory возвращает историю выводов
func (b *Binance) GetWithdrawHistory(ctx context.Context) WithdrawalSnapshot {
	if b.useMock {
		return WithdrawalSnapshot{Withdrawals: mockWithdrawals()}
	}

	body, err := b.doRequest(ctx, http.MethodGet, withdrawHistoryPath, nil, true, readTimeout)
	if err != nil {
		b.logger.Error("failed to fetch withdraw history", utils.Err(err))
		return WithdrawalSnapshot{Degraded: true}
	}

	var raw []struct {
		ID      string `json:"id"`
		Coin    string `json:"coin"`
		Network string `json:"network"`
		Amount  string `json:"amount"`
		Status  int    `json:"status"`
		TxID    string `json:"txId"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		b.logger.Error("unexpected withdraw history response", utils.Err(err))
		return WithdrawalSnapshot{Degraded: true}
	}

	withdrawals := make([]Withdrawal, 0, len(raw))
	for _, w := range raw {
		withdrawals = append(withdrawals, Withdrawal{
			ID:      w.ID,
			Coin:    w.Coin,
			Network: w.Network,
			Amount:  b.parseDecimal(w.Amount, "amount"),
			Status:  w.Status,
			TxID:    w.TxID,
		})
	}
	return WithdrawalSnapshot{Withdrawals: withdrawals}
}

// GetPrices возвращает снимок всех цен тикеров. Публичный вызов без
// подписи. При ошибке отдаёт статический набор цен с Degraded=true,
// чтобы расчёты USD стоимости не падали.
func (b *Binance) GetPrices(ctx context.Context) PriceSnapshot {
	if b.useMock {
		return PriceSnapshot{Prices: mockPrices()}
	}

	body, err := b.doRequest(ctx, http.MethodGet, tickerPricePath, nil, false, priceTimeout)
	if err != nil {
		b.logger.Error("failed to fetch prices", utils.Err(err))
		return PriceSnapshot{Prices: mockPrices(), Degraded: true}
	}

	var raw []struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		b.logger.Error("unexpected prices response", utils.Err(err))
		return PriceSnapshot{Prices: mockPrices(), Degraded: true}
	}

	prices := make(map[string]decimal.Decimal, len(raw))
	for _, p := range raw {
		if p.Symbol == "" || p.Price == "" {
			continue
		}
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			continue
		}
		prices[p.Symbol] = price
	}
	return PriceSnapshot{Prices: prices}
}

// ValidateAPIKey проверяет возможности настроенных credentials одним
// подписанным чтением аккаунта. Неудача первого вызова фатальна для
// операции: тихая деградация при проверке ключа вводила бы в заблуждение.
// Второй вызов (permissions introspection) best-effort: его сбой значит
// "только чтение", а не ошибку.
func (b *Binance) ValidateAPIKey(ctx context.Context) (KeyCapabilities, error) {
	if b.useMock {
		return KeyCapabilities{CanRead: true, CanWithdraw: true}, nil
	}

	if _, err := b.doRequest(ctx, http.MethodGet, accountPath, nil, true, readTimeout); err != nil {
		b.logger.Error("api key validation failed",
			utils.MaskedKey(utils.MaskAPIKey(b.apiKey)), utils.Err(err))
		return KeyCapabilities{}, b.translateError(err)
	}

	body, err := b.doRequest(ctx, http.MethodGet, restrictionsPath, nil, true, readTimeout)
	if err != nil {
		return KeyCapabilities{CanRead: true, CanWithdraw: false}, nil
	}

	canWithdraw := true
	var restrictions struct {
		EnableWithdrawals *bool `json:"enableWithdrawals"`
	}
	if err := json.Unmarshal(body, &restrictions); err == nil && restrictions.EnableWithdrawals != nil {
		canWithdraw = *restrictions.EnableWithdrawals
	}
	return KeyCapabilities{CanRead: true, CanWithdraw: canWithdraw}, nil
}

// Withdraw отправляет заявку на вывод. Единственная мутирующая операция:
// никогда не ретраится (риск двойной отправки при неоднозначном сбое) и
// единственная, которой разрешено возвращать ошибку вместо деградации.
func (b *Binance) Withdraw(ctx context.Context, req WithdrawRequest) (*WithdrawResult, error) {
	if b.useMock {
		return mockWithdrawResult(), nil
	}

	params := url.Values{}
	params.Set("coin", req.Coin)
	params.Set("network", req.Network)
	params.Set("address", req.Address)
	params.Set("amount", req.Amount.String())
	if req.AddressTag != "" {
		params.Set("addressTag", req.AddressTag)
	}

	body, err := b.doRequest(ctx, http.MethodPost, withdrawApplyPath, params, true, withdrawTimeout)
	if err != nil {
		translated := b.translateError(err)
		if errors.Is(translated, ErrClockSkew) {
			// Следующий подписанный вызов синхронизируется заново;
			// текущая заявка не повторяется
			b.ResetTimeSync()
		}
		b.logger.Error("withdraw request failed",
			utils.Coin(req.Coin), utils.Network(req.Network), utils.Err(translated))
		return nil, translated
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.ID == "" {
		return nil, fmt.Errorf("unexpected withdraw response: %s", string(body))
	}

	b.logger.Info("withdrawal accepted by exchange",
		utils.Coin(req.Coin), utils.Network(req.Network), utils.WithdrawID(payload.ID))
	return &WithdrawResult{ID: payload.ID, Status: "success"}, nil
}

// translateError переводит ошибку биржи в категорию:
// auth коды и 401/403 -> ErrCredentials, -1021 -> ErrClockSkew,
// остальное - общая ошибка операции с кодом и сообщением биржи
func (b *Binance) translateError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch {
	case apiErr.Code == codeInvalidKey || apiErr.Code == codeUnauthorizedKey ||
		apiErr.HTTPStatus == http.StatusUnauthorized || apiErr.HTTPStatus == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrCredentials, apiErr.Message)
	case apiErr.Code == codeTimestampSkew:
		return fmt.Errorf("%w: %s", ErrClockSkew, apiErr.Message)
	default:
		return apiErr
	}
}

// parseDecimal парсит строковое число биржи с логированием ошибок
func (b *Binance) parseDecimal(value, field string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	result, err := decimal.NewFromString(value)
	if err != nil {
		b.logger.Warn("failed to parse decimal field",
			utils.String("field", field), utils.String("value", value))
		return decimal.Zero
	}
	return result
}
