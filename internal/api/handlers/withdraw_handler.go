package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"treasury/internal/exchange"
	"treasury/internal/service"
	"treasury/pkg/utils"
)

// actionKeyHeader - заголовок со вторым секретом операции вывода
const actionKeyHeader = "X-API-ACTION-KEY"

// WithdrawRequestBody - тело запроса на вывод средств
type WithdrawRequestBody struct {
	Coin       string `json:"coin"`
	Network    string `json:"network"`
	Address    string `json:"address"`
	AddressTag string `json:"addressTag,omitempty"`
	Amount     string `json:"amount"`
}

// WithdrawResponse - ответ принятой заявки на вывод
type WithdrawResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// EstimateFeeRequest - тело запроса оценки комиссии
type EstimateFeeRequest struct {
	Coin   string `json:"coin"`
	Amount string `json:"amount"`
}

// WithdrawHandler проводит заявки на вывод через конвейер авторизации
//
// Endpoints:
// - POST /api/account/withdraw - заявка на вывод
// - POST /api/account/estimate-fee - оценка комиссии
type WithdrawHandler struct {
	withdrawService *service.WithdrawService
}

// NewWithdrawHandler создает новый WithdrawHandler
func NewWithdrawHandler(withdrawService *service.WithdrawService) *WithdrawHandler {
	return &WithdrawHandler{withdrawService: withdrawService}
}

// Withdraw принимает заявку на вывод средств
// POST /api/account/withdraw
//
// Требует заголовок X-API-ACTION-KEY поверх сессионной cookie.
//
// Ответы:
// - 200 OK: заявка принята биржей
// - 400 Bad Request: невалидная заявка, неизвестная монета или
//   недостаточный баланс
// - 401 Unauthorized: биржа отвергла учётные данные
// - 403 Forbidden: неверный ключ действия
// - 429 Too Many Requests: превышена квота попыток
// - 500 Internal Server Error: прочие сбои
func (h *WithdrawHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	var body WithdrawRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(body.Amount))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid amount", "amount must be a decimal number")
		return
	}

	req := exchange.WithdrawRequest{
		Coin:       strings.ToUpper(strings.TrimSpace(body.Coin)),
		Network:    strings.ToUpper(strings.TrimSpace(body.Network)),
		Address:    strings.TrimSpace(body.Address),
		AddressTag: strings.TrimSpace(body.AddressTag),
		Amount:     amount,
	}

	res, err := h.withdrawService.Submit(r.Context(), clientIP(r), r.Header.Get(actionKeyHeader), req)
	if err != nil {
		h.respondWithdrawError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, WithdrawResponse{
		Success: true,
		ID:      res.ID,
		Status:  res.Status,
		Message: "Withdrawal initiated successfully",
	})
}

// respondWithdrawError переводит ошибки конвейера в HTTP статусы.
// Сообщения об ошибках биржи проходят через санитайзер, чтобы ключи
// и секреты не утекали в ответ клиенту.
func (h *WithdrawHandler) respondWithdrawError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	var ferr *service.InsufficientFundsError
	var cerr *service.CoinNotFoundError

	switch {
	case errors.Is(err, service.ErrInvalidActionKey):
		respondWithError(w, http.StatusForbidden, "Invalid action key", "")
	case errors.Is(err, service.ErrRateLimited):
		respondWithError(w, http.StatusTooManyRequests, "Too many withdrawal attempts. Please try again later.", "")
	case errors.As(err, &verr):
		respondWithError(w, http.StatusBadRequest, "Invalid withdrawal request", strings.Join(verr.Reasons, "; "))
	case errors.As(err, &cerr):
		respondWithError(w, http.StatusBadRequest, cerr.Error(), "")
	case errors.As(err, &ferr):
		respondWithError(w, http.StatusBadRequest, ferr.Error(), "")
	case errors.Is(err, service.ErrBalanceUnavailable):
		respondWithError(w, http.StatusInternalServerError, "Unable to verify account balance", "Please try again later")
	case errors.Is(err, exchange.ErrCredentials):
		respondWithError(w, http.StatusUnauthorized, "Authentication failed. Please check your API credentials.", "")
	case errors.Is(err, exchange.ErrClockSkew):
		respondWithError(w, http.StatusInternalServerError, "Exchange rejected request timing", "Please try again")
	default:
		respondWithError(w, http.StatusInternalServerError, utils.SanitizeErrorMessage(err), "")
	}
}

// EstimateFee оценивает комиссию вывода
// POST /api/account/estimate-fee
func (h *WithdrawHandler) EstimateFee(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	var body EstimateFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(body.Amount))
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		respondWithError(w, http.StatusBadRequest, "Invalid amount", "amount must be a positive decimal number")
		return
	}

	coin := strings.ToUpper(strings.TrimSpace(body.Coin))
	if coin == "" {
		respondWithError(w, http.StatusBadRequest, "Coin is required", "")
		return
	}

	respondWithJSON(w, http.StatusOK, h.withdrawService.EstimateFee(coin, amount))
}
