package handlers

import (
	"net/http"
	"strconv"

	"treasury/internal/exchange"
	"treasury/internal/service"
)

// AccountHandler отдаёт данные аккаунта для страниц дашборда
//
// Endpoints:
// - GET /api/account/balances - балансы с оценкой в USD
// - GET /api/account/deposits - история депозитов
// - GET /api/account/activity - журнал действий и движения средств
type AccountHandler struct {
	accountService *service.AccountService
}

// NewAccountHandler создает новый AccountHandler
func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// GetBalances возвращает ненулевые балансы аккаунта
// GET /api/account/balances
//
// При недоступности биржи возвращается 200 с degraded=true и пустым
// списком: дашборд показывает "данные недоступны", а не страницу ошибки.
func (h *AccountHandler) GetBalances(w http.ResponseWriter, r *http.Request) {
	resp := h.accountService.GetBalances(r.Context())
	respondWithJSON(w, http.StatusOK, resp)
}

// GetDeposits возвращает историю депозитов
// GET /api/account/deposits?coin=BTC&startTime=...&endTime=...
//
// Параметры запроса необязательны; время в миллисекундах unix.
func (h *AccountHandler) GetDeposits(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := exchange.DepositFilter{
		Coin: query.Get("coin"),
	}
	if v := query.Get("startTime"); v != "" {
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid startTime", "startTime must be a unix millisecond timestamp")
			return
		}
		filter.StartTime = ts
	}
	if v := query.Get("endTime"); v != "" {
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid endTime", "endTime must be a unix millisecond timestamp")
			return
		}
		filter.EndTime = ts
	}

	resp := h.accountService.GetDeposits(r.Context(), filter)
	respondWithJSON(w, http.StatusOK, resp)
}

// GetActivity возвращает журнал действий и движения средств
// GET /api/account/activity
func (h *AccountHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	resp := h.accountService.GetActivity(r.Context())
	respondWithJSON(w, http.StatusOK, resp)
}
