package handlers

import (
	"errors"
	"net/http"

	"treasury/internal/exchange"
	"treasury/pkg/utils"
)

// KeyValidationResponse - ответ проверки API ключа биржи
type KeyValidationResponse struct {
	Valid       bool `json:"valid"`
	CanRead     bool `json:"canRead"`
	CanWithdraw bool `json:"canWithdraw"`
}

// AdminHandler - служебные операции admin дашборда
//
// Endpoints:
// - POST /api/admin/validate-key - проверка настроенного API ключа
type AdminHandler struct {
	client exchange.Exchange
}

// NewAdminHandler создает новый AdminHandler
func NewAdminHandler(client exchange.Exchange) *AdminHandler {
	return &AdminHandler{client: client}
}

// ValidateKey проверяет настроенный API ключ биржи
// POST /api/admin/validate-key
//
// Ответы:
// - 200 OK: ключ валиден, в ответе его возможности
// - 401 Unauthorized: биржа отвергла учётные данные
// - 500 Internal Server Error: проверить не удалось
func (h *AdminHandler) ValidateKey(w http.ResponseWriter, r *http.Request) {
	caps, err := h.client.ValidateAPIKey(r.Context())
	if err != nil {
		if errors.Is(err, exchange.ErrCredentials) {
			respondWithError(w, http.StatusUnauthorized, "Authentication failed. Please check your API credentials.", "")
			return
		}
		respondWithError(w, http.StatusInternalServerError, utils.SanitizeErrorMessage(err), "")
		return
	}

	respondWithJSON(w, http.StatusOK, KeyValidationResponse{
		Valid:       true,
		CanRead:     caps.CanRead,
		CanWithdraw: caps.CanWithdraw,
	})
}
