package handlers

import (
	"net/http"
	"time"

	"treasury/internal/api/middleware"
	"treasury/internal/service"
	"treasury/pkg/utils"
)

// LoginRequest - тело запроса входа в дашборд
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse - ответ успешного входа
type LoginResponse struct {
	Success  bool   `json:"success"`
	Redirect string `json:"redirect"`
	Role     string `json:"role"`
}

// SessionResponse - ответ проверки сессии
type SessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Role          string `json:"role,omitempty"`
}

// AuthHandler отвечает за вход, выход и проверку сессии дашборда
//
// Endpoints:
// - POST /api/auth/login - вход по паролю
// - POST /api/auth/logout - выход
// - GET /api/auth/check - проверка сессии
type AuthHandler struct {
	authService *service.AuthService
	activity    *service.ActivityLog
	sessionTTL  time.Duration
	secureCookie bool
}

// NewAuthHandler создает новый AuthHandler.
// secure управляет флагом Secure сессионных cookies (true за HTTPS).
func NewAuthHandler(authService *service.AuthService, activity *service.ActivityLog, sessionTTL time.Duration, secure bool) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		activity:    activity,
		sessionTTL:  sessionTTL,
		secureCookie: secure,
	}
}

// Login проверяет пароль и устанавливает сессионные cookies
// POST /api/auth/login
//
// Ответы:
// - 200 OK: вход выполнен, в ответе маршрут дашборда и роль
// - 400 Bad Request: некорректное тело запроса
// - 401 Unauthorized: неверный пароль
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}

	check := h.authService.ValidatePassword(req.Password)
	if !check.Valid {
		utils.L().Warn("login rejected", utils.ClientIP(clientIP(r)))
		h.activity.Log("Failed login attempt", service.ActivityError)
		respondWithError(w, http.StatusUnauthorized, "Invalid password", "")
		return
	}

	maxAge := int(h.sessionTTL.Seconds())
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    middleware.SessionCookieValue,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.DashboardTypeCookie,
		Value:    check.Role,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})

	utils.L().Info("login successful", utils.Role(check.Role), utils.ClientIP(clientIP(r)))
	h.activity.Log("Login successful", service.ActivitySuccess)

	respondWithJSON(w, http.StatusOK, LoginResponse{
		Success:  true,
		Redirect: check.Route,
		Role:     check.Role,
	})
}

// Logout снимает сессионные cookies
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{middleware.SessionCookieName, middleware.DashboardTypeCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.secureCookie,
			SameSite: http.SameSiteStrictMode,
		})
	}

	h.activity.Log("Logged out", service.ActivitySuccess)
	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "Logged out"})
}

// Check сообщает состояние текущей сессии
// GET /api/auth/check
//
// Ответы:
// - 200 OK: сессия действительна, в теле роль
// - 401 Unauthorized: cookie отсутствует или не совпадает
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil || cookie.Value != middleware.SessionCookieValue {
		respondWithJSON(w, http.StatusUnauthorized, SessionResponse{Authenticated: false})
		return
	}

	role := ""
	if typeCookie, err := r.Cookie(middleware.DashboardTypeCookie); err == nil {
		role = typeCookie.Value
	}

	respondWithJSON(w, http.StatusOK, SessionResponse{Authenticated: true, Role: role})
}
