package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"treasury/internal/api/handlers"
	"treasury/internal/api/middleware"
	"treasury/internal/config"
	"treasury/internal/exchange"
	"treasury/internal/service"
	"treasury/internal/websocket"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	Config          *config.Config
	Client          exchange.Exchange
	AuthService     *service.AuthService
	AccountService  *service.AccountService
	WithdrawService *service.WithdrawService
	Activity        *service.ActivityLog
	Hub             *websocket.Hub
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Назначение:
// Центральное место определения endpoints дашборда.
//
// Структура маршрутов:
//
// /api/
//
//	├── /auth/
//	│   ├── POST /login - вход по паролю
//	│   ├── POST /logout - выход
//	│   └── GET /check - проверка сессии
//	├── /account/ (требует сессию)
//	│   ├── GET /balances - балансы с оценкой в USD
//	│   ├── GET /deposits - история депозитов
//	│   ├── GET /activity - журнал действий и движения средств
//	│   ├── POST /withdraw - заявка на вывод (+ X-API-ACTION-KEY)
//	│   └── POST /estimate-fee - оценка комиссии вывода
//	└── /admin/ (требует сессию)
//	    └── POST /validate-key - проверка API ключа биржи
//
// /ws/activity - WebSocket лента активности (требует сессию)
// /metrics - Prometheus метрики
// /health - проверка живости
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. SecurityHeaders (для всех маршрутов)
// 4. CORS (для всех маршрутов)
// 5. Metrics (для всех маршрутов)
// 6. Auth (только для /api/account и /api/admin)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.SecurityHeaders)
	router.Use(middleware.CORS)
	router.Use(middleware.Metrics)

	authHandler := handlers.NewAuthHandler(
		deps.AuthService,
		deps.Activity,
		deps.Config.Security.SessionTTL,
		deps.Config.Server.UseHTTPS,
	)
	accountHandler := handlers.NewAccountHandler(deps.AccountService)
	withdrawHandler := handlers.NewWithdrawHandler(deps.WithdrawService)
	adminHandler := handlers.NewAdminHandler(deps.Client)

	// Публичные маршруты аутентификации
	auth := router.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/login", authHandler.Login).Methods("POST", "OPTIONS")
	auth.HandleFunc("/logout", authHandler.Logout).Methods("POST", "OPTIONS")
	auth.HandleFunc("/check", authHandler.Check).Methods("GET", "OPTIONS")

	// Маршруты аккаунта за сессионной аутентификацией
	account := router.PathPrefix("/api/account").Subrouter()
	account.Use(middleware.Auth)
	account.HandleFunc("/balances", accountHandler.GetBalances).Methods("GET", "OPTIONS")
	account.HandleFunc("/deposits", accountHandler.GetDeposits).Methods("GET", "OPTIONS")
	account.HandleFunc("/activity", accountHandler.GetActivity).Methods("GET", "OPTIONS")
	account.HandleFunc("/withdraw", withdrawHandler.Withdraw).Methods("POST", "OPTIONS")
	account.HandleFunc("/estimate-fee", withdrawHandler.EstimateFee).Methods("POST", "OPTIONS")

	// Служебные маршруты admin дашборда
	admin := router.PathPrefix("/api/admin").Subrouter()
	admin.Use(middleware.Auth)
	admin.HandleFunc("/validate-key", adminHandler.ValidateKey).Methods("POST", "OPTIONS")

	// WebSocket лента активности (сессия проверяется при апгрейде)
	if deps.Hub != nil {
		router.HandleFunc("/ws/activity", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(deps.Hub, w, r)
		})
	}

	// Prometheus метрики
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}
