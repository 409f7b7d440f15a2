package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"treasury/internal/api"
	"treasury/internal/config"
	"treasury/internal/exchange"
	"treasury/internal/service"
	"treasury/internal/websocket"
	"treasury/pkg/ratelimit"
	"treasury/pkg/utils"
)

func main() {
	// .env необязателен: в production конфигурация приходит из окружения
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := utils.InitGlobalLogger(utils.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	defer func() { _ = logger.Sync() }()

	if cfg.Exchange.APIKey != "" {
		logger.Info("exchange credentials loaded",
			utils.MaskedKey(utils.MaskAPIKey(cfg.Exchange.APIKey)))
	} else if !cfg.Exchange.UseMock {
		logger.Warn("no exchange API key configured, signed requests will fail")
	}

	// Клиент биржи
	client := exchange.NewBinance(exchange.Config{
		APIKey:     cfg.Exchange.APIKey,
		APISecret:  cfg.Exchange.APISecret,
		Endpoints:  cfg.Exchange.Endpoints,
		RecvWindow: cfg.Exchange.RecvWindow,
		UseMock:    cfg.Exchange.UseMock,
	}, logger)
	defer client.Close()

	// Журнал активности и WebSocket рассылка
	activity := service.NewActivityLog()
	hub := websocket.NewHub(logger)
	go hub.Run()
	activity.SetBroadcaster(hub)

	// Сервисы
	authService := service.NewAuthService(cfg.Security, logger)
	accountService := service.NewAccountService(
		client,
		activity,
		logger,
		cfg.Exchange.USDTWalletAddress,
		cfg.Exchange.USDTWalletNetwork,
	)
	withdrawService := service.NewWithdrawService(
		client,
		ratelimit.NewSlidingWindow(),
		activity,
		logger,
		cfg.Security.WithdrawActionKey,
		cfg.Withdraw.MaxAttempts,
		cfg.Withdraw.Window,
	)

	router := api.SetupRoutes(&api.Dependencies{
		Config:          cfg,
		Client:          client,
		AuthService:     authService,
		AccountService:  accountService,
		WithdrawService: withdrawService,
		Activity:        activity,
		Hub:             hub,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", utils.String("addr", server.Addr))
		if cfg.Server.UseHTTPS {
			if err := server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile); err != nil && err != http.ErrServerClosed {
				logger.Fatal("server failed", utils.Err(err))
			}
		} else {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("server failed", utils.Err(err))
			}
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", utils.Err(err))
	}

	logger.Info("server exited")
}
