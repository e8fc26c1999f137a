package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"menumaker/internal/app"
	"menumaker/internal/config"
	"menumaker/internal/database"
	"menumaker/internal/ghost"
	"menumaker/internal/llm"
	"menumaker/internal/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", config.DefaultFile, "Settings file")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Telegram.BotToken == "" {
		log.Fatalf("TELEGRAM_BOT_TOKEN is not set")
	}

	zc := zap.NewProductionConfig()
	if zc.Level, err = zap.ParseAtomicLevel(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to parse log level: %v", err)
	}
	logger, err := zc.Build()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Initialize Infrastructure
	db, err := database.NewDB(cfg.DatabasePath, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	var textGen llm.TextGenerator
	if cfg.Gemini.Enabled() {
		geminiClient, err := llm.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			logger.Fatal("Failed to create Gemini client", zap.Error(err))
		}
		defer geminiClient.Close()
		textGen = geminiClient
	}

	var ghostClient ghost.Client
	if cfg.Ghost.Enabled() {
		ghostClient = ghost.NewClient(cfg.Ghost.URL, cfg.Ghost.AdminKey)
	}

	application, err := app.NewApp(cfg, logger, db, textGen, ghostClient)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}

	// 3. Initialize Telegram Bot
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Fatal("Failed to init telegram api", zap.Error(err))
	}
	logger.Info("Authorized on account", zap.String("username", api.Self.UserName))

	bot := telegram.NewBot(api, application, cfg.Telegram, logger)

	var updates tgbotapi.UpdatesChannel
	var srv *http.Server
	if cfg.Telegram.WebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.Telegram.WebhookURL)
		if err != nil {
			logger.Fatal("Invalid webhook URL", zap.Error(err))
		}
		if _, err := api.Request(wh); err != nil {
			logger.Fatal("Failed to set webhook", zap.String("url", cfg.Telegram.WebhookURL), zap.Error(err))
		}
		updates = api.ListenForWebhook("/webhook")
		http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		srv = &http.Server{Addr: ":" + cfg.Telegram.Port}
		go func() {
			logger.Info("Telegram webhook server listening", zap.String("port", cfg.Telegram.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("Server failed", zap.Error(err))
			}
		}()
	} else {
		if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			logger.Warn("Failed to remove webhook", zap.Error(err))
		}
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates = api.GetUpdatesChan(u)
		logger.Info("Polling for updates")
	}

	// 4. Handle updates until shutdown
	if err := bot.Run(ctx, updates); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Bot stopped", zap.Error(err))
	}
	logger.Info("Shutting down...")

	if srv != nil {
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("Server forced to shutdown", zap.Error(err))
		}
	} else {
		api.StopReceivingUpdates()
	}
	logger.Info("Bot exiting")
}
