package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"baba-meal-planner/internal/app"
	"baba-meal-planner/internal/config"
	"baba-meal-planner/internal/scheduler"
	"baba-meal-planner/internal/server"
	"baba-meal-planner/internal/telegram"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	mux := http.NewServeMux()

	apiServer := server.NewServer(cfg, application.Planner, application.PlanRepo, application.RecipeRepo, application.PrefsRepo, application.MetricsStore)
	apiServer.RegisterHandlers(mux)

	var notifier scheduler.Notifier
	if cfg.TelegramBotToken != "" {
		bot, err := telegram.NewBot(cfg, application.Planner, application.RecipeRepo, application.PrefsRepo, application.MetricsStore)
		if err != nil {
			log.Fatalf("Failed to initialize Telegram Bot: %v", err)
		}
		bot.RegisterHandlers(mux)
		notifier = bot
	} else {
		log.Println("TELEGRAM_BOT_TOKEN not set, chat surface disabled")
	}

	weekly := scheduler.NewScheduler(application.Planner, application.PrefsRepo, application.MetricsStore, notifier)
	if err := weekly.Start(cfg.WeeklyPlanCron); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		log.Printf("Server listening on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	weekly.Stop()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
