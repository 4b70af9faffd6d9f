package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"food-tourism-assistant/internal/app"
	"food-tourism-assistant/internal/config"
	"food-tourism-assistant/internal/session"
	"food-tourism-assistant/internal/telegram"
	"food-tourism-assistant/internal/web"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. Reference data, metrics database and classifier backend
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	mux := http.NewServeMux()

	// 3. WebSocket front-end, one session per connection
	web.New(session.NewStore(application.Deps())).RegisterHandlers(mux)

	// 4. Telegram Bot, one session per chat
	if cfg.TelegramBotToken != "" {
		bot, err := telegram.NewBot(cfg, session.NewStore(application.Deps()), application.MetricsStore(), filepath.Dir(cfg.DatabasePath))
		if err != nil {
			log.Fatalf("Failed to initialize Telegram Bot: %v", err)
		}
		bot.RegisterHandlers(mux)
	} else {
		log.Println("TELEGRAM_BOT_TOKEN not set; serving the WebSocket front-end only")
	}

	// 5. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		log.Printf("Food guide server listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
