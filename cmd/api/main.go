package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pocketchat-app/pocketchat/backend/internal/config"
	"github.com/pocketchat-app/pocketchat/backend/internal/handler"
	"github.com/pocketchat-app/pocketchat/backend/internal/service/ai"
	"github.com/pocketchat-app/pocketchat/backend/internal/service/chat"
	"github.com/pocketchat-app/pocketchat/backend/internal/service/weather"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize AI service
	var replier chat.Replier
	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without AI functionality - 请检查 API_KEY/API_BASE/MODEL 环境变量")
		} else {
			log.Println("AI service initialized successfully")
			replier = aiService
		}
	} else {
		log.Println("API_KEY 未配置，跳过 AI 功能初始化")
	}

	chatService := chat.NewService(replier)

	// Initialize weather service
	var weatherService *weather.Service
	if cfg.Weather.Enabled {
		weatherService = weather.NewService(cfg.Weather)
		log.Println("Weather service initialized successfully")
	} else {
		log.Println("天气服务未启用，跳过天气功能初始化")
	}

	router := handler.NewRouter(chatService, weatherService)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("PocketChat backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
