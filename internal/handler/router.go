package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pocketchat-app/pocketchat/backend/internal/handler/chat"
	"github.com/pocketchat-app/pocketchat/backend/internal/handler/stream"
	"github.com/pocketchat-app/pocketchat/backend/internal/handler/weather"
	middlewarePkg "github.com/pocketchat-app/pocketchat/backend/internal/middleware"
	chatService "github.com/pocketchat-app/pocketchat/backend/internal/service/chat"
	weatherService "github.com/pocketchat-app/pocketchat/backend/internal/service/weather"
	"github.com/pocketchat-app/pocketchat/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(chatSvc *chatService.Service, weatherSvc *weatherService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	// Create handlers
	chatHandler := chat.New(chatSvc)
	wsHandler := chat.NewWebSocketHandler(chatSvc)
	streamHandler := stream.New(chatSvc)

	r.Route("/api", func(api chi.Router) {
		// Register chat routes
		chatHandler.RegisterRoutes(api)
		wsHandler.RegisterWebSocketRoutes(api)

		// SSE endpoint: queue a message and stream the reply lifecycle
		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")

			if userMessage == "" {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}

			// The handler writes its own error response before returning.
			if err := streamHandler.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
				log.Printf("[stream] error handling request: %v", err)
			}
		})

		// Register weather routes if the weather service is enabled
		if weatherSvc != nil {
			weatherHandler := weather.New(weatherSvc)
			weatherHandler.RegisterRoutes(api)
		}
	})

	return r
}
