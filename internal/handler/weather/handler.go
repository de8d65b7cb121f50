package weather

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	weathersvc "github.com/pocketchat-app/pocketchat/backend/internal/service/weather"
	"github.com/pocketchat-app/pocketchat/backend/pkg/utils"
)

// WeatherService 抽象天气查询，便于测试与替换实现
type WeatherService interface {
	ActiveAlerts(ctx context.Context, state string) (string, error)
	Forecast(ctx context.Context, lat, lon float64) (string, error)
}

// Handler 天气查询的HTTP处理器
type Handler struct {
	weatherSvc WeatherService
}

// New 创建天气处理器
func New(weatherSvc WeatherService) *Handler {
	return &Handler{weatherSvc: weatherSvc}
}

// RegisterRoutes 注册天气相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/weather", func(weatherRouter chi.Router) {
		weatherRouter.Get("/alerts/{state}", h.handleAlerts)
		weatherRouter.Get("/forecast", h.handleForecast)

		// 健康检查
		weatherRouter.Get("/health", h.handleHealth)
	})
}

// handleAlerts 查询指定州的活跃天气警报
func (h *Handler) handleAlerts(w http.ResponseWriter, r *http.Request) {
	state := chi.URLParam(r, "state")

	report, err := h.weatherSvc.ActiveAlerts(r.Context(), state)
	if err != nil {
		if errors.Is(err, weathersvc.ErrInvalidState) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("[weather] alerts error: %v", err)
		utils.RespondError(w, http.StatusBadGateway, "weather lookup failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"report": report})
}

// handleForecast 查询指定坐标的天气预报
func (h *Handler) handleForecast(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "lat query parameter must be a number")
		return
	}

	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "lon query parameter must be a number")
		return
	}

	report, err := h.weatherSvc.Forecast(r.Context(), lat, lon)
	if err != nil {
		log.Printf("[weather] forecast error: %v", err)
		utils.RespondError(w, http.StatusBadGateway, "weather lookup failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"report": report})
}

// handleHealth 健康检查端点
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "weather",
	})
}
