package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pocketchat-app/pocketchat/backend/internal/config"
)

// ErrInvalidState 表示州代码不是两位字母。
var ErrInvalidState = errors.New("state must be a 2-letter US state/territory code (e.g., CA, NY)")

// Service 天气服务核心业务逻辑，封装 NWS 公共接口。
type Service struct {
	cfg        config.WeatherConfig
	httpClient *http.Client
}

// NewService 创建天气服务实例。
func NewService(cfg config.WeatherConfig) *Service {
	return &Service{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

type alertProperties struct {
	Event       string `json:"event"`
	AreaDesc    string `json:"areaDesc"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Instruction string `json:"instruction"`
}

type alertsResponse struct {
	Features []struct {
		Properties alertProperties `json:"properties"`
	} `json:"features"`
}

type pointsResponse struct {
	Properties struct {
		Forecast string `json:"forecast"`
	} `json:"properties"`
}

type forecastPeriod struct {
	Name            string      `json:"name"`
	ShortForecast   string      `json:"shortForecast"`
	Temperature     json.Number `json:"temperature"`
	TemperatureUnit string      `json:"temperatureUnit"`
	WindSpeed       string      `json:"windSpeed"`
}

type forecastResponse struct {
	Properties struct {
		Periods []forecastPeriod `json:"periods"`
	} `json:"properties"`
}

// ActiveAlerts returns a plain-text digest of active alerts for a US state.
func (s *Service) ActiveAlerts(ctx context.Context, state string) (string, error) {
	state = strings.ToUpper(strings.TrimSpace(state))
	if len(state) != 2 {
		return "", ErrInvalidState
	}

	var parsed alertsResponse
	url := fmt.Sprintf("%s/alerts/active/area/%s", s.baseURL(), state)
	if err := s.getJSON(ctx, url, &parsed); err != nil {
		return "", err
	}

	if len(parsed.Features) == 0 {
		return "No active alerts for this state.", nil
	}

	blocks := make([]string, 0, len(parsed.Features))
	for _, feature := range parsed.Features {
		blocks = append(blocks, formatAlert(feature.Properties))
	}
	return strings.Join(blocks, "\n\n---\n\n"), nil
}

// Forecast returns the first four forecast periods for a lat/lon location.
// NWS resolves coordinates to a gridpoint first, so this is two round trips.
func (s *Service) Forecast(ctx context.Context, latitude, longitude float64) (string, error) {
	pointsURL := fmt.Sprintf("%s/points/%s,%s",
		s.baseURL(),
		strconv.FormatFloat(latitude, 'f', -1, 64),
		strconv.FormatFloat(longitude, 'f', -1, 64),
	)

	var points pointsResponse
	if err := s.getJSON(ctx, pointsURL, &points); err != nil {
		return "", err
	}
	if points.Properties.Forecast == "" {
		return "", errors.New("unable to resolve grid forecast URL for this location")
	}

	var forecast forecastResponse
	if err := s.getJSON(ctx, points.Properties.Forecast, &forecast); err != nil {
		return "", err
	}

	periods := forecast.Properties.Periods
	if len(periods) == 0 {
		return "", errors.New("forecast response contained no periods")
	}
	if len(periods) > 4 {
		periods = periods[:4]
	}

	lines := make([]string, 0, len(periods))
	for _, period := range periods {
		lines = append(lines, formatPeriod(period))
	}
	return strings.Join(lines, "\n"), nil
}

func (s *Service) baseURL() string {
	return strings.TrimSuffix(s.cfg.BaseURL, "/")
}

func (s *Service) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "application/geo+json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func formatAlert(props alertProperties) string {
	return fmt.Sprintf(
		"Event: %s\nArea: %s\nSeverity: %s\nDescription: %s\nInstructions: %s",
		orDefault(props.Event, "Unknown"),
		orDefault(props.AreaDesc, "Unknown"),
		orDefault(props.Severity, "Unknown"),
		orDefault(props.Description, "No description available"),
		orDefault(props.Instruction, "No specific instructions provided"),
	)
}

func formatPeriod(period forecastPeriod) string {
	return fmt.Sprintf("%s: %s (%s°%s) Wind %s",
		orDefault(period.Name, "Period"),
		orDefault(period.ShortForecast, "n/a"),
		orDefault(period.Temperature.String(), "n/a"),
		period.TemperatureUnit,
		period.WindSpeed,
	)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
