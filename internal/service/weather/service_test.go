package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pocketchat-app/pocketchat/backend/internal/config"
)

func testService(baseURL string) *Service {
	return NewService(config.WeatherConfig{
		BaseURL:   baseURL,
		UserAgent: "pocketchat-weather-test/1.0",
		Timeout:   5,
		Enabled:   true,
	})
}

func TestActiveAlertsFormatsDigest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/alerts/active/area/CA" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("User-Agent"); got != "pocketchat-weather-test/1.0" {
			t.Errorf("unexpected user agent: %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/geo+json" {
			t.Errorf("unexpected accept header: %q", got)
		}
		w.Write([]byte(`{"features":[
			{"properties":{"event":"Flood Warning","areaDesc":"Sacramento County","severity":"Severe","description":"River levels rising."}},
			{"properties":{"event":"Wind Advisory","areaDesc":"Bay Area","severity":"Moderate","description":"Gusts to 45 mph.","instruction":"Secure loose objects."}}
		]}`))
	}))
	defer srv.Close()

	got, err := testService(srv.URL).ActiveAlerts(context.Background(), "ca")
	if err != nil {
		t.Fatalf("ActiveAlerts err: %v", err)
	}

	if !strings.Contains(got, "Event: Flood Warning") {
		t.Fatalf("missing first alert event in %q", got)
	}
	if !strings.Contains(got, "Instructions: No specific instructions provided") {
		t.Fatalf("expected fallback instructions in %q", got)
	}
	if !strings.Contains(got, "\n\n---\n\n") {
		t.Fatalf("expected alert separator in %q", got)
	}
	if !strings.Contains(got, "Instructions: Secure loose objects.") {
		t.Fatalf("missing second alert instructions in %q", got)
	}
}

func TestActiveAlertsNoneActive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	got, err := testService(srv.URL).ActiveAlerts(context.Background(), "NY")
	if err != nil {
		t.Fatalf("ActiveAlerts err: %v", err)
	}
	if got != "No active alerts for this state." {
		t.Fatalf("unexpected digest: %q", got)
	}
}

func TestActiveAlertsRejectsBadStateCode(t *testing.T) {
	svc := testService("http://unused.invalid")

	for _, state := range []string{"", "California", "C"} {
		if _, err := svc.ActiveAlerts(context.Background(), state); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState for %q, got %v", state, err)
		}
	}
}

func TestForecastResolvesGridpointThenPeriods(t *testing.T) {
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/points/37.7749,-122.4194", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"properties":{"forecast":"%s/gridpoints/MTR/85,105/forecast"}}`, srv.URL)
	})
	mux.HandleFunc("/gridpoints/MTR/85,105/forecast", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"properties":{"periods":[
			{"name":"Tonight","shortForecast":"Partly Cloudy","temperature":62,"temperatureUnit":"F","windSpeed":"10 mph"},
			{"name":"Tuesday","shortForecast":"Sunny","temperature":71,"temperatureUnit":"F","windSpeed":"5 to 10 mph"},
			{"name":"Tuesday Night","shortForecast":"Clear","temperature":58,"temperatureUnit":"F","windSpeed":"5 mph"},
			{"name":"Wednesday","shortForecast":"Sunny","temperature":74,"temperatureUnit":"F","windSpeed":"5 mph"},
			{"name":"Wednesday Night","shortForecast":"Clear","temperature":59,"temperatureUnit":"F","windSpeed":"5 mph"}
		]}}`))
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	got, err := testService(srv.URL).Forecast(context.Background(), 37.7749, -122.4194)
	if err != nil {
		t.Fatalf("Forecast err: %v", err)
	}

	lines := strings.Split(got, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 periods, got %d: %q", len(lines), got)
	}
	if lines[0] != "Tonight: Partly Cloudy (62°F) Wind 10 mph" {
		t.Fatalf("unexpected first period: %q", lines[0])
	}
	if strings.Contains(got, "Wednesday Night") {
		t.Fatalf("expected fifth period trimmed, got %q", got)
	}
}

func TestForecastMissingGridpointURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"properties":{}}`))
	}))
	defer srv.Close()

	if _, err := testService(srv.URL).Forecast(context.Background(), 1, 2); err == nil {
		t.Fatal("expected error when gridpoint URL is missing")
	}
}

func TestForecastUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := testService(srv.URL).Forecast(context.Background(), 1, 2); err == nil {
		t.Fatal("expected error for upstream failure")
	}
}
