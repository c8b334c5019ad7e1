package handlers

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Werneck0live/loja-precificacao/internal/metrics"
)

/*

go test -v ./internal/handlers -count=1

*/

func quietLog() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// newTestRouter preenche o que faltar com mocks vazios.
func newTestRouter(d Deps) http.Handler {
	if d.Profiles == nil {
		d.Profiles = &profileRepoMock{}
	}
	if d.Schedules == nil {
		d.Schedules = &scheduleRepoMock{}
	}
	if d.Pub == nil {
		d.Pub = &pubMock{}
	}
	d.Log = quietLog()
	return NewRouter(d)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	rr := do(t, newTestRouter(Deps{}), http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want=%d", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), `"ok"`) {
		t.Fatalf("body=%s", rr.Body.String())
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	rr := do(t, newTestRouter(Deps{}), http.MethodDelete, "/api/tax-profiles", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d want=%d", rr.Code, http.StatusMethodNotAllowed)
	}
}

// métricas expostas usam o padrão da rota, não o path concreto
func TestRouter_MetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := newTestRouter(Deps{Metrics: metrics.New(reg), Gatherer: reg})

	_ = do(t, h, http.MethodGet, "/api/tax/tables/II", "")
	rr := do(t, h, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want=%d", rr.Code, http.StatusOK)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `route="/api/tax/tables/{annex}"`) {
		t.Fatalf("route label missing in:\n%s", body)
	}
}

// path sem rota não vira label
func TestRouter_MetricsUnmatchedRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := newTestRouter(Deps{Metrics: metrics.New(reg), Gatherer: reg})

	if rr := do(t, h, http.MethodGet, "/nao-existe/123", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d want=%d", rr.Code, http.StatusNotFound)
	}
	body := do(t, h, http.MethodGet, "/metrics", "").Body.String()
	if !strings.Contains(body, `route="unmatched"`) {
		t.Fatalf("route label missing in:\n%s", body)
	}
	if strings.Contains(body, "/nao-existe/123") {
		t.Fatalf("raw path leaked into labels:\n%s", body)
	}
}

func TestRouter_WithoutGathererHasNoMetrics(t *testing.T) {
	rr := do(t, newTestRouter(Deps{}), http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d want=%d", rr.Code, http.StatusNotFound)
	}
}
