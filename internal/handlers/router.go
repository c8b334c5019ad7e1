package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Werneck0live/loja-precificacao/internal/metrics"
	"github.com/Werneck0live/loja-precificacao/internal/models"
	"github.com/Werneck0live/loja-precificacao/internal/pricing"
)

// Deps é tudo que o router precisa; Cache e Pub podem ser nil.
type Deps struct {
	Profiles  TaxProfileRepository
	Schedules ScheduleRepository
	Cache     ScheduleCache
	Pub       Publisher
	Metrics   *metrics.Recorder
	Gatherer  prometheus.Gatherer
	Log       *slog.Logger
	Timeout   time.Duration
}

func NewRouter(d Deps) http.Handler {
	b := base{Pub: d.Pub, Metrics: d.Metrics, Log: d.Log, Timeout: d.Timeout}

	cache := d.Cache
	if cache == nil {
		cache = repoReader{d.Schedules}
	}

	profiles := &TaxProfileHandler{base: b, Repo: d.Profiles}
	schedules := &ScheduleHandler{base: b, Repo: d.Schedules, Cache: cache}
	pricingH := &PricingHandler{base: b, Schedules: cache, Fallback: pricing.DefaultSchedule()}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logMiddleware(b.logger(), d.Metrics))

	r.Get("/healthz", Health)
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/quotes", pricingH.Quote)
		r.Post("/tax/estimates", pricingH.TaxEstimate)
		r.Get("/tax/tables/{annex}", pricingH.TaxTable)

		r.Route("/discount-schedules", func(r chi.Router) {
			r.Get("/", schedules.List)
			r.Post("/", schedules.Create)
			r.Get("/{id}", schedules.Get)
			r.Put("/{id}", schedules.Put)
			r.Delete("/{id}", schedules.Delete)
			r.Post("/{id}/activate", schedules.Activate)
		})

		r.Route("/tax-profiles", func(r chi.Router) {
			r.Get("/", profiles.List)
			r.Post("/", profiles.Create)
			r.Get("/{id}", profiles.Get)
			r.Patch("/{id}", profiles.Patch)
			r.Put("/{id}", profiles.Put)
			r.Delete("/{id}", profiles.Delete)
		})
	})
	return r
}

// repoReader usa o repositório direto quando não há cache configurado.
type repoReader struct {
	repo ScheduleRepository
}

func (r repoReader) GetByID(ctx context.Context, id string) (*models.DiscountSchedule, error) {
	return r.repo.GetByID(ctx, id)
}

func (r repoReader) GetActive(ctx context.Context) (*models.DiscountSchedule, error) {
	return r.repo.GetActive(ctx)
}

func (repoReader) Invalidate(context.Context, ...string) error { return nil }

type statusRW struct {
	http.ResponseWriter
	status int
}

func (w *statusRW) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func logMiddleware(log *slog.Logger, rec *metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusRW{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			dur := time.Since(start)

			// padrão da rota (ex.: /api/tax-profiles/{id}) para não explodir cardinalidade
			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					route = p
				}
			}
			rec.ObserveHTTP(r.Method, route, sw.status, dur)
			log.Info("http_request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"dur", fmtDuration(dur),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func fmtDuration(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}
