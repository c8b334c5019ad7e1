package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Werneck0live/loja-precificacao/internal/events"
	"github.com/Werneck0live/loja-precificacao/internal/metrics"
	"github.com/Werneck0live/loja-precificacao/internal/models"
	"github.com/Werneck0live/loja-precificacao/internal/utils"
)

type TaxProfileRepository interface {
	GetAll(ctx context.Context, limit, skip int64) ([]models.TaxProfile, error)
	Create(ctx context.Context, p *models.TaxProfile) (string, error)
	GetByID(ctx context.Context, id string) (*models.TaxProfile, error)
	Update(ctx context.Context, id string, upd *models.TaxProfile) error
	Replace(ctx context.Context, id string, doc *models.TaxProfile) error
	Delete(ctx context.Context, id string) error
}

type ScheduleRepository interface {
	GetAll(ctx context.Context, limit, skip int64) ([]models.DiscountSchedule, error)
	Create(ctx context.Context, s *models.DiscountSchedule) error
	GetByID(ctx context.Context, id string) (*models.DiscountSchedule, error)
	GetActive(ctx context.Context) (*models.DiscountSchedule, error)
	Replace(ctx context.Context, id string, s *models.DiscountSchedule) error
	Activate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// ScheduleCache é o caminho de leitura do checkout (cache.ScheduleCache).
type ScheduleCache interface {
	GetByID(ctx context.Context, id string) (*models.DiscountSchedule, error)
	GetActive(ctx context.Context) (*models.DiscountSchedule, error)
	Invalidate(ctx context.Context, ids ...string) error
}

type Publisher interface {
	Publish(ctx context.Context, evt events.Event) error
}

// base reúne o que todos os handlers compartilham.
type base struct {
	Pub     Publisher
	Metrics *metrics.Recorder
	Log     *slog.Logger
	Timeout time.Duration
}

func (b *base) logger() *slog.Logger {
	if b.Log == nil {
		return slog.Default()
	}
	return b.Log
}

func (b *base) ctx(r *http.Request) (context.Context, context.CancelFunc) {
	t := b.Timeout
	if t <= 0 {
		t = 5 * time.Second
	}
	return context.WithTimeout(r.Context(), t)
}

// publishEvent nunca falha a requisição: o cadastro já foi gravado.
func (b *base) publishEvent(typ, entityID, summary string, data any) {
	if b.Pub == nil {
		return
	}
	evt, err := events.New(typ, entityID, summary, data)
	if err != nil {
		b.logger().Warn("event_build_error", "type", typ, "err", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.Pub.Publish(ctx, evt); err != nil {
		b.logger().Warn("event_publish_error", "type", typ, "entity_id", entityID, "err", err)
	}
}

func Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// paginação: limit 1..200 (default 50), skip >= 0
func parsePaging(r *http.Request) (limit, skip int64) {
	q := r.URL.Query()
	limit, skip = 50, 0
	if l := q.Get("limit"); l != "" {
		if v, err := strconv.ParseInt(l, 10, 64); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if s := q.Get("skip"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil && v >= 0 {
			skip = v
		}
	}
	return limit, skip
}
