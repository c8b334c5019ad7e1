package handlers

import (
	"context"
	"errors"
	"sync"

	"github.com/Werneck0live/loja-precificacao/internal/events"
	"github.com/Werneck0live/loja-precificacao/internal/models"
)

type profileRepoMock struct {
	GetAllFn  func(ctx context.Context, limit, skip int64) ([]models.TaxProfile, error)
	CreateFn  func(ctx context.Context, p *models.TaxProfile) (string, error)
	GetByIDFn func(ctx context.Context, id string) (*models.TaxProfile, error)
	UpdateFn  func(ctx context.Context, id string, upd *models.TaxProfile) error
	ReplaceFn func(ctx context.Context, id string, doc *models.TaxProfile) error
	DeleteFn  func(ctx context.Context, id string) error
}

func (m *profileRepoMock) GetAll(ctx context.Context, limit, skip int64) ([]models.TaxProfile, error) {
	if m.GetAllFn == nil {
		return nil, errors.New("GetAllFn not set")
	}
	return m.GetAllFn(ctx, limit, skip)
}
func (m *profileRepoMock) Create(ctx context.Context, p *models.TaxProfile) (string, error) {
	if m.CreateFn == nil {
		return "", errors.New("CreateFn not set")
	}
	return m.CreateFn(ctx, p)
}
func (m *profileRepoMock) GetByID(ctx context.Context, id string) (*models.TaxProfile, error) {
	if m.GetByIDFn == nil {
		return nil, errors.New("GetByIDFn not set")
	}
	return m.GetByIDFn(ctx, id)
}
func (m *profileRepoMock) Update(ctx context.Context, id string, upd *models.TaxProfile) error {
	if m.UpdateFn == nil {
		return errors.New("UpdateFn not set")
	}
	return m.UpdateFn(ctx, id, upd)
}
func (m *profileRepoMock) Replace(ctx context.Context, id string, doc *models.TaxProfile) error {
	if m.ReplaceFn == nil {
		return errors.New("ReplaceFn not set")
	}
	return m.ReplaceFn(ctx, id, doc)
}
func (m *profileRepoMock) Delete(ctx context.Context, id string) error {
	if m.DeleteFn == nil {
		return errors.New("DeleteFn not set")
	}
	return m.DeleteFn(ctx, id)
}

type scheduleRepoMock struct {
	GetAllFn    func(ctx context.Context, limit, skip int64) ([]models.DiscountSchedule, error)
	CreateFn    func(ctx context.Context, s *models.DiscountSchedule) error
	GetByIDFn   func(ctx context.Context, id string) (*models.DiscountSchedule, error)
	GetActiveFn func(ctx context.Context) (*models.DiscountSchedule, error)
	ReplaceFn   func(ctx context.Context, id string, s *models.DiscountSchedule) error
	ActivateFn  func(ctx context.Context, id string) error
	DeleteFn    func(ctx context.Context, id string) error
}

func (m *scheduleRepoMock) GetAll(ctx context.Context, limit, skip int64) ([]models.DiscountSchedule, error) {
	if m.GetAllFn == nil {
		return nil, errors.New("GetAllFn not set")
	}
	return m.GetAllFn(ctx, limit, skip)
}
func (m *scheduleRepoMock) Create(ctx context.Context, s *models.DiscountSchedule) error {
	if m.CreateFn == nil {
		return errors.New("CreateFn not set")
	}
	return m.CreateFn(ctx, s)
}
func (m *scheduleRepoMock) GetByID(ctx context.Context, id string) (*models.DiscountSchedule, error) {
	if m.GetByIDFn == nil {
		return nil, errors.New("GetByIDFn not set")
	}
	return m.GetByIDFn(ctx, id)
}
func (m *scheduleRepoMock) GetActive(ctx context.Context) (*models.DiscountSchedule, error) {
	if m.GetActiveFn == nil {
		return nil, errors.New("GetActiveFn not set")
	}
	return m.GetActiveFn(ctx)
}
func (m *scheduleRepoMock) Replace(ctx context.Context, id string, s *models.DiscountSchedule) error {
	if m.ReplaceFn == nil {
		return errors.New("ReplaceFn not set")
	}
	return m.ReplaceFn(ctx, id, s)
}
func (m *scheduleRepoMock) Activate(ctx context.Context, id string) error {
	if m.ActivateFn == nil {
		return errors.New("ActivateFn not set")
	}
	return m.ActivateFn(ctx, id)
}
func (m *scheduleRepoMock) Delete(ctx context.Context, id string) error {
	if m.DeleteFn == nil {
		return errors.New("DeleteFn not set")
	}
	return m.DeleteFn(ctx, id)
}

// cacheMock registra as invalidações; leituras vão para os Fn.
type cacheMock struct {
	GetByIDFn   func(ctx context.Context, id string) (*models.DiscountSchedule, error)
	GetActiveFn func(ctx context.Context) (*models.DiscountSchedule, error)

	mu          sync.Mutex
	invalidated []string
}

func (c *cacheMock) GetByID(ctx context.Context, id string) (*models.DiscountSchedule, error) {
	if c.GetByIDFn == nil {
		return nil, errors.New("GetByIDFn not set")
	}
	return c.GetByIDFn(ctx, id)
}
func (c *cacheMock) GetActive(ctx context.Context) (*models.DiscountSchedule, error) {
	if c.GetActiveFn == nil {
		return nil, errors.New("GetActiveFn not set")
	}
	return c.GetActiveFn(ctx)
}
func (c *cacheMock) Invalidate(_ context.Context, ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, ids...)
	return nil
}

// pubMock guarda os eventos publicados (ou devolve PublishErr).
type pubMock struct {
	PublishErr error

	mu     sync.Mutex
	events []events.Event
}

func (p *pubMock) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.PublishErr != nil {
		return p.PublishErr
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *pubMock) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
