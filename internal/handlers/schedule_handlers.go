package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Werneck0live/loja-precificacao/internal/events"
	"github.com/Werneck0live/loja-precificacao/internal/models"
	"github.com/Werneck0live/loja-precificacao/internal/repository"
	"github.com/Werneck0live/loja-precificacao/internal/utils"
)

// ScheduleHandler administra as tabelas de desconto por volume.
// Toda escrita invalida o cache de leitura do checkout.
type ScheduleHandler struct {
	base
	Repo  ScheduleRepository
	Cache ScheduleCache
}

func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, skip := parsePaging(r)
	ctx, cancel := h.ctx(r)
	defer cancel()
	list, err := h.Repo.GetAll(ctx, limit, skip)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var dto ScheduleCreateDTO
	if err := utils.DecodeStrict(r.Body, &dto); err != nil {
		utils.BadRequest(w, utils.FormatUnknownFieldError(err))
		return
	}
	if err := validateStruct(dto); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}
	sched := toSchedule(dto.MinQuantity, dto.Tiers)
	if err := sched.Validate(); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	doc := models.NewDiscountSchedule(dto.ID, dto.Name, sched)

	ctx, cancel := h.ctx(r)
	defer cancel()
	if err := h.Repo.Create(ctx, &doc); err != nil {
		h.writeRepoError(w, err)
		return
	}
	h.publishSchedule(events.ScheduleCreated, "Cadastro", &doc)

	if dto.Activate {
		// já gravado: falha na ativação não desfaz o cadastro
		if err := h.Repo.Activate(ctx, doc.ID); err != nil {
			h.logger().Warn("schedule_activate_error", "schedule_id", doc.ID, "err", err)
		} else {
			doc.Active = true
			h.invalidate(r, doc.ID)
			h.publishSchedule(events.ScheduleActivated, "Ativação", &doc)
		}
	}
	utils.WriteJSON(w, http.StatusCreated, doc)
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()
	doc, err := h.Repo.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, doc)
}

func (h *ScheduleHandler) Put(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var dto SchedulePutDTO
	if err := utils.DecodeStrict(r.Body, &dto); err != nil {
		utils.BadRequest(w, utils.FormatUnknownFieldError(err))
		return
	}
	if err := validateStruct(dto); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}
	sched := toSchedule(dto.MinQuantity, dto.Tiers)
	if err := sched.Validate(); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	doc := models.NewDiscountSchedule(id, dto.Name, sched)

	ctx, cancel := h.ctx(r)
	defer cancel()
	if err := h.Repo.Replace(ctx, id, &doc); err != nil {
		h.writeRepoError(w, err)
		return
	}
	h.invalidate(r, id)
	h.publishSchedule(events.ScheduleUpdated, "Edição", &doc)
	utils.WriteJSON(w, http.StatusOK, doc)
}

func (h *ScheduleHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := h.ctx(r)
	defer cancel()

	if err := h.Repo.Activate(ctx, id); err != nil {
		h.writeRepoError(w, err)
		return
	}
	h.invalidate(r, id)

	doc, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	h.publishSchedule(events.ScheduleActivated, "Ativação", doc)
	utils.WriteJSON(w, http.StatusOK, doc)
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := h.ctx(r)
	defer cancel()

	doc, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	if err := h.Repo.Delete(ctx, id); err != nil {
		h.writeRepoError(w, err)
		return
	}
	h.invalidate(r, id)
	h.publishSchedule(events.ScheduleDeleted, "Exclusão", doc)
	w.WriteHeader(http.StatusNoContent)
}

// invalidate: erro de cache só é logado; o TTL corrige sozinho.
func (h *ScheduleHandler) invalidate(r *http.Request, id string) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Invalidate(r.Context(), id); err != nil {
		h.logger().Warn("cache_invalidate_error", "schedule_id", id, "err", err)
	}
}

func (h *ScheduleHandler) writeRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrDuplicateSchedule):
		utils.WriteError(w, http.StatusConflict, "schedule already exists")
	default:
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *ScheduleHandler) publishSchedule(typ, acao string, doc *models.DiscountSchedule) {
	if doc == nil {
		return
	}
	name := doc.Name
	if name == "" {
		name = doc.ID
	}
	h.publishEvent(typ, doc.ID, fmt.Sprintf("%s de TABELA DE DESCONTO %s", acao, name), doc)
}
