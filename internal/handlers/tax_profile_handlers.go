package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Werneck0live/loja-precificacao/internal/events"
	"github.com/Werneck0live/loja-precificacao/internal/models"
	"github.com/Werneck0live/loja-precificacao/internal/repository"
	"github.com/Werneck0live/loja-precificacao/internal/tax"
	"github.com/Werneck0live/loja-precificacao/internal/utils"
)

// TaxProfileHandler: cadastro do perfil fiscal dos lojistas.
// A estimativa do Simples é recalculada a cada escrita.
type TaxProfileHandler struct {
	base
	Repo TaxProfileRepository
}

func (h *TaxProfileHandler) List(w http.ResponseWriter, r *http.Request) {
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

func (h *TaxProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var dto TaxProfileCreateDTO
	if err := utils.DecodeStrict(r.Body, &dto); err != nil {
		utils.BadRequest(w, utils.FormatUnknownFieldError(err))
		return
	}
	annex, err := validateCreateDTO(dto)
	if err != nil {
		utils.BadRequest(w, err.Error())
		return
	}
	cnpj := utils.SanitizeCNPJ(dto.CNPJ)
	if !utils.ValidateCNPJ(cnpj) {
		utils.BadRequest(w, "invalid cnpj")
		return
	}

	p := newTaxProfile(cnpj, dto.NomeFantasia, dto.RazaoSocial, annex, dto.ReceitaBruta12M)

	ctx, cancel := h.ctx(r)
	defer cancel()
	if _, err := h.Repo.Create(ctx, &p); err != nil {
		if errors.Is(err, repository.ErrDuplicateCNPJ) {
			utils.WriteError(w, http.StatusConflict, "cnpj already exists")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.publishProfile(events.TaxProfileCreated, "Cadastro", &p)
	utils.WriteJSON(w, http.StatusCreated, p)
}

func (h *TaxProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()
	p, err := h.Repo.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

func (h *TaxProfileHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var dto TaxProfilePatchDTO
	if err := utils.DecodeStrict(r.Body, &dto); err != nil {
		utils.BadRequest(w, utils.FormatUnknownFieldError(err))
		return
	}
	if err := validatePatchDTO(dto); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()

	// Buscar atual para validar CNPJ e recalcular a estimativa
	existing, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		h.writeRepoError(w, err)
		return
	}

	upd := models.TaxProfile{}
	if dto.CNPJ != nil {
		cnpj := utils.SanitizeCNPJ(*dto.CNPJ)
		if !utils.ValidateCNPJ(cnpj) {
			utils.BadRequest(w, "invalid cnpj")
			return
		}
		// _id é o CNPJ: não muda por PATCH
		if cnpj != id {
			utils.BadRequest(w, "cnpj in body must match the resource id in path")
			return
		}
	}
	if dto.NomeFantasia != nil {
		upd.NomeFantasia = *dto.NomeFantasia
	}
	if dto.RazaoSocial != nil {
		upd.RazaoSocial = *dto.RazaoSocial
	}

	// anexo ou receita mudou -> recalcula com o valor novo + o que já existe
	if dto.Anexo != nil || dto.ReceitaBruta12M != nil {
		upd.Anexo = existing.Anexo
		upd.ReceitaBruta12M = existing.ReceitaBruta12M
		if dto.Anexo != nil {
			upd.Anexo, _ = tax.ParseAnnex(*dto.Anexo) // já validado
		}
		if dto.ReceitaBruta12M != nil {
			upd.ReceitaBruta12M = models.NewDecimal(*dto.ReceitaBruta12M)
		}
		upd.Recompute()
	}

	if err := h.Repo.Update(ctx, id, &upd); err != nil {
		h.writeRepoError(w, err)
		return
	}

	// Retorna o doc atualizado
	p2, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		h.logger().Warn("tax_profile_reread_error", "id", id, "err", err)
	}
	if p2 != nil {
		h.publishProfile(events.TaxProfileUpdated, "Edição", p2)
		utils.WriteJSON(w, http.StatusOK, p2)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *TaxProfileHandler) Put(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var dto TaxProfilePutDTO
	if err := utils.DecodeStrict(r.Body, &dto); err != nil {
		utils.BadRequest(w, utils.FormatUnknownFieldError(err))
		return
	}
	annex, err := validatePutDTO(dto)
	if err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()

	current, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		h.writeRepoError(w, err)
		return
	}

	// Regras para CNPJ:
	// - se não vier no body, usar o {id}
	// - se vier, deve ser igual ao {id}
	cnpj := id
	if dto.CNPJ != nil {
		cnpj = utils.SanitizeCNPJ(*dto.CNPJ)
		if cnpj != id {
			utils.BadRequest(w, "cnpj in body must match the resource id in path")
			return
		}
	}
	if !utils.ValidateCNPJ(cnpj) {
		utils.BadRequest(w, "invalid cnpj")
		return
	}

	// PUT = replace do documento inteiro, preservando _id e criação
	doc := newTaxProfile(cnpj, dto.NomeFantasia, dto.RazaoSocial, annex, dto.ReceitaBruta12M)
	doc.ID = id
	doc.CreatedAt = current.CreatedAt
	doc.UpdatedAt = time.Now().UTC()

	if err := h.Repo.Replace(ctx, id, &doc); err != nil {
		h.writeRepoError(w, err)
		return
	}

	h.publishProfile(events.TaxProfileUpdated, "Edição", &doc)
	utils.WriteJSON(w, http.StatusOK, doc)
}

func (h *TaxProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := h.ctx(r)
	defer cancel()

	// Busca antes de deletar para logar o nome
	p, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	if err := h.Repo.Delete(ctx, id); err != nil {
		h.writeRepoError(w, err)
		return
	}

	h.publishProfile(events.TaxProfileDeleted, "Exclusão", p)
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaxProfileHandler) writeRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrDuplicateCNPJ):
		utils.WriteError(w, http.StatusConflict, "cnpj already exists")
	default:
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

type profileEventData struct {
	Anexo           tax.Annex `json:"anexo"`
	Faixa           int       `json:"faixa"`
	AliquotaEfetiva string    `json:"aliquota_efetiva"`
	ImpostoEstimado string    `json:"imposto_estimado"`
}

func (h *TaxProfileHandler) publishProfile(typ, acao string, p *models.TaxProfile) {
	if p == nil {
		return
	}
	summary := fmt.Sprintf("%s de PERFIL FISCAL %s", acao, p.DisplayName())
	h.publishEvent(typ, p.ID, summary, profileEventData{
		Anexo:           p.Anexo,
		Faixa:           p.Faixa,
		AliquotaEfetiva: utils.Percent(p.AliquotaEfetiva.Decimal),
		ImpostoEstimado: utils.Money(p.ImpostoEstimado.Decimal),
	})
}
