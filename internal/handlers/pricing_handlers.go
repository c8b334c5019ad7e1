package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Werneck0live/loja-precificacao/internal/pricing"
	"github.com/Werneck0live/loja-precificacao/internal/repository"
	"github.com/Werneck0live/loja-precificacao/internal/tax"
	"github.com/Werneck0live/loja-precificacao/internal/utils"
)

const defaultScheduleID = "default"

// PricingHandler expõe os cálculos puros (desconto por volume e Simples Nacional).
type PricingHandler struct {
	base
	Schedules ScheduleCache
	// Fallback quando não há tabela ativa cadastrada.
	Fallback pricing.Schedule
}

func (h *PricingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := utils.DecodeStrict(r.Body, &req); err != nil {
		utils.BadRequest(w, utils.FormatUnknownFieldError(err))
		return
	}
	if err := validateQuoteRequest(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()

	scheduleID := req.ScheduleID
	var sched pricing.Schedule
	switch {
	case scheduleID != "":
		doc, err := h.Schedules.GetByID(ctx, scheduleID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				utils.WriteError(w, http.StatusNotFound, "schedule not found")
				return
			}
			utils.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		sched = doc.Schedule()
	default:
		doc, err := h.Schedules.GetActive(ctx)
		switch {
		case err == nil:
			scheduleID, sched = doc.ID, doc.Schedule()
		case errors.Is(err, repository.ErrNotFound):
			scheduleID, sched = defaultScheduleID, h.Fallback
		default:
			utils.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	// saneamento na borda: o motor confia na quantidade recebida
	qty := sched.ClampQuantity(req.Quantity)
	q := sched.Quote(req.UnitPrice, qty)

	h.Metrics.IncQuote(scheduleID)
	utils.WriteJSON(w, http.StatusOK, newQuoteResponse(scheduleID, q))
}

func (h *PricingHandler) TaxEstimate(w http.ResponseWriter, r *http.Request) {
	var req TaxEstimateRequest
	if err := utils.DecodeStrict(r.Body, &req); err != nil {
		utils.BadRequest(w, utils.FormatUnknownFieldError(err))
		return
	}
	annex, err := validateTaxEstimateRequest(req)
	if err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	e := tax.CalculateProgressiveTax(req.ReceitaBruta12M, annex)
	resp := newTaxEstimateResponse(e)
	if req.ReceitaMes != nil {
		das := utils.Money(e.MonthlyTax(*req.ReceitaMes))
		resp.DASMes = &das
	}

	h.Metrics.IncTaxEstimate(string(e.Annex), e.BracketNumber)
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *PricingHandler) TaxTable(w http.ResponseWriter, r *http.Request) {
	annex, err := tax.ParseAnnex(chi.URLParam(r, "annex"))
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, "unknown annex")
		return
	}
	utils.WriteJSON(w, http.StatusOK, tax.TableFor(annex))
}
