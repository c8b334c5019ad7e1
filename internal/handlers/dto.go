package handlers

import (
	"github.com/shopspring/decimal"

	"github.com/Werneck0live/loja-precificacao/internal/models"
	"github.com/Werneck0live/loja-precificacao/internal/pricing"
	"github.com/Werneck0live/loja-precificacao/internal/tax"
	"github.com/Werneck0live/loja-precificacao/internal/utils"
)

// ---- perfil fiscal
//
// faixa/alíquotas/imposto NÃO vêm do cliente (calculados no servidor)

type TaxProfileCreateDTO struct {
	CNPJ            string          `json:"cnpj" validate:"required"`
	NomeFantasia    string          `json:"nome_fantasia" validate:"required_without=RazaoSocial,max=150"`
	RazaoSocial     string          `json:"razao_social" validate:"max=150"`
	Anexo           string          `json:"anexo"`
	ReceitaBruta12M decimal.Decimal `json:"receita_bruta_12m"`
}

// Update parcial; ponteiros distinguem "omitido" de "informado".
type TaxProfilePatchDTO struct {
	CNPJ            *string          `json:"cnpj,omitempty"`
	NomeFantasia    *string          `json:"nome_fantasia,omitempty" validate:"omitempty,max=150"`
	RazaoSocial     *string          `json:"razao_social,omitempty" validate:"omitempty,max=150"`
	Anexo           *string          `json:"anexo,omitempty"`
	ReceitaBruta12M *decimal.Decimal `json:"receita_bruta_12m,omitempty"`
}

type TaxProfilePutDTO struct {
	CNPJ            *string         `json:"cnpj,omitempty"`
	NomeFantasia    string          `json:"nome_fantasia" validate:"required_without=RazaoSocial,max=150"`
	RazaoSocial     string          `json:"razao_social" validate:"max=150"`
	Anexo           string          `json:"anexo"`
	ReceitaBruta12M decimal.Decimal `json:"receita_bruta_12m"`
}

// ---- tabelas de desconto

type TierDTO struct {
	QuantityThreshold int             `json:"quantity_threshold" validate:"min=1"`
	DiscountPercent   decimal.Decimal `json:"discount_percent"`
}

type ScheduleCreateDTO struct {
	ID          string    `json:"id" validate:"required,slug,max=64"`
	Name        string    `json:"name" validate:"required,max=120"`
	MinQuantity int       `json:"min_quantity" validate:"omitempty,min=1"` // 0 = 1
	Tiers       []TierDTO `json:"tiers" validate:"required,min=1,dive"`
	Activate    bool      `json:"activate"`
}

type SchedulePutDTO struct {
	Name        string    `json:"name" validate:"required,max=120"`
	MinQuantity int       `json:"min_quantity" validate:"omitempty,min=1"`
	Tiers       []TierDTO `json:"tiers" validate:"required,min=1,dive"`
}

func toSchedule(minQty int, tiers []TierDTO) pricing.Schedule {
	if minQty == 0 {
		minQty = 1
	}
	out := make([]pricing.Tier, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, pricing.Tier{QuantityThreshold: t.QuantityThreshold, DiscountPercent: t.DiscountPercent})
	}
	return pricing.NewSchedule(minQty, out...)
}

// ---- cálculo

type QuoteRequest struct {
	ScheduleID string          `json:"schedule_id,omitempty"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
}

type QuoteTier struct {
	QuantityThreshold int    `json:"quantity_threshold"`
	DiscountPercent   string `json:"discount_percent"`
}

type QuoteResponse struct {
	ScheduleID          string     `json:"schedule_id"`
	Quantity            int        `json:"quantity"`
	DiscountPercent     string     `json:"discount_percent"`
	UnitPrice           string     `json:"unit_price"`
	DiscountedUnitPrice string     `json:"discounted_unit_price"`
	TotalPrice          string     `json:"total_price"`
	Savings             string     `json:"savings"`
	NextTier            *QuoteTier `json:"next_tier,omitempty"`
	UnitsToNextTier     int        `json:"units_to_next_tier,omitempty"`
}

func newQuoteResponse(scheduleID string, q pricing.Quote) QuoteResponse {
	resp := QuoteResponse{
		ScheduleID:          scheduleID,
		Quantity:            q.Quantity,
		DiscountPercent:     utils.Percent(q.DiscountPercent),
		UnitPrice:           utils.Money(q.UnitPrice),
		DiscountedUnitPrice: utils.Money(q.DiscountedUnitPrice),
		TotalPrice:          utils.Money(q.TotalPrice),
		Savings:             utils.Money(q.Savings),
		UnitsToNextTier:     q.UnitsToNextTier,
	}
	if q.NextTier != nil {
		resp.NextTier = &QuoteTier{
			QuantityThreshold: q.NextTier.QuantityThreshold,
			DiscountPercent:   utils.Percent(q.NextTier.DiscountPercent),
		}
	}
	return resp
}

type TaxEstimateRequest struct {
	ReceitaBruta12M decimal.Decimal  `json:"receita_bruta_12m"`
	Anexo           string           `json:"anexo,omitempty"`
	ReceitaMes      *decimal.Decimal `json:"receita_mes,omitempty"`
}

type TaxEstimateResponse struct {
	Anexo           tax.Annex `json:"anexo"`
	Faixa           int       `json:"faixa"`
	ReceitaBruta12M string    `json:"receita_bruta_12m"`
	TetoFaixa       string    `json:"teto_faixa"`
	AliquotaNominal string    `json:"aliquota_nominal"`
	AliquotaEfetiva string    `json:"aliquota_efetiva"`
	ImpostoEstimado string    `json:"imposto_estimado"`
	DASMes          *string   `json:"das_mes,omitempty"`
}

func newTaxEstimateResponse(e tax.Estimate) TaxEstimateResponse {
	return TaxEstimateResponse{
		Anexo:           e.Annex,
		Faixa:           e.BracketNumber,
		ReceitaBruta12M: utils.Money(e.GrossRevenue12M),
		TetoFaixa:       utils.Money(e.RevenueCeiling),
		AliquotaNominal: utils.Percent(e.NominalRate),
		AliquotaEfetiva: utils.Percent(e.EffectiveRate),
		ImpostoEstimado: utils.Money(e.TaxAmount),
	}
}

func newTaxProfile(cnpj, fantasia, razao string, anexo tax.Annex, rbt12 decimal.Decimal) models.TaxProfile {
	p := models.TaxProfile{
		ID:              cnpj, // CNPJ é o _id
		CNPJ:            cnpj,
		NomeFantasia:    fantasia,
		RazaoSocial:     razao,
		Anexo:           anexo,
		ReceitaBruta12M: models.NewDecimal(rbt12),
	}
	p.Recompute()
	return p
}
