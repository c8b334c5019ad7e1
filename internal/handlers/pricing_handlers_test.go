package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/Werneck0live/loja-precificacao/internal/metrics"
	"github.com/Werneck0live/loja-precificacao/internal/models"
	"github.com/Werneck0live/loja-precificacao/internal/pricing"
	"github.com/Werneck0live/loja-precificacao/internal/repository"
	"github.com/Werneck0live/loja-precificacao/internal/tax"
)

/*

go test -run 'TestQuote_|TestTaxEstimate_|TestTaxTable_' -v ./internal/handlers -count=1

*/

func noActive() *cacheMock {
	return &cacheMock{
		GetActiveFn: func(context.Context) (*models.DiscountSchedule, error) { return nil, repository.ErrNotFound },
	}
}

func decodeQuote(t *testing.T, body []byte) QuoteResponse {
	t.Helper()
	var q QuoteResponse
	if err := json.Unmarshal(body, &q); err != nil {
		t.Fatalf("json inválido: %v (body=%s)", err, body)
	}
	return q
}

// 25 un x R$ 10,00 na tabela padrão -> 10%, total 225,00
func TestQuote_DefaultScheduleScenario(t *testing.T) {
	rr := do(t, newTestRouter(Deps{Cache: noActive()}), http.MethodPost, "/api/quotes", `{"unit_price":"10.00","quantity":25}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want=%d body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}
	q := decodeQuote(t, rr.Body.Bytes())
	if q.ScheduleID != "default" || q.DiscountPercent != "10" {
		t.Fatalf("schedule=%s discount=%s", q.ScheduleID, q.DiscountPercent)
	}
	if q.DiscountedUnitPrice != "9.00" || q.TotalPrice != "225.00" || q.Savings != "25.00" {
		t.Fatalf("valores: %+v", q)
	}
	if q.NextTier == nil || q.NextTier.QuantityThreshold != 50 || q.UnitsToNextTier != 25 {
		t.Fatalf("próximo tier: %+v / %d", q.NextTier, q.UnitsToNextTier)
	}
}

func TestQuote_UsesActiveSchedule(t *testing.T) {
	active := models.NewDiscountSchedule("black-friday", "Black Friday",
		pricing.NewSchedule(1, pricing.Tier{QuantityThreshold: 2, DiscountPercent: dec("30")}))
	cm := &cacheMock{
		GetActiveFn: func(context.Context) (*models.DiscountSchedule, error) { return &active, nil },
	}
	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)

	rr := do(t, newTestRouter(Deps{Cache: cm, Metrics: rec}), http.MethodPost, "/api/quotes", `{"unit_price":100,"quantity":3}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want=%d body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}
	q := decodeQuote(t, rr.Body.Bytes())
	if q.ScheduleID != "black-friday" || q.TotalPrice != "210.00" || q.NextTier != nil {
		t.Fatalf("quote: %+v", q)
	}
	if got := quoteCount(t, reg, "black-friday"); got != 1 {
		t.Fatalf("quotes_total=%v", got)
	}
}

func TestQuote_ExplicitSchedule(t *testing.T) {
	cm := &cacheMock{
		GetByIDFn: func(_ context.Context, id string) (*models.DiscountSchedule, error) {
			if id != "atacado" {
				return nil, repository.ErrNotFound
			}
			s := models.NewDiscountSchedule(id, "Atacado", pricing.NewSchedule(12, pricing.Tier{QuantityThreshold: 12, DiscountPercent: dec("8")}))
			return &s, nil
		},
	}
	h := newTestRouter(Deps{Cache: cm})

	// quantidade abaixo do mínimo é ajustada para 12
	rr := do(t, h, http.MethodPost, "/api/quotes", `{"schedule_id":"atacado","unit_price":"5","quantity":1}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want=%d body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}
	q := decodeQuote(t, rr.Body.Bytes())
	if q.Quantity != 12 || q.DiscountPercent != "8" || q.TotalPrice != "55.20" {
		t.Fatalf("quote: %+v", q)
	}

	rr = do(t, h, http.MethodPost, "/api/quotes", `{"schedule_id":"varejo","unit_price":"5","quantity":1}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d want=%d", rr.Code, http.StatusNotFound)
	}
}

func TestQuote_ClampsNonPositiveQuantity(t *testing.T) {
	rr := do(t, newTestRouter(Deps{Cache: noActive()}), http.MethodPost, "/api/quotes", `{"unit_price":"2.50","quantity":-4}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want=%d body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}
	q := decodeQuote(t, rr.Body.Bytes())
	if q.Quantity != 1 || q.TotalPrice != "2.50" || q.DiscountPercent != "0" {
		t.Fatalf("quote: %+v", q)
	}
}

func TestQuote_BadRequests(t *testing.T) {
	h := newTestRouter(Deps{Cache: noActive()})
	for _, body := range []string{`{`, `{"unit_price":"-1","quantity":1}`, `{"unit_price":"abc","quantity":1}`, `{"price":1}`} {
		rr := do(t, h, http.MethodPost, "/api/quotes", body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status=%d want=%d", body, rr.Code, http.StatusBadRequest)
		}
	}
}

func TestQuote_CacheError(t *testing.T) {
	cm := &cacheMock{
		GetActiveFn: func(context.Context) (*models.DiscountSchedule, error) { return nil, errors.New("mongo down") },
	}
	rr := do(t, newTestRouter(Deps{Cache: cm}), http.MethodPost, "/api/quotes", `{"unit_price":1,"quantity":1}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d want=%d", rr.Code, http.StatusInternalServerError)
	}
}

// sem cache configurado a leitura vai direto ao repositório
func TestQuote_WithoutCacheReadsRepository(t *testing.T) {
	rm := &scheduleRepoMock{
		GetActiveFn: func(context.Context) (*models.DiscountSchedule, error) { return storedSchedule("atacado", true), nil },
	}
	rr := do(t, newTestRouter(Deps{Schedules: rm}), http.MethodPost, "/api/quotes", `{"unit_price":"1","quantity":100}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want=%d body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if q := decodeQuote(t, rr.Body.Bytes()); q.ScheduleID != "atacado" || q.TotalPrice != "80.00" {
		t.Fatalf("quote: %+v", q)
	}
}

func TestTaxEstimate_AnnexIII(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := newTestRouter(Deps{Metrics: metrics.New(reg), Gatherer: reg})

	rr := do(t, h, http.MethodPost, "/api/tax/estimates", `{"receita_bruta_12m":"300000","receita_mes":"25000"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want=%d body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}
	var got TaxEstimateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("json inválido: %v", err)
	}
	if got.Anexo != tax.AnnexIII || got.Faixa != 2 || got.AliquotaEfetiva != "8.08" || got.ImpostoEstimado != "24240.00" {
		t.Fatalf("estimativa: %+v", got)
	}
	if got.TetoFaixa != "360000.00" || got.AliquotaNominal != "11.2" {
		t.Fatalf("faixa: %+v", got)
	}
	if got.DASMes == nil || *got.DASMes != "2020.00" {
		t.Fatalf("das_mes: %v", got.DASMes)
	}
	n, err := testutil.GatherAndCount(reg, "tax_estimates_total")
	if err != nil || n != 1 {
		t.Fatalf("tax_estimates_total series=%d err=%v", n, err)
	}
}

func TestTaxEstimate_AnnexIIWithoutMonth(t *testing.T) {
	rr := do(t, newTestRouter(Deps{}), http.MethodPost, "/api/tax/estimates", `{"receita_bruta_12m":500000,"anexo":"II"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want=%d body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}
	var got TaxEstimateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("json inválido: %v", err)
	}
	if got.Faixa != 3 || got.AliquotaEfetiva != "7.228" || got.ImpostoEstimado != "36140.00" || got.DASMes != nil {
		t.Fatalf("estimativa: %+v", got)
	}
}

func TestTaxEstimate_BadRequests(t *testing.T) {
	h := newTestRouter(Deps{})
	for _, body := range []string{
		`{`,
		`{"receita_bruta_12m":-1}`,
		`{"receita_bruta_12m":1,"anexo":"V"}`,
		`{"receita_bruta_12m":1,"receita_mes":-5}`,
	} {
		rr := do(t, h, http.MethodPost, "/api/tax/estimates", body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status=%d want=%d", body, rr.Code, http.StatusBadRequest)
		}
	}
}

func TestTaxTable(t *testing.T) {
	h := newTestRouter(Deps{})

	rr := do(t, h, http.MethodGet, "/api/tax/tables/ii", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want=%d", rr.Code, http.StatusOK)
	}
	var tbl tax.Table
	if err := json.Unmarshal(rr.Body.Bytes(), &tbl); err != nil {
		t.Fatalf("json inválido: %v", err)
	}
	if tbl.Annex != tax.AnnexII || len(tbl.Brackets) != 6 || !tbl.Brackets[5].Deduction.Equal(dec("720000")) {
		t.Fatalf("tabela: %+v", tbl)
	}

	if rr := do(t, h, http.MethodGet, "/api/tax/tables/IV", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d want=%d", rr.Code, http.StatusNotFound)
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func quoteCount(t *testing.T, reg *prometheus.Registry, schedule string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != "quotes_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "schedule" && lp.GetValue() == schedule {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
