package tax

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Annex é o anexo do Simples Nacional em que a empresa está enquadrada.
type Annex string

const (
	AnnexII  Annex = "II"  // indústria
	AnnexIII Annex = "III" // serviços
)

var (
	ErrUnknownAnnex = errors.New("unknown simples nacional annex")
	ErrEmptyTable   = errors.New("bracket table is empty")
	ErrCeilingOrder = errors.New("bracket ceilings must be strictly increasing")
)

var hundred = decimal.NewFromInt(100)

// Bracket é uma faixa da tabela: teto da RBT12, alíquota nominal e parcela a deduzir.
type Bracket struct {
	Number         int             `json:"faixa"`
	RevenueCeiling decimal.Decimal `json:"receita_bruta_ate"`
	NominalRate    decimal.Decimal `json:"aliquota_nominal"`
	Deduction      decimal.Decimal `json:"parcela_deduzir"`
}

type Table struct {
	Annex    Annex     `json:"anexo"`
	Brackets []Bracket `json:"faixas"`
}

type Estimate struct {
	Annex           Annex
	BracketNumber   int
	RevenueCeiling  decimal.Decimal
	NominalRate     decimal.Decimal
	EffectiveRate   decimal.Decimal
	TaxAmount       decimal.Decimal
	GrossRevenue12M decimal.Decimal
}

func bracket(n int, ceiling, rate, deduction int64, rateExp int32) Bracket {
	return Bracket{
		Number:         n,
		RevenueCeiling: decimal.NewFromInt(ceiling),
		NominalRate:    decimal.New(rate, rateExp),
		Deduction:      decimal.NewFromInt(deduction),
	}
}

// AnnexIITable - Anexo II (LC 123/2006, redação da LC 155/2016).
func AnnexIITable() Table {
	return Table{Annex: AnnexII, Brackets: []Bracket{
		bracket(1, 180_000, 45, 0, -1),
		bracket(2, 360_000, 78, 5_940, -1),
		bracket(3, 720_000, 100, 13_860, -1),
		bracket(4, 1_800_000, 112, 22_500, -1),
		bracket(5, 3_600_000, 147, 85_500, -1),
		bracket(6, 4_800_000, 300, 720_000, -1),
	}}
}

// AnnexIIITable - Anexo III (LC 123/2006, redação da LC 155/2016).
func AnnexIIITable() Table {
	return Table{Annex: AnnexIII, Brackets: []Bracket{
		bracket(1, 180_000, 60, 0, -1),
		bracket(2, 360_000, 112, 9_360, -1),
		bracket(3, 720_000, 135, 17_640, -1),
		bracket(4, 1_800_000, 160, 35_640, -1),
		bracket(5, 3_600_000, 210, 125_640, -1),
		bracket(6, 4_800_000, 330, 648_000, -1),
	}}
}

// ParseAnnex normaliza o anexo informado pelo cliente.
// Vazio cai no Anexo III, como o front fazia.
func ParseAnnex(s string) (Annex, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.TrimSpace(strings.TrimPrefix(v, "ANEXO"))
	switch v {
	case "":
		return AnnexIII, nil
	case string(AnnexII), "2":
		return AnnexII, nil
	case string(AnnexIII), "3":
		return AnnexIII, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAnnex, s)
}

// TableFor nunca falha: anexo desconhecido usa o Anexo III.
func TableFor(a Annex) Table {
	if a == AnnexII {
		return AnnexIITable()
	}
	return AnnexIIITable()
}

func (t Table) Validate() error {
	if len(t.Brackets) == 0 {
		return ErrEmptyTable
	}
	for i := 1; i < len(t.Brackets); i++ {
		if !t.Brackets[i].RevenueCeiling.GreaterThan(t.Brackets[i-1].RevenueCeiling) {
			return fmt.Errorf("faixa %d: %w", t.Brackets[i].Number, ErrCeilingOrder)
		}
	}
	return nil
}

// BracketFor devolve a primeira faixa com teto >= rbt12 (teto inclusivo).
// Acima do último teto, fica na última faixa. Tabela vazia devolve
// Bracket zero (faixa 0, alíquota 0).
func (t Table) BracketFor(rbt12 decimal.Decimal) Bracket {
	if len(t.Brackets) == 0 {
		return Bracket{}
	}
	for _, b := range t.Brackets {
		if b.RevenueCeiling.GreaterThanOrEqual(rbt12) {
			return b
		}
	}
	return t.Brackets[len(t.Brackets)-1]
}

// Calculate aplica a fórmula da alíquota efetiva:
// ((RBT12 x Aliq) - PD) / RBT12, nunca negativa.
// Com RBT12 zero a alíquota efetiva é a nominal da faixa.
func (t Table) Calculate(rbt12 decimal.Decimal) Estimate {
	b := t.BracketFor(rbt12)

	effective := b.NominalRate
	if !rbt12.IsZero() {
		effective = rbt12.Mul(b.NominalRate).Div(hundred).
			Sub(b.Deduction).
			Div(rbt12).
			Mul(hundred)
	}
	if effective.IsNegative() {
		effective = decimal.Zero
	}

	return Estimate{
		Annex:           t.Annex,
		BracketNumber:   b.Number,
		RevenueCeiling:  b.RevenueCeiling,
		NominalRate:     b.NominalRate,
		EffectiveRate:   effective,
		TaxAmount:       rbt12.Mul(effective).Div(hundred),
		GrossRevenue12M: rbt12,
	}
}

func CalculateProgressiveTax(rbt12 decimal.Decimal, annex Annex) Estimate {
	return TableFor(annex).Calculate(rbt12)
}

// MonthlyTax é o DAS do mês: receita do mês x alíquota efetiva da RBT12.
func (e Estimate) MonthlyTax(monthRevenue decimal.Decimal) decimal.Decimal {
	return monthRevenue.Mul(e.EffectiveRate).Div(hundred)
}
