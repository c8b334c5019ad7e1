package models

import (
	"time"

	"github.com/Werneck0live/loja-precificacao/internal/tax"
)

// TaxProfile é o perfil fiscal de um lojista no Simples Nacional.
// Faixa e alíquotas são sempre calculadas no servidor (Recompute).
type TaxProfile struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	CNPJ            string    `bson:"cnpj" json:"cnpj"` // apenas dígitos
	NomeFantasia    string    `bson:"nome_fantasia" json:"nome_fantasia"`
	RazaoSocial     string    `bson:"razao_social" json:"razao_social"`
	Anexo           tax.Annex `bson:"anexo" json:"anexo"`
	ReceitaBruta12M Decimal   `bson:"receita_bruta_12m" json:"receita_bruta_12m"`
	Faixa           int       `bson:"faixa" json:"faixa"`
	AliquotaNominal Decimal   `bson:"aliquota_nominal" json:"aliquota_nominal"`
	AliquotaEfetiva Decimal   `bson:"aliquota_efetiva" json:"aliquota_efetiva"`
	ImpostoEstimado Decimal   `bson:"imposto_estimado" json:"imposto_estimado"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}

// Recompute refaz a estimativa a partir do anexo e da RBT12 atuais.
func (p *TaxProfile) Recompute() tax.Estimate {
	if p.Anexo == "" {
		p.Anexo = tax.AnnexIII
	}
	e := tax.CalculateProgressiveTax(p.ReceitaBruta12M.Decimal, p.Anexo)
	p.Faixa = e.BracketNumber
	p.AliquotaNominal = NewDecimal(e.NominalRate)
	p.AliquotaEfetiva = NewDecimal(e.EffectiveRate.Round(4))
	p.ImpostoEstimado = NewDecimal(e.TaxAmount.Round(2))
	return e
}

// DisplayName segue a mesma ordem de preferência usada nos eventos.
func (p *TaxProfile) DisplayName() string {
	switch {
	case p.NomeFantasia != "":
		return p.NomeFantasia
	case p.RazaoSocial != "":
		return p.RazaoSocial
	default:
		return p.CNPJ
	}
}
