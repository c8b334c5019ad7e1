package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/Werneck0live/loja-precificacao/internal/pricing"
	"github.com/Werneck0live/loja-precificacao/internal/tax"
)

func TestDecimal_BSONStoresDecimal128(t *testing.T) {
	in := DiscountTier{QuantityThreshold: 10, DiscountPercent: NewDecimal(decimal.RequireFromString("7.5"))}
	raw, err := bson.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	v := bson.Raw(raw).Lookup("discount_percent")
	if v.Type != bson.TypeDecimal128 {
		t.Fatalf("stored as %s, want decimal128", v.Type)
	}

	var out DiscountTier
	if err := bson.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.DiscountPercent.Equal(in.DiscountPercent.Decimal) {
		t.Fatalf("got %s want %s", out.DiscountPercent, in.DiscountPercent)
	}
}

// documentos antigos gravados como double ainda são lidos
func TestDecimal_BSONReadsDouble(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"quantity_threshold": 20, "discount_percent": 12.5})
	if err != nil {
		t.Fatal(err)
	}
	var out DiscountTier
	if err := bson.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.DiscountPercent.Equal(decimal.RequireFromString("12.5")) || out.QuantityThreshold != 20 {
		t.Fatalf("unexpected %+v", out)
	}
}

func TestDiscountSchedule_ConvertsBothWays(t *testing.T) {
	doc := NewDiscountSchedule("padrao", "Padrão", pricing.DefaultSchedule())
	if len(doc.Tiers) != 4 || doc.MinQuantity != 1 {
		t.Fatalf("unexpected doc %+v", doc)
	}
	s := doc.Schedule()
	if got := s.ApplicableDiscount(25); !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("discount(25)=%s", got)
	}
}

func TestTaxProfile_Recompute(t *testing.T) {
	p := TaxProfile{ReceitaBruta12M: NewDecimal(decimal.NewFromInt(300000))}
	p.Recompute()

	if p.Anexo != tax.AnnexIII {
		t.Fatalf("anexo default = %q", p.Anexo)
	}
	if p.Faixa != 2 {
		t.Fatalf("faixa=%d", p.Faixa)
	}
	if !p.AliquotaEfetiva.Equal(decimal.RequireFromString("8.08")) {
		t.Fatalf("aliquota efetiva=%s", p.AliquotaEfetiva)
	}
	if !p.ImpostoEstimado.Equal(decimal.NewFromInt(24240)) {
		t.Fatalf("imposto=%s", p.ImpostoEstimado)
	}
}

func TestTaxProfile_DisplayName(t *testing.T) {
	cases := []struct {
		p    TaxProfile
		want string
	}{
		{TaxProfile{NomeFantasia: "Loja", RazaoSocial: "Loja LTDA", CNPJ: "1"}, "Loja"},
		{TaxProfile{RazaoSocial: "Loja LTDA", CNPJ: "1"}, "Loja LTDA"},
		{TaxProfile{CNPJ: "11222333000181"}, "11222333000181"},
	}
	for _, tc := range cases {
		if got := tc.p.DisplayName(); got != tc.want {
			t.Fatalf("got %q want %q", got, tc.want)
		}
	}
}
