package models

import (
	"time"

	"github.com/Werneck0live/loja-precificacao/internal/pricing"
)

type DiscountTier struct {
	QuantityThreshold int     `bson:"quantity_threshold" json:"quantity_threshold"`
	DiscountPercent   Decimal `bson:"discount_percent" json:"discount_percent"`
}

// DiscountSchedule é a tabela de desconto por volume persistida.
// Só uma fica ativa por vez; é ela que o checkout usa.
type DiscountSchedule struct {
	ID          string         `bson:"_id" json:"id"`
	Name        string         `bson:"name" json:"name"`
	Active      bool           `bson:"active" json:"active"`
	MinQuantity int            `bson:"min_quantity" json:"min_quantity"`
	Tiers       []DiscountTier `bson:"tiers" json:"tiers"`
	CreatedAt   time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `bson:"updated_at" json:"updated_at"`
}

func (s DiscountSchedule) Schedule() pricing.Schedule {
	tiers := make([]pricing.Tier, 0, len(s.Tiers))
	for _, t := range s.Tiers {
		tiers = append(tiers, pricing.Tier{
			QuantityThreshold: t.QuantityThreshold,
			DiscountPercent:   t.DiscountPercent.Decimal,
		})
	}
	return pricing.NewSchedule(s.MinQuantity, tiers...)
}

func NewDiscountSchedule(id, name string, s pricing.Schedule) DiscountSchedule {
	tiers := make([]DiscountTier, 0, len(s.Tiers))
	for _, t := range s.Tiers {
		tiers = append(tiers, DiscountTier{
			QuantityThreshold: t.QuantityThreshold,
			DiscountPercent:   NewDecimal(t.DiscountPercent),
		})
	}
	return DiscountSchedule{ID: id, Name: name, MinQuantity: s.MinQuantity, Tiers: tiers}
}
