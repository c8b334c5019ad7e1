package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidMinQuantity   = errors.New("min quantity must be >= 1")
	ErrInvalidThreshold     = errors.New("tier thresholds must be >= 1 and strictly increasing")
	ErrNonMonotonicDiscount = errors.New("tier discounts must be strictly increasing")
	ErrDiscountOutOfRange   = errors.New("tier discount must be between 0 and 100")
)

var hundred = decimal.NewFromInt(100)

// Tier é um degrau da tabela de desconto por volume.
type Tier struct {
	QuantityThreshold int             `json:"quantity_threshold"`
	DiscountPercent   decimal.Decimal `json:"discount_percent"`
}

// Schedule é a tabela de descontos por quantidade, em ordem crescente de
// threshold. Não é alterada depois de montada.
type Schedule struct {
	MinQuantity int
	Tiers       []Tier
}

// Quote é o resultado do cálculo para um par (preço unitário, quantidade).
type Quote struct {
	Quantity            int
	DiscountPercent     decimal.Decimal
	UnitPrice           decimal.Decimal
	DiscountedUnitPrice decimal.Decimal
	TotalPrice          decimal.Decimal
	Savings             decimal.Decimal
	NextTier            *Tier
	UnitsToNextTier     int
}

// DefaultSchedule: 10 un -> 5%, 20 -> 10%, 50 -> 15%, 100 -> 20%.
func DefaultSchedule() Schedule {
	return NewSchedule(1,
		Tier{QuantityThreshold: 10, DiscountPercent: decimal.NewFromInt(5)},
		Tier{QuantityThreshold: 20, DiscountPercent: decimal.NewFromInt(10)},
		Tier{QuantityThreshold: 50, DiscountPercent: decimal.NewFromInt(15)},
		Tier{QuantityThreshold: 100, DiscountPercent: decimal.NewFromInt(20)},
	)
}

// NewSchedule copia os tiers para que o chamador não consiga mutar a tabela depois.
func NewSchedule(minQuantity int, tiers ...Tier) Schedule {
	cp := make([]Tier, len(tiers))
	copy(cp, tiers)
	return Schedule{MinQuantity: minQuantity, Tiers: cp}
}

// Validate confere o contrato de configuração. O cálculo em si nunca valida.
func (s Schedule) Validate() error {
	if s.MinQuantity < 1 {
		return ErrInvalidMinQuantity
	}
	for i, t := range s.Tiers {
		if t.QuantityThreshold < 1 {
			return fmt.Errorf("tier %d: %w", i, ErrInvalidThreshold)
		}
		if t.DiscountPercent.IsNegative() || t.DiscountPercent.GreaterThan(hundred) {
			return fmt.Errorf("tier %d: %w", i, ErrDiscountOutOfRange)
		}
		if i == 0 {
			continue
		}
		prev := s.Tiers[i-1]
		if t.QuantityThreshold <= prev.QuantityThreshold {
			return fmt.Errorf("tier %d: %w", i, ErrInvalidThreshold)
		}
		if t.DiscountPercent.LessThanOrEqual(prev.DiscountPercent) {
			return fmt.Errorf("tier %d: %w", i, ErrNonMonotonicDiscount)
		}
	}
	return nil
}

// ApplicableDiscount retorna o percentual do último tier cujo threshold <= quantity.
// Abaixo do primeiro tier o desconto é 0.
func (s Schedule) ApplicableDiscount(quantity int) decimal.Decimal {
	pct := decimal.Zero
	for _, t := range s.Tiers {
		if t.QuantityThreshold <= quantity {
			pct = t.DiscountPercent
		}
	}
	return pct
}

// NextTier retorna o menor tier ainda não atingido.
func (s Schedule) NextTier(quantity int) (Tier, bool) {
	for _, t := range s.Tiers {
		if t.QuantityThreshold > quantity {
			return t, true
		}
	}
	return Tier{}, false
}

// ClampQuantity é o saneamento feito na borda (handlers), antes de Quote.
func (s Schedule) ClampQuantity(quantity int) int {
	floor := s.MinQuantity
	if floor < 1 {
		floor = 1
	}
	if quantity < floor {
		return floor
	}
	return quantity
}

func (s Schedule) Quote(unitPrice decimal.Decimal, quantity int) Quote {
	pct := s.ApplicableDiscount(quantity)
	qty := decimal.NewFromInt(int64(quantity))

	discounted := unitPrice.Mul(decimal.NewFromInt(1).Sub(pct.Div(hundred)))
	total := discounted.Mul(qty)
	gross := unitPrice.Mul(qty)

	q := Quote{
		Quantity:            quantity,
		DiscountPercent:     pct,
		UnitPrice:           unitPrice,
		DiscountedUnitPrice: discounted,
		TotalPrice:          total,
		Savings:             gross.Sub(total),
	}
	if next, ok := s.NextTier(quantity); ok {
		q.NextTier = &next
		q.UnitsToNextTier = next.QuantityThreshold - quantity
	}
	return q
}
