// Package costing holds the pure cost and price calculations of the engine:
// unit cost of a purchase, aggregate cost of a recipe, fixed-cost allocation
// and retail price synthesis.
package costing

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cafeverde/backoffice/internal/units"
)

// ErrInvalidQuantity is returned when a purchase quantity is zero or
// negative and a division by it is required.
var ErrInvalidQuantity = errors.New("quantity must be greater than zero")

// Fixed-cost allocation policies as persisted on cost products.
const (
	PolicyPerItem   = "per_item"
	PolicyPerMinute = "per_minute"
	PolicyGlobal    = "global"
)

// DefaultRoundStep is the price step used when no step is configured.
const DefaultRoundStep = 10

// UnitCost derives the cost of one unit from a purchase record. The target
// unit defaults to the purchase unit; a different target must belong to the
// same family (count units pass through).
func UnitCost(purchasePrice, purchaseQuantity float64, purchaseUnit, targetUnit string) (float64, error) {
	if purchaseQuantity <= 0 {
		return 0, fmt.Errorf("purchase quantity %v: %w", purchaseQuantity, ErrInvalidQuantity)
	}
	if targetUnit == "" {
		targetUnit = purchaseUnit
	}

	purchaseFamily := units.FamilyOf(purchaseUnit)
	targetFamily := units.FamilyOf(targetUnit)
	if purchaseFamily != units.FamilyCount && targetFamily != units.FamilyCount && purchaseFamily != targetFamily {
		return 0, fmt.Errorf("unit cost in %s from purchase in %s: %w", targetUnit, purchaseUnit, units.ErrIncompatibleUnits)
	}

	costPerBase := purchasePrice / units.ToBase(purchaseQuantity, purchaseUnit)
	return costPerBase * units.ToBase(1, targetUnit), nil
}

// Ingredient carries the values the aggregator needs for one recipe line:
// the quantity as written in the recipe and the raw material's unit cost in
// its purchase unit.
type Ingredient struct {
	RawMaterialID int64
	Name          string
	Quantity      float64
	Unit          string
	PurchaseUnit  string
	UnitCost      float64
}

// RecipeCost sums the cost of every ingredient, converting each quantity
// into the raw material's purchase unit first. Lines with a non-positive
// quantity, a missing unit cost or an impossible conversion are skipped (the
// last two with a warning) so one bad line never blocks pricing the rest of
// the menu. The result is rounded half-up to 2 decimals; an empty list
// costs 0.
func RecipeCost(ingredients []Ingredient, log zerolog.Logger) float64 {
	total := 0.0
	for _, ing := range ingredients {
		if ing.Quantity <= 0 {
			continue
		}
		if ing.UnitCost <= 0 {
			log.Warn().
				Int64("raw_material_id", ing.RawMaterialID).
				Str("ingredient", ing.Name).
				Msg("ingredient skipped: raw material has no unit cost")
			continue
		}

		qty, err := units.Convert(ing.Quantity, ing.Unit, ing.PurchaseUnit)
		if err != nil {
			log.Warn().
				Err(err).
				Int64("raw_material_id", ing.RawMaterialID).
				Str("ingredient", ing.Name).
				Str("unit", ing.Unit).
				Str("purchase_unit", ing.PurchaseUnit).
				Msg("ingredient skipped: unit conversion failed")
			continue
		}

		total += qty * ing.UnitCost
	}

	return Round2(total)
}

// FixedCost allocates overhead to a product under the given policy. The
// global policy reuses the per-item amount field (preserved legacy schema);
// an unknown policy behaves as per_item.
func FixedCost(perItemAmount, perMinuteAmount, preparationMinutes float64, policy string) float64 {
	switch policy {
	case PolicyPerMinute:
		return perMinuteAmount * preparationMinutes
	case PolicyGlobal:
		return perItemAmount
	default:
		return perItemAmount
	}
}

// Quote is the full price synthesis output for a cost product.
type Quote struct {
	RecipeCost     float64
	FixedCost      float64
	TotalCost      float64
	SuggestedPrice float64
	RoundedPrice   float64
}

// Price combines recipe and fixed cost, applies the margin percentage and
// rounds the suggested price up to the next multiple of roundStep so the
// business never sells below its computed margin. A non-positive step falls
// back to DefaultRoundStep.
func Price(recipeCost, fixedCost, marginPercent, roundStep float64) Quote {
	if roundStep <= 0 {
		roundStep = DefaultRoundStep
	}

	total := Round2(recipeCost + fixedCost)
	suggested := Round2(total * (1 + marginPercent/100))

	return Quote{
		RecipeCost:     Round2(recipeCost),
		FixedCost:      Round2(fixedCost),
		TotalCost:      total,
		SuggestedPrice: suggested,
		RoundedPrice:   RoundUpToStep(suggested, roundStep),
	}
}

// Round2 rounds a monetary amount to 2 decimals, half-up (away from zero).
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// RoundUpToStep rounds v up to the next exact multiple of step.
func RoundUpToStep(v, step float64) float64 {
	d := decimal.NewFromFloat(v)
	s := decimal.NewFromFloat(step)
	return d.Div(s).Ceil().Mul(s).InexactFloat64()
}
