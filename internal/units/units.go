// Package units converts quantities between the purchase and ingredient
// units used across the catalog. The persisted unit vocabulary is fixed:
// kg, gr, l, ml, unidad.
package units

import (
	"errors"
	"fmt"
)

// Family groups mutually convertible units.
type Family string

const (
	FamilyMass   Family = "mass"
	FamilyVolume Family = "volume"
	FamilyCount  Family = "count"
)

// Unit names as persisted by the CRUD layer.
const (
	Kilogram   = "kg"
	Gram       = "gr"
	Liter      = "l"
	Milliliter = "ml"
	Unidad     = "unidad"
)

// ErrIncompatibleUnits is returned when a conversion crosses two non-count
// families (mass to volume or back).
var ErrIncompatibleUnits = errors.New("incompatible unit families")

// factor to the family base unit: grams for mass, milliliters for volume,
// 1 for count.
var factors = map[string]struct {
	family Family
	toBase float64
}{
	Kilogram:   {FamilyMass, 1000},
	Gram:       {FamilyMass, 1},
	Liter:      {FamilyVolume, 1000},
	Milliliter: {FamilyVolume, 1},
	Unidad:     {FamilyCount, 1},
}

// FamilyOf returns the family of a unit. Unrecognized units are treated as
// count so they convert with factor 1 instead of poisoning a whole recipe.
func FamilyOf(unit string) Family {
	if f, ok := factors[unit]; ok {
		return f.family
	}
	return FamilyCount
}

// ToBase expresses a quantity in its family's base unit. Unknown units keep
// factor 1.
func ToBase(quantity float64, unit string) float64 {
	if f, ok := factors[unit]; ok {
		return quantity * f.toBase
	}
	return quantity
}

// Convert re-expresses quantity from one unit into another of the same
// family. When either side is the count family the quantity passes through
// unscaled; converting between mass and volume fails.
func Convert(quantity float64, fromUnit, toUnit string) (float64, error) {
	if fromUnit == toUnit {
		return quantity, nil
	}

	fromFamily := FamilyOf(fromUnit)
	toFamily := FamilyOf(toUnit)
	if fromFamily == FamilyCount || toFamily == FamilyCount {
		return quantity, nil
	}
	if fromFamily != toFamily {
		return 0, fmt.Errorf("convert %s to %s: %w", fromUnit, toUnit, ErrIncompatibleUnits)
	}

	return ToBase(quantity, fromUnit) / ToBase(1, toUnit), nil
}
