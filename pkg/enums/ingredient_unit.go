package enums

import "fmt"

// IngredientUnit is the unit of measure an ingredient is stocked in.
type IngredientUnit string

const (
	IngredientUnitKilogram   IngredientUnit = "kilogram"
	IngredientUnitGram       IngredientUnit = "gram"
	IngredientUnitLiter      IngredientUnit = "liter"
	IngredientUnitMilliliter IngredientUnit = "milliliter"
	IngredientUnitPiece      IngredientUnit = "piece"
)

var validIngredientUnits = []IngredientUnit{
	IngredientUnitKilogram,
	IngredientUnitGram,
	IngredientUnitLiter,
	IngredientUnitMilliliter,
	IngredientUnitPiece,
}

// String implements fmt.Stringer.
func (i IngredientUnit) String() string {
	return string(i)
}

// IsValid reports whether the value is a known IngredientUnit.
func (i IngredientUnit) IsValid() bool {
	for _, candidate := range validIngredientUnits {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseIngredientUnit converts raw input into an IngredientUnit.
func ParseIngredientUnit(value string) (IngredientUnit, error) {
	for _, candidate := range validIngredientUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ingredient unit %q", value)
}
