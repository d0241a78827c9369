package models

import "strings"

type FuelType string

const (
	Gasoline FuelType = "gasoline"
	Ethanol  FuelType = "ethanol"
	Diesel   FuelType = "diesel"
	GasAlt   FuelType = "gas-alt"
)

var FuelTypes = []FuelType{Gasoline, Ethanol, Diesel, GasAlt}

// Product names as published by ANP, after upper-casing and accent folding.
var fuelAliases = map[string]FuelType{
	"GASOLINE":             Gasoline,
	"GASOLINA":             Gasoline,
	"GASOLINA COMUM":       Gasoline,
	"GASOLINA ADITIVADA":   Gasoline,
	"ETHANOL":              Ethanol,
	"ETANOL":               Ethanol,
	"ETANOL HIDRATADO":     Ethanol,
	"ALCOOL":               Ethanol,
	"DIESEL":               Diesel,
	"DIESEL S10":           Diesel,
	"DIESEL S500":          Diesel,
	"OLEO DIESEL":          Diesel,
	"OLEO DIESEL S10":      Diesel,
	"GAS-ALT":              GasAlt,
	"GAS ALT":              GasAlt,
	"GNV":                  GasAlt,
	"GAS NATURAL VEICULAR": GasAlt,
}

// ParseFuelType resolves an already folded (upper-case, accent free) product
// name to one of the supported fuel types.
func ParseFuelType(s string) (FuelType, bool) {
	key := strings.Join(strings.Fields(strings.ToUpper(strings.ReplaceAll(s, "_", " "))), " ")
	ft, ok := fuelAliases[key]
	return ft, ok
}

// FuelTypeFromQuery folds s before parsing and defaults to gasoline when s is
// empty.
func FuelTypeFromQuery(s string) (FuelType, error) {
	if s == "" {
		return Gasoline, nil
	}
	ft, ok := ParseFuelType(Fold(s))
	if !ok {
		return "", ValidationErrorf("unknown fuel type: %q", s)
	}
	return ft, nil
}
