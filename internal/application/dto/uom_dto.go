package dto

import "github.com/shopspring/decimal"

// UnitResponse unidad del catálogo.
type UnitResponse struct {
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Family          string          `json:"family"`
	FactorToBase    decimal.Decimal `json:"factor_to_base"`
	Symbol          string          `json:"symbol"`
	DisplayDecimals int32           `json:"display_decimals"`
	Active          bool            `json:"active"`
}

// CreateUnitRequest body para POST /api/uom/units.
type CreateUnitRequest struct {
	Code            string          `json:"code" validate:"required,max=20"`
	Name            string          `json:"name" validate:"required,max=80"`
	Family          string          `json:"family" validate:"required,oneof=mass volume count"`
	FactorToBase    decimal.Decimal `json:"factor_to_base" validate:"gt=0"`
	Symbol          string          `json:"symbol" validate:"max=10"`
	DisplayDecimals int32           `json:"display_decimals" validate:"min=0,max=6"`
}

// UpdateUnitRequest body para PUT /api/uom/units/:code. La familia no se edita.
type UpdateUnitRequest struct {
	Name            *string          `json:"name,omitempty"`
	FactorToBase    *decimal.Decimal `json:"factor_to_base,omitempty"`
	Symbol          *string          `json:"symbol,omitempty"`
	DisplayDecimals *int32           `json:"display_decimals,omitempty" validate:"omitempty,min=0,max=6"`
}

// CreateAliasRequest body para POST /api/uom/aliases.
type CreateAliasRequest struct {
	Alias    string `json:"alias" validate:"required,max=40"`
	UnitCode string `json:"unit_code" validate:"required"`
}

// ConvertRequest body para POST /api/uom/convert.
type ConvertRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	From     string          `json:"from" validate:"required"`
	To       string          `json:"to" validate:"required"`
}

// ConvertResponse resultado de la conversión.
type ConvertResponse struct {
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit"`
	Factor    decimal.Decimal `json:"factor"`
	Formatted string          `json:"formatted"`
}
