// Package uom implementa el catálogo de unidades de medida y el motor de conversión.
//
// Cada producto guarda su stock en una sola unidad canónica; toda cantidad que entra al
// libro (presentación de compra, remisión, conteo) pasa antes por Convert. El Registry es
// inmutable una vez construido, por lo que puede compartirse entre goroutines sin bloqueo.
package uom

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/inventario-sedes/internal/domain"
	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
)

// DefaultDecimals decimales por defecto para redondear cantidades almacenadas.
const DefaultDecimals int32 = 6

// conversionPrecision dígitos fraccionarios usados en las divisiones intermedias.
const conversionPrecision int32 = 28

// Registry catálogo de unidades y alias cargado en memoria.
type Registry struct {
	units   map[string]entity.Unit
	aliases map[string]string
	bases   map[entity.UnitFamily]string
}

// NewRegistry valida y construye el catálogo. Rechaza en la carga (no en tiempo de
// conversión) factores <= 0, familias desconocidas, códigos duplicados, más de una
// unidad base por familia y alias que apunten a unidades inexistentes.
func NewRegistry(units []entity.Unit, aliases []entity.UnitAlias) (*Registry, error) {
	r := &Registry{
		units:   make(map[string]entity.Unit, len(units)),
		aliases: make(map[string]string, len(aliases)),
		bases:   make(map[entity.UnitFamily]string),
	}
	one := decimal.NewFromInt(1)
	for _, u := range units {
		code := normalize(u.Code)
		if code == "" {
			return nil, fmt.Errorf("%w: código vacío", domain.ErrInvalidUnit)
		}
		if !u.Family.Valid() {
			return nil, fmt.Errorf("%w: unidad %q con familia desconocida %q", domain.ErrInvalidUnit, code, u.Family)
		}
		if !u.FactorToBase.IsPositive() {
			return nil, fmt.Errorf("%w: unidad %q con factor_to_base %s (debe ser > 0)", domain.ErrInvalidUnit, code, u.FactorToBase.String())
		}
		if _, dup := r.units[code]; dup {
			return nil, fmt.Errorf("%w: código %q duplicado", domain.ErrInvalidUnit, code)
		}
		if u.FactorToBase.Equal(one) {
			if prev, ok := r.bases[u.Family]; ok {
				return nil, fmt.Errorf("%w: la familia %s tiene dos unidades base (%s, %s)", domain.ErrInvalidUnit, u.Family, prev, code)
			}
			r.bases[u.Family] = code
		}
		u.Code = code
		r.units[code] = u
	}
	for _, a := range aliases {
		alias := normalize(a.Alias)
		target := normalize(a.UnitCode)
		if alias == "" {
			return nil, fmt.Errorf("%w: alias vacío", domain.ErrInvalidUnit)
		}
		if _, ok := r.units[target]; !ok {
			return nil, fmt.Errorf("%w: alias %q apunta a unidad inexistente %q", domain.ErrInvalidUnit, alias, target)
		}
		if _, isCode := r.units[alias]; isCode && alias != target {
			return nil, fmt.Errorf("%w: alias %q ocultaría la unidad %q", domain.ErrInvalidUnit, alias, alias)
		}
		if prev, dup := r.aliases[alias]; dup && prev != target {
			return nil, fmt.Errorf("%w: alias %q duplicado", domain.ErrInvalidUnit, alias)
		}
		r.aliases[alias] = target
	}
	return r, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ResolveUnit busca primero en los alias y luego por código directo.
// Nunca adivina: un código desconocido devuelve ErrUnitNotFound.
func (r *Registry) ResolveUnit(codeOrAlias string) (entity.Unit, error) {
	key := normalize(codeOrAlias)
	if code, ok := r.aliases[key]; ok {
		key = code
	}
	u, ok := r.units[key]
	if !ok {
		return entity.Unit{}, &domain.UnitError{Code: codeOrAlias, Err: domain.ErrUnitNotFound}
	}
	return u, nil
}

// InferFamily devuelve la familia de la unidad; ok=false significa "desconocida",
// y el llamador no debe asumir compatibilidad.
func (r *Registry) InferFamily(code string) (entity.UnitFamily, bool) {
	u, err := r.ResolveUnit(code)
	if err != nil {
		return "", false
	}
	return u.Family, true
}

// Compatible indica si ambas unidades existen y son de la misma familia.
func (r *Registry) Compatible(a, b string) bool {
	fa, okA := r.InferFamily(a)
	fb, okB := r.InferFamily(b)
	return okA && okB && fa == fb
}

// Factor devuelve el multiplicador para pasar de from a to.
func (r *Registry) Factor(from, to string) (decimal.Decimal, error) {
	uf, ut, err := r.pair(from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return uf.FactorToBase.DivRound(ut.FactorToBase, conversionPrecision), nil
}

// Convert convierte quantity de from a to: quantity * factor(from) / factor(to).
func (r *Registry) Convert(quantity decimal.Decimal, from, to string) (decimal.Decimal, error) {
	uf, ut, err := r.pair(from, to)
	if err != nil {
		return decimal.Zero, err
	}
	if uf.Code == ut.Code {
		return quantity, nil
	}
	return quantity.Mul(uf.FactorToBase).DivRound(ut.FactorToBase, conversionPrecision), nil
}

func (r *Registry) pair(from, to string) (entity.Unit, entity.Unit, error) {
	uf, err := r.ResolveUnit(from)
	if err != nil {
		return entity.Unit{}, entity.Unit{}, err
	}
	ut, err := r.ResolveUnit(to)
	if err != nil {
		return entity.Unit{}, entity.Unit{}, err
	}
	if uf.Family != ut.Family {
		return entity.Unit{}, entity.Unit{}, &domain.ConversionError{
			From: uf.Code, To: ut.Code, FromFamily: string(uf.Family), ToFamily: string(ut.Family),
		}
	}
	return uf, ut, nil
}

// Base devuelve la unidad base (factor 1) de la familia, si está definida.
func (r *Registry) Base(family entity.UnitFamily) (entity.Unit, bool) {
	code, ok := r.bases[family]
	if !ok {
		return entity.Unit{}, false
	}
	return r.units[code], true
}

// Units lista las unidades ordenadas por familia y factor.
func (r *Registry) Units() []entity.Unit {
	list := make([]entity.Unit, 0, len(r.units))
	for _, u := range r.units {
		list = append(list, u)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Family != list[j].Family {
			return list[i].Family < list[j].Family
		}
		if !list[i].FactorToBase.Equal(list[j].FactorToBase) {
			return list[i].FactorToBase.LessThan(list[j].FactorToBase)
		}
		return list[i].Code < list[j].Code
	})
	return list
}

// Aliases devuelve una copia del mapa alias -> código.
func (r *Registry) Aliases() map[string]string {
	out := make(map[string]string, len(r.aliases))
	for k, v := range r.aliases {
		out[k] = v
	}
	return out
}

// RoundQuantity redondea con DefaultDecimals.
func RoundQuantity(q decimal.Decimal) decimal.Decimal {
	return RoundQuantityTo(q, DefaultDecimals)
}

// RoundQuantityTo redondea a decimals (mitad lejos de cero); el error queda por debajo
// de media unidad del último decimal conservado.
func RoundQuantityTo(q decimal.Decimal, decimals int32) decimal.Decimal {
	if decimals < 0 {
		decimals = 0
	}
	return q.Round(decimals)
}

// Format presenta la cantidad con los decimales y el símbolo de la unidad.
func (r *Registry) Format(q decimal.Decimal, code string) string {
	u, err := r.ResolveUnit(code)
	if err != nil {
		return q.String() + " " + code
	}
	symbol := u.Symbol
	if symbol == "" {
		symbol = u.Code
	}
	return q.StringFixed(u.DisplayDecimals) + " " + symbol
}
