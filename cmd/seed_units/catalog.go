package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/ucarion/c14n"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
	"github.com/jhoicas/inventario-sedes/internal/domain/uom"
)

// unitCatalog unidades y alias leídos del XML, ya validados y normalizados.
type unitCatalog struct {
	Units   []entity.Unit
	Aliases []entity.UnitAlias
	// Fingerprint sha256 del XML canónico (C14N), para saber qué exportación generó el script.
	Fingerprint string
}

// charsetReader acepta las codificaciones con que suelen salir las exportaciones.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(label), "_", "-")) {
	case "", "UTF-8":
		return input, nil
	case "ISO-8859-1", "ISO8859-1", "LATIN1":
		return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
	case "WINDOWS-1252", "CP1252":
		return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
	}
	return nil, fmt.Errorf("codificación no soportada: %s", label)
}

// parseCatalog lee <catalogo><unidad codigo nombre familia factor simbolo decimales><alias/>…
// y valida el conjunto con las mismas reglas que el registro en memoria.
func parseCatalog(raw []byte) (*unitCatalog, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("parsear XML: %w", err)
	}
	root := doc.SelectElement("catalogo")
	if root == nil {
		return nil, fmt.Errorf("falta el elemento raíz <catalogo>")
	}

	var units []entity.Unit
	var aliases []entity.UnitAlias
	for i, el := range root.SelectElements("unidad") {
		code := strings.TrimSpace(el.SelectAttrValue("codigo", ""))
		factor, err := decimal.NewFromString(strings.TrimSpace(el.SelectAttrValue("factor", "")))
		if err != nil {
			return nil, fmt.Errorf("unidad #%d (%s): factor inválido: %w", i+1, code, err)
		}
		decimals, err := strconv.Atoi(strings.TrimSpace(el.SelectAttrValue("decimales", "0")))
		if err != nil || decimals < 0 {
			return nil, fmt.Errorf("unidad #%d (%s): decimales inválidos", i+1, code)
		}
		units = append(units, entity.Unit{
			Code:            code,
			Name:            strings.TrimSpace(el.SelectAttrValue("nombre", code)),
			Family:          entity.UnitFamily(strings.TrimSpace(el.SelectAttrValue("familia", ""))),
			FactorToBase:    factor,
			Symbol:          strings.TrimSpace(el.SelectAttrValue("simbolo", "")),
			DisplayDecimals: int32(decimals),
			Active:          el.SelectAttrValue("activa", "true") != "false",
		})
		for _, a := range el.SelectElements("alias") {
			aliases = append(aliases, entity.UnitAlias{Alias: a.Text(), UnitCode: code})
		}
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("el catálogo no tiene unidades")
	}

	reg, err := uom.NewRegistry(units, aliases)
	if err != nil {
		return nil, err
	}

	fp, err := fingerprint(raw)
	if err != nil {
		return nil, err
	}

	cat := &unitCatalog{Units: reg.Units(), Fingerprint: fp}
	for alias, code := range reg.Aliases() {
		cat.Aliases = append(cat.Aliases, entity.UnitAlias{Alias: alias, UnitCode: code})
	}
	sort.Slice(cat.Aliases, func(i, j int) bool { return cat.Aliases[i].Alias < cat.Aliases[j].Alias })
	return cat, nil
}

func fingerprint(raw []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.CharsetReader = charsetReader
	dec.Entity = map[string]string{}
	canonical, err := c14n.Canonicalize(dec)
	if err != nil {
		return "", fmt.Errorf("canonicalizar XML: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// writeSQL escribe un script idempotente: unidades primero, luego alias.
func writeSQL(w io.Writer, cat *unitCatalog) error {
	var sb strings.Builder
	sb.WriteString("-- Catálogo de unidades de medida\n")
	fmt.Fprintf(&sb, "-- Huella del XML canónico: %s\n\n", cat.Fingerprint)

	sb.WriteString("-- 1. Unidades\n")
	sb.WriteString("INSERT INTO units (code, name, family, factor_to_base, symbol, display_decimals, active) VALUES\n")
	for i, u := range cat.Units {
		fmt.Fprintf(&sb, "  ('%s', '%s', '%s', %s, '%s', %d, %t)",
			escapeSQL(u.Code), escapeSQL(u.Name), u.Family, u.FactorToBase.String(),
			escapeSQL(u.Symbol), u.DisplayDecimals, u.Active)
		if i < len(cat.Units)-1 {
			sb.WriteString(",\n")
		} else {
			sb.WriteString("\n")
		}
	}
	// La familia no se actualiza: cambiarla rompería conversiones históricas.
	sb.WriteString("ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, factor_to_base = EXCLUDED.factor_to_base,\n")
	sb.WriteString("  symbol = EXCLUDED.symbol, display_decimals = EXCLUDED.display_decimals,\n")
	sb.WriteString("  active = EXCLUDED.active, updated_at = now();\n")

	if len(cat.Aliases) > 0 {
		sb.WriteString("\n-- 2. Alias\n")
		sb.WriteString("INSERT INTO unit_aliases (alias, unit_code) VALUES\n")
		for i, a := range cat.Aliases {
			fmt.Fprintf(&sb, "  ('%s', '%s')", escapeSQL(a.Alias), escapeSQL(a.UnitCode))
			if i < len(cat.Aliases)-1 {
				sb.WriteString(",\n")
			} else {
				sb.WriteString("\n")
			}
		}
		sb.WriteString("ON CONFLICT (alias) DO UPDATE SET unit_code = EXCLUDED.unit_code;\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
