package main

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
)

const sampleXML = `<?xml version="1.0" encoding="%s"?>
<catalogo version="1">
  <unidad codigo="g" nombre="Gramo" familia="mass" factor="1" simbolo="g">
    <alias>gr</alias>
  </unidad>
  <unidad codigo="kg" nombre="Kilogramo" familia="mass" factor="1000" simbolo="kg" decimales="3">
    <alias>Kilo</alias>
  </unidad>
  <unidad codigo="un" nombre="Unidad pequeña" familia="count" factor="1"/>
  <unidad codigo="docena" nombre="Docena" familia="count" factor="12" activa="false"/>
</catalogo>`

func latin1(t *testing.T, s string) []byte {
	t.Helper()
	out, err := charmap.ISO8859_1.NewEncoder().String(s)
	require.NoError(t, err)
	return []byte(out)
}

func TestParseCatalog_ISO88591(t *testing.T) {
	raw := latin1(t, strings.Replace(sampleXML, "%s", "ISO-8859-1", 1))

	cat, err := parseCatalog(raw)
	require.NoError(t, err)
	require.Len(t, cat.Units, 4)

	byCode := map[string]entity.Unit{}
	for _, u := range cat.Units {
		byCode[u.Code] = u
	}
	assert.Equal(t, "Unidad pequeña", byCode["un"].Name)
	assert.Equal(t, entity.FamilyMass, byCode["kg"].Family)
	assert.True(t, decimal.NewFromInt(1000).Equal(byCode["kg"].FactorToBase))
	assert.Equal(t, int32(3), byCode["kg"].DisplayDecimals)
	assert.False(t, byCode["docena"].Active)
	assert.True(t, byCode["g"].Active)

	require.Len(t, cat.Aliases, 2)
	assert.Equal(t, entity.UnitAlias{Alias: "gr", UnitCode: "g"}, cat.Aliases[0])
	assert.Equal(t, entity.UnitAlias{Alias: "kilo", UnitCode: "kg"}, cat.Aliases[1], "el alias se normaliza")
	assert.Len(t, cat.Fingerprint, 64)
}

func TestParseCatalog_HuellaEstable(t *testing.T) {
	raw := []byte(strings.Replace(sampleXML, "%s", "UTF-8", 1))
	a, err := parseCatalog(raw)
	require.NoError(t, err)
	b, err := parseCatalog(raw)
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint, b.Fingerprint)

	changed := []byte(strings.Replace(string(raw), `factor="12"`, `factor="6"`, 1))
	c, err := parseCatalog(changed)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint, c.Fingerprint)
}

func TestParseCatalog_Rechazos(t *testing.T) {
	cases := map[string]string{
		"sin raíz":        `<otro/>`,
		"vacío":           `<catalogo/>`,
		"factor inválido": `<catalogo><unidad codigo="g" familia="mass" factor="uno"/></catalogo>`,
		"factor cero":     `<catalogo><unidad codigo="g" familia="mass" factor="0"/></catalogo>`,
		"familia":         `<catalogo><unidad codigo="g" familia="energia" factor="1"/></catalogo>`,
		"dos bases": `<catalogo>
			<unidad codigo="g" familia="mass" factor="1"/>
			<unidad codigo="gramo" familia="mass" factor="1"/>
		</catalogo>`,
		"codificación": `<?xml version="1.0" encoding="EBCDIC"?><catalogo/>`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseCatalog([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestWriteSQL(t *testing.T) {
	cat, err := parseCatalog([]byte(strings.Replace(sampleXML, "%s", "UTF-8", 1)))
	require.NoError(t, err)
	cat.Units[0].Name = "O'Brien"

	var sb strings.Builder
	require.NoError(t, writeSQL(&sb, cat))
	out := sb.String()

	assert.Contains(t, out, "-- Huella del XML canónico: "+cat.Fingerprint)
	assert.Contains(t, out, "('kg', 'Kilogramo', 'mass', 1000, 'kg', 3, true)")
	assert.Contains(t, out, "O''Brien")
	assert.Contains(t, out, "('kilo', 'kg')")
	assert.Contains(t, out, "ON CONFLICT (code) DO UPDATE")
	assert.Contains(t, out, "ON CONFLICT (alias) DO UPDATE")
	assert.True(t, strings.Index(out, "INSERT INTO units") < strings.Index(out, "INSERT INTO unit_aliases"))
}
