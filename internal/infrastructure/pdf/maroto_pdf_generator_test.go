package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-sedes/internal/application/remission"
)

func TestGenerateManifestPDF(t *testing.T) {
	dispatched := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	g := NewMarotoPDFGenerator("Panadería Central")

	out, err := g.GenerateManifestPDF(context.Background(), remission.ManifestData{
		RemissionID:  "3f1c2a9e-0000-4000-8000-000000000001",
		Status:       "in_transit",
		FromSite:     "CP - Centro de producción",
		ToSite:       "S1 - Sede norte",
		PreparedBy:   "alistador",
		DispatchedAt: &dispatched,
		Notes:        "Entregar antes de las 10am",
		Lines: []remission.ManifestLine{
			{SKU: "HAR-01", ProductName: "Harina", Requested: "2 kg", Shipped: "1.900 kg", Received: "—", Shortage: "—", Location: "A1"},
		},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestSplitEvery(t *testing.T) {
	assert.Equal(t, []string{"ab", "cd", "e"}, splitEvery("abcde", 2))
	assert.Equal(t, []string{"añ", "o"}, splitEvery("año", 2))
	assert.Nil(t, splitEvery("", 3))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "3f1c2a9e", shortID("3f1c2a9e-0000"))
	assert.Equal(t, "abc", shortID("abc"))
}
