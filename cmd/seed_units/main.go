// seed_units genera el script SQL que puebla el catálogo de unidades (units y unit_aliases)
// a partir de un XML exportado del maestro de unidades.
//
// Uso: go run ./cmd/seed_units [ruta/unidades.xml] [salida.sql]
// Por defecto busca unidades.xml en el directorio actual.
// Escribe: internal/infrastructure/postgres/seeds/units.sql
package main

import (
	"fmt"
	"os"
	"path/filepath"
)

func main() {
	xmlPath := "unidades.xml"
	if len(os.Args) > 1 {
		xmlPath = os.Args[1]
	}
	raw, err := os.ReadFile(xmlPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir XML: %v\n", err)
		os.Exit(1)
	}

	cat, err := parseCatalog(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Catálogo inválido: %v\n", err)
		os.Exit(1)
	}

	outPath := filepath.Join(findModuleRoot(), "internal", "infrastructure", "postgres", "seeds", "units.sql")
	if len(os.Args) > 2 {
		outPath = os.Args[2]
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Crear directorio: %v\n", err)
		os.Exit(1)
	}
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := writeSQL(out, cat); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d unidades, %d alias (huella %s)\n", outPath, len(cat.Units), len(cat.Aliases), cat.Fingerprint[:12])
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
