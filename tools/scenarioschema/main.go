// Йоу, чат! Генеруємо JSON Schema для файлів сценаріїв.
// Редактори (VS Code з yaml плагіном) підхоплюють її і підказують поля.
// Запуск: go run ./tools/scenarioschema -out schema/scenario.schema.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"GravityCore/scenario"
)

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "Path to write the JSON schema")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "-out is required")
		os.Exit(1)
	}

	if err := writeSchema(outPath, buildSchema()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

func buildSchema() *jsonschema.Schema {
	// Decoder сценаріїв не пропускає невідомих полів, схема теж
	reflector := jsonschema.Reflector{}
	schema := reflector.Reflect(new(scenario.Scenario))
	schema.Title = "GravityCore scenario"
	schema.Description = "Initial bodies and time step of a gravity simulation"
	return schema
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}
	return os.Rename(tmpPath, outPath)
}
