package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteSchema(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "scenario.schema.json")
	if err := writeSchema(out, buildSchema()); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc["title"] != "GravityCore scenario" {
		t.Errorf("title = %v", doc["title"])
	}
	for _, field := range []string{`"auto-orbit"`, `"center-of-mass"`, `"locked"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("schema has no %s", field)
		}
	}
	if _, err := os.Stat(out + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}
