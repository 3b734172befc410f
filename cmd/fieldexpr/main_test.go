package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/binspec/fieldexpr/pkg/types"
)

func TestReadAssignmentsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.yaml")
	doc := `
marker: 1
name: JFIF
marker_enum:
  soi: 0
  eoi: 3
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	assignments, err := readAssignmentsFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v, ok := assignments["marker"]; !ok || v.AsInt() != 1 {
		t.Errorf("marker: got %v", v)
	}
	if v, ok := assignments["name"]; !ok || v.AsString() != "JFIF" {
		t.Errorf("name: got %v", v)
	}
	enum, ok := assignments["marker_enum"]
	if !ok || enum.Type() != types.TypeMap {
		t.Fatalf("marker_enum: got %v", enum)
	}
	if soi, _ := enum.AsMap().Get("soi"); soi.AsInt() != 0 {
		t.Errorf("nested enum value: got %s", soi)
	}
}

func TestReadAssignmentsFileMissing(t *testing.T) {
	if _, err := readAssignmentsFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadAssignmentsFileRejectsFractions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("scale: 1.5\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := readAssignmentsFile(path); err == nil {
		t.Error("expected error for fractional value")
	}
}
