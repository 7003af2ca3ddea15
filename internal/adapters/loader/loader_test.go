package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestGuidelineLoader_LoadsTxtFiles(t *testing.T) {
	dir, _ := os.MkdirTemp("", "guidelines-test-*")
	defer os.RemoveAll(dir)

	os.WriteFile(filepath.Join(dir, "fao_rice.txt"), []byte("Rice water management"), 0644)
	os.WriteFile(filepath.Join(dir, "icar_wheat.txt"), []byte("Wheat irrigation"), 0644)
	os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0644)

	loader := NewGuidelineLoader(dir, nil)
	docs, err := loader.LoadGuidelines(context.Background())

	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}

	// Sorted by filename, stems uppercased into source IDs.
	if docs[0].SourceID != "FAO_RICE" {
		t.Errorf("unexpected first source: %s", docs[0].SourceID)
	}
	if docs[1].SourceID != "ICAR_WHEAT" {
		t.Errorf("unexpected second source: %s", docs[1].SourceID)
	}
	if docs[0].Content != "Rice water management" {
		t.Errorf("unexpected content: %s", docs[0].Content)
	}
	if docs[0].Kind != "guideline" {
		t.Errorf("unexpected kind: %s", docs[0].Kind)
	}
}

func TestGuidelineLoader_MissingDirectory(t *testing.T) {
	loader := NewGuidelineLoader("/nonexistent/guidelines", nil)

	docs, err := loader.LoadGuidelines(context.Background())
	if err != nil {
		t.Fatalf("missing directory should not be an error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected no documents, got %d", len(docs))
	}
}

func TestGuidelineLoader_SkipsSubdirectories(t *testing.T) {
	dir, _ := os.MkdirTemp("", "guidelines-test-*")
	defer os.RemoveAll(dir)

	os.Mkdir(filepath.Join(dir, "archive.txt"), 0755)
	os.WriteFile(filepath.Join(dir, "cimmyt.txt"), []byte("Maize notes"), 0644)

	loader := NewGuidelineLoader(dir, nil)
	docs, err := loader.LoadGuidelines(context.Background())

	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(docs) != 1 || docs[0].SourceID != "CIMMYT" {
		t.Errorf("expected only CIMMYT, got %+v", docs)
	}
}
