package library_test

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shelfarr/shelfarr/internal/library"
)

func writeImport(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", path, err)
		}
	}
}

func zipEntries(t *testing.T, path string) map[string]bool {
	t.Helper()
	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("Failed to open bundle %s: %v", path, err)
	}
	defer r.Close()

	entries := make(map[string]bool)
	for _, f := range r.File {
		entries[f.Name] = true
	}
	return entries
}

func TestPrematerializeBundlesMultiFileImport(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Dune")
	writeImport(t, dir, map[string]string{
		"Dune.epub":        "book bytes",
		"extras/cover.jpg": "image bytes",
	})

	library.Prematerialize(context.Background(), dir)

	entries := zipEntries(t, dir+".zip")
	for _, want := range []string{"Dune/Dune.epub", "Dune/extras/cover.jpg"} {
		if !entries[want] {
			t.Errorf("Expected bundle entry %s, got %v", want, entries)
		}
	}
	// The bundle is additive: the imported files stay where they are.
	if _, err := os.Stat(filepath.Join(dir, "Dune.epub")); err != nil {
		t.Errorf("Imported file was disturbed: %v", err)
	}
}

func TestPrematerializeSkipsSingleFileImport(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Dune")
	writeImport(t, dir, map[string]string{"Dune.epub": "book"})

	library.Prematerialize(context.Background(), dir)

	if _, err := os.Stat(dir + ".zip"); err == nil {
		t.Error("Expected no bundle for a single-file import")
	}
}

func TestPrematerializeKeepsExistingBundle(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Dune")
	writeImport(t, dir, map[string]string{
		"Dune.epub": "book",
		"Dune.mobi": "book again",
	})
	if err := os.WriteFile(dir+".zip", []byte("sentinel"), 0644); err != nil {
		t.Fatalf("Failed to pre-create bundle: %v", err)
	}

	library.Prematerialize(context.Background(), dir)

	content, err := os.ReadFile(dir + ".zip")
	if err != nil {
		t.Fatalf("Failed to read bundle: %v", err)
	}
	if string(content) != "sentinel" {
		t.Error("Expected an existing bundle to be left untouched")
	}
}
