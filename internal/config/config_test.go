package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/shelfarr/shelfarr/internal/config"
)

func loadFromDir(t *testing.T, dir string) (*config.Config, error) {
	t.Helper()
	viper.Reset()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd); viper.Reset() })
	return config.Load()
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadFromDir(t, t.TempDir())
	if err != nil {
		t.Fatalf("Load with no config file failed: %v", err)
	}
	if cfg.Port != 8585 {
		t.Errorf("Expected default port 8585, got %d", cfg.Port)
	}
	if !cfg.Search.AutoSelect {
		t.Error("Expected auto_select to default to true")
	}
	if cfg.Search.Threshold != 70 {
		t.Errorf("Expected default threshold 70, got %d", cfg.Search.Threshold)
	}
	if cfg.Search.PreferredTransport != "torrent" {
		t.Errorf("Expected default preferred transport torrent, got %s", cfg.Search.PreferredTransport)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
port: 9000
library:
  ebook_path: /data/books
search:
  threshold: 85
clients:
  - name: qbit
    type: qbittorrent
    transport: torrent
    url: http://localhost:8080
    priority: 1
    enabled: true
    path_mapping:
      remote: /downloads
      local: /mnt/downloads
`
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := loadFromDir(t, dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.Port)
	}
	if cfg.Library.EbookPath != "/data/books" {
		t.Errorf("Expected ebook path /data/books, got %s", cfg.Library.EbookPath)
	}
	if len(cfg.Clients) != 1 {
		t.Fatalf("Expected 1 client, got %d", len(cfg.Clients))
	}
	client := cfg.Clients[0]
	if client.Type != "qbittorrent" || client.Priority != 1 || !client.Enabled {
		t.Errorf("Client config not parsed correctly: %+v", client)
	}
	if client.PathMapping == nil || client.PathMapping.Local != "/mnt/downloads" {
		t.Errorf("Path mapping not parsed: %+v", client.PathMapping)
	}
}

func TestLoadRejectsInvalidClient(t *testing.T) {
	dir := t.TempDir()
	content := `
clients:
  - name: broken
    type: ftp
    transport: torrent
    url: http://localhost:8080
`
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := loadFromDir(t, dir); err == nil {
		t.Fatal("Expected validation error for unknown client type, got nil")
	}
}

func TestLibraryRoot(t *testing.T) {
	cfg, err := loadFromDir(t, t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LibraryRoot("audiobook") != cfg.Library.AudiobookPath {
		t.Error("LibraryRoot(audiobook) should return the audiobook path")
	}
	if cfg.LibraryRoot("ebook") != cfg.Library.EbookPath {
		t.Error("LibraryRoot(ebook) should return the ebook path")
	}
}
