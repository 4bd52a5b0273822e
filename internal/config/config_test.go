package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	data := []byte(`
is_debug: true
listen:
  port: "8080"
mongo:
  enabled: true
  database: buildings
portfolio_manager:
  mock: true
telegram:
  chat_ids: [10, 20]
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	conf, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !conf.Debug() {
		t.Errorf("Debug: got false, want true")
	}
	if conf.Listen.Port != "8080" {
		t.Errorf("Listen.Port: got %q, want %q", conf.Listen.Port, "8080")
	}
	if conf.Listen.BindIP != "0.0.0.0" {
		t.Errorf("Listen.BindIP default: got %q", conf.Listen.BindIP)
	}
	if !conf.Mongo.Enabled || conf.Mongo.Database != "buildings" {
		t.Errorf("Mongo: got %+v", conf.Mongo)
	}
	if !conf.Portfolio.Mock {
		t.Errorf("Portfolio.Mock: got false, want true")
	}
	if conf.Portfolio.Timeout != 60 {
		t.Errorf("Portfolio.Timeout default: got %d, want 60", conf.Portfolio.Timeout)
	}
	if conf.Upload.MaxBytes != 10485760 {
		t.Errorf("Upload.MaxBytes default: got %d", conf.Upload.MaxBytes)
	}
	if len(conf.Telegram.ChatIDs) != 2 {
		t.Errorf("Telegram.ChatIDs: got %v", conf.Telegram.ChatIDs)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Error("expected error for missing file")
	}
}
