package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("API_ID", "")
	t.Setenv("CLASSPLUS_API_BASE", "")
	t.Setenv("TMP_DIR", "")
	t.Setenv("PORT", "")
	t.Setenv("HTTP_TIMEOUT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.APIBase != "https://example.com/api" {
		t.Errorf("unexpected api base: %s", cfg.APIBase)
	}
	if cfg.TmpDir != "./tmp" {
		t.Errorf("unexpected tmp dir: %s", cfg.TmpDir)
	}
	if cfg.Addr() != ":5000" {
		t.Errorf("unexpected addr: %s", cfg.Addr())
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("unexpected timeout: %v", cfg.HTTPTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("API_ID", "4242")
	t.Setenv("CLASSPLUS_API_BASE", "http://localhost:9000/api/")
	t.Setenv("PORT", "127.0.0.1:8081")
	t.Setenv("HTTP_TIMEOUT", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.APIID != 4242 {
		t.Errorf("unexpected api id: %d", cfg.APIID)
	}
	if cfg.APIBase != "http://localhost:9000/api" {
		t.Errorf("trailing slash not trimmed: %s", cfg.APIBase)
	}
	if cfg.Addr() != "127.0.0.1:8081" {
		t.Errorf("unexpected addr: %s", cfg.Addr())
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("unexpected timeout: %v", cfg.HTTPTimeout)
	}
}

func TestLoadMissingToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error without BOT_TOKEN")
	}
	if !strings.Contains(err.Error(), "BOT_TOKEN") {
		t.Errorf("error should name BOT_TOKEN, got: %v", err)
	}
}

func TestLoadInvalidAPIID(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("API_ID", "not-a-number")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid API_ID")
	}
}
