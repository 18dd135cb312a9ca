package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PARTNER_PROJECT", "Acme Theme")
	t.Setenv("JWT_SECRET", "jwt-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Partner.CompanionSlug != "extendify" {
		t.Errorf("CompanionSlug = %q", cfg.Partner.CompanionSlug)
	}
	if !reflect.DeepEqual(cfg.Partner.Screens, []string{"themes"}) {
		t.Errorf("Screens = %v", cfg.Partner.Screens)
	}
	if cfg.Partner.DownloadTimeout != 5*time.Minute {
		t.Errorf("DownloadTimeout = %v", cfg.Partner.DownloadTimeout)
	}
	if cfg.Admin.NonceSecret != "jwt-secret" {
		t.Errorf("NonceSecret should fall back to JWT secret, got %q", cfg.Admin.NonceSecret)
	}
	if len(cfg.Server.AllowedOrigins) != 0 {
		t.Errorf("AllowedOrigins = %v, want none by default", cfg.Server.AllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PARTNER_PROJECT", "Acme Theme")
	t.Setenv("PARTNER_SCREENS", "themes, plugins ,,dashboard")
	t.Setenv("MULTISITE", "true")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("NONCE_SECRET", "nonce-secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://admin.example.com, https://ops.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(cfg.Partner.Screens, []string{"themes", "plugins", "dashboard"}) {
		t.Errorf("Screens = %v", cfg.Partner.Screens)
	}
	if !cfg.Partner.Multisite {
		t.Error("Multisite not parsed")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
	if cfg.Admin.NonceSecret != "nonce-secret" {
		t.Errorf("NonceSecret = %q", cfg.Admin.NonceSecret)
	}
	if !reflect.DeepEqual(cfg.Server.AllowedOrigins, []string{"https://admin.example.com", "https://ops.example.com"}) {
		t.Errorf("AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]map[string]string{
		"missing project": {"PARTNER_PROJECT": ""},
		"bad port":        {"PARTNER_PROJECT": "Acme", "SERVER_PORT": "http"},
		"bad multisite":   {"PARTNER_PROJECT": "Acme", "MULTISITE": "maybe"},
		"bad timeout":     {"PARTNER_PROJECT": "Acme", "DOWNLOAD_TIMEOUT": "soon"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
