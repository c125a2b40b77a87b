package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("ISSUER_PASSWORD", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
	if cfg.IssuerPassword != "" {
		t.Fatalf("expected empty ISSUER_PASSWORD when unset, got %q", cfg.IssuerPassword)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "not-a-number")
	t.Setenv("FONT_NAME", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("default port = %q", cfg.Port)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("address = %q", cfg.Address())
	}
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("unparseable token TTL should fall back to 480, got %d", cfg.AccessTokenTTLMinutes)
	}
	if cfg.FontName != "NotoSansJP" {
		t.Fatalf("default font name = %q", cfg.FontName)
	}
}
