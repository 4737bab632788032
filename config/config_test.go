package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "BASE_PATH", "STATE_BACKEND", "API_PROVIDER", "OPENAI_API_KEY", "ALLOWED_ADMIN_EMAILS", "APP_ENV", "COOKIE_SECURE"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Port != "1337" || cfg.ListenAddr() != ":1337" {
		t.Fatalf("unexpected port %q / addr %q", cfg.Port, cfg.ListenAddr())
	}
	if cfg.StateBackend != "memory" {
		t.Fatalf("expected memory state backend, got %q", cfg.StateBackend)
	}
	if cfg.Provider != nil {
		t.Fatalf("provider must be nil without an API key")
	}
	if cfg.CookieSecure {
		t.Fatalf("cookies are not secure outside production by default")
	}
	if len(cfg.Validate()) == 0 {
		t.Fatalf("missing admin hash should be reported")
	}
}

func TestLoadProviders(t *testing.T) {
	t.Setenv("API_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-1")
	t.Setenv("OPENAI_MAX_TOKENS", "200")
	t.Setenv("OPENAI_TEMPERATURE", "bogus")

	p := Load().Provider
	if p == nil || p.Provider != ProviderOpenAI || p.URL != openAIChatURL || p.MaxTokens != 200 || p.Temperature != 0.7 {
		t.Fatalf("unexpected openai provider: %+v", p)
	}

	t.Setenv("API_PROVIDER", "CUSTOM")
	t.Setenv("CUSTOM_API_URL", "https://llm.local/v1")
	t.Setenv("CUSTOM_API_KEY", "")
	if Load().Provider != nil {
		t.Fatalf("custom provider needs both URL and key")
	}

	t.Setenv("CUSTOM_API_KEY", "k")
	p = Load().Provider
	if p == nil || p.Provider != ProviderCustom || p.URL != "https://llm.local/v1" {
		t.Fatalf("unexpected custom provider: %+v", p)
	}
}

func TestParsingHelpers(t *testing.T) {
	if got := normalizeBasePath("anonq/"); got != "/anonq" {
		t.Fatalf("normalizeBasePath = %q", got)
	}
	if got := normalizeBasePath(""); got != "" {
		t.Fatalf("empty base path should stay empty, got %q", got)
	}

	emails := parseEmails(" Admin@Example.com, ,ops@example.com ")
	if len(emails) != 2 || emails[0] != "admin@example.com" || emails[1] != "ops@example.com" {
		t.Fatalf("unexpected emails %v", emails)
	}

	t.Setenv("APP_ENV", "production")
	t.Setenv("COOKIE_SECURE", "")
	if !Load().CookieSecure {
		t.Fatalf("production defaults to secure cookies")
	}
}
