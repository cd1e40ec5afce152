package commands

import (
	"testing"

	"github.com/dmribeiro/geminiweb/internal/config"
)

func TestApplyConfigValue(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr bool
		check   func(cfg config.Config) bool
	}{
		{"model", "pro", false, func(c config.Config) bool { return c.DefaultModel == "pro" }},
		{"model", "gpt-4", true, nil},
		{"proxy", "socks5://127.0.0.1:1080", false, func(c config.Config) bool { return c.ProxyURL == "socks5://127.0.0.1:1080" }},
		{"proxy", "", false, func(c config.Config) bool { return c.ProxyURL == "" }},
		{"timeout", "120", false, func(c config.Config) bool { return c.TimeoutSeconds == 120 }},
		{"timeout", "0", true, nil},
		{"timeout", "abc", true, nil},
		{"auto-refresh", "false", false, func(c config.Config) bool { return !c.AutoRefresh }},
		{"verbose", "true", false, func(c config.Config) bool { return c.Verbose }},
		{"clipboard", "yes", true, nil},
		{"download-dir", "/tmp/images", false, func(c config.Config) bool { return c.DownloadDir == "/tmp/images" }},
		{"style", "dracula", false, func(c config.Config) bool { return c.Markdown.Style == "dracula" }},
		{"emoji", "false", false, func(c config.Config) bool { return !c.Markdown.EnableEmoji }},
		{"unknown-key", "x", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := config.DefaultConfig()
			err := applyConfigValue(&cfg, tt.key, tt.value)

			if tt.wantErr {
				if err == nil {
					t.Errorf("applyConfigValue(%q, %q) expected error", tt.key, tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("applyConfigValue(%q, %q) failed: %v", tt.key, tt.value, err)
			}
			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("applyConfigValue(%q, %q) did not apply: %+v", tt.key, tt.value, cfg)
			}
		})
	}
}

func TestRunConfigSetPersists(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := runConfigSet("model", "pro"); err != nil {
		t.Fatalf("runConfigSet() failed: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.DefaultModel != "pro" {
		t.Errorf("DefaultModel = %q, want pro", cfg.DefaultModel)
	}
}

func TestRunConfigShow(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := runConfigShow(nil, nil); err != nil {
		t.Errorf("runConfigShow() failed: %v", err)
	}
}
