package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	if config.Clients.BRVM.BaseURL == "" {
		t.Error("expected default BRVM base URL")
	}
	if config.Alerts.GetInterval() != 15*time.Minute {
		t.Errorf("default interval = %v, want 15m", config.Alerts.GetInterval())
	}
	if config.Alerts.GetConcurrency() != 4 {
		t.Errorf("default concurrency = %d, want 4", config.Alerts.GetConcurrency())
	}
	if config.Alerts.EscalateAfterFailures != 3 {
		t.Errorf("default escalate_after_failures = %d, want 3", config.Alerts.EscalateAfterFailures)
	}
	if config.Alerts.GetPortfolioInterval() != 24*time.Hour {
		t.Errorf("default portfolio interval = %v, want 24h", config.Alerts.GetPortfolioInterval())
	}
	if config.Alerts.PortfolioLossPct != 5.0 || config.Alerts.PortfolioGainPct != 10.0 {
		t.Errorf("default portfolio thresholds = %v/%v, want 5/10",
			config.Alerts.PortfolioLossPct, config.Alerts.PortfolioGainPct)
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brvmwatch.toml")
	content := []byte(`
environment = "production"

[storage]
path = "/var/lib/brvmwatch"

[alerts]
interval = "5m"
concurrency = 8
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if config.Environment != "production" {
		t.Errorf("environment = %q", config.Environment)
	}
	if config.Storage.Path != "/var/lib/brvmwatch" {
		t.Errorf("storage path = %q", config.Storage.Path)
	}
	if config.Alerts.GetInterval() != 5*time.Minute {
		t.Errorf("interval = %v, want 5m", config.Alerts.GetInterval())
	}
	if config.Alerts.GetConcurrency() != 8 {
		t.Errorf("concurrency = %d, want 8", config.Alerts.GetConcurrency())
	}

	// Untouched sections keep their defaults.
	if config.Clients.BRVM.RateLimit != 5 {
		t.Errorf("rate limit = %d, want default 5", config.Clients.BRVM.RateLimit)
	}
}

func TestLoadConfig_MissingFileSkipped(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if config.Environment != "development" {
		t.Errorf("environment = %q, want default", config.Environment)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("BRVMWATCH_ENV", "staging")
	t.Setenv("BRVMWATCH_ALERT_INTERVAL", "1m")
	t.Setenv("BRVMWATCH_ALERT_CONCURRENCY", "2")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if config.Environment != "staging" {
		t.Errorf("environment = %q, want staging", config.Environment)
	}
	if config.Alerts.GetInterval() != time.Minute {
		t.Errorf("interval = %v, want 1m", config.Alerts.GetInterval())
	}
	if config.Alerts.GetConcurrency() != 2 {
		t.Errorf("concurrency = %d, want 2", config.Alerts.GetConcurrency())
	}
}

func TestDurationFallbacks(t *testing.T) {
	alerts := AlertsConfig{Interval: "nonsense", PriceTimeout: ""}
	if alerts.GetInterval() != 15*time.Minute {
		t.Errorf("bad interval should fall back to 15m, got %v", alerts.GetInterval())
	}
	if alerts.GetPriceTimeout() != 10*time.Second {
		t.Errorf("empty price timeout should fall back to 10s, got %v", alerts.GetPriceTimeout())
	}
	if alerts.GetPortfolioInterval() != 24*time.Hour {
		t.Errorf("empty portfolio interval should fall back to 24h, got %v", alerts.GetPortfolioInterval())
	}

	brvm := BRVMConfig{Timeout: "bogus"}
	if brvm.GetTimeout() != 30*time.Second {
		t.Errorf("bad timeout should fall back to 30s, got %v", brvm.GetTimeout())
	}
}

func TestGetConcurrencyFloor(t *testing.T) {
	alerts := AlertsConfig{Concurrency: 0}
	if alerts.GetConcurrency() != 4 {
		t.Errorf("zero concurrency should fall back to 4, got %d", alerts.GetConcurrency())
	}
	alerts.Concurrency = -1
	if alerts.GetConcurrency() != 4 {
		t.Errorf("negative concurrency should fall back to 4, got %d", alerts.GetConcurrency())
	}
}
