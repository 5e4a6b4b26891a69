package config

import "testing"

func TestLoadAppliesDocumentedDefaults(t *testing.T) {
	opts, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.Timeout != 30000 {
		t.Errorf("Timeout = %d, want 30000", opts.Timeout)
	}
	if opts.MaxSessionsPerBrowser != 1 {
		t.Errorf("MaxSessionsPerBrowser = %d, want 1", opts.MaxSessionsPerBrowser)
	}
	if opts.BrowserCookieName != "BAYEUX_BROWSER" {
		t.Errorf("BrowserCookieName = %q, want BAYEUX_BROWSER", opts.BrowserCookieName)
	}
}

func TestLoadHonorsEnvironmentOverride(t *testing.T) {
	t.Setenv("BAYEUX_TIMEOUT", "5000")
	t.Setenv("BAYEUX_LOG_LEVEL", "debug")

	opts, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.Timeout != 5000 {
		t.Errorf("Timeout = %d, want 5000 from env override", opts.Timeout)
	}
	if opts.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", opts.LogLevel)
	}
}

func TestLoadNamespacedOverrideWinsOverBareName(t *testing.T) {
	t.Setenv("BAYEUX_TIMEOUT", "5000")
	t.Setenv("BAYEUX_LONG_POLLING_JSON_TIMEOUT", "9000")

	opts, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.Timeout != 9000 {
		t.Errorf("Timeout = %d, want 9000 from the long-polling.json namespaced override", opts.Timeout)
	}
}

func TestToBrokerConfigTranslatesSweepPeriodToDuration(t *testing.T) {
	opts := Options{SweepPeriod: 997, Timeout: 30000, MaxInterval: 10000}
	cfg := opts.ToBrokerConfig()
	if cfg.SweepPeriod.Milliseconds() != 997 {
		t.Errorf("SweepPeriod = %v, want 997ms", cfg.SweepPeriod)
	}
	if cfg.Timeout != 30000 {
		t.Errorf("Timeout = %d, want 30000", cfg.Timeout)
	}
}
