package config

import (
	"flag"
	"testing"
)

func parse(t *testing.T, args []string) Config {
	t.Helper()
	var cfg Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse: %v", err)
	}
	return cfg
}

func TestRegisterFlagsDefaults(t *testing.T) {
	cfg := parse(t, nil)
	if cfg.TASKt != 120 {
		t.Errorf("default TASKt = %v, want 120", cfg.TASKt)
	}
	if cfg.AltitudeFt != 6500 {
		t.Errorf("default AltitudeFt = %v, want 6500", cfg.AltitudeFt)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("default LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestRegisterFlagsOverride(t *testing.T) {
	cfg := parse(t, []string{"-rds", "/tmp/bundle.json", "-tas", "140", "-altitude", "9000"})
	if cfg.RDSPath != "/tmp/bundle.json" {
		t.Errorf("RDSPath = %q, want /tmp/bundle.json", cfg.RDSPath)
	}
	if cfg.TASKt != 140 {
		t.Errorf("TASKt = %v, want 140", cfg.TASKt)
	}
	if cfg.AltitudeFt != 9000 {
		t.Errorf("AltitudeFt = %v, want 9000", cfg.AltitudeFt)
	}
}

func TestValidateRequiresRDSPath(t *testing.T) {
	cfg := parse(t, []string{"-tas", "120"})
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error when -rds is unset")
	}
}

func TestValidateRejectsNonPositiveTAS(t *testing.T) {
	cfg := parse(t, []string{"-rds", "x.json", "-tas", "0"})
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for non-positive TAS")
	}
}

func TestValidateRequiresUsableFuelWhenBurnRateSet(t *testing.T) {
	cfg := parse(t, []string{"-rds", "x.json", "-burn-rate", "9"})
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error when burn-rate is set without usable-fuel")
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	cfg := parse(t, []string{"-rds", "x.json", "-burn-rate", "9", "-usable-fuel", "40"})
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.FuelEnabled() {
		t.Error("expected FuelEnabled() to be true")
	}
}
