package envconf

import (
	"errors"
	"testing"
	"time"
)

type nested struct {
	TTL time.Duration `env:"NESTED_TTL" envDefault:"2m"`
}

type testConf struct {
	Name   string `env:"CONF_NAME"`
	Port   uint16 `env:"CONF_PORT" envDefault:"8080"`
	Inner  nested
	Hidden string
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("CONF_NAME", "api")

	cfg := new(testConf)

	err := Load(cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Name != "api" {
		t.Errorf("Name: want api, got %q", cfg.Name)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port default: want 8080, got %d", cfg.Port)
	}
	if cfg.Inner.TTL != 2*time.Minute {
		t.Errorf("nested default: want 2m, got %s", cfg.Inner.TTL)
	}

	t.Setenv("CONF_PORT", "9090")
	t.Setenv("NESTED_TTL", "30s")

	cfg = new(testConf)
	err = Load(cfg)
	if err != nil {
		t.Fatalf("load with overrides: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port override: want 9090, got %d", cfg.Port)
	}
	if cfg.Inner.TTL != 30*time.Second {
		t.Errorf("nested override: want 30s, got %s", cfg.Inner.TTL)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	type conf struct {
		Secret string `env:"DEFINITELY_UNSET_VAR_12345"`
	}

	err := Load(new(conf))
	if !errors.Is(err, ErrMissingRequired) {
		t.Fatalf("want ErrMissingRequired, got %v", err)
	}
}
