package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Pazar/pazar_sdk_go/internal/devseed"
)

// Config is the resolved sandbox configuration, merged from defaults, an
// optional YAML file, environment variables and command-line flags, in
// that order.
type Config struct {
	Addr     string
	SeedPath string
	PageSize int
	Latency  time.Duration
	FailRate float64
	FailCode int
	LogJSON  bool
	Trace    bool
}

// configFile mirrors the YAML schema accepted by --config.
type configFile struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Catalog struct {
		Seed     string `yaml:"seed"`
		PageSize int    `yaml:"page_size"`
	} `yaml:"catalog"`
	Inject struct {
		Latency  string  `yaml:"latency"`
		FailRate float64 `yaml:"fail_rate"`
		FailCode int     `yaml:"fail_code"`
	} `yaml:"inject"`
	Log struct {
		JSON bool `yaml:"json"`
	} `yaml:"log"`
	Trace bool `yaml:"trace"`
}

func loadConfig(path string) (Config, error) {
	cfg := Config{
		Addr:     ":8787",
		PageSize: devseed.DefaultPageSize,
		FailCode: http.StatusInternalServerError,
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		var f configFile
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
		if f.Server.Addr != "" {
			cfg.Addr = f.Server.Addr
		}
		if f.Catalog.Seed != "" {
			cfg.SeedPath = f.Catalog.Seed
		}
		if f.Catalog.PageSize > 0 {
			cfg.PageSize = f.Catalog.PageSize
		}
		if f.Inject.Latency != "" {
			d, err := time.ParseDuration(f.Inject.Latency)
			if err != nil {
				return Config{}, fmt.Errorf("parse inject.latency: %w", err)
			}
			cfg.Latency = d
		}
		if f.Inject.FailRate > 0 {
			cfg.FailRate = f.Inject.FailRate
		}
		if f.Inject.FailCode > 0 {
			cfg.FailCode = f.Inject.FailCode
		}
		cfg.LogJSON = cfg.LogJSON || f.Log.JSON
		cfg.Trace = cfg.Trace || f.Trace
	}

	cfg.Addr = envOrDefault("PAZAR_SANDBOX_ADDR", cfg.Addr)
	cfg.SeedPath = envOrDefault("PAZAR_MOCK_CATALOG_SEED", cfg.SeedPath)
	cfg.PageSize = envInt("PAZAR_SANDBOX_PAGE_SIZE", cfg.PageSize)
	cfg.Latency = envDuration("PAZAR_SANDBOX_LATENCY", cfg.Latency)
	cfg.FailRate = envFloat("PAZAR_SANDBOX_FAIL_RATE", cfg.FailRate)
	cfg.FailCode = envInt("PAZAR_SANDBOX_FAIL_CODE", cfg.FailCode)
	cfg.LogJSON = envBool("PAZAR_SANDBOX_LOG_JSON", cfg.LogJSON)
	cfg.Trace = envBool("PAZAR_SANDBOX_TRACE", cfg.Trace)

	if cfg.PageSize <= 0 {
		return Config{}, fmt.Errorf("page size must be positive, got %d", cfg.PageSize)
	}
	if cfg.FailRate < 0 || cfg.FailRate > 1 {
		return Config{}, fmt.Errorf("fail rate must be within [0,1], got %g", cfg.FailRate)
	}
	if cfg.FailCode < 100 || cfg.FailCode > 599 {
		return Config{}, fmt.Errorf("fail code must be a valid HTTP status, got %d", cfg.FailCode)
	}

	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envFloat(name string, fallback float64) float64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}
