package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr           = "127.0.0.1:8790"
	DefaultRateLimitRPS   = 20
	DefaultRateLimitBurst = 40
)

// Environment overrides applied after the YAML file.
const (
	addrEnv           = "KANUKA_NOTES_ADDR"
	stateFileEnv      = "KANUKA_NOTES_STATE_FILE"
	rateLimitRPSEnv   = "KANUKA_NOTES_RATE_LIMIT_RPS"
	rateLimitBurstEnv = "KANUKA_NOTES_RATE_LIMIT_BURST"
	metricsEnv        = "KANUKA_NOTES_METRICS"
)

type RateLimitConfig struct {
	// RPS <= 0 disables rate limiting.
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// ServerConfig configures the reference backend server.
type ServerConfig struct {
	Addr      string          `yaml:"addr"`
	StateFile string          `yaml:"state_file"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Metrics   bool            `yaml:"metrics"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr: DefaultAddr,
		RateLimit: RateLimitConfig{
			RPS:   DefaultRateLimitRPS,
			Burst: DefaultRateLimitBurst,
		},
		Metrics: true,
	}
}

// serverConfigFile mirrors ServerConfig with optional fields so a partial
// file only overrides what it names.
type serverConfigFile struct {
	Addr      string `yaml:"addr"`
	StateFile string `yaml:"state_file"`
	RateLimit struct {
		RPS   *float64 `yaml:"rps"`
		Burst *int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	Metrics *bool `yaml:"metrics"`
}

// LoadServerConfig reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read server config: %w", err)
		}
		var parsed serverConfigFile
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return cfg, fmt.Errorf("failed to parse server config %s: %w", path, err)
		}
		mergeServerConfig(&cfg, parsed)
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func mergeServerConfig(dst *ServerConfig, src serverConfigFile) {
	if src.Addr != "" {
		dst.Addr = src.Addr
	}
	if src.StateFile != "" {
		dst.StateFile = src.StateFile
	}
	if src.RateLimit.RPS != nil {
		dst.RateLimit.RPS = *src.RateLimit.RPS
	}
	if src.RateLimit.Burst != nil {
		dst.RateLimit.Burst = *src.RateLimit.Burst
	}
	if src.Metrics != nil {
		dst.Metrics = *src.Metrics
	}
}

func applyEnvOverrides(cfg *ServerConfig) {
	if addr := strings.TrimSpace(os.Getenv(addrEnv)); addr != "" {
		cfg.Addr = addr
	}
	if stateFile := strings.TrimSpace(os.Getenv(stateFileEnv)); stateFile != "" {
		cfg.StateFile = stateFile
	}
	if raw := strings.TrimSpace(os.Getenv(rateLimitRPSEnv)); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			cfg.RateLimit.RPS = parsed
		}
	}
	if raw := strings.TrimSpace(os.Getenv(rateLimitBurstEnv)); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			cfg.RateLimit.Burst = parsed
		}
	}
	if raw := strings.TrimSpace(os.Getenv(metricsEnv)); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			cfg.Metrics = parsed
		}
	}
}
