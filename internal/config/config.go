package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the overall configuration for the application.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	WalletAPI WalletAPIConfig `yaml:"walletApi"`
	Overlay   OverlayConfig   `yaml:"overlay"`
	Selector  SelectorConfig  `yaml:"selector"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the server-specific configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// WalletAPIConfig holds the configuration for the external wallet-record API.
type WalletAPIConfig struct {
	BaseURL              string `yaml:"baseURL"`
	AvatarID             string `yaml:"avatarId"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// OverlayConfig holds the configuration for the live balance overlay.
type OverlayConfig struct {
	RefreshIntervalSeconds int    `yaml:"refreshIntervalSeconds"`
	RequestTimeoutMillis   int64  `yaml:"requestTimeoutMillis"`
	SolanaRPCURL           string `yaml:"solanaRpcURL"`
	ZcashExplorerURL       string `yaml:"zcashExplorerURL"`
}

// SelectorConfig holds the tunable parts of the canonical wallet tie-break
// policy.
type SelectorConfig struct {
	// GoodAddresses is the allow-list of addresses known to identify the real
	// wallet for their provider; an allow-listed record always wins selection.
	GoodAddresses []string `yaml:"goodAddresses"`
}

// RateLimitConfig bounds outbound balance requests.
type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requestsPerSecond"`
	Burst             int `yaml:"burst"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
	File  string `yaml:"file"`
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	if cfg.WalletAPI.BaseURL == "" {
		return nil, fmt.Errorf("walletApi.baseURL is required")
	}
	if cfg.WalletAPI.RequestTimeoutMillis == 0 {
		cfg.WalletAPI.RequestTimeoutMillis = 10000
		logrus.Infof("WalletAPI.RequestTimeoutMillis not set, defaulting to %d ms", cfg.WalletAPI.RequestTimeoutMillis)
	}
	if cfg.Overlay.RequestTimeoutMillis == 0 {
		cfg.Overlay.RequestTimeoutMillis = 10000
		logrus.Infof("Overlay.RequestTimeoutMillis not set, defaulting to %d ms", cfg.Overlay.RequestTimeoutMillis)
	}
	if cfg.Overlay.RefreshIntervalSeconds == 0 {
		cfg.Overlay.RefreshIntervalSeconds = 30
		logrus.Infof("Overlay.RefreshIntervalSeconds not set, defaulting to %d s", cfg.Overlay.RefreshIntervalSeconds)
	}
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 10
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = cfg.RateLimit.RequestsPerSecond
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}
