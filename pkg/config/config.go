// Package config holds the durapack CLI configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/durapack/pkg/codec"
)

// Config represents the durapack configuration.
type Config struct {
	Pack PackConfig `yaml:"pack"`
	Scan ScanConfig `yaml:"scan"`
}

// PackConfig controls frame production.
type PackConfig struct {
	// Trailer selects the integrity trailer: none, crc32c, or blake3.
	Trailer string `yaml:"trailer"`

	// StartID is the frame ID assigned to the first packed frame.
	StartID uint64 `yaml:"start_id"`

	// Preamble and SyncPrefix prepend wire prefixes to every frame.
	Preamble   bool `yaml:"preamble"`
	SyncPrefix bool `yaml:"sync_prefix"`
}

// ScanConfig controls recovery scanning.
type ScanConfig struct {
	// MarkerHamming enables the bit-flip-tolerant marker search when > 0.
	MarkerHamming int `yaml:"marker_hamming"`

	// AllowCombinedIntegrity accepts frames with both integrity flags set,
	// giving BLAKE3 precedence.
	AllowCombinedIntegrity bool `yaml:"allow_combined_integrity"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		Pack: PackConfig{
			Trailer: "crc32c",
			StartID: 1,
		},
		Scan: ScanConfig{
			MarkerHamming: 0,
		},
	}
}

// TrailerType resolves the configured trailer name.
func (c *Config) TrailerType() (codec.TrailerType, error) {
	switch c.Pack.Trailer {
	case "", "none":
		return codec.TrailerNone, nil
	case "crc32c":
		return codec.TrailerCRC32C, nil
	case "blake3":
		return codec.TrailerBlake3, nil
	default:
		return codec.TrailerNone, fmt.Errorf("unknown trailer %q (want none, crc32c, or blake3)", c.Pack.Trailer)
	}
}

// LoadConfig loads configuration from the specified path.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if _, err := config.TrailerType(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig saves the configuration to the specified path.
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
