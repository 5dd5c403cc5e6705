// Package config loads the server's startup configuration: log
// destination/level and the diagnostics engine's defaults. It follows the
// teacher's lsp.LoadLSPConfig pattern — a JSON file, security-validated
// against a set of allowed directories, with sane defaults on failure.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rockerboo/opencl-language-server/security"
)

// Config is the on-disk/CLI-overridable server configuration.
type Config struct {
	LogPath             string   `json:"log_file_path"`
	LogLevel            string   `json:"log_level"`
	MaxLogFiles         int      `json:"max_log_files"`
	BuildOptions        []string `json:"build_options"`
	MaxNumberOfProblems int      `json:"max_number_of_problems"`
	DeviceID            uint32   `json:"device_id"`
}

// Default returns the configuration used when no config file is found,
// mirroring the teacher's "minimal default configuration" fallback in
// main.go.
func Default() Config {
	return Config{
		LogLevel:            "info",
		MaxLogFiles:         5,
		MaxNumberOfProblems: 100,
	}
}

// Load reads and validates a JSON configuration file from path, which must
// resolve within one of allowedDirectories.
func Load(path string, allowedDirectories []string) (*Config, error) {
	cleanPath, err := security.ValidateConfigPath(path, allowedDirectories)
	if err != nil {
		return nil, fmt.Errorf("config: path validation failed: %w", err)
	}

	file, err := os.Open(cleanPath) // #nosec G304 - path validated above
	if err != nil {
		return nil, fmt.Errorf("config: failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse config file: %w", err)
	}

	return &cfg, nil
}
