package app

import (
	"fmt"
	"os"
	"path/filepath"

	"cfgbk-go/internal/config"
)

// Environment variables that override the default locations.
const (
	envConfigPath = "CFGBK_CONFIG_PATH"
	envHome       = "CFGBK_HOME"
)

// GetDefaults returns the default settings locations for cfgbk, checking
// environment variables first:
//   - CFGBK_CONFIG_PATH: settings file (default: ~/.config/cfgbk.toml)
//   - CFGBK_HOME: data directory holding logs and the catalog
//     (default: ~/.local/share/cfgbk)
//
// tasks_path and output_dir are relative to the working directory, so a
// project checkout carries its own task document and bundles.
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	cfg := config.NewConfig(baseDir)
	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     cfg.LogDir,
		"data_dir":    cfg.Database.DataDir,
		"tasks_path":  cfg.TasksPath,
		"output_dir":  cfg.OutputDir,
	}, nil
}

// getConfigPath returns the settings file path, checking CFGBK_CONFIG_PATH
// first, then falling back to ~/.config/cfgbk.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv(envConfigPath); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "cfgbk.toml"), nil
}

// getBaseDir returns the data directory, checking CFGBK_HOME first, then
// falling back to the XDG default ~/.local/share/cfgbk.
func getBaseDir() (string, error) {
	if path := os.Getenv(envHome); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "cfgbk"), nil
}
