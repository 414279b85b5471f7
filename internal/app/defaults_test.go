package app

import (
	"os"
	"path/filepath"
	"testing"

	"cfgbk-go/internal/config"
)

func TestGetDefaults(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	xdgBase := filepath.Join(home, ".local", "share", "cfgbk")

	tests := []struct {
		name       string
		configPath string
		cfgbkHome  string
		want       map[string]string
	}{
		{
			name:       "environment overrides",
			configPath: "/custom/cfgbk.toml",
			cfgbkHome:  "/custom/cfgbk",
			want: map[string]string{
				"config_path": "/custom/cfgbk.toml",
				"base_dir":    "/custom/cfgbk",
				"log_dir":     "/custom/cfgbk/log",
				"data_dir":    "/custom/cfgbk/db",
			},
		},
		{
			name: "home directory fallback",
			want: map[string]string{
				"config_path": filepath.Join(home, ".config", "cfgbk.toml"),
				"base_dir":    xdgBase,
				"log_dir":     filepath.Join(xdgBase, "log"),
				"data_dir":    filepath.Join(xdgBase, "db"),
			},
		},
		{
			name:      "only the data directory overridden",
			cfgbkHome: "/srv/cfgbk",
			want: map[string]string{
				"config_path": filepath.Join(home, ".config", "cfgbk.toml"),
				"base_dir":    "/srv/cfgbk",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(envConfigPath, tt.configPath)
			t.Setenv(envHome, tt.cfgbkHome)

			defaults, err := GetDefaults()
			if err != nil {
				t.Fatalf("GetDefaults() error = %v", err)
			}
			for key, want := range tt.want {
				if defaults[key] != want {
					t.Errorf("%s = %q, want %q", key, defaults[key], want)
				}
			}
			// Task document and bundles stay relative to the working directory.
			if defaults["tasks_path"] != config.DefaultTasksPath {
				t.Errorf("tasks_path = %q, want %q", defaults["tasks_path"], config.DefaultTasksPath)
			}
			if defaults["output_dir"] != config.DefaultOutputDir {
				t.Errorf("output_dir = %q, want %q", defaults["output_dir"], config.DefaultOutputDir)
			}
		})
	}
}
