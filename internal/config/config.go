package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigFileName is the name of the config file inside the app directory.
const ConfigFileName = "config.yaml"

// EnvPrefix is the prefix for environment overrides, e.g. DATAOPS_API_BASE_URL.
const EnvPrefix = "DATAOPS_"

type Config struct {
	// APIBaseURL is the root of the DataOps backend, without the /api prefix.
	APIBaseURL string `koanf:"api_base_url"`
	// RequestTimeoutSecs bounds a single API call. Profiling and LLM calls
	// can take minutes on large datasets, so the default is generous.
	RequestTimeoutSecs int    `koanf:"request_timeout_secs"`
	DownloadDir        string `koanf:"download_dir"`
	LogFile            string `koanf:"log_file"`
}

func defaults() map[string]interface{} {
	home, _ := os.UserHomeDir()
	appDir := filepath.Join(home, ".dataops-tui")
	return map[string]interface{}{
		"api_base_url":         "http://localhost:5000",
		"request_timeout_secs": 300,
		"download_dir":         filepath.Join(appDir, "downloads"),
		"log_file":             filepath.Join(appDir, "dataops-tui.log"),
	}
}

// Load reads configuration from defaults, then ~/.dataops-tui/config.yaml if
// present, then DATAOPS_* environment variables. Later sources win.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, err
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func findConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(home, ".dataops-tui", ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
