// Package config loads httpwire settings from a YAML file, HTTPWIRE_* env
// vars and command-line flags. Flags win over env, env wins over file.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and parses the YAML config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolveConfigPath picks the config path: an explicitly set flag wins,
// then HTTPWIRE_CONFIG, then the flag default.
func ResolveConfigPath(flagVal string, flagSet bool) string {
	if flagSet {
		return flagVal
	}
	if env := os.Getenv("HTTPWIRE_CONFIG"); env != "" {
		return env
	}
	return flagVal
}

// LoadEffective loads the config file (missing file is not an error) and
// applies env overrides on top. The returned source string names what
// contributed: "config", "env", "config+env" or "defaults".
func LoadEffective(path string) (*Config, string, error) {
	cfg := &Config{}
	source := "defaults"

	if path != "" {
		loaded, err := Load(path)
		if err == nil {
			cfg = loaded
			source = "config"
		} else if !os.IsNotExist(err) {
			return nil, "", err
		}
	}

	envUsed, err := applyEnv(cfg)
	if err != nil {
		return nil, "", err
	}
	if envUsed {
		if source == "config" {
			source = "config+env"
		} else {
			source = "env"
		}
	}

	return cfg, source, nil
}

// applyEnv overrides cfg fields from HTTPWIRE_* environment variables and
// reports whether any were present.
func applyEnv(cfg *Config) (bool, error) {
	used := false

	if v := os.Getenv("HTTPWIRE_URL"); v != "" {
		cfg.Client.URL = v
		used = true
	}
	if v := os.Getenv("HTTPWIRE_DIAL_TIMEOUT"); v != "" {
		if err := cfg.Client.DialTimeout.parse(v); err != nil {
			return used, err
		}
		used = true
	}
	if v := os.Getenv("HTTPWIRE_MAX_RESPONSE_SIZE"); v != "" {
		if err := cfg.Client.MaxResponseSize.parse(v); err != nil {
			return used, err
		}
		used = true
	}
	if v := os.Getenv("HTTPWIRE_READ_CHUNK_SIZE"); v != "" {
		if err := cfg.Client.ReadChunkSize.parse(v); err != nil {
			return used, err
		}
		used = true
	}
	if v := os.Getenv("HTTPWIRE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
		used = true
	}
	if v := os.Getenv("HTTPWIRE_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
		used = true
	}

	return used, nil
}
