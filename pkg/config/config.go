package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and parses the YAML config file at path.
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

// EffectiveConfigResult is the single resolved configuration the daemon
// runs with, plus where it came from ("flags", "config" or "env").
type EffectiveConfigResult struct {
	Config *Config
	Addr   string
	DBPath string
	Source string
}

// LoadEffective resolves flags, config file and environment into one
// effective config. Flags win over env, env wins over file.
func LoadEffective(flags Flags) (EffectiveConfigResult, error) {
	cfg, present, err := ParseConfigFile(flags)
	if err != nil {
		return EffectiveConfigResult{}, err
	}
	source := "flags"
	if present {
		source = "config"
	}

	envCfg, envUsed := ParseConfigEnvs()
	if envUsed {
		mergeConfig(cfg, envCfg)
		source = "env"
	}

	eff := EffectiveConfigResult{Config: cfg, Source: source}

	if flags.Set["addr"] {
		eff.Addr = flags.Addr
		eff.Source = "flags"
	} else {
		eff.Addr = cfg.Addr()
	}
	if flags.Set["db"] {
		eff.DBPath = flags.DB
	} else if cfg.Server.DBPath != "" {
		eff.DBPath = cfg.Server.DBPath
	} else {
		eff.DBPath = flags.DB
	}
	return eff, nil
}

// mergeConfig overlays non-zero fields from src onto dst.
func mergeConfig(dst, src *Config) {
	if src.Server.Address != "" {
		dst.Server.Address = src.Server.Address
	}
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
	if src.Server.DBPath != "" {
		dst.Server.DBPath = src.Server.DBPath
	}
	if src.Server.UploadsDir != "" {
		dst.Server.UploadsDir = src.Server.UploadsDir
	}
	if src.Logging.Level != "" {
		dst.Logging.Level = src.Logging.Level
	}
	if src.Client.BaseURL != "" {
		dst.Client.BaseURL = src.Client.BaseURL
	}
	if src.Client.MediaPrefix != "" {
		dst.Client.MediaPrefix = src.Client.MediaPrefix
	}
}
