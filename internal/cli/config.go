package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/cardtree/internal/paths"
	"github.com/mesh-intelligence/cardtree/pkg/types"
)

// Config defaults.
const (
	defaultBackend  = types.BackendSQLite
	defaultLogLevel = "info"
)

// loadConfig reads config.yaml from the resolved config directory, applies
// defaults and DECK_BACKEND / DECK_LOG_LEVEL, resolves the data directory,
// and validates the result. A missing config file is not an error.
func loadConfig(configDirFlag, dataDirFlag string) (types.Config, error) {
	configDir, err := paths.ResolveConfigDir(configDirFlag)
	if err != nil {
		return types.Config{}, fmt.Errorf("resolving config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(configDir, paths.ConfigFileName))
	v.SetConfigType("yaml")
	v.SetDefault("backend", defaultBackend)
	v.SetDefault("log_level", defaultLogLevel)
	_ = v.BindEnv("backend", "DECK_BACKEND")
	_ = v.BindEnv("log_level", "DECK_LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil && !isMissingConfig(err) {
		return types.Config{}, fmt.Errorf("reading config: %w", err)
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	cfg.DataDir, err = paths.ResolveDataDir(dataDirFlag, cfg.DataDir)
	if err != nil {
		return types.Config{}, fmt.Errorf("resolving data dir: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

func isMissingConfig(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// writeConfigIfMissing creates config.yaml with cfg if the file does not
// exist. It reports whether it wrote the file.
func writeConfigIfMissing(path string, cfg types.Config) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
