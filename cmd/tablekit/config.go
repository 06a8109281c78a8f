package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/tablekit/internal/paths"
	"github.com/mesh-intelligence/tablekit/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyDriver   = "driver"
	cfgKeyDSN      = "dsn"
	cfgKeySchema   = "schema"
	cfgKeyAudit    = "audit"
	cfgKeyLogLevel = "log_level"
	cfgKeyDataDir  = "data_dir"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# tablekit configuration

# Database driver: sqlite, mysql or postgres
driver: sqlite

# Connection string. Empty uses tablekit.db in the data directory (sqlite only).
# dsn:

# Schema file declaring tables, relations and hooks, relative to this directory.
# schema: schema.yaml

# Capture and print the statements of every command.
audit: false

# debug, info, warn or error
log_level: warn

# Data directory (optional; overridable by --data-dir)
# data_dir:
`

// loadConfig reads config.yaml from configDir, creating the directory and
// a default file on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyDriver, types.DriverSQLite)
	v.SetDefault(cfgKeyAudit, false)
	v.SetDefault(cfgKeyLogLevel, "warn")
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("TABLEKIT")
	for _, key := range []string{cfgKeyDriver, cfgKeyDSN, cfgKeySchema} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile writes the default config.yaml when none exists.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, paths.ConfigFileName)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// decodeConfig unmarshals v into a Config. A relative schema path is
// resolved against configDir.
func decodeConfig(v *viper.Viper, configDir string) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Schema != "" && !filepath.IsAbs(cfg.Schema) {
		cfg.Schema = filepath.Join(configDir, cfg.Schema)
	}
	return cfg, nil
}
