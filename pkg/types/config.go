package types

import "errors"

// Config holds driver selection and connection parameters for opening an
// engine registry.
type Config struct {
	Driver   string `json:"driver" yaml:"driver" mapstructure:"driver"`
	DSN      string `json:"dsn" yaml:"dsn" mapstructure:"dsn"`
	Schema   string `json:"schema" yaml:"schema" mapstructure:"schema"`
	Audit    bool   `json:"audit" yaml:"audit" mapstructure:"audit"`
	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
}

// Supported driver names.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Config validation errors.
var (
	ErrDriverEmpty   = errors.New("driver must not be empty")
	ErrDriverUnknown = errors.New("unknown driver")
	ErrDSNEmpty      = errors.New("dsn must not be empty")
)

// knownDrivers lists the drivers that Validate accepts.
var knownDrivers = map[string]bool{
	DriverSQLite:   true,
	DriverMySQL:    true,
	DriverPostgres: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Driver == "" {
		return ErrDriverEmpty
	}
	if !knownDrivers[c.Driver] {
		return ErrDriverUnknown
	}
	if c.DSN == "" {
		return ErrDSNEmpty
	}
	return nil
}
