package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/conduit-lang/criteria/internal/orm/dialect"
)

// FileName is the configuration file looked up in the working directory, without extension
const FileName = "criteria"

// Config represents the criteria CLI configuration
type Config struct {
	Metamodel string         `mapstructure:"metamodel"`
	Database  DatabaseConfig `mapstructure:"database"`
	Log       LogConfig      `mapstructure:"log"`

	// dir is the directory relative paths are resolved against
	dir string
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	URL    string `mapstructure:"url"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Verbose bool `mapstructure:"verbose"`
}

// Load reads criteria.yaml from the working directory, if present.
// CRITERIA_* environment variables override file values, e.g. CRITERIA_DATABASE_URL.
func Load() (*Config, error) {
	return load(func(v *viper.Viper) {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}, ".")
}

// LoadFile reads configuration from an explicit path, which must exist
func LoadFile(path string) (*Config, error) {
	return load(func(v *viper.Viper) {
		v.SetConfigFile(path)
	}, filepath.Dir(path))
}

func load(locate func(*viper.Viper), dir string) (*Config, error) {
	v := viper.New()

	v.SetDefault("metamodel", "metamodel.yaml")
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.url", "")
	v.SetDefault("log.verbose", false)

	locate(v)

	v.SetEnvPrefix("CRITERIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file; defaults and environment apply
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.dir = dir

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MetamodelPath returns the metamodel file, resolved against the config file's directory
func (c *Config) MetamodelPath() string {
	if filepath.IsAbs(c.Metamodel) || c.dir == "" {
		return c.Metamodel
	}
	return filepath.Join(c.dir, c.Metamodel)
}

// Dialect returns the SQL dialect of the configured driver
func (c *Config) Dialect() dialect.Dialect {
	d, err := dialect.ForDriver(c.Database.Driver)
	if err != nil {
		// validateConfig rejects unknown drivers
		return dialect.SQLite
	}
	return d
}

// DriverName returns the database/sql driver to open
func (c *Config) DriverName() string {
	return c.Dialect().Name()
}

// NewLogger builds the CLI logger: development output when verbose, warnings only otherwise
func (c *Config) NewLogger() (*zap.Logger, error) {
	if c.Log.Verbose {
		return zap.NewDevelopment()
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	return zc.Build()
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if _, err := dialect.ForDriver(cfg.Database.Driver); err != nil {
		return fmt.Errorf("database.driver: %w", err)
	}
	if cfg.Metamodel == "" {
		return fmt.Errorf("metamodel must name a metamodel file")
	}
	return nil
}
