package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/foundation-data/datalib/adapters"
	"github.com/foundation-data/datalib/core"
)

const DefaultEnvPrefix = "DATALIB"

type Config struct {
	Connection core.ConnectionParams `mapstructure:"connection"`

	// Table read by fetch when no query is given.
	Table string `mapstructure:"table"`
	// DataFormat of consumables, csv or text.
	DataFormat string `mapstructure:"data_format"`
	// Output format: table, json or csv.
	Output string `mapstructure:"output"`

	LogLevel    string        `mapstructure:"log_level"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MetricsFile string        `mapstructure:"metrics_file"`
}

var defaults = map[string]any{
	"connection.id":       "",
	"connection.name":     "",
	"connection.type":     "",
	"connection.url":      "",
	"connection.user":     "",
	"connection.password": "",
	"connection.host":     "",
	"connection.port":     "",
	"connection.database": "",
	"table":               core.DefaultTable,
	"data_format":         core.DataFormatCSV.String(),
	"output":              "table",
	"log_level":           "info",
	"timeout":             adapters.DefaultTimeout,
	"metrics_file":        "",
}

func newViper() *viper.Viper {
	v := viper.NewWithOptions(
		viper.KeyDelimiter("."),
		viper.EnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_")),
	)

	v.SetEnvPrefix(DefaultEnvPrefix)
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	for key, value := range defaults {
		_ = v.BindEnv(key)
		v.SetDefault(key, value)
	}

	return v
}

// loadConfig reads the optional config file, then environment and flags
// bound to v override it.
func loadConfig(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return config, nil
}
