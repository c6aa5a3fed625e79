// Package config loads runtime configuration from a config file and from
// environment variables. Environment variables override the file, so
// deployments can tune a setting without shipping a new config.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration.
type Config struct {
	Env          string `mapstructure:"ENV"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`
	HTTPAddr     string `mapstructure:"HTTP_ADDR"`
	SnapshotPath string `mapstructure:"SNAPSHOT_PATH"`
	APIKey       string `mapstructure:"API_KEY"`

	// Low-stock watcher.
	WatchInterval string `mapstructure:"WATCH_INTERVAL"`
}

// Load reads app.env from path (if present) and merges environment variables
// on top. A missing config file is not an error; missing env vars fall back
// to defaults.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("SNAPSHOT_PATH", "stock-engine.db")
	v.SetDefault("API_KEY", "")
	v.SetDefault("WATCH_INTERVAL", "1m")

	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
