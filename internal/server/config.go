package server

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/switchdeck/switchdeck/internal/config"
)

// LoadConfig builds the server configuration from defaults, the SWITCHDECK_*
// environment, and an optional config file. Environment variables override
// file values; the file overrides defaults.
func LoadConfig(path string) (*config.Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("store.path", ":memory:")
	v.SetDefault("catalog.seed_defaults", true)

	v.SetEnvPrefix("SWITCHDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	return config.New(v), nil
}
