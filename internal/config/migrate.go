package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// MigrateConfig holds the settings used by the migrate command.
type MigrateConfig struct {
	PGDSN    string
	LogLevel string
}

// LoadMigrate reads only the keys needed to run schema migrations, so a
// partially configured deployment can still migrate its database.
func LoadMigrate(cfgFile string, flags *pflag.FlagSet) (MigrateConfig, error) {
	v := viper.New()
	v.SetDefault("log-level", "info")

	if err := read(v, cfgFile, flags); err != nil {
		return MigrateConfig{}, err
	}

	cfg := MigrateConfig{
		PGDSN:    v.GetString("pg-dsn"),
		LogLevel: v.GetString("log-level"),
	}
	if cfg.PGDSN == "" {
		return MigrateConfig{}, fmt.Errorf("pg-dsn is required")
	}
	return cfg, nil
}
