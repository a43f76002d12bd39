package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	SourceSubgraph = "subgraph"
	SourceRPC      = "rpc"

	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Source           string
	SubgraphURL      string
	RPCURL           string
	TokenAddress     string
	PGDSN            string
	Store            string
	PollInterval     time.Duration
	SnapshotInterval time.Duration
	PageSize         int
	BatchSize        uint64
	MaxRetries       int
	RetryBackoff     time.Duration
	RateLimit        float64
	HoldOnError      bool
	DeadLetter       string
	AlertCooldown    time.Duration
	Listen           string
	LogLevel         string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetDefault("source", SourceSubgraph)
	v.SetDefault("store", StorePostgres)
	v.SetDefault("poll-interval", 30*time.Second)
	v.SetDefault("snapshot-interval", 5*time.Minute)
	v.SetDefault("page-size", 100)
	v.SetDefault("batch-size", uint64(2000))
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("rate-limit", 10.0)
	v.SetDefault("hold-on-error", true)
	v.SetDefault("dead-letter", "./data/dead_letter.jsonl")
	v.SetDefault("alert-cooldown", 5*time.Minute)
	v.SetDefault("listen", ":4000")
	v.SetDefault("log-level", "info")

	if err := read(v, cfgFile, flags); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Source:           strings.ToLower(strings.TrimSpace(v.GetString("source"))),
		SubgraphURL:      v.GetString("subgraph-url"),
		RPCURL:           v.GetString("rpc"),
		TokenAddress:     strings.TrimSpace(v.GetString("token-address")),
		PGDSN:            v.GetString("pg-dsn"),
		Store:            strings.ToLower(strings.TrimSpace(v.GetString("store"))),
		PollInterval:     v.GetDuration("poll-interval"),
		SnapshotInterval: v.GetDuration("snapshot-interval"),
		PageSize:         v.GetInt("page-size"),
		BatchSize:        v.GetUint64("batch-size"),
		MaxRetries:       v.GetInt("max-retries"),
		RetryBackoff:     v.GetDuration("retry-backoff"),
		RateLimit:        v.GetFloat64("rate-limit"),
		HoldOnError:      v.GetBool("hold-on-error"),
		DeadLetter:       v.GetString("dead-letter"),
		AlertCooldown:    v.GetDuration("alert-cooldown"),
		Listen:           v.GetString("listen"),
		LogLevel:         v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks the settings needed by the run command.
func (c Config) Validate() error {
	var errs []error

	switch c.Source {
	case SourceSubgraph:
		if c.SubgraphURL == "" {
			errs = append(errs, errors.New("subgraph-url is required for the subgraph source"))
		}
		if c.PageSize <= 0 {
			errs = append(errs, errors.New("page-size must be greater than zero"))
		}
	case SourceRPC:
		if c.RPCURL == "" {
			errs = append(errs, errors.New("rpc is required for the rpc source"))
		}
		if c.TokenAddress == "" {
			errs = append(errs, errors.New("token-address is required for the rpc source"))
		}
		if c.BatchSize == 0 {
			errs = append(errs, errors.New("batch-size must be greater than zero"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source %q", c.Source))
	}

	switch c.Store {
	case StorePostgres:
		if c.PGDSN == "" {
			errs = append(errs, errors.New("pg-dsn is required for the postgres store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}

	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("poll-interval must be greater than zero"))
	}
	if c.SnapshotInterval <= 0 {
		errs = append(errs, errors.New("snapshot-interval must be greater than zero"))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("max-retries must not be negative"))
	}

	return errors.Join(errs...)
}

// read binds env and flags and loads the config file into v.
func read(v *viper.Viper, cfgFile string, flags *pflag.FlagSet) error {
	v.SetEnvPrefix("INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}
