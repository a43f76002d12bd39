package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tokenMirror/internal/config"
	"tokenMirror/internal/storage/postgres"
)

func runMigrate(up bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		cfg, err := config.LoadMigrate(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}

		logger, err := newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer logger.Sync()

		n := 0
		if len(args) == 1 {
			n, err = strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("migration count must be a positive integer, got %q", args[0])
			}
		}

		if up {
			return postgres.MigrateUp(cfg.PGDSN, n, logger)
		}
		return postgres.MigrateDown(cfg.PGDSN, n, logger)
	}
}
