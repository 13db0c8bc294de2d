package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Internmain07/I-INTERN/internal/config"
	"github.com/Internmain07/I-INTERN/internal/database"
	"github.com/Internmain07/I-INTERN/internal/logger"
)

const app = "internctl"

var (
	debug bool

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "internctl manages the I-Intern database: admin accounts, cleanup and archiving",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "verbose/debug output")
}

// connect loads the configuration from the environment and opens the database
func connect() (*database.DBinstanceStruct, *config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	log, err := logger.New(cfg.LogJSON, level)
	if err != nil {
		return nil, nil, nil, err
	}
	zap.ReplaceGlobals(log)

	db, err := database.GetMainDB(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return db, cfg, log, nil
}
