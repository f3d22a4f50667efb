package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abrezinsky/tokenvote/internal/config"
	"github.com/abrezinsky/tokenvote/internal/logger"
)

const programName = "tokenvote"

var version = "dev"

var globalFlags = struct {
	configFile string
	debug      bool
	listen     string
	dbPath     string
}{}

type configKey struct{}

func configFromContext(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(configKey{}).(*config.Config)
	return cfg
}

// loadConfig layers command-line flags over the file and environment
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(globalFlags.configFile)
	if err != nil {
		return nil, err
	}
	if globalFlags.listen != "" {
		cfg.ListenAddress = globalFlags.listen
	}
	if globalFlags.dbPath != "" {
		cfg.DatabasePath = globalFlags.dbPath
	}
	if globalFlags.debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func commonRun(cfg *config.Config) *logger.SlogLogger {
	log := logger.NewWithOptions(cfg.LoggerOptions())
	log.Info("Starting "+programName, "version", version)
	return log
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version and exit",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", programName, version)
		},
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:          programName,
		Short:        "Token-weighted campaign voting server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd, configFromContext(cmd.Context()))
		},
	}

	rootCmd.PersistentFlags().StringVar(&globalFlags.configFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&globalFlags.listen, "listen", "", "HTTP listen address (default :8081)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.dbPath, "db", "", "SQLite database path (default tokenvote.db)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
		return nil
	}

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(sweepCommand())
	rootCmd.AddCommand(versionCommand())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
