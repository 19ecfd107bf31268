package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

// Persistent flag values.
var (
	flagEnvFile   string
	flagLogLevel  string
	flagLogFormat string
	flagContent   string
	flagOutput    string
)

var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "sitegen",
	Short: "sitegen builds a static blog from Markdown articles",
	Long: `sitegen turns a directory of Markdown articles with YAML front matter
into a static site: paginated listings, article pages, RSS, JSON Feed and a
sitemap. It can also serve the same site over HTTP with a newsletter signup
endpoint.

Usage:
  sitegen build [flags]
  sitegen serve [flags]
  sitegen new <name>`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnv(flagEnvFile); err != nil {
			return err
		}
		return setupLogger(log, EnvOrFlag(cmd, "log-level", flagLogLevel, "LOG_LEVEL"), EnvOrFlag(cmd, "log-format", flagLogFormat, "LOG_FORMAT"))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "Environment file to load if present")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text or json)")
	rootCmd.PersistentFlags().StringVar(&flagContent, "content", "", "Content directory (overrides CONTENT_DIR)")
	rootCmd.PersistentFlags().StringVar(&flagOutput, "output", "", "Output directory (overrides OUTPUT_DIR)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogger(l *logrus.Logger, level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	l.SetLevel(lvl)
	l.SetOutput(os.Stderr)
	switch format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("invalid log format %q", format)
	}
	return nil
}
