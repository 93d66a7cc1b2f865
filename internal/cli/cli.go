// Package cli implements the wordsearch command-line interface.
//
// Commands:
//   - serve: run the HTTP API
//   - generate: print a puzzle for a word list, optionally with its solution
//   - version: print build information
//
// Every command accepts --config (a TOML file) and --log-level. The logger
// travels in the command context; use zerolog.Ctx to reach it.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	version = "dev" // semantic version, see SetVersion
	commit  string  // git commit SHA
	date    string  // build timestamp
)

// SetVersion records build information for --version and `version`.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// globalOpts are the flags shared by every command.
type globalOpts struct {
	configPath string
	logLevel   string
}

// Execute runs the CLI with os.Args and returns the first command error.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var g globalOpts

	root := &cobra.Command{
		Use:          "wordsearch",
		Short:        "Word-search puzzle generator and game server",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), g.logLevel)
			if err != nil {
				return err
			}
			log.Logger = logger
			cmd.SetContext(logger.WithContext(cmd.Context()))
			return nil
		},
	}

	root.SetVersionTemplate(versionString() + "\n")
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "TOML config file (env WORDSEARCH_CONFIG)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)")

	root.AddCommand(newServeCmd(&g))
	root.AddCommand(newGenerateCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// newLogger returns a console logger at level. An empty level falls back
// to LOG_LEVEL, then info.
func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		level = "info"
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level: %w", err)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(lvl).
		With().Timestamp().Logger(), nil
}

func versionString() string {
	s := "wordsearch " + version
	if commit != "" {
		s += "\ncommit: " + commit
	}
	if date != "" {
		s += "\nbuilt: " + date
	}
	return s
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), versionString())
			return err
		},
	}
}
