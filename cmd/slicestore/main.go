package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/slicestore/internal/config"
	apperrors "github.com/vango-dev/slicestore/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cliOptions are the persistent flags shared by every command.
type cliOptions struct {
	logLevel string
	cfg      *config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		apperrors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:   "slicestore",
		Short: "A predictable state container with named slices",
		Long: `slicestore keeps application state in one store, split into named
slices. Every change is an action routed to the slice it targets.

It can serve a store over HTTP and WebSocket, drive a terminal todo list,
or replay a file of actions and print the resulting state.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" || cmd.Name() == "init" {
				return nil
			}
			return opts.load()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from slicestore.json)")

	rootCmd.AddCommand(
		serveCmd(opts),
		tuiCmd(opts),
		replayCmd(opts),
		initCmd(),
		versionCmd(),
	)
	return rootCmd
}

// load reads slicestore.json, applies flag overrides and installs the
// default logger.
func (o *cliOptions) load() error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
		if _, err := cfg.Log.SlogLevel(); err != nil {
			return apperrors.New("S002").
				WithDetail(fmt.Sprintf("Invalid value %q for --log-level.", o.logLevel)).
				WithSuggestion("Use debug, info, warn or error")
		}
	}
	o.cfg = cfg
	slog.SetDefault(cfg.Log.NewLogger(os.Stderr))
	return nil
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
