// Package main is the entry point for the desk CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "desk",
		Short:   "AgentDesk: a terminal workspace for agent requests",
		Version: version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeWorkspace(flagsFrom(cmd))
		},
	}
	root.PersistentFlags().String("config", "", "path to desk.toml (default: search up from the working directory)")
	root.PersistentFlags().String("engine", engineResponses, "execution engine: responses or echo")

	root.AddCommand(
		askCmd(),
		initCmd(),
		sessionsCmd(),
	)

	return root
}

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	engine     string
}

func flagsFrom(cmd *cobra.Command) globalFlags {
	path, _ := cmd.Flags().GetString("config")
	eng, _ := cmd.Flags().GetString("engine")
	return globalFlags{configPath: path, engine: eng}
}

// signalContext returns a context that is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigs:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigs)
	}()
	return ctx, cancel
}
