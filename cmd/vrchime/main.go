package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot(os.Stdout)
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRoot creates the root command writing command output to out.
func buildRoot(out io.Writer) *cobra.Command {
	root, _ := newRoot(out)
	return root
}

func newRoot(out io.Writer) (*cobra.Command, *command) {
	globalFlags := &GlobalFlags{}
	c := &command{global: globalFlags, out: out}

	root := createRootCommand(globalFlags)
	root.SetOut(out)
	root.AddCommand(
		createConfigCommand(c),
		createVersionCommand(c),
		createLaunchCommand(c, &LaunchFlags{}),
		createHistoryCommand(c, &HistoryFlags{}),
		createServeCommand(c, &ServeFlags{}),
	)
	return root, c
}

// createRootCommand creates the root command with minimal persistent flags
func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "vrchime",
		Short: "Launch multiple VRChat instances with a local world",
		Long: `vrchime resolves where VRChat is installed and launches one or more
instances that open a locally built world file.

Examples:
  vrchime config
  vrchime launch --file=./world.vrcw --count=2
  vrchime serve                                    # HTTP API
  vrchime launch --file=w.vrcw --api-url=http://host:8080/api`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML settings file (optional)")
	root.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "log level override (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flags.APIUrl, "api-url", "", "remote server URL (e.g. http://host:8080/api)")
	root.PersistentFlags().DurationVar(&flags.APITimeout, "api-timeout", 10*time.Second, "request timeout")

	return root
}

func createConfigCommand(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		Long: `Print the install path in its persisted YAML form.
The path comes from the saved config file, then the registry, else it is empty.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Config(cmd.Context())
		},
	}
}

func createVersionCommand(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Version(cmd.Context())
		},
	}
}

func createLaunchCommand(c *command, flags *LaunchFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Launch VRChat instances",
		Long: `Launch --count instances of VRChat, each opening --file.
The install path is saved for the next run once it is confirmed to exist.

Examples:
  vrchime launch --file=./world.vrcw
  vrchime launch --game-path="C:\Games\VRChat\VRChat.exe" --file=w.vrcw --count=3
  vrchime launch --file="C:\My Worlds\w.vrcw" --arg-mode=exact`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Launch(cmd.Context(), *flags)
		},
	}
	cmd.Flags().StringVar(&flags.GamePath, "game-path", "", "path to VRChat.exe (defaults to the resolved configuration)")
	cmd.Flags().StringVar(&flags.File, "file", "", "world file to open (required)")
	cmd.Flags().Uint32Var(&flags.Count, "count", 1, "number of instances")
	cmd.Flags().StringVar(&flags.ArgMode, "arg-mode", "", "argument mode: legacy or exact (defaults to settings)")
	return cmd
}

func createHistoryCommand(c *command, flags *HistoryFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent launch events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.History(cmd.Context(), *flags)
		},
	}
	cmd.Flags().IntVar(&flags.Limit, "limit", 20, "maximum number of events")
	return cmd
}

func createServeCommand(c *command, flags *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API until interrupted. Spawned instances are reaped in
the background. When [metrics].listen is set, /metrics is served there.

Examples:
  vrchime serve
  vrchime serve --listen=127.0.0.1:9000 --metrics-listen=127.0.0.1:9100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Serve(cmd.Context(), *flags)
		},
	}
	cmd.Flags().StringVar(&flags.Listen, "listen", "", "API listen address (overrides [server].listen)")
	cmd.Flags().StringVar(&flags.BasePath, "base-path", "", "API base path (overrides [server].base_path)")
	cmd.Flags().StringVar(&flags.MetricsListen, "metrics-listen", "", "metrics listen address (overrides [metrics].listen)")
	return cmd
}
