package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atinyakov/rollcall/internal/client/prompt"
	"github.com/atinyakov/rollcall/internal/client/records"
	"github.com/atinyakov/rollcall/internal/client/session"
	"github.com/atinyakov/rollcall/internal/client/transport"
	"github.com/atinyakov/rollcall/internal/client/upload"
	"github.com/atinyakov/rollcall/internal/config"
	"github.com/atinyakov/rollcall/internal/logger"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// flags holds command-line overrides of the client config.
var flags struct {
	configPath string
	baseURL    string
	caFile     string
	timeout    time.Duration
}

// app is built by the root command's pre-run and shared by subcommands.
var app struct {
	options   *config.ClientOptions
	log       *logger.Logger
	transport *transport.Client
}

var rootCmd = &cobra.Command{
	Use:           "rollcall",
	Short:         "Group photo attendance client",
	Version:       cmp.Or(version, "N/A"),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		options, err := config.LoadClient(flags.configPath)
		if err != nil {
			return err
		}
		if flags.baseURL != "" {
			options.BaseURL = flags.baseURL
		}
		if flags.caFile != "" {
			options.CAFile = flags.caFile
		}
		if flags.timeout > 0 {
			options.Timeout = config.Duration(flags.timeout)
		}

		log := logger.New()
		if err := log.Init(options.LogLevel); err != nil {
			return err
		}

		t, err := transport.New(transport.Options{
			BaseURL: options.BaseURL,
			CAFile:  options.CAFile,
			Timeout: time.Duration(options.Timeout),
		})
		if err != nil {
			return fmt.Errorf("failed to create client: %w", err)
		}

		app.options = options
		app.log = log
		app.transport = t
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app.log != nil {
			_ = app.log.Log.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShell(cmd)
	},
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start the interactive attendance shell",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShell(cmd)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build metadata",
	// Overrides the root pre-run: no config or network is needed.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Build version: %s\n", cmp.Or(version, "N/A"))
		fmt.Fprintf(cmd.OutOrStdout(), "Build date: %s\n", cmp.Or(buildDate, "N/A"))
	},
}

func runShell(cmd *cobra.Command) error {
	log := app.log.Log
	sessions := session.NewManager(app.transport, log.Named("session"))
	sh := &shell{
		prompt:   prompt.New(os.Stdin, cmd.OutOrStdout()),
		out:      cmd.OutOrStdout(),
		session:  sessions,
		workflow: upload.NewWorkflow(app.transport, sessions, log.Named("upload")),
		records:  records.New(app.transport, sessions, log.Named("records")),
		timeout:  time.Duration(app.options.Timeout),
		service:  app.transport.BaseURL(),
	}
	log.Debug("starting shell", zap.String("base_url", sh.service))
	sh.run(cmd.Context())
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "client.json", "path to client config file")
	rootCmd.PersistentFlags().StringVar(&flags.baseURL, "url", "", "service API root (default http://localhost:8080/api)")
	rootCmd.PersistentFlags().StringVar(&flags.caFile, "ca", "", "CA bundle trusted for HTTPS")
	rootCmd.PersistentFlags().DurationVar(&flags.timeout, "timeout", 0, "per-request timeout (default 30s)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	rootCmd.AddCommand(shellCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
