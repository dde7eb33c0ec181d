package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	clientcmd "github.com/rzbill/taxiway/internal/cmd/client"
	serverrun "github.com/rzbill/taxiway/internal/cmd/server"
	cfgpkg "github.com/rzbill/taxiway/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "taxiway",
		Short:        "taxiway job-queue broker",
		Long:         "taxiway is a single-node in-memory job queue. This CLI runs the server and talks to it.",
		SilenceUsage: true,
	}

	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverCmd.AddCommand(newServerStartCommand())
	rootCmd.AddCommand(serverCmd)

	clientcmd.AddCommands(rootCmd, clientcmd.HTTPURLFromEnv)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServerStartCommand() *cobra.Command {
	startCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the taxiway server",
		Aliases: []string{"run"},
		Long: `Start the taxiway server.

Configuration is resolved from built-in defaults, then --config (JSON), then
.env files and TAXIWAY_* environment variables, then the flags below.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			envFile, _ := cmd.Flags().GetString("env-file")
			cfg, err := serverrun.LoadConfig(configPath, envFile)
			if err != nil {
				return err
			}
			if err := applyFlags(cmd, &cfg); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if err := serverrun.Run(ctx, serverrun.Options{Config: cfg}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	startCmd.Flags().String("config", os.Getenv("TAXIWAY_CONFIG"), "Path to a JSON config file")
	startCmd.Flags().String("env-file", ".env", "Dotenv file loaded before TAXIWAY_* variables (ignored if missing)")
	startCmd.Flags().String("listen", "", "Protocol listen address (default 127.0.0.1:8294)")
	startCmd.Flags().String("http", "", "Admin HTTP listen address, e.g. 127.0.0.1:8295 (disabled when empty)")
	startCmd.Flags().String("grpc", "", "gRPC health listen address, e.g. 127.0.0.1:8296 (disabled when empty)")
	startCmd.Flags().Int("workers", 0, "Concurrent connection handlers (default 32)")
	startCmd.Flags().Duration("ack-timeout", 0, "Time a delivered job may stay unacknowledged (default 30s)")
	startCmd.Flags().Duration("sweep-interval", 0, "Requeue sweeper period (default 30s)")
	startCmd.Flags().Duration("read-timeout", 0, "Per-connection request deadline (default 5s)")
	startCmd.Flags().Int("payload-max-bytes", 0, "Largest accepted payload (default 1 MiB)")
	startCmd.Flags().Bool("no-history", false, "Disable the job history buffer")
	startCmd.Flags().String("history-dir", "", "Keep job history in this directory instead of memory")
	startCmd.Flags().Bool("history-on-disk", false, "Keep job history under the OS application data directory")
	startCmd.Flags().String("history-fsync", "", "WAL sync for on-disk history: always|interval|never (default never)")
	startCmd.Flags().String("log-level", "", "Log level: debug|info|warn|error")
	startCmd.Flags().String("log-format", "", "Log format: text|json")
	return startCmd
}

// applyFlags overlays flags the user set explicitly onto cfg.
func applyFlags(cmd *cobra.Command, cfg *cfgpkg.Config) error {
	f := cmd.Flags()
	if f.Changed("listen") {
		cfg.ListenAddr, _ = f.GetString("listen")
	}
	if f.Changed("http") {
		cfg.HTTPAddr, _ = f.GetString("http")
	}
	if f.Changed("grpc") {
		cfg.GRPCAddr, _ = f.GetString("grpc")
	}
	if f.Changed("workers") {
		cfg.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("ack-timeout") {
		d, _ := f.GetDuration("ack-timeout")
		cfg.AckTimeoutMs = d.Milliseconds()
	}
	if f.Changed("sweep-interval") {
		d, _ := f.GetDuration("sweep-interval")
		cfg.SweepIntervalMs = d.Milliseconds()
	}
	if f.Changed("read-timeout") {
		d, _ := f.GetDuration("read-timeout")
		cfg.ReadTimeoutMs = d.Milliseconds()
	}
	if f.Changed("payload-max-bytes") {
		cfg.PayloadMaxBytes, _ = f.GetInt("payload-max-bytes")
	}
	if noHistory, _ := f.GetBool("no-history"); noHistory {
		cfg.History.Enabled = false
	}
	if f.Changed("history-dir") {
		cfg.History.DataDir, _ = f.GetString("history-dir")
	} else if onDisk, _ := f.GetBool("history-on-disk"); onDisk && cfg.History.DataDir == "" {
		cfg.History.DataDir = filepath.Join(cfgpkg.DefaultDataDir(), "history")
	}
	if f.Changed("history-fsync") {
		cfg.History.Fsync, _ = f.GetString("history-fsync")
	}
	if f.Changed("log-level") {
		cfg.Log.Level, _ = f.GetString("log-level")
	}
	if f.Changed("log-format") {
		cfg.Log.Format, _ = f.GetString("log-format")
	}
	return cfg.Validate()
}
