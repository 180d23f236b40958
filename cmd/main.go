package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"redmine-mcp/internal/client"
	"redmine-mcp/internal/config"
	"redmine-mcp/internal/handler"
	"redmine-mcp/internal/logging"
	"redmine-mcp/internal/metrics"
)

var version = "dev"

// flagKeys binds command-line flags to configuration keys.
var flagKeys = map[string]string{
	"url":          "url",
	"api-key":      "api_key",
	"log-level":    "log_level",
	"log-format":   "log_format",
	"log-file":     "log_file",
	"metrics-addr": "metrics_addr",
	"timeout":      "timeout",
	"read-only":    "read_only",
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.NewViper()
	var envFile string

	cmd := &cobra.Command{
		Use:           "redmine-mcp",
		Short:         "MCP server for Redmine issues over stdio",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), v, envFile)
		},
	}

	f := cmd.Flags()
	f.String("url", "", "Redmine base URL (REDMINE_URL)")
	f.String("api-key", "", "Redmine API key (REDMINE_API_KEY)")
	f.StringVar(&envFile, "env-file", "", "path to a .env file (default: .env next to the binary)")
	f.String("log-level", "info", "log level: debug, info, warn, error")
	f.String("log-format", "text", "log format: text or json")
	f.String("log-file", "", "also write logs to this file")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	f.Duration("timeout", config.DefaultTimeout, "Redmine request timeout")
	f.Bool("read-only", false, "only offer the redmine_read tool")

	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, f.Lookup(flag)); err != nil {
			panic(err)
		}
	}
	return cmd
}

func run(ctx context.Context, v *viper.Viper, envFile string) error {
	if envFile == "" {
		path, err := config.DefaultEnvPath()
		if err != nil {
			return err
		}
		envFile = path
	}
	if err := config.LoadEnvFile(envFile); err != nil {
		return err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	logFile, err := logging.Setup(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				logrus.WithError(err).Error("metrics server stopped")
			}
		}()
	}

	logrus.WithFields(logrus.Fields{
		"url":       cfg.URL,
		"read_only": cfg.ReadOnly,
		"version":   version,
	}).Info("starting redmine-mcp")

	h := handler.New(client.New(cfg.URL, cfg.APIKey, cfg.Timeout), cfg.ReadOnly)
	s := handler.NewServer(h, version)

	stdio := server.NewStdioServer(s)
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logrus.Info("redmine-mcp stopped")
	return nil
}
