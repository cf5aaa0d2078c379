package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/herald-mq/herald"
	"github.com/herald-mq/herald/config"
)

const banner = `
 _                    _     _
| |__   ___ _ __ __ _| | __| |
| '_ \ / _ \ '__/ _` + "`" + ` | |/ _` + "`" + ` |
| | | |  __/ | | (_| | | (_| |
|_| |_|\___|_|  \__,_|_|\__,_|
`

func main() {
	var (
		help       bool
		verbose    bool
		host       string
		port       int
		transport  string
		configPath string
		metrics    string
	)

	pflag.BoolVarP(&help, "help", "h", false, "Show help message")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "Enable diagnostic logging")
	pflag.StringVar(&host, "host", "127.0.0.1", "Listen host address")
	pflag.IntVarP(&port, "port", "p", 5000, "Listen port")
	pflag.StringVarP(&transport, "transport", "t", "tcp", "Transport kind: tcp, udp or ws")
	pflag.StringVar(&configPath, "config", "", "Path to a YAML or JSON config file")
	pflag.StringVar(&metrics, "metrics", "", "Serve Prometheus metrics on this address")
	pflag.Parse()

	if help {
		fmt.Println("Broker options:")
		pflag.PrintDefaults()
		os.Exit(0)
	}

	if configPath != "" {
		cfg, err := config.FromFile(configPath)
		if err != nil {
			color.Red("Failed to read config: %v", err)
			os.Exit(1)
		}
		if !pflag.CommandLine.Changed("host") && cfg.Host != "" {
			host = cfg.Host
		}
		if !pflag.CommandLine.Changed("port") && cfg.Port != 0 {
			port = cfg.Port
		}
		if !pflag.CommandLine.Changed("transport") && cfg.Transport != "" {
			transport = cfg.Transport
		}
		if !pflag.CommandLine.Changed("metrics") && cfg.Metrics != "" {
			metrics = cfg.Metrics
		}
		verbose = verbose || cfg.Verbose
	}

	color.Cyan(banner)
	fmt.Println("--    Press ctrl+c to exit...    --")

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	server := herald.New(&herald.Options{
		Host:      host,
		Port:      port,
		Transport: transport,
		Logger:    logger,
	})

	if err := server.Setup(); err != nil {
		color.Red("Fatal error: %v", err)
		os.Exit(1)
	}
	color.Green("Broker listening on %s (%s)", server.Address(), transport)

	if metrics != "" {
		server.Info.RegisterPrometheusMetrics(nil)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(metrics, mux); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		logger.Info("serving metrics", "address", metrics)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Serve(ctx); err != nil {
		color.Red("Fatal error: %v", err)
		os.Exit(1)
	}

	color.Yellow("Shutting down broker...")
	server.Close()
}
