package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/clearhub/invoice_monitor/monitor"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	addr := flag.String("addr", ":8080", "Address for the HTTP API to listen on")
	logLevel := flag.String("log-level", "INFO", "Set the logging level")
	logFormat := flag.String("log-format", "json", "Set the log output format")
	configPath := flag.String("config", "config.toml", "Path to the config file")
	invoicesFile := flag.String("invoices-file", "", "Enrich invoices from a local JSON dump and print the table. If provided, the server is not started.")
	flag.Parse()

	// Set up logging
	if *logFormat == "console" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		output.FormatLevel = func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
		}
		log.Logger = log.Output(output)
	}

	// Set log level
	switch strings.TrimSpace(strings.ToUpper(*logLevel)) {
	case "DEBUG":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "INFO":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "WARN":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "ERROR":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := &monitor.Config{}
	if _, err := os.Stat(*configPath); err == nil {
		cfg = monitor.MustLoadConfig(*configPath)
	} else {
		log.Logger.Warn().Str("config", *configPath).Msg("config file not found -- using defaults")
	}

	m := monitor.NewMonitor(cfg, &log.Logger)

	// this can be done via subcommands
	if *invoicesFile != "" {
		batch, err := m.EnrichFromFile(*invoicesFile, time.Now().UnixMilli())
		if err != nil {
			log.Logger.Error().Err(err).Msg("failed to enrich invoices from file")
			return
		}
		fmt.Print(batch.Tabular)
		log.Logger.Info().Int("invoices", len(batch.Simplified)).Msg("enriched invoices from file")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info().Msg("shutdown signal received")
		cancel()
	}()

	log.Logger.Info().Str("addr", *addr).Msg("starting invoice monitor API")
	server := monitor.NewServer(m)
	if err := server.RunWithContext(ctx, *addr); err != nil {
		log.Fatal().Err(err).Send()
	}
	log.Logger.Info().Msg("server stopped")
}
