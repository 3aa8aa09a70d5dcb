package main

import (
	"context"
	"flag"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"gostrag/internal/config"
	"gostrag/internal/rag"
	"gostrag/internal/server"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "config.yaml", "Path to config YAML")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(*logLevel); err == nil {
		logger.SetLevel(lvl)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}

	sys, err := rag.NewFromConfig(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to assemble rag system: %v", err)
	}
	defer sys.Close()

	// The server still comes up when initialization fails so that
	// /health can report the degraded state.
	if err := sys.Initialize(context.Background(), false); err != nil {
		logger.WithError(err).Error("initialization failed, serving degraded")
	}

	srv := server.New(sys, logger)
	if err := srv.Run(cfg.Server.Addr); err != nil {
		logger.Fatal(err)
	}
}
