package main

import (
	"context"
	"flag"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"gostrag/internal/config"
	"gostrag/internal/rag"
	"gostrag/internal/tui"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "config.yaml", "Path to config YAML")
	flag.Parse()

	logger := logrus.New()
	// Keep the TUI clean: only failures reach the terminal.
	logger.SetLevel(logrus.ErrorLevel)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	sys, err := rag.NewFromConfig(cfg, logger)
	if err != nil {
		log.Fatalf("failed to assemble rag system: %v", err)
	}
	defer sys.Close()
	if err := sys.Initialize(context.Background(), false); err != nil {
		log.Fatalf("initialization failed: %v", err)
	}

	m := tui.New(sys)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}
