package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"gostrag/internal/config"
	"gostrag/internal/rag"
)

const usage = `Usage: gostrag [--config=config.yaml] [--log-level=info] <command> [flags]

Commands:
  index    --input=PATH [--create-new]      index documents from a file or directory
  query    --question=TEXT [--output=FILE]  answer a question grounded in the indexed documents
  extract  [--class-name=C235] [--output=FILE]
                                            extract structured data for a steel strength class
  stats                                     print collection and pipeline stats
`

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "config.yaml", "Path to config YAML")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		fmt.Print(usage)
		os.Exit(1)
	}

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

	if err := run(args, cfg, logger); err != nil {
		logger.Fatal(err)
	}
}

func run(args []string, cfg *config.Config, logger *logrus.Logger) error {
	ctx := context.Background()

	switch args[0] {
	case "index":
		fs := flag.NewFlagSet("index", flag.ExitOnError)
		input := fs.String("input", "", "File or directory with documents to index")
		createNew := fs.Bool("create-new", false, "Drop and recreate the collection first")
		_ = fs.Parse(args[1:])
		if *input == "" {
			return fmt.Errorf("index: --input is required")
		}

		sys, err := rag.NewFromConfig(cfg, logger)
		if err != nil {
			return err
		}
		defer sys.Close()
		if err := sys.Initialize(ctx, *createNew); err != nil {
			return err
		}
		n, err := sys.Index(ctx, *input)
		if err != nil {
			return err
		}
		fmt.Printf("Indexed %d chunks into %s\n", n, cfg.VectorStore.Collection)
		return nil

	case "query":
		fs := flag.NewFlagSet("query", flag.ExitOnError)
		question := fs.String("question", "", "Question to answer")
		output := fs.String("output", "", "Write the answer as JSON to this file")
		_ = fs.Parse(args[1:])
		if *question == "" {
			return fmt.Errorf("query: --question is required")
		}

		sys, err := rag.NewFromConfig(cfg, logger)
		if err != nil {
			return err
		}
		defer sys.Close()
		if err := sys.Initialize(ctx, false); err != nil {
			return err
		}
		answer, err := sys.Answer(ctx, *question)
		if err != nil {
			return err
		}
		return emit(answer, *output)

	case "extract":
		fs := flag.NewFlagSet("extract", flag.ExitOnError)
		className := fs.String("class-name", "C235", "Steel strength class to extract data for")
		output := fs.String("output", "", "Write the extraction as JSON to this file (default: data_processed/<class>_info.json)")
		_ = fs.Parse(args[1:])
		if *output == "" {
			*output = extractOutputPath(*className)
		}

		sys, err := rag.NewFromConfig(cfg, logger)
		if err != nil {
			return err
		}
		defer sys.Close()
		if err := sys.Initialize(ctx, false); err != nil {
			return err
		}
		answer, err := sys.Extract(ctx, *className)
		if err != nil {
			return err
		}
		if err := emit(answer, *output); err != nil {
			return err
		}
		fmt.Printf("Extraction written to %s\n", *output)
		return nil

	case "stats":
		sys, err := rag.NewFromConfig(cfg, logger)
		if err != nil {
			return err
		}
		defer sys.Close()
		if err := sys.Initialize(ctx, false); err != nil {
			return err
		}
		stats, err := sys.Stats(ctx)
		if err != nil {
			return err
		}
		return emit(stats, "")

	default:
		fmt.Print(usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// processedDataDir collects extraction results, mirroring the layout
// expected by downstream tooling.
const processedDataDir = "data_processed"

func extractOutputPath(className string) string {
	return filepath.Join(processedDataDir, className+"_info.json")
}

// emit prints v as indented JSON to stdout, or to path when given,
// creating parent directories as needed.
func emit(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Println(string(data))
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
