package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spendlens/spendlens/internal/logger"
	"github.com/spendlens/spendlens/internal/pipeline"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "categorize":
		runCategorize(log)
	case "statement":
		runStatement(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("SpendLens CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  categorize  Categorize a JSON file of transactions")
	fmt.Println("  statement   Parse and categorize a local statement PDF")
	fmt.Println("  help        Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func newService(ctx context.Context, model string, log zerolog.Logger) *pipeline.Service {
	client, err := pipeline.NewGeminiClient(ctx, model)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create model client")
	}
	return pipeline.NewService(client, nil, log)
}

func runCategorize(log zerolog.Logger) {
	fs := flag.NewFlagSet("categorize", flag.ExitOnError)
	file := fs.String("file", "", "Path to a JSON array of transactions")
	model := fs.String("model", "", "Gemini model name (default "+pipeline.DefaultModelName+")")
	fs.Parse(os.Args[2:])

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Missing required flag: -file")
		fs.Usage()
		os.Exit(1)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to read transactions file")
	}

	var txs []pipeline.Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		log.Fatal().Err(err).Msg("Transactions file is not a JSON array of transactions")
	}
	if len(txs) == 0 {
		log.Fatal().Msg("Transactions file is empty")
	}

	ctx := context.Background()
	svc := newService(ctx, *model, log)

	result, err := svc.CategorizeTransactions(ctx, txs)
	if err != nil {
		log.Fatal().Err(err).Msg("Categorization failed")
	}

	printResult(result)
}

func runStatement(log zerolog.Logger) {
	fs := flag.NewFlagSet("statement", flag.ExitOnError)
	file := fs.String("file", "", "Path to a statement PDF")
	model := fs.String("model", "", "Gemini model name (default "+pipeline.DefaultModelName+")")
	fs.Parse(os.Args[2:])

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Missing required flag: -file")
		fs.Usage()
		os.Exit(1)
	}

	document, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to read statement file")
	}

	ctx := context.Background()
	svc := newService(ctx, *model, log)

	result, err := svc.CategorizeStatement(ctx, document)
	if err != nil {
		log.Fatal().Err(err).Msg("Statement categorization failed")
	}

	printResult(result)
}

func printResult(result *pipeline.CategorizationResult) {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
