package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/rmartins/grana/common/version"
	"github.com/rmartins/grana/internal/grana/app"
	"github.com/rmartins/grana/internal/grana/config"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file (defaults to $GRANA_CONFIG)")
	flag.Parse()

	fmt.Printf("grana finance assistant\n")
	fmt.Printf("Version: %s\n", version.Version)
	fmt.Printf("Commit: %s\n", version.GitCommit)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Println()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	grana, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize grana: %v\n", err)
		os.Exit(1)
	}
	defer grana.Stop()

	if err := grana.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running grana: %v\n", err)
		os.Exit(1)
	}
}
