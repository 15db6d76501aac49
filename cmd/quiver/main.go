package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/quiver-seismic/quiver/internal/app"
	"github.com/quiver-seismic/quiver/internal/constants"
	"github.com/quiver-seismic/quiver/internal/log"
	"github.com/quiver-seismic/quiver/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "quiver.yaml", "Path to configuration source:\n\t\t\t  YAML: quiver.yaml\n\t\t\t  SQLite: quiver.db\n\t\t\t  Use 'config-convert' tool to convert YAML→SQLite")
	cfgBackend := flag.String("config-backend", config.BackendYAML, "Configuration backend type: 'yaml' for YAML files, 'sqlite' for SQLite databases")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	logFile := flag.String("log-file", "", "Also write JSON logs to this file, rotated by size")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("quiver %s\n", constants.Version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(log.Options{Debug: *debug, File: *logFile}); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Load configuration
	cfgData, err := config.Load(*cfgBackend, *cfgFile)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	// Create and run the application
	application := app.New(cfgData, log.GetSugaredLogger())
	if err := application.Run(context.Background()); err != nil {
		log.Errorf("Application error: %v", err)
		os.Exit(1)
	}
}
