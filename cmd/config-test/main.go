package main

import (
	"flag"
	"fmt"
	"os"
	"reflect"

	"github.com/quiver-seismic/quiver/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite configuration file")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <quiver.yaml> -sqlite <quiver.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("Configuration Comparison Test")
	fmt.Println("===========================")

	fmt.Printf("Loading YAML configuration: %s\n", *yamlFile)
	yamlConfig, err := config.NewYAMLProvider(*yamlFile).LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loading SQLite configuration: %s\n", *sqliteFile)
	sqliteProvider, err := config.NewSQLiteProvider(*sqliteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating SQLite provider: %v\n", err)
		os.Exit(1)
	}
	defer sqliteProvider.Close()

	sqliteConfig, err := sqliteProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading SQLite config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nComparison Results:")
	fmt.Println("==================")

	ok := report("Data directory", yamlConfig.Data, sqliteConfig.Data)
	ok = report("Server", yamlConfig.Server, sqliteConfig.Server) && ok

	fmt.Printf("\nBodies - YAML: %d, SQLite: %d\n", len(yamlConfig.Bodies), len(sqliteConfig.Bodies))
	for _, yb := range yamlConfig.Bodies {
		sb, found := sqliteConfig.Body(yb.Name)
		if !found {
			fmt.Printf("✗ Body %s missing from SQLite\n", yb.Name)
			ok = false
			continue
		}
		ok = report("Body "+yb.Name, yb, sb) && ok
	}
	for _, sb := range sqliteConfig.Bodies {
		if _, found := yamlConfig.Body(sb.Name); !found {
			fmt.Printf("✗ Body %s missing from YAML\n", sb.Name)
			ok = false
		}
	}

	fmt.Println("\nValidation:")
	for name, c := range map[string]*config.ConfigData{"YAML": yamlConfig, "SQLite": sqliteConfig} {
		if err := c.Validate(); err != nil {
			fmt.Printf("✗ %s configuration is invalid:\n%v\n", name, err)
			ok = false
		} else {
			fmt.Printf("✓ %s configuration is valid\n", name)
		}
	}

	if !ok {
		fmt.Println("\nConfigurations differ")
		os.Exit(1)
	}
	fmt.Println("\nConfigurations match")
}

func report(what string, yamlValue, sqliteValue any) bool {
	if reflect.DeepEqual(yamlValue, sqliteValue) {
		fmt.Printf("✓ %s matches\n", what)
		return true
	}
	fmt.Printf("✗ %s differs\n", what)
	fmt.Printf("  YAML:   %+v\n", yamlValue)
	fmt.Printf("  SQLite: %+v\n", sqliteValue)
	return false
}
