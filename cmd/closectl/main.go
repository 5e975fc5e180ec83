package main

import (
	"fmt"
	"os"

	"github.com/erp-period-closing/internal/closectl"
	"github.com/erp-period-closing/internal/config"
)

func main() {
	cfg, err := config.LoadConfig("closectl")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := closectl.NewRootCommand(closectl.NewStoreBackend(cfg)).Execute(); err != nil {
		os.Exit(1)
	}
}
