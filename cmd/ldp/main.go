package main

import (
	"os"

	"github.com/poeticinspiired/llm-data-pipeline/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
