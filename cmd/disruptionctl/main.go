package main

import (
	"os"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/logger"
)

func main() {
	defer logger.Sync()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
