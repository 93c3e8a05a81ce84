package main

import (
	"os"

	"github.com/bassista/go_discover/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.WithComponent("main").Debugf("exiting: %v", err)
		os.Exit(1)
	}
}
