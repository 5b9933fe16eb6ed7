package main

import (
	"os"

	"github.com/OFFIS-RIT/dramatis/internal/util"
	"github.com/OFFIS-RIT/dramatis/pkg/logger"
	"github.com/OFFIS-RIT/dramatis/pkg/logger/console"
)

func main() {
	util.LoadEnv()
	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: util.GetEnvBool("DEBUG", false),
	}))

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
