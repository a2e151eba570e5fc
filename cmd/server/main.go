package main

import (
	"github.com/ringmast4r/project147/internal/server"
	"github.com/ringmast4r/project147/internal/util"
	"github.com/ringmast4r/project147/pkg/logger"
	"github.com/ringmast4r/project147/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: util.GetEnvBool("DEBUG", false),
		JSON:  util.GetEnv("LOG_FORMAT") == "json",
	})
	logger.Init(consoleLogger)

	server.Init()
}
