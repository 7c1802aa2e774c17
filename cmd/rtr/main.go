// Command rtr runs the real-time rendering demos.
package main

import (
	"fmt"
	"os"

	"github.com/gopxl/mainthread/v2"
	"go.uber.org/zap"

	"github.com/Faultbox/rtr-gl/internal/app"
	"github.com/Faultbox/rtr-gl/internal/config"
	"github.com/Faultbox/rtr-gl/internal/logger"
)

// exitStartupFailure is what a C program returning -1 from main exits with.
const exitStartupFailure = 255

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(exitStartupFailure)
	}

	fileCfg := logger.FileConfig{}
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
		fileCfg.JSON = cfg.Logging.JSON
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, true); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(exitStartupFailure)
	}

	logger.Info("=== rtr ===", zap.String("demo", cfg.Demo.Name))
	logger.Sugar.Debugf("Config: %+v", cfg)

	code := 0
	// SDL and GL calls must come from the main OS thread
	mainthread.Run(func() {
		code = run(cfg)
	})
	logger.Sync()
	os.Exit(code)
}

func run(cfg *config.Config) int {
	var (
		a   *app.App
		err error
	)
	mainthread.Call(func() {
		a, err = app.New(cfg)
	})
	if err != nil {
		logger.Error("failed to start", zap.Error(err))
		return exitStartupFailure
	}
	defer mainthread.Call(a.Close)

	mainthread.Call(func() {
		err = a.Run()
	})
	if err != nil {
		logger.Error("frame loop error", zap.Error(err))
		return 1
	}

	logger.Info("closed normally")
	return 0
}
