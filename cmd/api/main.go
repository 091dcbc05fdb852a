package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"cellsim/internal/api"
	"cellsim/internal/config"
	"cellsim/internal/logging"
	"cellsim/internal/report"
	"cellsim/internal/runs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	cfgFile := flag.String("config", "", "Optional server config file (yaml/json/toml)")
	thresholdsFile := flag.String("thresholds", "", "Optional YAML file with alert thresholds")
	flag.Parse()

	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	settings, err := config.LoadServer(*cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load server config: %v\n", err)
		os.Exit(1)
	}
	logging.Configure(os.Stderr, settings.LogLevel)
	log := logging.Logger

	thresholds := report.DefaultThresholds()
	if *thresholdsFile != "" {
		t, err := config.LoadThresholds(*thresholdsFile)
		if err != nil {
			log.Error("load thresholds", "file", *thresholdsFile, "error", err)
			os.Exit(1)
		}
		thresholds = t.Apply(thresholds)
	}

	if info, err := os.Stat(settings.CellDir); err == nil && info.IsDir() {
		log.Info("cell directory found", "cell_dir", settings.CellDir)
	} else {
		log.Warn("cell directory not found, only built-in presets available", "cell_dir", settings.CellDir, "error", err)
	}

	if settings.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	cache := runs.New(settings.RunCacheTTL, settings.RunCacheSize)
	cache.StartCleanup(cleanupInterval(settings.RunCacheTTL))
	defer cache.Close()

	router := api.NewRouter(api.Options{
		CellDir:     settings.CellDir,
		StaticDir:   settings.StaticDir,
		CORSOrigins: settings.CORSOrigins,
		Thresholds:  thresholds,
		Cache:       cache,
	})

	addr := fmt.Sprintf(":%s", settings.Port)
	log.Info("starting API server", "addr", addr, "env", settings.Env)
	if err := router.Run(addr); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	if i := ttl / 4; i > time.Minute {
		return i
	}
	return time.Minute
}
