package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Server holds the API process settings. Every field can be set from the
// environment (API_PORT, API_ENV, CELL_DIR, STATIC_DIR, RUN_CACHE_TTL,
// RUN_CACHE_SIZE, LOG_LEVEL, CORS_ALLOWED_ORIGINS) or from an optional
// config file. CORS_ALLOWED_ORIGINS is comma-separated.
type Server struct {
	Port         string
	Env          string
	CellDir      string
	StaticDir    string
	RunCacheTTL  time.Duration
	RunCacheSize int
	LogLevel     string
	CORSOrigins  []string
}

func (s Server) Production() bool { return s.Env == "production" }

// LoadServer reads server settings with viper. file may be empty.
func LoadServer(file string) (Server, error) {
	v := viper.New()
	v.SetDefault("api_port", "8080")
	v.SetDefault("api_env", "development")
	v.SetDefault("cell_dir", filepath.Join("examples", "cells"))
	v.SetDefault("static_dir", filepath.Join("web", "dist"))
	v.SetDefault("run_cache_ttl", time.Hour)
	v.SetDefault("run_cache_size", 256)
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_allowed_origins", "*")
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Server{}, err
		}
	}

	s := Server{
		Port:         v.GetString("api_port"),
		Env:          v.GetString("api_env"),
		CellDir:      v.GetString("cell_dir"),
		StaticDir:    v.GetString("static_dir"),
		RunCacheTTL:  v.GetDuration("run_cache_ttl"),
		RunCacheSize: v.GetInt("run_cache_size"),
		LogLevel:     v.GetString("log_level"),
		CORSOrigins:  corsOrigins(v),
	}
	if abs, err := filepath.Abs(s.CellDir); err == nil {
		s.CellDir = abs
	}
	return s, nil
}

// corsOrigins reads the origin list from either a comma-separated string
// (environment) or a list (config file).
func corsOrigins(v *viper.Viper) []string {
	var raw []string
	if s, ok := v.Get("cors_allowed_origins").(string); ok {
		raw = strings.Split(s, ",")
	} else {
		raw = v.GetStringSlice("cors_allowed_origins")
	}
	var out []string
	for _, o := range raw {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
