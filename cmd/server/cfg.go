package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/stakeroom/server"
)

type Config struct {
	Port           string
	LevelsDir      string
	StaticDir      string
	LevelTimeout   time.Duration
	ReplyTimeout   time.Duration
	SendBuffer     int
	AllowedOrigins []string
	LogLevel       log.Level
	LogJSON        bool
}

// LoadConfig reads the environment, seeded from .env when one exists.
func LoadConfig(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env: %w", err)
	}
	return configFromEnv(os.Getenv)
}

func configFromEnv(getenv func(string) string) (Config, error) {
	def := server.DefaultOptions()
	cfg := Config{
		Port:      or(getenv("PORT"), "8080"),
		LevelsDir: or(getenv("LEVELS_DIR"), "assets/levels"),
		StaticDir: getenv("STATIC_DIR"),
		LogJSON:   getenv("LOG_FORMAT") == "json",
	}
	var err error
	if cfg.LevelTimeout, err = duration(getenv, "LEVEL_FETCH_TIMEOUT", def.LevelTimeout); err != nil {
		return cfg, err
	}
	if cfg.ReplyTimeout, err = duration(getenv, "JOIN_TIMEOUT", def.ReplyTimeout); err != nil {
		return cfg, err
	}
	if cfg.SendBuffer, err = integer(getenv, "SEND_BUFFER", def.SendBuffer); err != nil {
		return cfg, err
	}
	if cfg.LogLevel, err = log.ParseLevel(or(getenv("LOG_LEVEL"), "info")); err != nil {
		return cfg, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	for _, o := range strings.Split(getenv("ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}
	return cfg, nil
}

func (c Config) Options() server.Options {
	return server.Options{
		LevelTimeout:   c.LevelTimeout,
		ReplyTimeout:   c.ReplyTimeout,
		SendBuffer:     c.SendBuffer,
		AllowedOrigins: c.AllowedOrigins,
	}
}

func (c Config) SetupLogging() {
	log.SetLevel(c.LogLevel)
	if c.LogJSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func duration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func integer(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %d", key, n)
	}
	return n, nil
}
