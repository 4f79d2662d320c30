package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// config is read from the environment; flags override Split.
type config struct {
	Driver    string `env:"XSQLGRAPH_DRIVER" envDefault:"sqlite"`
	DSN       string `env:"XSQLGRAPH_DSN,required"`
	Split     string `env:"XSQLGRAPH_SPLIT" envDefault:"id"`
	LogLevel  string `env:"XSQLGRAPH_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"XSQLGRAPH_LOG_FORMAT" envDefault:"text"`
}

func loadConfig() (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c config) logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(c.LogFormat) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log format %q: want text or json", c.LogFormat)
	}
}
