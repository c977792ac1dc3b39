package logger

import (
	"os"
	"strings"

	"github.com/caarlos0/env"
)

// LogConfig holds the logging configuration.
type LogConfig struct {
	// trace, debug, info, warn, error, fatal
	Level string `env:"LOG_LEVEL" envDefault:"info"`

	// json, text
	Format string `env:"LOG_FORMAT" envDefault:"text"`

	// file, stdout, both
	Output string `env:"LOG_OUTPUT" envDefault:"both"`

	// Rotation
	MaxSize    int  `env:"LOG_MAX_SIZE" envDefault:"100"` // MB
	MaxBackups int  `env:"LOG_MAX_BACKUPS" envDefault:"7"`
	MaxAge     int  `env:"LOG_MAX_AGE" envDefault:"7"` // days
	Compress   bool `env:"LOG_COMPRESS" envDefault:"true"`

	LogPath   string `env:"LOG_PATH" envDefault:"./logs"`
	AppFile   string `env:"LOG_APP_FILE" envDefault:"app.log"`
	ErrorFile string `env:"LOG_ERROR_FILE" envDefault:"error.log"`

	BufferSize int `env:"LOG_BUFFER_SIZE" envDefault:"1000"` // Async hook queue length
}

// DefaultConfig returns the configuration for the current GO_ENV, overridden by LOG_* variables.
func DefaultConfig() *LogConfig {
	cfg := &LogConfig{}
	if err := env.Parse(cfg); err != nil {
		cfg = &LogConfig{
			Level:      "info",
			Format:     "text",
			Output:     "both",
			MaxSize:    100,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   true,
			LogPath:    "./logs",
			AppFile:    "app.log",
			ErrorFile:  "error.log",
			BufferSize: 1000,
		}
	}

	// Production defaults to json unless LOG_FORMAT says otherwise.
	goEnv := os.Getenv("GO_ENV")
	if goEnv != "" && goEnv != "development" && os.Getenv("LOG_FORMAT") == "" {
		cfg.Format = "json"
	}
	cfg.Level = strings.ToLower(cfg.Level)
	cfg.Format = strings.ToLower(cfg.Format)
	cfg.Output = strings.ToLower(cfg.Output)
	return cfg
}
