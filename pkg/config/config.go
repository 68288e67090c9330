package config

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

type Logging struct {
	Pretty bool `toml:"pretty"`
	// panic, fatal, error, warn, info, debug, trace
	Level string `toml:"level"`
}

func (l Logging) ToLevel() zerolog.Level {
	switch l.Level {
	case "panic":
		return zerolog.PanicLevel
	case "fatal":
		return zerolog.FatalLevel
	case "error":
		return zerolog.ErrorLevel
	case "warn":
		return zerolog.WarnLevel
	case "info":
		return zerolog.InfoLevel
	case "debug":
		return zerolog.DebugLevel
	case "trace":
		return zerolog.TraceLevel
	}
	return zerolog.TraceLevel
}

type API struct {
	Enabled bool   `toml:"enabled"`
	Port    int    `toml:"port"`
	BaseURL string `toml:"base_url"`

	// Shared secret used to verify bearer tokens issued by the
	// identity provider.
	JWTSecret string `toml:"jwt_secret"`

	MaxUploadBytes int64 `toml:"max_upload_bytes"`
}

type Database struct {
	Type     string         `toml:"type"`
	Settings map[string]any `toml:"settings"`
}

type BlobStore struct {
	Type     string         `toml:"type"`
	Settings map[string]any `toml:"settings"`
}

type Sweeper struct {
	Enabled         bool `toml:"enabled"`
	IntervalMinutes int  `toml:"interval_minutes"`
}

func (s Sweeper) Interval() time.Duration {
	if s.IntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(s.IntervalMinutes) * time.Minute
}

type Shares struct {
	// How long a one-time share survives after its single view, so an
	// in-flight download can finish before reclamation.
	OneTimeGraceSeconds int `toml:"one_time_grace_seconds"`

	// Lifetime of signed file URLs handed to viewers.
	SignedURLTTLSeconds int `toml:"signed_url_ttl_seconds"`
}

func (s Shares) OneTimeGrace() time.Duration {
	if s.OneTimeGraceSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.OneTimeGraceSeconds) * time.Second
}

func (s Shares) SignedURLTTL() time.Duration {
	if s.SignedURLTTLSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(s.SignedURLTTLSeconds) * time.Second
}

type Config struct {
	Logging   Logging   `toml:"logging"`
	API       API       `toml:"api"`
	Database  Database  `toml:"database"`
	BlobStore BlobStore `toml:"blob_store"`
	Sweeper   Sweeper   `toml:"sweeper"`
	Shares    Shares    `toml:"shares"`
}

func Load(filePath string) (Config, error) {
	var conf Config
	if _, err := toml.DecodeFile(filePath, &conf); err != nil {
		return Config{}, err
	}
	return conf, nil
}
