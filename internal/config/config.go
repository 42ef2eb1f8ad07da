package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"alcyxob/trainplan/internal/bulk"
	"alcyxob/trainplan/internal/logger"
	"alcyxob/trainplan/internal/store"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Writer   WriterConfig   `mapstructure:"writer"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URI         string            `mapstructure:"uri"`
	Name        string            `mapstructure:"name"`
	Collections store.Collections `mapstructure:"collections"`
}

// WriterConfig tunes the bulk writer used for plan generation and set logging.
type WriterConfig struct {
	Concurrency int `mapstructure:"concurrency"` // default per-day exercise concurrency
	bulk.Config `mapstructure:",squash"`
}

type S3Config struct {
	Endpoint        string        `mapstructure:"endpoint"`
	Region          string        `mapstructure:"region"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	BucketName      string        `mapstructure:"bucket_name"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	URLExpiry       time.Duration `mapstructure:"url_expiry"`
}

// JWTConfig defines JWT specific configuration. Tokens are issued by the
// account service; this service only verifies them.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type LogConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func (c LogConfig) Params() logger.Params {
	return logger.Params{Mode: c.Mode, Level: c.Level, File: c.File}
}

type TracingConfig struct {
	Stdout bool `mapstructure:"stdout"` // export spans to stdout
}

// LoadConfig reads configuration from file or environment variables. A .env
// file in path, when present, is loaded into the environment first.
func LoadConfig(path string) (config Config, err error) {
	if err = godotenv.Load(filepath.Join(path, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config, err
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Use replacer for nested keys e.g., server.address -> SERVER_ADDRESS
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	// If config file not found, continue with defaults and env vars.
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		err = nil
	} else if err != nil {
		return
	}

	err = v.Unmarshal(&config)
	return
}

// Every key needs a default for AutomaticEnv to pick up its variable on Unmarshal.
func setDefaults(v *viper.Viper) {
	w := bulk.DefaultConfig()
	cols := store.DefaultCollections()

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "trainplan")
	v.SetDefault("database.collections.programs", cols.Programs)
	v.SetDefault("database.collections.program_days", cols.ProgramDays)
	v.SetDefault("database.collections.program_exercises", cols.ProgramExercises)
	v.SetDefault("database.collections.workouts", cols.Workouts)
	v.SetDefault("database.collections.set_logs", cols.SetLogs)

	v.SetDefault("writer.concurrency", 3)
	v.SetDefault("writer.max_attempts", w.MaxAttempts)
	v.SetDefault("writer.base_delay", w.BaseDelay.String())
	v.SetDefault("writer.max_jitter", w.MaxJitter.String())
	v.SetDefault("writer.pace_every", w.PaceEvery)
	v.SetDefault("writer.pace_pause", w.PacePause.String())
	v.SetDefault("writer.request_timeout", w.RequestTimeout.String())

	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("s3.url_expiry", "15m")

	v.SetDefault("jwt.secret", "")

	v.SetDefault("log.mode", "prod")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetDefault("tracing.stdout", false)
}
