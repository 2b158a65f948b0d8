package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

const SupportedVersion = "1"

// Config represents the complete configuration structure
type Config struct {
	Version string        `yaml:"version" default:"1"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Drafts  DraftsConfig  `yaml:"drafts"`
	Storage StorageConfig `yaml:"storage"`
	Content ContentConfig `yaml:"content"`
	Editor  EditorConfig  `yaml:"editor"`
}

type ServerConfig struct {
	Host string `yaml:"host" default:"0.0.0.0"`
	Port string `yaml:"port" default:"12600"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"console"`
}

// DraftsConfig tunes every draft manager the server creates.
type DraftsConfig struct {
	DebounceMs       int `yaml:"debounce_ms" default:"800"`
	HistoryLimit     int `yaml:"history_limit" default:"100"`
	StorageTimeoutMs int `yaml:"storage_timeout_ms" default:"2000"`
}

func (d DraftsConfig) Debounce() time.Duration {
	return time.Duration(d.DebounceMs) * time.Millisecond
}

func (d DraftsConfig) StorageTimeout() time.Duration {
	return time.Duration(d.StorageTimeoutMs) * time.Millisecond
}

// StorageConfig selects where autosaves are written.
type StorageConfig struct {
	Backend     string `yaml:"backend" default:"sqlite"`
	Compression string `yaml:"compression" default:"zstd"`

	FSDir string `yaml:"fs_dir" default:".autosave"`

	SQLitePath string `yaml:"sqlite_path" default:"./autosave.db"`

	RedisURL      string `yaml:"redis_url" default:"redis://localhost:6379/0"`
	RedisPrefix   string `yaml:"redis_prefix" default:"autosave:"`
	RedisTTLHours int    `yaml:"redis_ttl_hours" default:"720"`

	S3Bucket    string `yaml:"s3_bucket" default:""`
	S3Endpoint  string `yaml:"s3_endpoint" default:""`
	S3Prefix    string `yaml:"s3_prefix" default:"autosave/"`
	S3Region    string `yaml:"s3_region" default:"auto"`
	S3PathStyle bool   `yaml:"s3_path_style" default:"false"`
}

func (s StorageConfig) RedisTTL() time.Duration {
	return time.Duration(s.RedisTTLHours) * time.Hour
}

type ContentConfig struct {
	DatabasePath string `yaml:"database_path" default:"./database.db"`
}

type EditorConfig struct {
	LivePreview bool   `yaml:"live_preview" default:"true"`
	SyntaxTheme string `yaml:"syntax_theme" default:"gruvbox"`

	// Sessions untouched for this long are flushed and closed. 0 keeps them
	// until shutdown.
	SessionIdleMinutes int `yaml:"session_idle_minutes" default:"30"`
}

func (e EditorConfig) SessionIdle() time.Duration {
	return time.Duration(e.SessionIdleMinutes) * time.Minute
}

var AppConfig *Config

func LoadConfig(path string) error {
	config := &Config{}

	// Apply default values first
	applyDefaults(config)

	// Try to read and parse the config file
	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, just use defaults
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
		AppConfig = config
		return nil
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return err
	}

	AppConfig = config
	return nil
}

// Validate rejects configurations this build cannot serve.
func (c *Config) Validate() error {
	if c.Version != SupportedVersion {
		return fmt.Errorf("unsupported configuration version %q", c.Version)
	}
	switch c.Storage.Backend {
	case BackendMemory, BackendFS, BackendSQLite, BackendRedis, BackendS3:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.Storage.Compression {
	case CompressionNone, CompressionZstd, CompressionGzip:
	default:
		return fmt.Errorf("unknown storage compression %q", c.Storage.Compression)
	}
	if c.Storage.Backend == BackendS3 && c.Storage.S3Bucket == "" {
		return fmt.Errorf("storage backend %q requires s3_bucket", BackendS3)
	}
	if c.Drafts.DebounceMs < 0 {
		return fmt.Errorf("drafts.debounce_ms must not be negative")
	}
	if c.Editor.SessionIdleMinutes < 0 {
		return fmt.Errorf("editor.session_idle_minutes must not be negative")
	}
	if c.Drafts.HistoryLimit < 1 {
		return fmt.Errorf("drafts.history_limit must be at least 1")
	}
	return nil
}

const (
	BackendMemory = "memory"
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendS3     = "s3"
)

const (
	CompressionNone = "none"
	CompressionZstd = "zstd"
	CompressionGzip = "gzip"
)

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
