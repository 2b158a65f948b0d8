package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

func TestSetLogger(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.InfoLevel)
	SetLogger(logger)

	// Verify logger is set (we can't easily compare loggers directly)
	// This test mainly ensures the function doesn't panic
}

func TestApplyDefaults(t *testing.T) {
	t.Run("Config struct defaults", func(t *testing.T) {
		config := &Config{}
		applyDefaults(config)

		if config.Version != "1" {
			t.Errorf("Expected version '1', got %q", config.Version)
		}

		// Test Server defaults
		if config.Server.Host != "0.0.0.0" {
			t.Errorf("Expected host '0.0.0.0', got %q", config.Server.Host)
		}
		if config.Server.Port != "12600" {
			t.Errorf("Expected port '12600', got %q", config.Server.Port)
		}

		// Test Logging defaults
		if config.Logging.Level != "info" {
			t.Errorf("Expected logging level 'info', got %q", config.Logging.Level)
		}
		if config.Logging.Format != "console" {
			t.Errorf("Expected logging format 'console', got %q", config.Logging.Format)
		}

		// Test Drafts defaults
		if config.Drafts.Debounce() != 800*time.Millisecond {
			t.Errorf("Expected debounce 800ms, got %v", config.Drafts.Debounce())
		}
		if config.Drafts.HistoryLimit != 100 {
			t.Errorf("Expected history limit 100, got %d", config.Drafts.HistoryLimit)
		}
		if config.Drafts.StorageTimeout() != 2*time.Second {
			t.Errorf("Expected storage timeout 2s, got %v", config.Drafts.StorageTimeout())
		}

		// Test Storage defaults
		if config.Storage.Backend != BackendSQLite {
			t.Errorf("Expected storage backend 'sqlite', got %q", config.Storage.Backend)
		}
		if config.Storage.Compression != CompressionZstd {
			t.Errorf("Expected zstd compression by default, got %q", config.Storage.Compression)
		}
		if config.Storage.FSDir != ".autosave" {
			t.Errorf("Expected fs dir '.autosave', got %q", config.Storage.FSDir)
		}
		if config.Storage.RedisPrefix != "autosave:" {
			t.Errorf("Expected redis prefix 'autosave:', got %q", config.Storage.RedisPrefix)
		}
		if config.Storage.RedisTTL() != 30*24*time.Hour {
			t.Errorf("Expected redis TTL of 30 days, got %v", config.Storage.RedisTTL())
		}
		if config.Storage.S3Bucket != "" {
			t.Errorf("Expected empty S3 bucket, got %q", config.Storage.S3Bucket)
		}
		if config.Storage.S3Region != "auto" {
			t.Errorf("Expected S3 region 'auto', got %q", config.Storage.S3Region)
		}

		// Test Content and Editor defaults
		if config.Content.DatabasePath != "./database.db" {
			t.Errorf("Expected database path './database.db', got %q", config.Content.DatabasePath)
		}
		if !config.Editor.LivePreview {
			t.Error("Expected live preview to be enabled by default")
		}
		if config.Editor.SyntaxTheme != "gruvbox" {
			t.Errorf("Expected syntax theme 'gruvbox', got %q", config.Editor.SyntaxTheme)
		}
		if config.Editor.SessionIdle() != 30*time.Minute {
			t.Errorf("Expected 30m session idle timeout, got %v", config.Editor.SessionIdle())
		}
	})

	t.Run("Custom struct with various field types", func(t *testing.T) {
		type TestStruct struct {
			StringField  string   `default:"test-string"`
			BoolField    bool     `default:"true"`
			IntField     int      `default:"42"`
			Float64Field float64  `default:"3.14"`
			SliceField   []string `default:"a,b,c"`
			NoDefault    string   // No default tag
		}

		test := &TestStruct{}
		applyDefaults(test)

		if test.StringField != "test-string" {
			t.Errorf("Expected string field 'test-string', got %q", test.StringField)
		}
		if !test.BoolField {
			t.Error("Expected bool field to be true")
		}
		if test.IntField != 42 {
			t.Errorf("Expected int field 42, got %d", test.IntField)
		}
		if test.Float64Field != 3.14 {
			t.Errorf("Expected float64 field 3.14, got %f", test.Float64Field)
		}
		expectedSlice := []string{"a", "b", "c"}
		if !reflect.DeepEqual(test.SliceField, expectedSlice) {
			t.Errorf("Expected slice %v, got %v", expectedSlice, test.SliceField)
		}
		if test.NoDefault != "" {
			t.Errorf("Expected no default field to be empty, got %q", test.NoDefault)
		}
	})

	t.Run("Invalid default values", func(t *testing.T) {
		type InvalidStruct struct {
			BadBool  bool    `default:"not-a-bool"`
			BadInt   int     `default:"not-an-int"`
			BadFloat float64 `default:"not-a-float"`
		}

		test := &InvalidStruct{}
		applyDefaults(test) // Should not panic

		if test.BadBool {
			t.Error("Expected invalid bool default to remain false")
		}
		if test.BadInt != 0 {
			t.Errorf("Expected invalid int default to remain 0, got %d", test.BadInt)
		}
		if test.BadFloat != 0.0 {
			t.Errorf("Expected invalid float default to remain 0.0, got %f", test.BadFloat)
		}
	})

	t.Run("Non-struct input", func(t *testing.T) {
		stringVar := "test"
		applyDefaults(&stringVar)
		applyDefaults(stringVar)
		applyDefaults(42)
		applyDefaults(nil)
	})
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tempFile, err := os.CreateTemp(t.TempDir(), "test-config-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	if _, err := tempFile.WriteString(content); err != nil {
		t.Fatalf("Failed to write config content: %v", err)
	}
	tempFile.Close()
	return tempFile.Name()
}

func TestLoadConfig(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.ErrorLevel)
	SetLogger(logger)

	t.Run("Load non-existent config file", func(t *testing.T) {
		originalAppConfig := AppConfig
		defer func() { AppConfig = originalAppConfig }()

		err := LoadConfig("non-existent-config.yaml")
		if err != nil {
			t.Errorf("Expected no error for non-existent config file, got %v", err)
		}
		if AppConfig == nil {
			t.Fatal("Expected AppConfig to be set with defaults")
		}
		if AppConfig.Storage.Backend != BackendSQLite {
			t.Errorf("Expected default backend, got %q", AppConfig.Storage.Backend)
		}
	})

	t.Run("Load valid config file", func(t *testing.T) {
		originalAppConfig := AppConfig
		defer func() { AppConfig = originalAppConfig }()

		path := writeTempConfig(t, `
version: "1"
server:
  host: "127.0.0.1"
  port: "8080"
drafts:
  debounce_ms: 250
  history_limit: 20
storage:
  backend: redis
  redis_url: "redis://cache:6379/2"
`)

		if err := LoadConfig(path); err != nil {
			t.Fatalf("Expected no error loading valid config, got %v", err)
		}

		if AppConfig.Server.Host != "127.0.0.1" || AppConfig.Server.Port != "8080" {
			t.Errorf("Unexpected server config: %+v", AppConfig.Server)
		}
		if AppConfig.Drafts.Debounce() != 250*time.Millisecond {
			t.Errorf("Expected debounce 250ms, got %v", AppConfig.Drafts.Debounce())
		}
		if AppConfig.Drafts.HistoryLimit != 20 {
			t.Errorf("Expected history limit 20, got %d", AppConfig.Drafts.HistoryLimit)
		}
		if AppConfig.Storage.Backend != BackendRedis {
			t.Errorf("Expected redis backend, got %q", AppConfig.Storage.Backend)
		}
		if AppConfig.Storage.RedisURL != "redis://cache:6379/2" {
			t.Errorf("Unexpected redis url %q", AppConfig.Storage.RedisURL)
		}

		// Verify defaults were still applied for unspecified fields
		if AppConfig.Storage.RedisPrefix != "autosave:" {
			t.Errorf("Expected default redis prefix, got %q", AppConfig.Storage.RedisPrefix)
		}
		if AppConfig.Drafts.StorageTimeoutMs != 2000 {
			t.Errorf("Expected default storage timeout, got %d", AppConfig.Drafts.StorageTimeoutMs)
		}
	})

	t.Run("Load invalid YAML file", func(t *testing.T) {
		originalAppConfig := AppConfig
		defer func() { AppConfig = originalAppConfig }()

		path := writeTempConfig(t, `
server:
  host: "127.0.0.1"
  invalid yaml syntax [
`)

		err := LoadConfig(path)
		if err == nil {
			t.Fatal("Expected error loading invalid config file")
		}
		if !strings.Contains(err.Error(), "failed to parse config file") {
			t.Errorf("Expected parse error, got %v", err)
		}
	})

	invalid := []struct {
		name      string
		content   string
		errorText string
	}{
		{"Unsupported version", "version: \"2\"\n", "unsupported configuration version"},
		{"Unknown backend", "storage:\n  backend: etcd\n", "unknown storage backend"},
		{"Unknown compression", "storage:\n  compression: lz4\n", "unknown storage compression"},
		{"S3 without bucket", "storage:\n  backend: s3\n", "requires s3_bucket"},
		{"Negative debounce", "drafts:\n  debounce_ms: -5\n", "debounce_ms"},
		{"Zero history", "drafts:\n  history_limit: 0\n", "history_limit"},
		{"Negative idle", "editor:\n  session_idle_minutes: -1\n", "session_idle_minutes"},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			originalAppConfig := AppConfig
			defer func() { AppConfig = originalAppConfig }()

			err := LoadConfig(writeTempConfig(t, tc.content))
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tc.errorText) {
				t.Errorf("Expected error to contain %q, got %q", tc.errorText, err.Error())
			}
			if AppConfig != originalAppConfig {
				t.Error("Expected AppConfig to be left untouched on error")
			}
		})
	}
}

// TestConfigDefaultsGoldenFile tests that our defaults match the golden file
func TestConfigDefaultsGoldenFile(t *testing.T) {
	goldenData, err := os.ReadFile("testdata/defaults.yaml")
	if err != nil {
		t.Fatalf("Failed to read golden defaults file: %v", err)
	}

	var goldenConfig Config
	if err := yaml.Unmarshal(goldenData, &goldenConfig); err != nil {
		t.Fatalf("Failed to parse golden config: %v", err)
	}

	testConfig := &Config{}
	ApplyDefaults(testConfig)

	if !reflect.DeepEqual(*testConfig, goldenConfig) {
		t.Errorf("Defaults drifted from testdata/defaults.yaml:\ngot  %+v\nwant %+v", *testConfig, goldenConfig)
	}
}

func TestConstants(t *testing.T) {
	if HCType != "Content-Type" {
		t.Errorf("Expected HCType 'Content-Type', got %q", HCType)
	}
	if CTypeJSON != "application/json" {
		t.Errorf("Expected CTypeJSON 'application/json', got %q", CTypeJSON)
	}
	if MarkdownRenderer != "mmark" {
		t.Errorf("Expected MarkdownRenderer 'mmark', got %q", MarkdownRenderer)
	}

	matches := RegexCallout.FindStringSubmatch("// <<1>>")
	if len(matches) != 2 || matches[1] != "1" {
		t.Errorf("Expected callout regex to match '1', got %v", matches)
	}
}
