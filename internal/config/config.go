// Package config provides centralized configuration management for the
// certificate generation engine. It loads configuration from environment
// variables with sensible defaults and validates all settings on startup
// to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server  ServerConfig
	Ingest  IngestConfig
	Render  RenderConfig
	Batch   BatchConfig
	Storage StorageConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for SSE)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// IngestConfig holds spreadsheet upload limits.
type IngestConfig struct {
	// MaxFileSize is the maximum allowed upload size in bytes (default: 5MB)
	MaxFileSize int64 `env:"INGEST_MAX_FILE_SIZE" default:"5242880"`

	// MaxRows is the maximum number of data rows per upload (default: 500)
	MaxRows int `env:"INGEST_MAX_ROWS" default:"500"`
}

// RenderConfig holds text fitting defaults applied when a template leaves
// its field bounds unset.
type RenderConfig struct {
	// MaxFontSize is the starting font size in points (default: 24)
	MaxFontSize float64 `env:"RENDER_MAX_FONT_SIZE" default:"24"`

	// MinFontSize is the smallest font size in points (default: 14)
	MinFontSize float64 `env:"RENDER_MIN_FONT_SIZE" default:"14"`
}

// BatchConfig holds batch execution settings.
type BatchConfig struct {
	// Workers is the number of concurrent certificate renders per batch (default: 4)
	Workers int `env:"BATCH_WORKERS" default:"4"`

	// MaxConcurrent is the maximum number of batches in flight (default: 3)
	MaxConcurrent int `env:"BATCH_MAX_CONCURRENT" default:"3"`

	// MaxWaitTime is how long a request waits for a batch slot (default: 30s)
	MaxWaitTime time.Duration `env:"BATCH_MAX_WAIT_TIME" default:"30s"`

	// Timeout is the maximum duration for a single batch (default: 10m)
	Timeout time.Duration `env:"BATCH_TIMEOUT" default:"10m"`

	// RetainFor is how long a finished batch stays queryable (default: 1h)
	RetainFor time.Duration `env:"BATCH_RETAIN_FOR" default:"1h"`
}

// StorageConfig selects where templates and archives live.
type StorageConfig struct {
	// Backend is "fs" or "minio" (default: fs)
	Backend string `env:"STORAGE_BACKEND" default:"fs"`

	// TemplateDir is the template directory for the fs backend (default: ./templates)
	TemplateDir string `env:"STORAGE_TEMPLATE_DIR" default:"./templates"`

	// ArchiveDir is the archive directory for the fs backend (default: ./archives)
	ArchiveDir string `env:"STORAGE_ARCHIVE_DIR" default:"./archives"`

	// Endpoint is the object store endpoint for the minio backend
	Endpoint string `env:"STORAGE_ENDPOINT"`

	// AccessKey / SecretKey are the object store credentials
	AccessKey string `env:"STORAGE_ACCESS_KEY"`
	SecretKey string `env:"STORAGE_SECRET_KEY"`

	// Bucket is the object store bucket (default: certbatch)
	Bucket string `env:"STORAGE_BUCKET" default:"certbatch"`

	// UseSSL enables TLS to the object store (default: true)
	UseSSL bool `env:"STORAGE_USE_SSL" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
