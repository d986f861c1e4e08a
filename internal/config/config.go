// Package config provides functionality for managing configuration options
// for the rollcall server and client using command-line flags, an optional
// JSON file, a .env file and environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the recognition server.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"port"`

	// DatabaseDSN holds the PostgreSQL connection string.
	DatabaseDSN string `json:"database_dsn"`

	// SessionSecret signs session cookies.
	SessionSecret string `json:"session_secret"`

	// SessionTTL is how long a login session stays valid.
	SessionTTL Duration `json:"session_ttl"`

	// UploadDir is where normalized uploads are kept.
	UploadDir string `json:"upload_dir"`

	// MaxUploadSize caps multipart request bodies, in bytes.
	MaxUploadSize int64 `json:"max_upload_size"`

	// EmbeddingURL is the base URL of the face embedding server.
	EmbeddingURL string `json:"embedding_url"`

	// MatchThreshold is the maximum embedding distance counted as a match.
	MatchThreshold float64 `json:"match_threshold"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`

	// LogLevel is the zap level name.
	LogLevel string `json:"log_level"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// Duration is a time.Duration that reads "24h"-style strings from JSON.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

const (
	defaultSessionTTL     = 24 * time.Hour
	defaultMaxUploadSize  = 16 << 20
	defaultMatchThreshold = 0.45
)

// Parse parses the server's command-line args, then applies the JSON config
// file and finally environment variables, each overriding the previous.
func Parse(args []string) (*Options, error) {
	// A missing .env is the normal case outside development.
	_ = godotenv.Load()

	options := &Options{}
	var ttl time.Duration

	fs := flag.NewFlagSet("rollcall-server", flag.ContinueOnError)
	fs.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&options.SessionSecret, "secret", "", "session cookie signing secret")
	fs.DurationVar(&ttl, "session-ttl", defaultSessionTTL, "session lifetime")
	fs.StringVar(&options.UploadDir, "uploads", "uploads", "directory for uploaded photos")
	fs.Int64Var(&options.MaxUploadSize, "max-upload", defaultMaxUploadSize, "max upload size in bytes")
	fs.StringVar(&options.EmbeddingURL, "embedding-url", "http://localhost:8000", "face embedding server URL")
	fs.Float64Var(&options.MatchThreshold, "threshold", defaultMatchThreshold, "max face distance counted as a match")
	fs.StringVar(&options.TLSCert, "tls-cert", "", "TLS certificate (enables HTTPS)")
	fs.StringVar(&options.TLSKey, "tls-key", "", "TLS private key")
	fs.StringVar(&options.LogLevel, "log-level", "info", "log level")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	options.SessionTTL = Duration(ttl)

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}
	if err := loadJSON(options.Config, options); err != nil {
		return nil, err
	}

	envString("SERVER_ADDRESS", &options.Port)
	envString("DATABASE_DSN", &options.DatabaseDSN)
	envString("SESSION_SECRET", &options.SessionSecret)
	envString("UPLOAD_DIR", &options.UploadDir)
	envString("EMBEDDING_URL", &options.EmbeddingURL)
	envString("TLS_CERT", &options.TLSCert)
	envString("TLS_KEY", &options.TLSKey)
	envString("LOG_LEVEL", &options.LogLevel)
	if v := os.Getenv("MATCH_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("MATCH_THRESHOLD: %w", err)
		}
		options.MatchThreshold = f
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("SESSION_TTL: %w", err)
		}
		options.SessionTTL = Duration(d)
	}

	if err := options.validate(); err != nil {
		return nil, err
	}
	return options, nil
}

func (o *Options) validate() error {
	if o.DatabaseDSN == "" {
		return errors.New("database dsn is required (-d or DATABASE_DSN)")
	}
	if o.SessionSecret == "" {
		return errors.New("session secret is required (-secret or SESSION_SECRET)")
	}
	if o.MatchThreshold <= 0 {
		return fmt.Errorf("match threshold must be positive, got %v", o.MatchThreshold)
	}
	if time.Duration(o.SessionTTL) <= 0 {
		return errors.New("session ttl must be positive")
	}
	if (o.TLSCert == "") != (o.TLSKey == "") {
		return errors.New("tls cert and key must be set together")
	}
	return nil
}

// ClientOptions holds the configuration values for the interactive client.
type ClientOptions struct {
	// BaseURL is the recognition service API root.
	BaseURL string `json:"base_url"`
	// CAFile is an optional CA bundle for HTTPS.
	CAFile string `json:"ca_file"`
	// Timeout bounds every request.
	Timeout Duration `json:"timeout"`
	// LogLevel is the zap level name.
	LogLevel string `json:"log_level"`
}

// LoadClient reads client options from the JSON file at path (skipped when
// absent) and then from ROLLCALL_* environment variables.
func LoadClient(path string) (*ClientOptions, error) {
	_ = godotenv.Load()

	options := &ClientOptions{
		BaseURL:  "http://localhost:8080/api",
		Timeout:  Duration(30 * time.Second),
		LogLevel: "warn",
	}
	if err := loadJSON(path, options); err != nil {
		return nil, err
	}
	envString("ROLLCALL_URL", &options.BaseURL)
	envString("ROLLCALL_CA", &options.CAFile)
	envString("ROLLCALL_LOG_LEVEL", &options.LogLevel)
	if v := os.Getenv("ROLLCALL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("ROLLCALL_TIMEOUT: %w", err)
		}
		options.Timeout = Duration(d)
	}
	return options, nil
}

func loadJSON(path string, dst any) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
