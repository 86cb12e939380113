package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// OCR engine constants
	OCREngineTesseract = "tesseract"
	OCREngineVision    = "vision"
	OCREngineNone      = "none"

	// Default values
	DefaultPort           = 8000
	DefaultHost           = "0.0.0.0"
	DefaultLogLevel       = "info"
	DefaultMaxFileSize    = 20 * 1024 * 1024 // 20MB
	DefaultOCREngine      = OCREngineTesseract
	DefaultOCRWorkers     = 1
	DefaultRembgTimeout   = 30 * time.Second
	DefaultRequestTimeout = 2 * time.Minute

	// EnvPrefix is prepended to every environment variable
	EnvPrefix = "FIDA"
)

// DefaultOCRLanguages are the Tesseract language packs used by default
var DefaultOCRLanguages = []string{"eng"}

// Config holds all configuration for the ID card extractor
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Extraction configuration
	MaxFileSize       int64 // Maximum PDF size in bytes
	OCREngine         string
	OCRLanguages      []string
	OCRWorkers        int
	VisionCredentials string
	RembgURL          string // empty disables background removal
	RembgTimeout      time.Duration
	RequestTimeout    time.Duration
	DocumentRoot      string // MCP tools only read files below it; empty allows any path

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:           ModeServer,
		Host:           DefaultHost,
		Port:           DefaultPort,
		MaxFileSize:    DefaultMaxFileSize,
		OCREngine:      DefaultOCREngine,
		OCRLanguages:   append([]string(nil), DefaultOCRLanguages...),
		OCRWorkers:     DefaultOCRWorkers,
		RembgTimeout:   DefaultRembgTimeout,
		RequestTimeout: DefaultRequestTimeout,
		Version:        "1.0.0",
		ServerName:     "fida-extractor",
		LogLevel:       DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// PORT is what most container platforms inject
	_ = viper.BindEnv("port", EnvPrefix+"_PORT", "PORT")

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("ocr-engine", cfg.OCREngine)
	viper.SetDefault("ocr-languages", cfg.OCRLanguages)
	viper.SetDefault("ocr-workers", cfg.OCRWorkers)
	viper.SetDefault("vision-credentials", cfg.VisionCredentials)
	viper.SetDefault("rembg-url", cfg.RembgURL)
	viper.SetDefault("rembg-timeout", cfg.RembgTimeout)
	viper.SetDefault("request-timeout", cfg.RequestTimeout)
	viper.SetDefault("document-root", cfg.DocumentRoot)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'server' for the HTTP API, 'stdio' for MCP standard I/O")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.String("ocr-engine", cfg.OCREngine, "OCR engine: tesseract, vision or none")
	pflag.StringSlice("ocr-languages", cfg.OCRLanguages, "Tesseract languages, comma separated")
	pflag.Int("ocr-workers", cfg.OCRWorkers, "Images recognized concurrently per document")
	pflag.String("vision-credentials", cfg.VisionCredentials, "Google Cloud credentials file for the vision engine")
	pflag.String("rembg-url", cfg.RembgURL, "Base URL of a rembg server; empty disables background removal")
	pflag.Duration("rembg-timeout", cfg.RembgTimeout, "Timeout for one background removal call")
	pflag.Duration("request-timeout", cfg.RequestTimeout, "Timeout for parsing one document")
	pflag.String("document-root", cfg.DocumentRoot, "Directory the MCP tools may read PDFs from (stdio mode); empty allows any path")
}

var flagKeys = []string{
	"mode", "host", "port", "loglevel", "maxfilesize",
	"ocr-engine", "ocr-languages", "ocr-workers", "vision-credentials",
	"rembg-url", "rembg-timeout", "request-timeout", "document-root",
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, key := range flagKeys {
		_ = viper.BindPFlag(key, pflag.Lookup(key))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nFIDA Extractor - reads Ethiopian national ID card PDFs into structured records\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                  # HTTP server on 0.0.0.0:8000 (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio                     # MCP server on stdio\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --rembg-url=http://rembg:7000    # enable background removal\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  FIDA_MODE, FIDA_HOST, FIDA_PORT (or PORT), FIDA_LOGLEVEL, FIDA_MAXFILESIZE,\n")
		fmt.Fprintf(os.Stderr, "  FIDA_OCR_ENGINE, FIDA_OCR_LANGUAGES, FIDA_OCR_WORKERS, FIDA_VISION_CREDENTIALS,\n")
		fmt.Fprintf(os.Stderr, "  FIDA_REMBG_URL, FIDA_REMBG_TIMEOUT, FIDA_REQUEST_TIMEOUT, FIDA_DOCUMENT_ROOT\n")
		fmt.Fprintf(os.Stderr, "\nA .env file in the working directory is loaded first when present.\n")
	}
}

// ErrVersionRequested is returned by LoadFromFlags when --version is given
var ErrVersionRequested = errors.New("version requested")

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.LogLevel = strings.ToLower(viper.GetString("loglevel"))
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.OCREngine = strings.ToLower(viper.GetString("ocr-engine"))
	cfg.OCRLanguages = splitList(viper.GetStringSlice("ocr-languages"))
	cfg.OCRWorkers = viper.GetInt("ocr-workers")
	cfg.VisionCredentials = viper.GetString("vision-credentials")
	cfg.RembgURL = strings.TrimRight(viper.GetString("rembg-url"), "/")
	cfg.RembgTimeout = viper.GetDuration("rembg-timeout")
	cfg.RequestTimeout = viper.GetDuration("request-timeout")
	cfg.DocumentRoot = viper.GetString("document-root")
}

// splitList flattens comma separated entries, as given through the environment
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Port only matters for the HTTP server
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	switch c.OCREngine {
	case OCREngineTesseract, OCREngineVision, OCREngineNone:
	default:
		return fmt.Errorf("invalid OCR engine: %s (must be one of: tesseract, vision, none)", c.OCREngine)
	}

	if c.OCRWorkers < 1 {
		return errors.New("OCR workers must be at least 1")
	}

	if c.RembgURL != "" {
		u, err := url.Parse(c.RembgURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid rembg URL: %s", c.RembgURL)
		}
		if c.RembgTimeout <= 0 {
			return errors.New("rembg timeout must be positive")
		}
	}

	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}

	if c.DocumentRoot != "" {
		info, err := os.Stat(c.DocumentRoot)
		if err != nil {
			return fmt.Errorf("cannot access document root %s: %w", c.DocumentRoot, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("document root is not a directory: %s", c.DocumentRoot)
		}
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// BackgroundRemovalEnabled reports whether a rembg server is configured
func (c *Config) BackgroundRemovalEnabled() bool {
	return c.RembgURL != ""
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, LogLevel: %s, MaxFileSize: %d, OCREngine: %s, OCRWorkers: %d, RembgURL: %s}",
		c.Mode, c.Host, c.Port, c.LogLevel, c.MaxFileSize, c.OCREngine, c.OCRWorkers, c.RembgURL)
}

// IsServerMode returns true if the process serves the HTTP API
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the process serves MCP over stdio
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
