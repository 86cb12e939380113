package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withArgs runs LoadFromFlags against fresh flag and viper state
func withArgs(t *testing.T, args ...string) (*Config, error) {
	t.Helper()

	originalArgs := os.Args
	t.Cleanup(func() {
		os.Args = originalArgs
		pflag.CommandLine = pflag.NewFlagSet(originalArgs[0], pflag.ExitOnError)
		viper.Reset()
	})

	os.Args = append([]string{"fida-extractor"}, args...)
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	viper.Reset()

	return LoadFromFlags()
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "FIDA_MODE", "FIDA_HOST", "FIDA_PORT", "FIDA_LOGLEVEL", "FIDA_MAXFILESIZE",
		"FIDA_OCR_ENGINE", "FIDA_OCR_LANGUAGES", "FIDA_OCR_WORKERS", "FIDA_VISION_CREDENTIALS",
		"FIDA_REMBG_URL", "FIDA_REMBG_TIMEOUT", "FIDA_REQUEST_TIMEOUT",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadFromFlags_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := withArgs(t)
	require.NoError(t, err)

	assert.Equal(t, ModeServer, cfg.Mode)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, OCREngineTesseract, cfg.OCREngine)
	assert.Equal(t, []string{"eng"}, cfg.OCRLanguages)
	assert.Equal(t, 1, cfg.OCRWorkers)
	assert.Equal(t, 30*time.Second, cfg.RembgTimeout)
	assert.Equal(t, 2*time.Minute, cfg.RequestTimeout)
}

func TestLoadFromFlags_Flags(t *testing.T) {
	clearEnv(t)

	cfg, err := withArgs(t,
		"--mode=stdio",
		"--port=9100",
		"--loglevel=debug",
		"--ocr-engine=none",
		"--ocr-languages=eng,amh",
		"--ocr-workers=4",
		"--rembg-url=http://rembg:7000/",
		"--rembg-timeout=5s",
		"--request-timeout=45s",
	)
	require.NoError(t, err)

	assert.Equal(t, ModeStdio, cfg.Mode)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, OCREngineNone, cfg.OCREngine)
	assert.Equal(t, []string{"eng", "amh"}, cfg.OCRLanguages)
	assert.Equal(t, 4, cfg.OCRWorkers)
	assert.Equal(t, "http://rembg:7000", cfg.RembgURL)
	assert.Equal(t, 5*time.Second, cfg.RembgTimeout)
	assert.Equal(t, 45*time.Second, cfg.RequestTimeout)
}

func TestLoadFromFlags_EnvironmentVariables(t *testing.T) {
	clearEnv(t)
	t.Setenv("FIDA_HOST", "127.0.0.1")
	t.Setenv("FIDA_OCR_ENGINE", "vision")
	t.Setenv("FIDA_OCR_LANGUAGES", "eng,amh")
	t.Setenv("FIDA_REMBG_URL", "https://rembg.internal")
	t.Setenv("FIDA_MAXFILESIZE", "1048576")

	cfg, err := withArgs(t)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, OCREngineVision, cfg.OCREngine)
	assert.Equal(t, []string{"eng", "amh"}, cfg.OCRLanguages)
	assert.Equal(t, "https://rembg.internal", cfg.RembgURL)
	assert.Equal(t, int64(1048576), cfg.MaxFileSize)
}

func TestLoadFromFlags_PlainPortVariable(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "3000")

	cfg, err := withArgs(t)
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Port)
}

func TestLoadFromFlags_PrefixedPortWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "3000")
	t.Setenv("FIDA_PORT", "4000")

	cfg, err := withArgs(t)
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Port)
}

func TestLoadFromFlags_FlagOverridesEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("FIDA_PORT", "4000")

	cfg, err := withArgs(t, "--port=5000")
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Port)
}

func TestLoadFromFlags_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "mode", args: []string{"--mode=grpc"}, wantErr: "mode must be"},
		{name: "port", args: []string{"--port=0"}, wantErr: "port must be"},
		{name: "log level", args: []string{"--loglevel=trace"}, wantErr: "invalid log level"},
		{name: "engine", args: []string{"--ocr-engine=abbyy"}, wantErr: "invalid OCR engine"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := withArgs(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFlags_VersionFlag(t *testing.T) {
	clearEnv(t)
	_, err := withArgs(t, "--version")
	assert.ErrorIs(t, err, ErrVersionRequested)
}
