package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("farmsupply", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return fs
}

func TestLoadRequiresBackendURL(t *testing.T) {
	if _, err := load(viper.New(), newFlags(t)); err == nil {
		t.Fatal("expected error due to missing backend url")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://backend.local/api/")

	cfg, err := load(viper.New(), newFlags(t))
	if err != nil {
		t.Fatalf("load returned unexpected error: %v", err)
	}

	if cfg.BackendURL != "http://backend.local/api" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.BackendURL)
	}
	if cfg.RunAddress != defaultRunAddress {
		t.Errorf("expected default run address %q, got %q", defaultRunAddress, cfg.RunAddress)
	}
	if cfg.SessionStore != SessionStoreMemory {
		t.Errorf("expected memory session store, got %q", cfg.SessionStore)
	}
	if cfg.RefreshInterval != defaultRefreshInterval {
		t.Errorf("expected default refresh interval %v, got %v", defaultRefreshInterval, cfg.RefreshInterval)
	}
	if cfg.StrictFarmerApproval {
		t.Errorf("strict farmer approval must be off by default")
	}
	if cfg.BackendRateLimit != 0 {
		t.Errorf("expected rate limiting disabled, got %v", cfg.BackendRateLimit)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://env.local")
	t.Setenv("REFRESH_INTERVAL", "5s")
	t.Setenv("REFRESH_WORKERS", "3")
	t.Setenv("STRICT_FARMER_APPROVAL", "true")

	fs := newFlags(t,
		"-a", ":9090",
		"-r", "http://flag.local",
		"--refresh-interval", "7s",
		"--log-format", "console",
	)

	cfg, err := load(viper.New(), fs)
	if err != nil {
		t.Fatalf("load returned unexpected error: %v", err)
	}

	if cfg.RunAddress != ":9090" {
		t.Errorf("expected run address override, got %q", cfg.RunAddress)
	}
	if cfg.BackendURL != "http://flag.local" {
		t.Errorf("expected backend url flag override, got %q", cfg.BackendURL)
	}
	if cfg.RefreshInterval != 7*time.Second {
		t.Errorf("expected refresh interval 7s, got %v", cfg.RefreshInterval)
	}
	if cfg.RefreshWorkers != 3 {
		t.Errorf("expected workers from env, got %d", cfg.RefreshWorkers)
	}
	if !cfg.StrictFarmerApproval {
		t.Errorf("expected strict approval from env")
	}
	if cfg.LogFormat != "console" {
		t.Errorf("expected console log format, got %q", cfg.LogFormat)
	}
}

func TestLoadPrefixedEnvWins(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://plain.local")
	t.Setenv("FARMSUPPLY_BACKEND_URL", "http://prefixed.local")

	cfg, err := load(viper.New(), nil)
	if err != nil {
		t.Fatalf("load returned unexpected error: %v", err)
	}
	if cfg.BackendURL != "http://prefixed.local" {
		t.Fatalf("expected prefixed env to win, got %q", cfg.BackendURL)
	}
}

func TestLoadNormalizesNonPositiveValues(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://backend.local")
	t.Setenv("BACKEND_TIMEOUT", "0s")
	t.Setenv("REFRESH_WORKERS", "-1")
	t.Setenv("SHUTDOWN_TIMEOUT", "-5s")
	t.Setenv("BACKEND_RATE_LIMIT", "-2")

	cfg, err := load(viper.New(), nil)
	if err != nil {
		t.Fatalf("load returned unexpected error: %v", err)
	}
	if cfg.BackendTimeout != defaultBackendTimeout {
		t.Errorf("expected default backend timeout, got %v", cfg.BackendTimeout)
	}
	if cfg.RefreshWorkers != defaultRefreshWorkers {
		t.Errorf("expected default workers, got %d", cfg.RefreshWorkers)
	}
	if cfg.ShutdownTimeout != defaultShutdownTimeout {
		t.Errorf("expected default shutdown timeout, got %v", cfg.ShutdownTimeout)
	}
	if cfg.BackendRateLimit != 0 {
		t.Errorf("expected negative rate limit to disable limiting, got %v", cfg.BackendRateLimit)
	}
}

func TestLoadSecretFromFile(t *testing.T) {
	dir := t.TempDir()
	secretPath := filepath.Join(dir, "secret")
	if err := os.WriteFile(secretPath, []byte("file-secret\n"), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}

	t.Setenv("BACKEND_URL", "http://backend.local")
	t.Setenv("JWT_SECRET_FILE", secretPath)

	cfg, err := load(viper.New(), nil)
	if err != nil {
		t.Fatalf("load returned unexpected error: %v", err)
	}
	if cfg.ConsoleSecret != "file-secret" {
		t.Fatalf("expected secret from file, got %q", cfg.ConsoleSecret)
	}

	t.Setenv("JWT_SECRET_FILE", filepath.Join(dir, "missing"))
	if _, err := load(viper.New(), nil); err == nil {
		t.Fatal("expected error for missing secret file")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "farmsupply.yaml")
	content := strings.Join([]string{
		"backend_url: http://file.local",
		"session_store: sqlite",
		"sqlite_path: " + filepath.Join(dir, "sessions.db"),
		"invoice_archive: dir:" + dir,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := load(viper.New(), newFlags(t, "--config", path))
	if err != nil {
		t.Fatalf("load returned unexpected error: %v", err)
	}
	if cfg.BackendURL != "http://file.local" {
		t.Errorf("expected backend url from file, got %q", cfg.BackendURL)
	}
	if cfg.SessionStore != SessionStoreSQLite {
		t.Errorf("expected sqlite session store, got %q", cfg.SessionStore)
	}
	if cfg.InvoiceArchive != "dir:"+dir {
		t.Errorf("unexpected invoice archive %q", cfg.InvoiceArchive)
	}
}

func TestLoadValidatesSessionStore(t *testing.T) {
	cases := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{"unknown store", map[string]string{"SESSION_STORE": "etcd"}, true},
		{"postgres without dsn", map[string]string{"SESSION_STORE": "postgres"}, true},
		{"postgres with dsn", map[string]string{"SESSION_STORE": "postgres", "DATABASE_URI": "postgres://u:p@localhost/db"}, false},
		{"redis with default address", map[string]string{"SESSION_STORE": "Redis"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("BACKEND_URL", "http://backend.local")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := load(viper.New(), nil)
			if tc.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := loadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing .env must be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("FARMSUPPLY_TEST_DOTENV=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("FARMSUPPLY_TEST_DOTENV", "")
	os.Unsetenv("FARMSUPPLY_TEST_DOTENV")

	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}
	if got := os.Getenv("FARMSUPPLY_TEST_DOTENV"); got != "from-file" {
		t.Fatalf("expected value from .env, got %q", got)
	}
}
