package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("WEBFORGE_CONFIG", "")
	t.Chdir(home)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000", cfg.Backend.URL)
	require.Equal(t, 60*time.Second, cfg.Backend.Timeout)
	require.Equal(t, 5, cfg.Backend.Burst)
	require.Equal(t, filepath.Join(home, ".local", "share", "webforge", "webforge.db"), cfg.Database.Path)
	require.Equal(t, "react", cfg.Form.Framework)
	require.Equal(t, "mongodb", cfg.Form.Database)
	require.Equal(t, "saas", cfg.Form.Template)
	require.NotEmpty(t, cfg.Form.Prompt)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(home)

	path := filepath.Join(home, "webforge.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[backend]
url = "https://builder.example.com"
timeout = "15s"

[form]
framework = "next"
`), 0o600))
	t.Setenv("WEBFORGE_CONFIG", path)
	t.Setenv("WEBFORGE_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://builder.example.com", cfg.Backend.URL)
	require.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	require.Equal(t, "next", cfg.Form.Framework)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadDotEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("WEBFORGE_CONFIG", "")
	t.Chdir(home)
	require.NoError(t, os.WriteFile(filepath.Join(home, ".env"), []byte("WEBFORGE_BACKEND_URL=http://10.0.0.5:9000\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("WEBFORGE_BACKEND_URL") })

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://10.0.0.5:9000", cfg.Backend.URL)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	ok := Config{
		Backend:  BackendConfig{URL: "http://localhost:8000", Timeout: time.Second},
		Database: DatabaseConfig{Path: "x.db"},
		Session:  SessionConfig{Dir: "/tmp/s"},
	}
	require.NoError(t, ok.Validate())

	bad := ok
	bad.Backend.URL = "localhost"
	require.Error(t, bad.Validate())

	bad = ok
	bad.Backend.Timeout = 0
	require.Error(t, bad.Validate())

	bad = ok
	bad.Database.Path = ""
	require.Error(t, bad.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(home)
	path := filepath.Join(home, "saved.toml")
	t.Setenv("WEBFORGE_CONFIG", path)

	cfg := Config{
		Backend:  BackendConfig{URL: "http://b:1", Timeout: 2 * time.Second, RatePerSecond: 1, Burst: 2},
		Database: DatabaseConfig{Path: filepath.Join(home, "w.db")},
		Session:  SessionConfig{Dir: filepath.Join(home, "s")},
		Log:      LogConfig{Level: "warn"},
		Form:     FormConfig{Prompt: "blog site", Framework: "react", Database: "sqlite", Template: "blog"},
	}
	require.NoError(t, Save(cfg))

	got, err := Load()
	require.NoError(t, err)
	require.Equal(t, cfg.Backend, got.Backend)
	require.Equal(t, cfg.Form, got.Form)
	require.Equal(t, "warn", got.Log.Level)
}
