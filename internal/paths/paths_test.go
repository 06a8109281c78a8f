package paths

import (
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHome points the platform lookups at dir for the test.
func fakeHome(t *testing.T, dir string) {
	t.Helper()
	saved := platformDir
	platformDir.homeDir = func() (string, error) { return dir, nil }
	platformDir.userConfigDir = func() (string, error) { return filepath.Join(dir, "AppData"), nil }
	t.Cleanup(func() { platformDir = saved })
}

func TestDefaultDirs(t *testing.T) {
	fakeHome(t, "/home/ann")

	if runtime.GOOS != "linux" {
		cfg, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/home/ann", "AppData", "tablekit"), cfg)
		data, err := DefaultDataDir()
		require.NoError(t, err)
		assert.Equal(t, cfg, data)
		return
	}

	t.Run("xdg variables win", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
		t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
		cfg, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-config/tablekit", cfg)
		data, err := DefaultDataDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-data/tablekit", data)
	})

	t.Run("home fallbacks", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("XDG_DATA_HOME", "")
		cfg, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/home/ann/.config/tablekit", cfg)
		data, err := DefaultDataDir()
		require.NoError(t, err)
		assert.Equal(t, "/home/ann/.local/share/tablekit", data)
	})

	t.Run("home lookup failure", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		platformDir.homeDir = func() (string, error) { return "", errors.New("no home") }
		_, err := DefaultConfigDir()
		assert.Error(t, err)
	})
}

func TestResolveConfigDir(t *testing.T) {
	fakeHome(t, "/home/ann")
	t.Setenv("XDG_CONFIG_HOME", "")

	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{name: "flag wins", flag: "/flag/cfg", env: "/env/cfg", want: "/flag/cfg"},
		{name: "env when no flag", env: "/env/cfg", want: "/env/cfg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.env)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("relative override becomes absolute", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "relative/cfg")
		got, err := ResolveConfigDir("")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got), got)
	})

	t.Run("platform default", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "")
		got, err := ResolveConfigDir("")
		require.NoError(t, err)
		assert.Contains(t, got, "tablekit")
	})
}

func TestResolveDataDir(t *testing.T) {
	fakeHome(t, "/home/ann")
	t.Setenv("XDG_DATA_HOME", "")

	tests := []struct {
		name   string
		flag   string
		config string
		env    string
		want   string
	}{
		{name: "flag wins", flag: "/flag", config: "/config", env: "/env", want: "/flag"},
		{name: "config over env", config: "/config", env: "/env", want: "/config"},
		{name: "env last", env: "/env", want: "/env"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.env)
			got, err := ResolveDataDir(tt.flag, tt.config)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("platform default", func(t *testing.T) {
		t.Setenv(EnvDataDir, "")
		got, err := ResolveDataDir("", "")
		require.NoError(t, err)
		assert.Contains(t, got, "tablekit")
	})
}

func TestDefaultDSN(t *testing.T) {
	assert.Equal(t, filepath.Join("/data", "tablekit.db"), DefaultDSN("/data"))
}
