package paths

import (
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withHome points the home-directory lookup at dir for the test.
func withHome(t *testing.T, dir string) {
	t.Helper()
	orig := platformDir.homeDir
	platformDir.homeDir = func() (string, error) { return dir, nil }
	t.Cleanup(func() { platformDir.homeDir = orig })
}

func TestLinuxDefaults(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}
	withHome(t, "/home/ada")

	tests := []struct {
		name    string
		xdgConf string
		xdgData string
		resolve func() (string, error)
		want    string
	}{
		{"config from XDG", "/xdg/conf", "", DefaultConfigDir, "/xdg/conf/indexkeeper"},
		{"config under home", "", "", DefaultConfigDir, "/home/ada/.config/indexkeeper"},
		{"data from XDG", "", "/xdg/data", DefaultDataDir, "/xdg/data/indexkeeper"},
		{"data under home", "", "", DefaultDataDir, "/home/ada/.local/share/indexkeeper"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CONFIG_HOME", tt.xdgConf)
			t.Setenv("XDG_DATA_HOME", tt.xdgData)
			got, err := tt.resolve()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLinuxDefaultsWithoutHome(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}
	orig := platformDir.homeDir
	platformDir.homeDir = func() (string, error) { return "", errors.New("no home") }
	t.Cleanup(func() { platformDir.homeDir = orig })
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")

	_, err := DefaultConfigDir()
	assert.Error(t, err)
	_, err = DefaultDataDir()
	assert.Error(t, err)
}

func TestResolveConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/conf")
	platform, err := DefaultConfigDir()
	require.NoError(t, err)

	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{"flag beats env", "/etc/indexkeeper", "/opt/ik", "/etc/indexkeeper"},
		{"env when no flag", "", "/opt/ik", "/opt/ik"},
		{"platform default", "", "", platform},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.env)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/xdg/data")
	platform, err := DefaultDataDir()
	require.NoError(t, err)

	tests := []struct {
		name   string
		flag   string
		config string
		env    string
		want   string
	}{
		{"flag beats config and env", "/srv/flag", "/srv/config", "/srv/env", "/srv/flag"},
		{"config beats env", "", "/srv/config", "/srv/env", "/srv/config"},
		{"env when nothing else", "", "", "/srv/env", "/srv/env"},
		{"platform default", "", "", "", platform},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.env)
			got, err := ResolveDataDir(tt.flag, tt.config)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRelativeOverridesBecomeAbsolute(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	t.Setenv(EnvDataDir, "")

	got, err := ResolveConfigDir("conf")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), got)

	got, err = ResolveDataDir("", "data")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), got)

	t.Setenv(EnvDataDir, "env-data")
	got, err = ResolveDataDir("", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), got)
}

func TestResolveCatalog(t *testing.T) {
	tests := []struct {
		configured string
		want       string
	}{
		{"", filepath.Join("/data", CatalogFileName)},
		{"/etc/items.json", "/etc/items.json"},
		{"items.json", filepath.Join("/data", "items.json")},
		{"sub/items.json", filepath.Join("/data", "sub", "items.json")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveCatalog(tt.configured, "/data"), "configured %q", tt.configured)
	}
}

func TestStateDir(t *testing.T) {
	assert.Equal(t, filepath.Join("/data", StateDirName), StateDir("/data"))
}
