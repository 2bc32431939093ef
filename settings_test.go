package watchspawn_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spiretechnology/go-watchspawn"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSettings(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		path := writeSettings(t, "AppSettings.json", `{
			"AppSettings": {
				"FolderPathToMonitor": "/data/incoming",
				"ApplicationPathToInvoke": "/usr/local/bin/process",
				"MonitorAllFiles": "1",
				"MonitorFileExtension": ".csv"
			}
		}`)
		settings, err := watchspawn.LoadSettings(path)
		require.NoError(t, err)
		want := &watchspawn.Settings{
			FolderPathToMonitor:     "/data/incoming",
			ApplicationPathToInvoke: "/usr/local/bin/process",
			MonitorAllFiles:         true,
			MonitorFileExtension:    ".csv",
		}
		if diff := cmp.Diff(want, settings); diff != "" {
			t.Errorf("settings mismatch (-want +got):\n%s", diff)
		}
	})
	t.Run("yaml", func(t *testing.T) {
		path := writeSettings(t, "AppSettings.yaml", `
AppSettings:
  FolderPathToMonitor: /data/incoming
  ApplicationPathToInvoke: /usr/local/bin/process
  MonitorAllFiles: 0
  MonitorFileExtension: .csv
`)
		settings, err := watchspawn.LoadSettings(path)
		require.NoError(t, err)
		want := &watchspawn.Settings{
			FolderPathToMonitor:     "/data/incoming",
			ApplicationPathToInvoke: "/usr/local/bin/process",
			MonitorAllFiles:         false,
			MonitorFileExtension:    ".csv",
		}
		if diff := cmp.Diff(want, settings); diff != "" {
			t.Errorf("settings mismatch (-want +got):\n%s", diff)
		}
	})
	t.Run("keys are case-insensitive in json", func(t *testing.T) {
		path := writeSettings(t, "AppSettings.json", `{"appSettings": {"folderPathToMonitor": "/in"}}`)
		settings, err := watchspawn.LoadSettings(path)
		require.NoError(t, err)
		require.Equal(t, "/in", settings.FolderPathToMonitor)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := watchspawn.LoadSettings(filepath.Join(t.TempDir(), "AppSettings.json"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
	t.Run("malformed file", func(t *testing.T) {
		path := writeSettings(t, "AppSettings.json", `{"AppSettings": `)
		_, err := watchspawn.LoadSettings(path)
		require.Error(t, err)
	})
}

func TestMonitorAllFilesFlag(t *testing.T) {
	cases := map[string]bool{
		`"1"`:    true,
		`1`:      true,
		`"0"`:    false,
		`0`:      false,
		`true`:   false,
		`"True"`: false,
		`null`:   false,
		`""`:     false,
	}
	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			path := writeSettings(t, "AppSettings.json", `{"AppSettings": {"MonitorAllFiles": `+raw+`}}`)
			settings, err := watchspawn.LoadSettings(path)
			require.NoError(t, err)
			require.Equal(t, want, bool(settings.MonitorAllFiles))
		})
	}

	t.Run("yaml quoted", func(t *testing.T) {
		path := writeSettings(t, "AppSettings.yml", "AppSettings:\n  MonitorAllFiles: \"1\"\n")
		settings, err := watchspawn.LoadSettings(path)
		require.NoError(t, err)
		require.True(t, bool(settings.MonitorAllFiles))
	})
	t.Run("missing key", func(t *testing.T) {
		path := writeSettings(t, "AppSettings.json", `{"AppSettings": {}}`)
		settings, err := watchspawn.LoadSettings(path)
		require.NoError(t, err)
		require.False(t, bool(settings.MonitorAllFiles))
	})
}

func TestSettingsPattern(t *testing.T) {
	require.Equal(t, "*.*", (&watchspawn.Settings{MonitorAllFiles: true, MonitorFileExtension: ".csv"}).Pattern())
	require.Equal(t, "*.csv", (&watchspawn.Settings{MonitorFileExtension: ".csv"}).Pattern())
	require.Equal(t, "*", (&watchspawn.Settings{}).Pattern())
}

func TestSettingsValidate(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "tool")
	require.NoError(t, os.WriteFile(file, nil, 0o755))
	missing := filepath.Join(dir, "missing")

	t.Run("folder", func(t *testing.T) {
		require.NoError(t, (&watchspawn.Settings{FolderPathToMonitor: dir}).ValidateFolder())
		for _, folder := range []string{"", missing, file} {
			err := (&watchspawn.Settings{FolderPathToMonitor: folder}).ValidateFolder()
			require.ErrorIs(t, err, watchspawn.ErrInvalidFolder, "folder %q", folder)
		}
	})
	t.Run("application", func(t *testing.T) {
		require.NoError(t, (&watchspawn.Settings{ApplicationPathToInvoke: file}).ValidateApplication())
		for _, app := range []string{"", missing, dir} {
			err := (&watchspawn.Settings{ApplicationPathToInvoke: app}).ValidateApplication()
			require.ErrorIs(t, err, watchspawn.ErrInvalidApplication, "application %q", app)
		}
	})
}
