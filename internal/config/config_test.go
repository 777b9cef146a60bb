package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bbtool.yml")
	writeFile(t, path, `
project: BatteryBoi.xcodeproj
group: Managers
target: BatteryBoi (iOS)
membership_files:
  - BBSystemConstants.swift
  - BBBatteryConstants.swift
backup: true
state_dir: `+filepath.Join(dir, "state")+`
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, filepath.Join(dir, "BatteryBoi.xcodeproj"), cfg.Project)
	assert.Equal(t, "Managers", cfg.Group)
	assert.Equal(t, "BatteryBoi (iOS)", cfg.Target)
	assert.Equal(t, []string{"BBSystemConstants.swift", "BBBatteryConstants.swift"}, cfg.MembershipFiles)
	assert.True(t, cfg.Backup)
	assert.Equal(t, filepath.Join(dir, "state"), cfg.StateDir)
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvVar, "")
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Empty(t, cfg.Path)
	assert.Equal(t, DefaultGroup, cfg.Group)
	assert.Equal(t, filepath.Join(home, ".bbtool"), cfg.StateDir)
	assert.False(t, cfg.Backup)
}

func TestLoadFromEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yml")
	writeFile(t, path, "group: Views\n")
	t.Setenv(EnvVar, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Views", cfg.Group)
	assert.Equal(t, path, cfg.Path)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yml"))
	assert.ErrorContains(t, err, "failed to read config")

	bad := filepath.Join(dir, "bad.yml")
	writeFile(t, bad, "group: [unterminated\n")
	_, err = Load(bad)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestLoadBlankGroupFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.yml")
	writeFile(t, path, "group: \"\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultGroup, cfg.Group)
}

func TestResolveManifest(t *testing.T) {
	dir := t.TempDir()
	bundle := filepath.Join(dir, "BatteryBoi.xcodeproj")
	manifest := filepath.Join(bundle, ManifestName)
	writeFile(t, manifest, "{ objects = {}; }")

	cfg := Default()

	got, err := cfg.ResolveManifest(bundle)
	require.NoError(t, err)
	assert.Equal(t, manifest, got)

	got, err = cfg.ResolveManifest(manifest)
	require.NoError(t, err)
	assert.Equal(t, manifest, got)

	cfg.Project = bundle
	got, err = cfg.ResolveManifest("")
	require.NoError(t, err)
	assert.Equal(t, manifest, got)

	_, err = cfg.ResolveManifest(filepath.Join(dir, "Other.xcodeproj"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "Empty.xcodeproj")
	require.NoError(t, os.MkdirAll(empty, 0o755))
	_, err = cfg.ResolveManifest(empty)
	assert.ErrorContains(t, err, "does not contain project.pbxproj")
}

func TestResolveManifestDiscoversProject(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg := Default()
	_, err := cfg.ResolveManifest("")
	assert.ErrorIs(t, err, ErrNoProject)

	writeFile(t, filepath.Join(dir, "App.xcodeproj", ManifestName), "{ objects = {}; }")
	got, err := cfg.ResolveManifest("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("App.xcodeproj", ManifestName), got)

	writeFile(t, filepath.Join(dir, "Second.xcodeproj", ManifestName), "{ objects = {}; }")
	_, err = cfg.ResolveManifest("")
	assert.ErrorContains(t, err, "found 2 .xcodeproj bundles")
}

func TestCheckToolsCoversEveryTool(t *testing.T) {
	status := CheckTools()
	for _, name := range SystemTools {
		_, ok := status[name]
		assert.True(t, ok, name)
	}
}
