package nodejs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shinji-kodama/devstrap/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// touch creates an empty file in dir.
func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
}

// TestDetectPackageManager_Lockfiles verifies lockfile-based
// detection for each supported package manager.
func TestDetectPackageManager_Lockfiles(t *testing.T) {
	tests := []struct {
		lockfile string
		expected PackageManager
	}{
		{"pnpm-lock.yaml", PNPM},
		{"yarn.lock", Yarn},
		{"bun.lockb", Bun},
		{"bun.lock", Bun},
		{"package-lock.json", NPM},
	}

	for _, tt := range tests {
		t.Run(tt.lockfile, func(t *testing.T) {
			dir := t.TempDir()
			touch(t, dir, tt.lockfile)

			pm, err := DetectPackageManager(dir, "")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, pm)
		})
	}
}

// TestDetectPackageManager_SpecificBeatsNPM verifies that when both a
// package-lock.json and a more specific lockfile exist (common after
// a migration), the more specific tool wins.
func TestDetectPackageManager_SpecificBeatsNPM(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "package-lock.json")
	touch(t, dir, "pnpm-lock.yaml")

	pm, err := DetectPackageManager(dir, "")
	require.NoError(t, err)
	assert.Equal(t, PNPM, pm)
}

// TestDetectPackageManager_Default verifies npm is the fallback when
// no lockfile exists at all.
func TestDetectPackageManager_Default(t *testing.T) {
	pm, err := DetectPackageManager(t.TempDir(), "")
	require.NoError(t, err)
	assert.Equal(t, NPM, pm)
}

// TestDetectPackageManager_Override verifies an explicit override
// beats lockfile detection, and an unknown override is rejected.
func TestDetectPackageManager_Override(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "yarn.lock")

	t.Run("valid override wins over lockfile", func(t *testing.T) {
		pm, err := DetectPackageManager(dir, "bun")
		require.NoError(t, err)
		assert.Equal(t, Bun, pm)
	})

	t.Run("unknown override rejected", func(t *testing.T) {
		_, err := DetectPackageManager(dir, "cargo")
		assert.Error(t, err)
	})
}

// TestHasManifest verifies package.json detection.
func TestHasManifest(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "package.json")
		assert.True(t, HasManifest(dir))
	})

	t.Run("absent", func(t *testing.T) {
		assert.False(t, HasManifest(t.TempDir()))
	})

	t.Run("nonexistent directory", func(t *testing.T) {
		assert.False(t, HasManifest(filepath.Join(t.TempDir(), "no-such-dir")))
	})
}

// TestInstallStep verifies the generated plan step delegates to the
// resolved package manager in the frontend directory.
func TestInstallStep(t *testing.T) {
	env := map[string]string{"NODE_ENV": "development"}
	step := InstallStep("/app/frontend", PNPM, env)

	assert.Equal(t, model.StepFrontendInstall, step.Kind)
	assert.Equal(t, "pnpm install", step.Name)
	assert.Equal(t, "/app/frontend", step.Dir)
	assert.Equal(t, []string{"pnpm", "install"}, step.Command)
	assert.Equal(t, env, step.Env)
}
