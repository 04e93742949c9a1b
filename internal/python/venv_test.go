package python

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shinji-kodama/devstrap/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestVenvBinDir verifies the per-OS executables directory layout:
// POSIX venvs use bin/, Windows venvs use Scripts/.
func TestVenvBinDir(t *testing.T) {
	tests := []struct {
		goos     string
		expected string
	}{
		{"linux", filepath.Join("/app/.venv", "bin")},
		{"darwin", filepath.Join("/app/.venv", "bin")},
		{"windows", filepath.Join("/app/.venv", "Scripts")},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			assert.Equal(t, tt.expected, VenvBinDir("/app/.venv", tt.goos))
		})
	}
}

// TestVenvTool verifies tool path construction inside a venv,
// including the .exe suffix on Windows.
func TestVenvTool(t *testing.T) {
	tests := []struct {
		goos     string
		tool     string
		expected string
	}{
		{"linux", "pip", filepath.Join("/app/.venv", "bin", "pip")},
		{"darwin", "uvicorn", filepath.Join("/app/.venv", "bin", "uvicorn")},
		{"windows", "pip", filepath.Join("/app/.venv", "Scripts", "pip.exe")},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.tool, func(t *testing.T) {
			assert.Equal(t, tt.expected, VenvTool("/app/.venv", tt.tool, tt.goos))
		})
	}
}

// TestVenvExists verifies the pyvenv.cfg marker check: a directory
// without the marker is treated as absent so a half-created venv
// gets rebuilt instead of trusted.
func TestVenvExists(t *testing.T) {
	t.Run("complete venv", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "pyvenv.cfg"), []byte("home = /usr\n"), 0o644))
		assert.True(t, VenvExists(dir))
	})

	t.Run("directory without marker", func(t *testing.T) {
		assert.False(t, VenvExists(t.TempDir()))
	})

	t.Run("nonexistent directory", func(t *testing.T) {
		assert.False(t, VenvExists(filepath.Join(t.TempDir(), "no-such-venv")))
	})

	t.Run("marker is a directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, "pyvenv.cfg"), 0o755))
		assert.False(t, VenvExists(dir))
	})
}

// TestFindInterpreter_Override verifies that a configured interpreter
// name is resolved as-is and a missing one maps to ExitToolMissing.
func TestFindInterpreter_Override(t *testing.T) {
	t.Run("missing override", func(t *testing.T) {
		_, err := FindInterpreter("devstrap-no-such-python")
		require.Error(t, err)

		var cliErr *model.CLIError
		require.True(t, errors.As(err, &cliErr))
		assert.Equal(t, model.ExitToolMissing, cliErr.Code)
	})

	t.Run("override resolved from PATH", func(t *testing.T) {
		// "sh" exists on every POSIX system; the override path does
		// not need to actually be Python for resolution to work.
		path, err := FindInterpreter("sh")
		if err != nil {
			t.Skip("no sh on PATH")
		}
		assert.NotEmpty(t, path)
	})
}

// TestVenvStep verifies the generated plan step invokes `python -m
// venv` against the right directories.
func TestVenvStep(t *testing.T) {
	step := VenvStep("/usr/bin/python3", "/app", "/app/.venv")

	assert.Equal(t, model.StepVenv, step.Kind)
	assert.Equal(t, "/app", step.Dir)
	assert.Equal(t, []string{"/usr/bin/python3", "-m", "venv", "/app/.venv"}, step.Command)
}

// TestPipInstallStep verifies the generated step calls the venv's own
// pip (no shell activation) with the requirements manifest.
func TestPipInstallStep(t *testing.T) {
	env := map[string]string{"PIP_INDEX_URL": "https://mirror.example/simple"}
	step := PipInstallStep("/app", "/app/.venv", "/app/requirements.txt", env)

	assert.Equal(t, model.StepBackendInstall, step.Kind)
	assert.Equal(t, "/app", step.Dir)
	assert.Equal(t, env, step.Env)
	assert.Contains(t, step.Name, "requirements.txt")

	require.Len(t, step.Command, 4)
	// Command[0] is the pip inside the venv, not a bare "pip".
	assert.Contains(t, step.Command[0], ".venv")
	assert.Equal(t, []string{"install", "-r", "/app/requirements.txt"}, step.Command[1:])
}
