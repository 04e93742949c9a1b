package doctor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shinji-kodama/devstrap/internal/config"
	"github.com/shinji-kodama/devstrap/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCheckTools_RequiredFlags verifies which tools count as required
// for different project shapes. Found/Version depend on the machine
// running the tests, so only the shape of the report is asserted.
func TestCheckTools_RequiredFlags(t *testing.T) {
	t.Run("bare backend project", func(t *testing.T) {
		cfg := config.Default(t.TempDir())

		checks := CheckTools(context.Background(), cfg)
		require.Len(t, checks, 4)

		// Interpreter is always required.
		assert.Equal(t, "python3", checks[0].Tool)
		assert.True(t, checks[0].Required)

		// No frontend manifest, no services: everything else optional.
		assert.Equal(t, "node", checks[1].Tool)
		assert.False(t, checks[1].Required)
		assert.False(t, checks[2].Required)
		assert.Equal(t, "docker", checks[3].Tool)
		assert.False(t, checks[3].Required)
	})

	t.Run("frontend manifest makes node required", func(t *testing.T) {
		root := t.TempDir()
		frontend := filepath.Join(root, "frontend")
		require.NoError(t, os.MkdirAll(frontend, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(frontend, "package.json"), []byte("{}"), 0o644))

		cfg := config.Default(root)
		checks := CheckTools(context.Background(), cfg)
		require.Len(t, checks, 4)

		assert.True(t, checks[1].Required, "node required when a manifest exists")
		assert.Equal(t, "npm", checks[2].Tool, "npm is the default package manager")
		assert.True(t, checks[2].Required)
	})

	t.Run("lockfile steers the package manager probe", func(t *testing.T) {
		root := t.TempDir()
		frontend := filepath.Join(root, "frontend")
		require.NoError(t, os.MkdirAll(frontend, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(frontend, "package.json"), []byte("{}"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(frontend, "pnpm-lock.yaml"), nil, 0o644))

		cfg := config.Default(root)
		checks := CheckTools(context.Background(), cfg)
		assert.Equal(t, "pnpm", checks[2].Tool)
	})

	t.Run("declared services make docker required", func(t *testing.T) {
		cfg := config.Default(t.TempDir())
		cfg.Services.Containers = []model.ServiceSpec{{Name: "db", Image: "postgres:16"}}

		checks := CheckTools(context.Background(), cfg)
		assert.True(t, checks[3].Required)
	})

	t.Run("configured interpreter is probed", func(t *testing.T) {
		cfg := config.Default(t.TempDir())
		cfg.Backend.Python = "python3.12"

		checks := CheckTools(context.Background(), cfg)
		assert.Equal(t, "python3.12", checks[0].Tool)
	})
}

// TestMissingRequired verifies only required-and-absent tools appear
// in the failure summary.
func TestMissingRequired(t *testing.T) {
	checks := []model.ToolCheck{
		{Tool: "python3", Required: true, Found: true},
		{Tool: "node", Required: true, Found: false},
		{Tool: "npm", Required: false, Found: false},
		{Tool: "docker", Required: true, Found: false},
	}

	assert.Equal(t, []string{"node", "docker"}, MissingRequired(checks))
}

// TestMissingRequired_AllPresent verifies an empty result when every
// required tool resolved.
func TestMissingRequired_AllPresent(t *testing.T) {
	checks := []model.ToolCheck{
		{Tool: "python3", Required: true, Found: true},
		{Tool: "npm", Required: false, Found: false},
	}
	assert.Empty(t, MissingRequired(checks))
}
