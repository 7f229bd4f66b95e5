package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\nengine:\n  ping_cooldown_seconds: 120\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 120*time.Second, cfg.Engine.PingCooldown)
	assert.Equal(t, 5*time.Minute, cfg.Engine.WarningLead)
	assert.Equal(t, 60*time.Second, cfg.Engine.StopConfirmWindow)
	assert.Equal(t, []int{33, 39}, cfg.Engine.DurationsFor("Washer"))
	assert.Equal(t, []int{35, 70}, cfg.Engine.DurationsFor("Dryer"))
	assert.Nil(t, cfg.Engine.DurationsFor("Toaster"))
	assert.Equal(t, []string{"9", "17"}, cfg.Inventory.Levels)
	assert.Equal(t, "postgres", cfg.Database.Driver)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_ExplicitInventorySkipsGenerated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "inventory:\n  machines:\n    - id: W1\n      kind: Washer\n      level: \"9\"\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Inventory.Levels)
	require.Len(t, cfg.Inventory.Machines, 1)
	assert.Equal(t, "W1", cfg.Inventory.Machines[0].ID)
}
