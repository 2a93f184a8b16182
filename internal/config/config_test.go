package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "ws://localhost:8188/janus", cfg.GatewayURL)
	assert.Equal(t, 25*time.Second, cfg.PingPeriod)
	assert.Equal(t, "localhost", cfg.SIPProxy)
	assert.Equal(t, 5060, cfg.SIPProxyPort)
	assert.Empty(t, cfg.DialURI)
	assert.EqualValues(t, 1234, cfg.VideoRoom)
	assert.Equal(t, 5, cfg.RoomSlots)
}

func TestLoadReadsEnvSpecificFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	yaml := []byte(`mode: debug
port: 9090
gateway_url: ws://janus.internal:8188/janus
sip_proxy: sip.internal
dial_uri: "7002"
video_room: 42
room_slots: 3
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), yaml, 0o644))
	chdir(t, dir)
	t.Setenv("CONFIG_ENV", "test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "ws://janus.internal:8188/janus", cfg.GatewayURL)
	assert.Equal(t, "sip.internal", cfg.SIPProxy)
	assert.Equal(t, "7002", cfg.DialURI)
	assert.EqualValues(t, 42, cfg.VideoRoom)
	assert.Equal(t, 3, cfg.RoomSlots)
	// Unset keys keep their defaults.
	assert.Equal(t, 5060, cfg.SIPProxyPort)
	assert.Equal(t, 25*time.Second, cfg.PingPeriod)
}
