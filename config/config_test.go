package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenConfigFile(t *testing.T) {
	doc := []byte(`
client:
  broker: broker.example:1883
  client_id: conf-1
  clean_session: true
  keep_alive_sec: 30
  username: alice
  log:
    level: debug
    console: true
`)
	p := filepath.Join(t.TempDir(), "mqttc.yaml")
	require.NoError(t, os.WriteFile(p, doc, 0o600))

	c, err := OpenConfigFile(p)
	require.NoError(t, err)
	require.Equal(t, "broker.example:1883", c.Broker)
	require.Equal(t, "conf-1", c.ClientID)
	require.True(t, c.CleanSession)
	require.EqualValues(t, 30, c.KeepAliveSec)
	require.Equal(t, "alice", c.Username)
	require.Equal(t, "debug", c.Log.Level)
	require.True(t, c.Log.Console)
}

func TestOpenConfigFileEmptyPath(t *testing.T) {
	c, err := OpenConfigFile("")
	require.NoError(t, err)
	require.Equal(t, &Client{}, c)
}

func TestOpenConfigFileMissing(t *testing.T) {
	_, err := OpenConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
