// SPDX-License-Identifier: Apache-2.0

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perun.network/install-protocol/config"
)

func TestLoad_ParsesAndAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "host.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
chain_id = 1
allowed_app_addresses = ["0x01", "0x02"]
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cfg.ChainID)
	assert.Equal(t, 30*time.Second, cfg.SendAndWaitTimeout.Duration)
	assert.Equal(t, []string{"0x01", "0x02"}, cfg.AllowedAppAddresses)
}

func TestLoad_RejectsMissingChainID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "host.toml")
	require.NoError(t, os.WriteFile(path, []byte(`send_and_wait_timeout = "5s"`), 0o644))

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoad_ParsesExplicitTimeout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "host.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
chain_id = 5
send_and_wait_timeout = "2m"
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.SendAndWaitTimeout.Duration)
}
