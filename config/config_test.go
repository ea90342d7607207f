package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herdius/herdius-bridge/types"
)

const sample = `
[dev]
chain = "sepolia"
confirmations = 3
threshold = 2
contracts = ["0x00000000000000000000000000000000000000c0"]
ethrpcurl = "http://localhost:8545"
httptimeout = "5s"
lockauthorities = ["0x0102"]

[dev.domain]
name = "herdius-dev"
verifyingcontract = "0x00000000000000000000000000000000000000c1"

[staging]
chain = "ethereum"
threshold = 0
`

func writeConfig(t *testing.T) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "herdius-config")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "config.toml"), []byte(sample), 0600))
	return dir
}

func TestLoadDev(t *testing.T) {
	d, err := Load(writeConfig(t), "dev")
	require.NoError(t, err)

	assert.Equal(t, types.Sepolia, d.Chain)
	assert.Equal(t, uint64(3), d.Confirmations)
	assert.Equal(t, uint64(2), d.Threshold)
	assert.Equal(t, []common.Address{common.HexToAddress("0xc0")}, d.Contracts)
	assert.Equal(t, 5*time.Second, d.HTTPTimeout)
	assert.Equal(t, "herdius-dev", d.Domain.Name)
	assert.Equal(t, "1", d.Domain.Version)
	assert.Equal(t, uint64(11155111), d.Domain.ChainID)
	assert.Equal(t, common.HexToAddress("0xc1"), d.Domain.VerifyingContract)
	assert.Equal(t, ":8080", d.RESTAddr)
}

func TestLoadUnknownEnvFallsBackToDev(t *testing.T) {
	d, err := Load(writeConfig(t), "prod")
	require.NoError(t, err)
	assert.Equal(t, types.Sepolia, d.Chain)
}

func TestLoadRejectsZeroThreshold(t *testing.T) {
	_, err := Load(writeConfig(t), "staging")
	assert.Error(t, err)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	dir, err := ioutil.TempDir("", "herdius-empty")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	d, err := Load(dir, "dev")
	require.NoError(t, err)
	assert.Equal(t, types.Goerli, d.Chain)
	assert.Equal(t, uint64(12), d.Confirmations)
	assert.Equal(t, 6*time.Second, d.BlockInterval)
}

func TestEnvironmentOverride(t *testing.T) {
	os.Setenv("HERDIUS_DEV_CONFIRMATIONS", "40")
	defer os.Unsetenv("HERDIUS_DEV_CONFIRMATIONS")

	d, err := Load(writeConfig(t), "dev")
	require.NoError(t, err)
	assert.Equal(t, uint64(40), d.Confirmations)
}

func TestChainByID(t *testing.T) {
	os.Setenv("HERDIUS_DEV_CHAIN", "5")
	defer os.Unsetenv("HERDIUS_DEV_CHAIN")

	d, err := Load(writeConfig(t), "dev")
	require.NoError(t, err)
	assert.Equal(t, types.Goerli, d.Chain)
	assert.Equal(t, uint64(5), d.Domain.ChainID)

	os.Setenv("HERDIUS_DEV_CHAIN", "424242")
	_, err = Load(writeConfig(t), "dev")
	assert.Error(t, err)
}

func TestDecodeKeys(t *testing.T) {
	keys, err := DecodeKeys([]string{"0x0102", "0xff"})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{1, 2}, {0xff}}, keys)

	_, err = DecodeKeys([]string{"zz"})
	assert.Error(t, err)
}
