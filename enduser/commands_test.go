package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herdius/herdius-bridge/accounts/keystore"
	"github.com/herdius/herdius-bridge/crypto/ed"
	"github.com/herdius/herdius-bridge/crypto/ethsig"
	"github.com/herdius/herdius-bridge/tx"
	"github.com/herdius/herdius-bridge/types"
)

const testEthKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestLinkProofRecoversToSender(t *testing.T) {
	account := types.AccountID(ed.GenPrivKey().PubKeyEd25519())
	out, err := linkProofCmd([]string{"-eth-key", testEthKey, "-account", account.String(), "-genesis", "0x1234"})
	require.NoError(t, err)

	sig, err := hexutil.Decode(out)
	require.NoError(t, err)
	digest, err := ethsig.LinkDigest(ethsig.Domain{Name: "herdius", Version: "1", ChainID: 5}, common.HexToHash("0x1234"), account)
	require.NoError(t, err)
	signer, err := ethsig.Recover(digest, sig)
	require.NoError(t, err)

	key, err := ethcrypto.HexToECDSA(testEthKey)
	require.NoError(t, err)
	assert.Equal(t, ethcrypto.PubkeyToAddress(key.PublicKey), signer)
}

func TestAttestSignsReplayDigest(t *testing.T) {
	out, err := attestCmd([]string{"-eth-key", testEthKey, "-action", "lock", "-amount", "100", "-period", "30"})
	require.NoError(t, err)

	var a attestation
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.Equal(t, "100", a.Amount)

	sig, err := hexutil.Decode(a.Replay)
	require.NoError(t, err)
	sender := common.HexToAddress(a.Sender)
	signer, err := ethsig.Recover(ethsig.ReplayDigest(true, sender, 5, uint256.NewInt(100), uint256.NewInt(30)), sig)
	require.NoError(t, err)
	assert.Equal(t, sender, signer)
}

func TestAttestRejectsBadInput(t *testing.T) {
	_, err := attestCmd([]string{"-eth-key", testEthKey, "-action", "transfer"})
	assert.Error(t, err)
	_, err = attestCmd([]string{"-eth-key", testEthKey, "-amount", "ten"})
	assert.Error(t, err)
	_, err = attestCmd([]string{"-eth-key", "zz"})
	assert.Error(t, err)
}

func TestBuildCall(t *testing.T) {
	target := "0x00000000000000000000000000000000000000b0"
	call, err := buildCall("detach", flag.NewFlagSet("detach", flag.ContinueOnError),
		[]string{"-asset", "0xaa", "-chain", "sepolia", "-target", target})
	require.NoError(t, err)
	assert.Equal(t, tx.RequestDetach{Asset: []byte{0xaa}, Chain: types.Sepolia, Target: common.HexToAddress(target)}, call)

	call, err = buildCall("unlink", flag.NewFlagSet("unlink", flag.ContinueOnError), []string{"-external", target})
	require.NoError(t, err)
	assert.Equal(t, tx.Unlink{External: common.HexToAddress(target)}, call)

	_, err = buildCall("link", flag.NewFlagSet("link", flag.ContinueOnError), []string{"-proof", "nothex"})
	assert.Error(t, err)
	_, err = buildCall("detach", flag.NewFlagSet("detach", flag.ContinueOnError), []string{"-asset", "aa", "-target", "x"})
	assert.Error(t, err)
}

func TestSubmitPostsSignedEnvelope(t *testing.T) {
	var received tx.Tx
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tx", r.URL.Path)
		body, err := ioutil.ReadAll(r.Body)
		require.NoError(t, err)
		received, err = hex.DecodeString(string(body))
		require.NoError(t, err)
		w.Write([]byte(`{"added":true}`))
	}))
	defer srv.Close()

	dir, err := ioutil.TempDir("", "enduser")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	keyfile := filepath.Join(dir, "key.json")
	key, err := keystore.StoreKey(keyfile, "")
	require.NoError(t, err)

	out, err := submitCmd("unlink", []string{"-keyfile", keyfile, "-node", srv.URL, "-external", "0x00000000000000000000000000000000000000b0"})
	require.NoError(t, err)
	assert.Equal(t, `{"added":true}`, out)

	env, err := tx.Decode(received)
	require.NoError(t, err)
	assert.NoError(t, env.VerifyAccount())
	assert.Equal(t, key.Account(), env.Account)
}
