package ethsig

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDomain = Domain{
	Name:              "Herdius Bridge",
	Version:           "1",
	ChainID:           5,
	VerifyingContract: common.HexToAddress("0x5fbdb2315678afecb367f032d93f642f64180aa3"),
}

func pad(b []byte) []byte {
	return common.LeftPadBytes(b, 32)
}

func manualDomain(d Domain) []byte {
	return ethcrypto.Keccak256(
		ethcrypto.Keccak256([]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)")),
		ethcrypto.Keccak256([]byte(d.Name)),
		ethcrypto.Keccak256([]byte(d.Version)),
		pad(uint256.NewInt(d.ChainID).Bytes()),
		pad(d.VerifyingContract.Bytes()),
	)
}

func TestDomainSeparatorMatchesManualEncoding(t *testing.T) {
	sep, err := testDomain.Separator()
	require.NoError(t, err)
	assert.Equal(t, manualDomain(testDomain), sep)
}

func TestDomainSeparatorLargeChainID(t *testing.T) {
	d := testDomain
	d.ChainID = 1<<63 + 7
	sep, err := d.Separator()
	require.NoError(t, err)
	assert.Equal(t, manualDomain(d), sep)

	d.ChainID = ^uint64(0)
	sep, err = d.Separator()
	require.NoError(t, err)
	assert.Equal(t, manualDomain(d), sep)
}

func TestLinkDigestMatchesManualEncoding(t *testing.T) {
	genesis := common.HexToHash("0x01")
	var account [32]byte
	account[31] = 0xaa

	digest, err := LinkDigest(testDomain, genesis, account)
	require.NoError(t, err)

	structHash := ethcrypto.Keccak256(
		ethcrypto.Keccak256([]byte("Link(bytes32 genesis,string action,bytes32 account)")),
		genesis[:],
		ethcrypto.Keccak256([]byte("link")),
		account[:],
	)
	want := ethcrypto.Keccak256([]byte{0x19, 0x01}, manualDomain(testDomain), structHash)
	assert.Equal(t, want, digest)

	other := account
	other[0] = 1
	digest2, err := LinkDigest(testDomain, genesis, other)
	require.NoError(t, err)
	assert.NotEqual(t, digest, digest2)
}

func TestAttestationDigestMatchesManualEncoding(t *testing.T) {
	sender := common.HexToAddress("0x00000000000000000000000000000000000000ff")
	amount := uint256.NewInt(100)
	period := uint256.NewInt(1)

	digest, err := AttestationDigest(testDomain, ActionLock, sender, amount, period)
	require.NoError(t, err)

	structHash := ethcrypto.Keccak256(
		ethcrypto.Keccak256([]byte("Msg(string name,address sender,uint256 amount,uint256 lockPeriod)")),
		ethcrypto.Keccak256([]byte("lock")),
		pad(sender.Bytes()),
		pad(amount.Bytes()),
		pad(period.Bytes()),
	)
	want := ethcrypto.Keccak256([]byte{0x19, 0x01}, manualDomain(testDomain), structHash)
	assert.Equal(t, want, digest)
}

func TestReplayMessageLayout(t *testing.T) {
	sender := common.HexToAddress("0x1111111111111111111111111111111111111111")
	amount := uint256.NewInt(100)
	period := uint256.NewInt(7)

	lock := ReplayMessage(true, sender, 1, amount, period)
	require.Len(t, lock, 4+20+32*3)
	assert.Equal(t, []byte("lock"), lock[:4])
	assert.Equal(t, sender.Bytes(), lock[4:24])
	assert.Equal(t, byte(1), lock[24+31])
	assert.Equal(t, byte(100), lock[56+31])
	assert.Equal(t, byte(7), lock[88+31])

	unlock := ReplayMessage(false, sender, 1, new(uint256.Int), period)
	require.Len(t, unlock, 6+20+32*2)
	assert.Equal(t, []byte("unlock"), unlock[:6])

	prefixed := append([]byte("\x19Ethereum Signed Message:\n32"), ethcrypto.Keccak256(lock)...)
	assert.Equal(t, ethcrypto.Keccak256(prefixed), ReplayDigest(true, sender, 1, amount, period))
}

func TestExportPayloadLayout(t *testing.T) {
	asset := []byte("asset-1")
	target := common.HexToAddress("0x2222222222222222222222222222222222222222")
	payload := ExportPayload(asset, 56, target, 3)

	require.Len(t, payload, len(asset)+32+20+8)
	assert.Equal(t, asset, payload[:len(asset)])
	assert.Equal(t, byte(56), payload[len(asset)+31])
	assert.Equal(t, target.Bytes(), payload[len(asset)+32:len(asset)+52])
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 3}, payload[len(asset)+52:])
	assert.Equal(t, PersonalDigest(payload), ExportDigest(asset, 56, target, 3))
}

func TestRecoverSoundness(t *testing.T) {
	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	signer := ethcrypto.PubkeyToAddress(key.PublicKey)

	digest := ReplayDigest(true, signer, 1, uint256.NewInt(5), uint256.NewInt(1))
	sig, err := ethcrypto.Sign(digest, key)
	require.NoError(t, err)

	got, err := Recover(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, signer, got)

	// EVM-style V.
	evm := append([]byte(nil), sig...)
	evm[64] += 27
	got, err = Recover(digest, evm)
	require.NoError(t, err)
	assert.Equal(t, signer, got)

	// Single-bit flips in the signature or the message never yield the signer.
	for _, i := range []int{0, 17, 40, 63} {
		bad := append([]byte(nil), sig...)
		bad[i] ^= 0x01
		addr, err := Recover(digest, bad)
		if err == nil {
			assert.NotEqual(t, signer, addr, "bit flip at %d", i)
		}
	}
	other := ReplayDigest(true, signer, 1, uint256.NewInt(6), uint256.NewInt(1))
	addr, err := Recover(other, sig)
	if err == nil {
		assert.NotEqual(t, signer, addr)
	}

	_, err = Recover(digest, sig[:64])
	assert.ErrorIs(t, err, ErrInvalidSignature)

	badV := append([]byte(nil), sig...)
	badV[64] = 30
	_, err = Recover(digest, badV)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
