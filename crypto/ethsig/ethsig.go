// Package ethsig builds the digests that external-chain contracts sign and
// verify: EIP-712 typed data for link proofs and lock attestations, and the
// personal_sign convention for replayed contract events and detach exports.
//
// Every function here is pure. Byte layouts must not change: signatures made
// by wallets and contracts on the external chain are checked against them.
package ethsig

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

const (
	// LinkAction is the action string bound into link proofs.
	LinkAction = "link"

	// ActionLock and ActionUnlock tag replayed contract events.
	ActionLock   = "lock"
	ActionUnlock = "unlock"

	linkPrimaryType = "Link"
	msgPrimaryType  = "Msg"
)

var (
	// ErrInvalidSignature is returned for signatures that are not 65 bytes
	// or whose recovery id is out of range.
	ErrInvalidSignature = errors.New("invalid signature")

	domainFields = []apitypes.Type{
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	}
	linkFields = []apitypes.Type{
		{Name: "genesis", Type: "bytes32"},
		{Name: "action", Type: "string"},
		{Name: "account", Type: "bytes32"},
	}
	msgFields = []apitypes.Type{
		{Name: "name", Type: "string"},
		{Name: "sender", Type: "address"},
		{Name: "amount", Type: "uint256"},
		{Name: "lockPeriod", Type: "uint256"},
	}
)

// Domain is the EIP-712 domain separating bridge signatures from any other use.
type Domain struct {
	Name              string
	Version           string
	ChainID           uint64
	VerifyingContract common.Address
}

func (d Domain) typed() apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:              d.Name,
		Version:           d.Version,
		ChainId:           (*math.HexOrDecimal256)(new(big.Int).SetUint64(d.ChainID)),
		VerifyingContract: d.VerifyingContract.Hex(),
	}
}

// Separator returns keccak256 of the encoded domain.
func (d Domain) Separator() ([]byte, error) {
	td := apitypes.TypedData{
		Types:  apitypes.Types{"EIP712Domain": domainFields},
		Domain: d.typed(),
	}
	sep, err := td.HashStruct("EIP712Domain", td.Domain.Map())
	if err != nil {
		return nil, errors.Wrap(err, "hash domain")
	}
	return sep, nil
}

// LinkDigest is the digest an external account signs to prove it wants to be
// linked with the native account: keccak256(0x19 0x01 || domain || struct).
func LinkDigest(d Domain, genesis common.Hash, account [32]byte) ([]byte, error) {
	td := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain":  domainFields,
			linkPrimaryType: linkFields,
		},
		PrimaryType: linkPrimaryType,
		Domain:      d.typed(),
		Message: apitypes.TypedDataMessage{
			"genesis": hexutil.Encode(genesis[:]),
			"action":  LinkAction,
			"account": hexutil.Encode(account[:]),
		},
	}
	digest, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return nil, errors.Wrap(err, "hash link proof")
	}
	return digest, nil
}

// AttestationDigest is the typed-data digest of a lock or unlock claim.
func AttestationDigest(d Domain, action string, sender common.Address, amount, lockPeriod *uint256.Int) ([]byte, error) {
	td := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": domainFields,
			msgPrimaryType: msgFields,
		},
		PrimaryType: msgPrimaryType,
		Domain:      d.typed(),
		Message: apitypes.TypedDataMessage{
			"name":       action,
			"sender":     sender.Hex(),
			"amount":     toBig(amount),
			"lockPeriod": toBig(lockPeriod),
		},
	}
	digest, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return nil, errors.Wrap(err, "hash attestation")
	}
	return digest, nil
}

// ReplayMessage is the raw message the partner contract has the sender sign:
//
//	action_tag || sender(20) || chain_id(32) || amount(32) || [lock_period(32)]
//
// The lock period is only present for locks.
func ReplayMessage(isLock bool, sender common.Address, chainID uint64, amount, lockPeriod *uint256.Int) []byte {
	tag := ActionUnlock
	if isLock {
		tag = ActionLock
	}
	msg := make([]byte, 0, len(tag)+common.AddressLength+3*32)
	msg = append(msg, tag...)
	msg = append(msg, sender.Bytes()...)
	msg = append(msg, word(uint256.NewInt(chainID))...)
	msg = append(msg, word(amount)...)
	if isLock {
		msg = append(msg, word(lockPeriod)...)
	}
	return msg
}

// ReplayDigest wraps keccak256(ReplayMessage(...)) in the personal-message prefix.
func ReplayDigest(isLock bool, sender common.Address, chainID uint64, amount, lockPeriod *uint256.Int) []byte {
	return PersonalDigest(ReplayMessage(isLock, sender, chainID, amount, lockPeriod))
}

// ExportPayload is asset_identity || chain_id(32) || target(20) || nonce(8).
func ExportPayload(asset []byte, chainID uint64, target common.Address, nonce uint64) []byte {
	payload := make([]byte, 0, len(asset)+32+common.AddressLength+8)
	payload = append(payload, asset...)
	payload = append(payload, word(uint256.NewInt(chainID))...)
	payload = append(payload, target.Bytes()...)
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)
	return append(payload, n[:]...)
}

// ExportDigest is the digest the detach key signs for an export.
func ExportDigest(asset []byte, chainID uint64, target common.Address, nonce uint64) []byte {
	return PersonalDigest(ExportPayload(asset, chainID, target, nonce))
}

// PersonalDigest returns keccak256("\x19Ethereum Signed Message:\n32" || keccak256(msg)).
func PersonalDigest(msg []byte) []byte {
	return accounts.TextHash(ethcrypto.Keccak256(msg))
}

// Recover returns the address that produced sig over digest. V may be given
// as 0/1 or 27/28.
func Recover(digest, sig []byte) (common.Address, error) {
	if len(sig) != ethcrypto.SignatureLength {
		return common.Address{}, ErrInvalidSignature
	}
	if len(digest) != ethcrypto.DigestLength {
		return common.Address{}, errors.Errorf("digest must be %d bytes, got %d", ethcrypto.DigestLength, len(digest))
	}
	normalized := make([]byte, ethcrypto.SignatureLength)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	if normalized[64] > 1 {
		return common.Address{}, ErrInvalidSignature
	}
	pub, err := ethcrypto.SigToPub(digest, normalized)
	if err != nil {
		return common.Address{}, errors.Wrap(ErrInvalidSignature, err.Error())
	}
	return ethcrypto.PubkeyToAddress(*pub), nil
}

func word(v *uint256.Int) []byte {
	if v == nil {
		v = new(uint256.Int)
	}
	w := v.Bytes32()
	return w[:]
}

func toBig(v *uint256.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v.ToBig()
}
