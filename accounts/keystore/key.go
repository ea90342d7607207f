// Package keystore stores the node identity key. The ed25519 key is sealed
// with a key derived from a passphrase through Argon2id.
package keystore

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/herdius/herdius-bridge/crypto"
	"github.com/herdius/herdius-bridge/crypto/ed"
	"github.com/herdius/herdius-bridge/types"
)

const version = "1"

// ErrDecrypt is returned when the passphrase does not open the key file.
var ErrDecrypt = errors.New("could not decrypt key with given passphrase")

// Key is the node identity.
type Key struct {
	PrivKey ed.PrivKeyEd25519
}

// Account is the native account id of the key.
func (k *Key) Account() types.AccountID {
	return types.AccountID(k.PrivKey.PubKeyEd25519())
}

// KDFParams are the Argon2id parameters.
type KDFParams struct {
	Salt    string `json:"salt"`
	Time    uint32 `json:"time"`
	Memory  uint32 `json:"memory"`
	Threads uint8  `json:"threads"`
	KeyLen  uint32 `json:"keylen"`
}

// DefaultKDFParams returns the parameters used for new key files.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Salt:    hex.EncodeToString(crypto.CRandBytes(32)),
		Time:    3,
		Memory:  32 * 1024,
		Threads: 4,
		KeyLen:  32,
	}
}

// CryptoJSON ...
type CryptoJSON struct {
	KDF        string    `json:"kdf"`
	KDFParams  KDFParams `json:"kdfparams"`
	Nonce      string    `json:"nonce"`
	CipherText string    `json:"ciphertext"`
}

type keyJSONV1 struct {
	Account string     `json:"account"`
	Crypto  CryptoJSON `json:"crypto"`
	Version string     `json:"version"`
}

func (p KDFParams) derive(passphrase string) []byte {
	return argon2.IDKey([]byte(passphrase), []byte(p.Salt), p.Time, p.Memory, p.Threads, p.KeyLen)
}

// KeyFromPassphrase deterministically derives an identity from a passphrase
// and salt. Used for test and dev networks.
func KeyFromPassphrase(passphrase string, p KDFParams) *Key {
	p.KeyLen = ed.SeedSize
	return &Key{PrivKey: ed.GenPrivKeyFromSecret(p.derive(passphrase))}
}

// EncryptKey seals key with passphrase.
func EncryptKey(key *Key, passphrase string, p KDFParams) ([]byte, error) {
	if p.KeyLen != 32 {
		return nil, fmt.Errorf("keylen must be 32, got %d", p.KeyLen)
	}
	var secret [32]byte
	copy(secret[:], p.derive(passphrase))
	var nonce [24]byte
	copy(nonce[:], crypto.CRandBytes(len(nonce)))

	sealed := secretbox.Seal(nil, key.PrivKey[:], &nonce, &secret)
	return json.MarshalIndent(keyJSONV1{
		Account: key.Account().String(),
		Crypto: CryptoJSON{
			KDF:        "argon2id",
			KDFParams:  p,
			Nonce:      hex.EncodeToString(nonce[:]),
			CipherText: hex.EncodeToString(sealed),
		},
		Version: version,
	}, "", "  ")
}

// DecryptKey opens a key file.
func DecryptKey(keyJSON []byte, passphrase string) (*Key, error) {
	var k keyJSONV1
	if err := json.Unmarshal(keyJSON, &k); err != nil {
		return nil, errors.Wrap(err, "parse key file")
	}
	if k.Version != version || k.Crypto.KDF != "argon2id" {
		return nil, fmt.Errorf("unsupported key file version %q kdf %q", k.Version, k.Crypto.KDF)
	}
	nonceBz, err := hex.DecodeString(k.Crypto.Nonce)
	if err != nil || len(nonceBz) != 24 {
		return nil, errors.New("invalid nonce in key file")
	}
	sealed, err := hex.DecodeString(k.Crypto.CipherText)
	if err != nil {
		return nil, errors.Wrap(err, "invalid ciphertext in key file")
	}
	if k.Crypto.KDFParams.KeyLen != 32 {
		return nil, fmt.Errorf("keylen must be 32, got %d", k.Crypto.KDFParams.KeyLen)
	}

	var secret [32]byte
	copy(secret[:], k.Crypto.KDFParams.derive(passphrase))
	var nonce [24]byte
	copy(nonce[:], nonceBz)
	plain, ok := secretbox.Open(nil, sealed, &nonce, &secret)
	if !ok {
		return nil, ErrDecrypt
	}
	priv, err := ed.PrivKeyFromBytes(plain)
	if err != nil {
		return nil, err
	}
	return &Key{PrivKey: priv}, nil
}

// StoreKey generates a key, encrypts it and writes it to filePath.
func StoreKey(filePath, passphrase string) (*Key, error) {
	key := &Key{PrivKey: ed.GenPrivKey()}
	bz, err := EncryptKey(key, passphrase, DefaultKDFParams())
	if err != nil {
		return nil, err
	}
	if err := ioutil.WriteFile(filePath, bz, 0600); err != nil {
		return nil, err
	}
	return key, nil
}

// LoadKey reads and decrypts the key at filePath.
func LoadKey(filePath, passphrase string) (*Key, error) {
	bz, err := ioutil.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	key, err := DecryptKey(bz, passphrase)
	if err != nil {
		return nil, fmt.Errorf("Error reading Key from %v: %v", filePath, err)
	}
	return key, nil
}

// LoadOrGenKey loads the key at filePath, creating one if the file does not
// exist.
func LoadOrGenKey(filePath, passphrase string) (*Key, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return StoreKey(filePath, passphrase)
	}
	return LoadKey(filePath, passphrase)
}
