package main

import (
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/herdius/herdius-bridge/accounts/keystore"
	"github.com/herdius/herdius-bridge/crypto/ethsig"
	"github.com/herdius/herdius-bridge/tx"
	"github.com/herdius/herdius-bridge/types"
)

type domainFlags struct {
	name, version, contract string
	chainID                 uint64
}

func (d *domainFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&d.name, "domain-name", "herdius", "EIP-712 domain name")
	fs.StringVar(&d.version, "domain-version", "1", "EIP-712 domain version")
	fs.StringVar(&d.contract, "domain-contract", "", "EIP-712 verifying contract")
	fs.Uint64Var(&d.chainID, "chain-id", 5, "external chain id")
}

func (d *domainFlags) domain() ethsig.Domain {
	return ethsig.Domain{
		Name:              d.name,
		Version:           d.version,
		ChainID:           d.chainID,
		VerifyingContract: common.HexToAddress(d.contract),
	}
}

func ethKey(h string) (*ecdsa.PrivateKey, error) {
	key, err := ethcrypto.HexToECDSA(strings.TrimPrefix(h, "0x"))
	return key, errors.Wrap(err, "invalid -eth-key")
}

// linkProofCmd signs the link proof binding an external address to a native
// account.
func linkProofCmd(args []string) (string, error) {
	fs := flag.NewFlagSet("link-proof", flag.ContinueOnError)
	keyHex := fs.String("eth-key", "", "external account private key (hex)")
	accountStr := fs.String("account", "", "native account id")
	genesis := fs.String("genesis", "", "ledger genesis hash")
	var d domainFlags
	d.register(fs)
	if err := fs.Parse(args); err != nil {
		return "", err
	}

	key, err := ethKey(*keyHex)
	if err != nil {
		return "", err
	}
	account, err := types.ParseAccountID(*accountStr)
	if err != nil {
		return "", err
	}
	digest, err := ethsig.LinkDigest(d.domain(), common.HexToHash(*genesis), account)
	if err != nil {
		return "", err
	}
	sig, err := ethcrypto.Sign(digest, key)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(sig), nil
}

type attestation struct {
	Sender   string `json:"sender"`
	Typed    string `json:"typed_signature"`
	Replay   string `json:"replay_signature"`
	Amount   string `json:"amount"`
	Period   string `json:"lock_period"`
	Action   string `json:"action"`
	ChainID  uint64 `json:"chain_id"`
	Contract string `json:"contract,omitempty"`
}

// attestCmd signs a lock or unlock claim in both the typed-data form and the
// raw replay-protected form the lock contract checks.
func attestCmd(args []string) (string, error) {
	fs := flag.NewFlagSet("attest", flag.ContinueOnError)
	keyHex := fs.String("eth-key", "", "external account private key (hex)")
	action := fs.String("action", ethsig.ActionLock, "lock or unlock")
	amountStr := fs.String("amount", "0", "amount (decimal)")
	periodStr := fs.String("period", "0", "lock period (decimal)")
	var d domainFlags
	d.register(fs)
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if *action != ethsig.ActionLock && *action != ethsig.ActionUnlock {
		return "", fmt.Errorf("unknown action %q", *action)
	}

	key, err := ethKey(*keyHex)
	if err != nil {
		return "", err
	}
	amount, err := uint256.FromDecimal(*amountStr)
	if err != nil {
		return "", errors.Wrap(err, "invalid -amount")
	}
	period, err := uint256.FromDecimal(*periodStr)
	if err != nil {
		return "", errors.Wrap(err, "invalid -period")
	}
	sender := ethcrypto.PubkeyToAddress(key.PublicKey)

	typedDigest, err := ethsig.AttestationDigest(d.domain(), *action, sender, amount, period)
	if err != nil {
		return "", err
	}
	typed, err := ethcrypto.Sign(typedDigest, key)
	if err != nil {
		return "", err
	}
	isLock := *action == ethsig.ActionLock
	replay, err := ethcrypto.Sign(ethsig.ReplayDigest(isLock, sender, d.chainID, amount, period), key)
	if err != nil {
		return "", err
	}

	bz, err := json.MarshalIndent(attestation{
		Sender:   sender.Hex(),
		Typed:    hexutil.Encode(typed),
		Replay:   hexutil.Encode(replay),
		Amount:   amount.Dec(),
		Period:   period.Dec(),
		Action:   *action,
		ChainID:  d.chainID,
		Contract: d.contract,
	}, "", "  ")
	return string(bz), err
}

// buildCall parses the flags of an account-signed command.
func buildCall(cmd string, fs *flag.FlagSet, args []string) (tx.Call, error) {
	proof := fs.String("proof", "", "link proof (hex), for link")
	external := fs.String("external", "", "external address, for unlink")
	asset := fs.String("asset", "", "asset id (hex), for detach")
	chain := fs.String("chain", "goerli", "destination chain, for detach")
	target := fs.String("target", "", "destination address, for detach")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch cmd {
	case "link":
		bz, err := hexutil.Decode(*proof)
		if err != nil {
			return nil, errors.Wrap(err, "invalid -proof")
		}
		return tx.Link{Proof: bz}, nil
	case "unlink":
		if !common.IsHexAddress(*external) {
			return nil, errors.New("invalid -external")
		}
		return tx.Unlink{External: common.HexToAddress(*external)}, nil
	case "detach":
		bz, err := hex.DecodeString(strings.TrimPrefix(*asset, "0x"))
		if err != nil || len(bz) == 0 {
			return nil, errors.New("invalid -asset")
		}
		c, err := types.ParseExternalChain(*chain)
		if err != nil {
			return nil, err
		}
		if !common.IsHexAddress(*target) {
			return nil, errors.New("invalid -target")
		}
		return tx.RequestDetach{Asset: bz, Chain: c, Target: common.HexToAddress(*target)}, nil
	}
	return nil, fmt.Errorf("unknown command %q", cmd)
}

// submitCmd signs a call with the account key and posts it to a node.
func submitCmd(cmd string, args []string) (string, error) {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	keyfile := fs.String("keyfile", "", "account key file")
	node := fs.String("node", "http://localhost:8080", "node REST address")
	call, err := buildCall(cmd, fs, args)
	if err != nil {
		return "", err
	}

	key, err := keystore.LoadKey(*keyfile, os.Getenv("HERDIUS_KEY_PASSPHRASE"))
	if err != nil {
		return "", err
	}
	env := &tx.Envelope{Call: call}
	if err := env.Sign(tx.OriginSigned, key.PrivKey); err != nil {
		return "", err
	}
	raw, err := env.Encode()
	if err != nil {
		return "", err
	}
	return post(*node, raw)
}

func post(node string, raw tx.Tx) (string, error) {
	resp, err := http.Post(strings.TrimSuffix(node, "/")+"/tx", "text/plain", strings.NewReader(hex.EncodeToString(raw)))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("node returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return strings.TrimSpace(string(body)), nil
}
