// Package config loads the bridge node configuration. Values live under an
// environment section (`dev` or `staging`) and can be overridden with
// HERDIUS_<SECTION>_<KEY> environment variables.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/herdius/herdius-bridge/crypto/ethsig"
	"github.com/herdius/herdius-bridge/types"
)

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "HERDIUS"

// Detail is the node configuration.
type Detail struct {
	Chain         types.ExternalChain
	Confirmations uint64
	Threshold     uint64
	Contracts     []common.Address
	EthRPCURL     string
	HTTPTimeout   time.Duration
	Genesis       common.Hash
	Domain        ethsig.Domain

	// hex encoded genesis authority keys
	LockAuthorities   []string
	DetachAuthorities []string
	Root              string

	StateDBPath    string
	ChainDBPath    string
	OffchainDBPath string
	NodeKeyPath    string

	S3Bucket       string
	S3Region       string
	BackupInterval time.Duration

	RESTAddr      string
	BlockInterval time.Duration
	LogLevel      string
}

func setDefaults(v *viper.Viper, env string) {
	defaults := map[string]interface{}{
		"chain":          "goerli",
		"confirmations":  12,
		"threshold":      1,
		"httptimeout":    "10s",
		"domain.name":    "herdius",
		"domain.version": "1",
		"statedbpath":    "./data/state",
		"chaindbpath":    "./data/chain",
		"offchaindbpath": "./data/offchain",
		"nodekeypath":    "./data/node_key.json",
		"s3region":       "us-east-1",
		"backupinterval": "1h",
		"restaddr":       ":8080",
		"blockinterval":  "6s",
		"loglevel":       "info",
	}
	for k, val := range defaults {
		v.SetDefault(fmt.Sprint(env, ".", k), val)
	}
}

// Load reads config.{toml,yaml,json} from path for env. A missing file is not
// an error; defaults and environment overrides still apply.
func Load(path, env string) (*Detail, error) {
	if env != "staging" {
		env = "dev"
	}
	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, env)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "read config")
		}
	}
	return parse(v, env)
}

// parseChain accepts a chain name or its EIP-155 chain id.
func parseChain(s string) (types.ExternalChain, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return types.ParseExternalChain(s)
	}
	chain, ok := types.ChainFromID(id)
	if !ok {
		return types.ChainUnknown, errors.Errorf("unknown external chain id %d", id)
	}
	return chain, nil
}

func parse(v *viper.Viper, env string) (*Detail, error) {
	get := func(k string) string { return fmt.Sprint(env, ".", k) }

	chain, err := parseChain(v.GetString(get("chain")))
	if err != nil {
		return nil, err
	}
	chainID, _ := chain.ChainID()

	d := &Detail{
		Chain:         chain,
		Confirmations: v.GetUint64(get("confirmations")),
		Threshold:     v.GetUint64(get("threshold")),
		EthRPCURL:     v.GetString(get("ethrpcurl")),
		HTTPTimeout:   v.GetDuration(get("httptimeout")),
		Genesis:       common.HexToHash(v.GetString(get("genesis"))),
		Domain: ethsig.Domain{
			Name:              v.GetString(get("domain.name")),
			Version:           v.GetString(get("domain.version")),
			ChainID:           chainID,
			VerifyingContract: common.HexToAddress(v.GetString(get("domain.verifyingcontract"))),
		},
		LockAuthorities:   v.GetStringSlice(get("lockauthorities")),
		DetachAuthorities: v.GetStringSlice(get("detachauthorities")),
		Root:              v.GetString(get("root")),
		StateDBPath:       v.GetString(get("statedbpath")),
		ChainDBPath:       v.GetString(get("chaindbpath")),
		OffchainDBPath:    v.GetString(get("offchaindbpath")),
		NodeKeyPath:       v.GetString(get("nodekeypath")),
		S3Bucket:          v.GetString(get("s3backupbucket")),
		S3Region:          v.GetString(get("s3region")),
		BackupInterval:    v.GetDuration(get("backupinterval")),
		RESTAddr:          v.GetString(get("restaddr")),
		BlockInterval:     v.GetDuration(get("blockinterval")),
		LogLevel:          v.GetString(get("loglevel")),
	}
	for _, c := range v.GetStringSlice(get("contracts")) {
		if !common.IsHexAddress(c) {
			return nil, fmt.Errorf("invalid contract address %q", c)
		}
		d.Contracts = append(d.Contracts, common.HexToAddress(c))
	}
	if d.Threshold == 0 {
		return nil, errors.New("threshold must be at least 1")
	}
	return d, nil
}

// DecodeKeys decodes hex encoded authority keys.
func DecodeKeys(hexKeys []string) ([][]byte, error) {
	keys := make([][]byte, 0, len(hexKeys))
	for _, h := range hexKeys {
		bz, err := hexutil.Decode(h)
		if err != nil {
			return nil, errors.Wrapf(err, "authority key %q", h)
		}
		keys = append(keys, bz)
	}
	return keys, nil
}
