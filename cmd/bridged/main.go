package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/herdius/herdius-bridge/accounts/keystore"
	"github.com/herdius/herdius-bridge/aws"
	"github.com/herdius/herdius-bridge/blockchain"
	"github.com/herdius/herdius-bridge/bridge"
	"github.com/herdius/herdius-bridge/config"
	"github.com/herdius/herdius-bridge/crypto/derive"
	"github.com/herdius/herdius-bridge/detach"
	"github.com/herdius/herdius-bridge/libs/log"
	"github.com/herdius/herdius-bridge/rpc/http/rest"
	"github.com/herdius/herdius-bridge/storage/db"
	"github.com/herdius/herdius-bridge/storage/mempool"
	"github.com/herdius/herdius-bridge/storage/offchain"
	"github.com/herdius/herdius-bridge/storage/state/statedb"
	"github.com/herdius/herdius-bridge/supervisor"
	syncer "github.com/herdius/herdius-bridge/syncer"
	"github.com/herdius/herdius-bridge/types"
)

func main() {
	envFlag := flag.String("env", "dev", "config section to use (dev/staging)")
	configFlag := flag.String("config", "./config", "directory holding config.toml")
	restoreFlag := flag.Int64("restore", -1, "restore state and chain from the S3 backup at this height before starting")
	flag.Parse()

	cfg, err := config.Load(*configFlag, *envFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	log.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *restoreFlag); err != nil && errors.Cause(err) != context.Canceled {
		log.Fatal().Err(err).Msg("bridge node stopped")
	}
	log.Info().Msg("bridge node stopped")
}

func openDB(dir string) (*db.BadgerDB, error) {
	d, err := db.NewBadgerDB(dir)
	return d, errors.Wrapf(err, "open %s", dir)
}

func run(ctx context.Context, cfg *config.Detail, restoreHeight int64) error {
	stateDB, err := openDB(cfg.StateDBPath)
	if err != nil {
		return err
	}
	defer stateDB.Close()
	chainDB, err := openDB(cfg.ChainDBPath)
	if err != nil {
		return err
	}
	defer chainDB.Close()
	localDB, err := openDB(cfg.OffchainDBPath)
	if err != nil {
		return err
	}
	local := offchain.New(localDB)
	defer local.Close()

	stores := map[string]db.DB{"state": stateDB, "chain": chainDB}
	if restoreHeight >= 0 {
		if cfg.S3Bucket == "" {
			return errors.New("restore requires an S3 backup bucket")
		}
		_, downloader := aws.NewS3(cfg.S3Region)
		for name, store := range stores {
			if err := aws.Restore(ctx, downloader, cfg.S3Bucket, aws.Key(name, uint64(restoreHeight)), store); err != nil {
				return err
			}
		}
		log.Info().Int64("height", restoreHeight).Msg("restored from backup")
	}

	key, err := keystore.LoadOrGenKey(cfg.NodeKeyPath, os.Getenv("HERDIUS_KEY_PASSPHRASE"))
	if err != nil {
		return errors.Wrap(err, "load node key")
	}
	log.Info().Str("account", key.Account().String()).Msg("node identity loaded")

	var root types.AccountID
	if cfg.Root != "" {
		if root, err = types.ParseAccountID(cfg.Root); err != nil {
			return err
		}
	}
	b, err := bridge.New(bridge.Config{
		Chain:     cfg.Chain,
		Threshold: cfg.Threshold,
		Genesis:   cfg.Genesis,
		Domain:    cfg.Domain,
		Root:      root,
	})
	if err != nil {
		return err
	}

	state := statedb.New(stateDB)
	pool := mempool.New()
	chain := blockchain.NewService(chainDB, state, pool, b, local)

	lockKeys, err := config.DecodeKeys(cfg.LockAuthorities)
	if err != nil {
		return err
	}
	detachKeys, err := config.DecodeKeys(cfg.DetachAuthorities)
	if err != nil {
		return err
	}
	if err := chain.InitGenesis(lockKeys, detachKeys); err != nil {
		return err
	}

	sub := supervisor.NewSubmitter(b, state, pool, &key.PrivKey)
	var observer supervisor.Syncer
	if cfg.EthRPCURL != "" {
		client, err := syncer.Dial(ctx, cfg.EthRPCURL, cfg.HTTPTimeout)
		if err != nil {
			return err
		}
		defer client.Close()
		observer = syncer.NewEthSyncer(client, local, cfg.Confirmations, sub.HandleLockEvent)
	} else {
		log.Warn().Msg("no eth rpc url configured, lock events are not observed")
	}
	deriver := derive.NewDeriver(key.PrivKey, local)
	worker := supervisor.NewWorker(observer, detach.NewWorker(local, deriver, sub), cfg.Contracts, cfg.BlockInterval)
	chain.AddHook(worker.OnBlock)

	if cfg.S3Bucket != "" {
		uploader, _ := aws.NewS3(cfg.S3Region)
		backuper := aws.NewBackuper(uploader, cfg.S3Bucket, stores)
		go backuper.Run(ctx, cfg.BackupInterval, state.Height)
	}

	srv := &http.Server{
		Addr: cfg.RESTAddr,
		Handler: rest.Handler(rest.Deps{
			State:   state,
			Blocks:  chain,
			Pool:    pool,
			Cursors: local,
		}),
	}
	go func() {
		log.Info().Str("addr", cfg.RESTAddr).Msg("REST server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("REST server failed")
		}
	}()
	defer srv.Shutdown(context.Background())

	log.Info().Str("chain", cfg.Chain.String()).Uint64("threshold", cfg.Threshold).Msg("producing blocks")
	return chain.Run(ctx, cfg.BlockInterval)
}
