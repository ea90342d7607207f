// Package rest serves read-only bridge status and accepts signed
// transactions over HTTP.
package rest

import (
	"encoding/hex"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/julienschmidt/httprouter"

	"github.com/herdius/herdius-bridge/blockchain"
	"github.com/herdius/herdius-bridge/storage/mempool"
	"github.com/herdius/herdius-bridge/storage/state/statedb"
	"github.com/herdius/herdius-bridge/tx"
	"github.com/herdius/herdius-bridge/types"
)

// Cursors reports the observer progress per contract.
type Cursors interface {
	Cursor(contract common.Address) (uint64, bool)
}

// Deps are the services the handler reads from.
type Deps struct {
	State   *statedb.Store
	Blocks  blockchain.ServiceI
	Pool    mempool.Service
	Cursors Cursors
}

// Handler ...
func Handler(d Deps) http.Handler {
	router := httprouter.New()

	router.GET("/link/native/:id", getLinkByNative(d))
	router.GET("/link/external/:address", getLinkByExternal(d))
	router.GET("/lock/:address", getLock(d))
	router.GET("/export/:asset", getExport(d))
	router.GET("/sync/:contract", getSync(d))
	router.GET("/block/:height", getBlock(d))
	router.GET("/balance/:id", getBalance(d))
	router.GET("/closed/:hash", getClosed(d))
	router.GET("/tx/:hash", getTx(d))
	router.POST("/tx", addTx(d))

	return router
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func parseAddress(w http.ResponseWriter, s string) (common.Address, bool) {
	if !common.IsHexAddress(s) {
		http.Error(w, "invalid address", http.StatusBadRequest)
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}

type linkResponse struct {
	Account  string `json:"account"`
	External string `json:"external"`
}

// getLinkByNative returns a handler for GET /link/native/:id requests
func getLinkByNative(d Deps) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		account, err := types.ParseAccountID(ps.ByName("id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		snap := d.State.Snapshot()
		defer snap.Discard()
		ext, ok := snap.LinkedExternal(account)
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, linkResponse{Account: account.String(), External: ext.Hex()})
	}
}

// getLinkByExternal returns a handler for GET /link/external/:address requests
func getLinkByExternal(d Deps) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		addr, ok := parseAddress(w, ps.ByName("address"))
		if !ok {
			return
		}
		snap := d.State.Snapshot()
		defer snap.Discard()
		account, ok := snap.LinkedAccount(addr)
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, linkResponse{Account: account.String(), External: addr.Hex()})
	}
}

type lockResponse struct {
	Address    string `json:"address"`
	Amount     string `json:"amount"`
	LockPeriod string `json:"lock_period"`
	Block      uint64 `json:"block"`
	Reserved   string `json:"reserved"`
	Linked     string `json:"linked,omitempty"`
}

// getLock returns a handler for GET /lock/:address requests
func getLock(d Deps) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		addr, ok := parseAddress(w, ps.ByName("address"))
		if !ok {
			return
		}
		snap := d.State.Snapshot()
		defer snap.Discard()
		rec, found, err := snap.LockRecord(addr)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !found {
			http.NotFound(w, r)
			return
		}
		res := lockResponse{
			Address:    addr.Hex(),
			Amount:     rec.AmountInt().Dec(),
			LockPeriod: rec.LockPeriodInt().Dec(),
			Block:      rec.Block,
			Reserved:   snap.Reserved(addr).Dec(),
		}
		if account, ok := snap.LinkedAccount(addr); ok {
			res.Linked = account.String()
		}
		writeJSON(w, res)
	}
}

type exportResponse struct {
	Asset  string `json:"asset"`
	Chain  string `json:"chain"`
	Target string `json:"target"`
	Nonce  uint64 `json:"nonce"`
}

// getExport returns a handler for GET /export/:asset requests. The asset id
// is hex encoded.
func getExport(d Deps) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		asset, err := parseHex(ps.ByName("asset"))
		if err != nil || len(asset) == 0 {
			http.Error(w, "invalid asset", http.StatusBadRequest)
			return
		}
		snap := d.State.Snapshot()
		defer snap.Discard()
		rec, found, err := snap.Export(asset)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !found {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, exportResponse{
			Asset:  hex.EncodeToString(asset),
			Chain:  rec.Chain.String(),
			Target: rec.Target.Hex(),
			Nonce:  rec.Nonce,
		})
	}
}

type syncResponse struct {
	Contract string `json:"contract"`
	Block    uint64 `json:"block"`
}

// getSync returns a handler for GET /sync/:contract requests
func getSync(d Deps) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		addr, ok := parseAddress(w, ps.ByName("contract"))
		if !ok {
			return
		}
		block, ok := d.Cursors.Cursor(addr)
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, syncResponse{Contract: addr.Hex(), Block: block})
	}
}

// getBlock returns a handler for GET /block/:height requests. "latest" is
// the last committed block.
func getBlock(d Deps) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		var (
			block *blockchain.Block
			err   error
		)
		if h := ps.ByName("height"); h == "latest" {
			block, err = d.Blocks.GetLastBlock()
		} else {
			height, perr := strconv.ParseUint(h, 10, 64)
			if perr != nil {
				http.Error(w, "invalid height", http.StatusBadRequest)
				return
			}
			block, err = d.Blocks.GetBlockByHeight(height)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, block)
	}
}

func parseHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

type closedResponse struct {
	Hash   string `json:"hash"`
	Height uint64 `json:"height"`
}

// getClosed returns a handler for GET /closed/:hash requests. The hash is
// that of an applied lock update event.
func getClosed(d Deps) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		bz, err := parseHex(ps.ByName("hash"))
		if err != nil || len(bz) != common.HashLength {
			http.Error(w, "invalid hash", http.StatusBadRequest)
			return
		}
		h := common.BytesToHash(bz)
		snap := d.State.Snapshot()
		defer snap.Discard()
		height, ok := snap.ClosedAt(h)
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, closedResponse{Hash: h.Hex(), Height: height})
	}
}

type txLookupResponse struct {
	Height uint64              `json:"height"`
	Index  int                 `json:"index"`
	Tx     string              `json:"tx"`
	Result blockchain.TxResult `json:"result"`
}

// getTx returns a handler for GET /tx/:hash requests
func getTx(d Deps) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		hash, err := parseHex(ps.ByName("hash"))
		if err != nil || len(hash) == 0 {
			http.Error(w, "invalid hash", http.StatusBadRequest)
			return
		}
		block, idx, err := d.Blocks.GetTx(hash)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, txLookupResponse{
			Height: block.Height,
			Index:  idx,
			Tx:     hex.EncodeToString(block.Txs[idx]),
			Result: block.Results[idx],
		})
	}
}

type balanceResponse struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
}

// getBalance returns a handler for GET /balance/:id requests
func getBalance(d Deps) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		account, err := types.ParseAccountID(ps.ByName("id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		snap := d.State.Snapshot()
		defer snap.Discard()
		writeJSON(w, balanceResponse{
			Account: account.String(),
			Balance: snap.Balance(account).Dec(),
		})
	}
}

type txResponse struct {
	Hash  string `json:"hash"`
	Added bool   `json:"added"`
}

// addTx returns a handler for POST /tx requests. The body is a hex encoded
// account-signed envelope; authority calls are authored by the node itself
// and are not accepted here.
func addTx(d Deps) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		body, err := ioutil.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(string(body)), "0x"))
		if err != nil {
			http.Error(w, "body must be hex encoded", http.StatusBadRequest)
			return
		}
		t := tx.Tx(raw)
		env, err := tx.Decode(t)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := env.VerifyAccount(); err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		_, added := d.Pool.AddTx(t, t.Hash())
		writeJSON(w, txResponse{Hash: hex.EncodeToString(t.Hash()), Added: added})
	}
}
