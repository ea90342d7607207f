package sync

import (
	"context"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
)

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}

// Dial connects to an external-chain JSON-RPC endpoint over HTTP. Every
// request is bounded by timeout.
func Dial(ctx context.Context, url string, timeout time.Duration) (*ethclient.Client, error) {
	c, err := rpc.DialOptions(ctx, url, rpc.WithHTTPClient(newHTTPClient(timeout)))
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", url)
	}
	return ethclient.NewClient(c), nil
}
