package crypto

import (
	crand "crypto/rand"
	"io"

	cmn "github.com/herdius/herdius-bridge/libs/common"
)

// CRandBytes returns numBytes of OS randomness.
func CRandBytes(numBytes int) []byte {
	return cmn.RandBytes(numBytes)
}

// CReader returns crand.Reader.
func CReader() io.Reader {
	return crand.Reader
}
