package bridge

import (
	"github.com/pkg/errors"

	cmn "github.com/herdius/herdius-bridge/libs/common"
)

// Errors returned by bridge calls. Any of them aborts the enclosing
// transaction with no state change.
var (
	ErrVerificationFailed   = errors.New("signature verification failed")
	ErrBadSigner            = errors.New("signer is not an authority")
	ErrBadProof             = errors.New("authority signature does not verify")
	ErrAccountAlreadyLinked = errors.New("account already linked")
	ErrAccountNotLinked     = errors.New("account not linked")
	ErrAlreadyProcessed     = errors.New("event already processed")
	ErrAlreadyDetached      = errors.New("asset already detached")
	ErrNoValidator          = errors.New("no authorized detach key")
	ErrSigningFailed        = errors.New("signing failed")
	ErrSystematicFailure    = errors.New("systematic failure")
	ErrBadOrigin            = errors.New("bad origin")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrBadSource            = errors.New("submission source not allowed")
	ErrBadNonce             = errors.New("unexpected detach nonce")
	ErrUnknownChain         = errors.New("unknown external chain")
	ErrNotAssetOwner        = errors.New("not the asset owner")
	ErrUnknownAuthority     = errors.New("unknown authority")
	ErrUnknownCall          = errors.New("unknown call")
	ErrInvalidAsset         = errors.New("invalid asset id")
	ErrAssetExists          = errors.New("asset already registered")
)

// systematic marks err as a broken invariant and keeps its stack.
func systematic(err error, format string, args ...interface{}) error {
	return cmn.ErrorWrap(ErrSystematicFailure, format+": %v", append(args, err)...).Stacktrace()
}
