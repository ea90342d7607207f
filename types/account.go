package types

import (
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// AccountIDPrefix precedes the base58 form of native account ids.
const AccountIDPrefix = "H"

// AccountID is a native ledger account.
type AccountID [32]byte

// String renders the id as "H" + base58.
func (a AccountID) String() string {
	return AccountIDPrefix + base58.Encode(a[:])
}

// IsZero reports whether a is the zero account.
func (a AccountID) IsZero() bool {
	return a == AccountID{}
}

// ParseAccountID parses the String form.
func ParseAccountID(s string) (AccountID, error) {
	var a AccountID
	if len(s) <= len(AccountIDPrefix) || s[:len(AccountIDPrefix)] != AccountIDPrefix {
		return a, errors.Errorf("account id %q must start with %q", s, AccountIDPrefix)
	}
	bz, err := base58.Decode(s[len(AccountIDPrefix):])
	if err != nil {
		return a, errors.Wrapf(err, "decode account id %q", s)
	}
	if len(bz) != len(a) {
		return a, errors.Errorf("account id %q decodes to %d bytes, want %d", s, len(bz), len(a))
	}
	copy(a[:], bz)
	return a, nil
}
