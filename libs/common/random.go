package common

import crand "crypto/rand"

// RandBytes returns n bytes from the OS randomness source.
func RandBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := crand.Read(b); err != nil {
		PanicCrisis(err)
	}
	return b
}
