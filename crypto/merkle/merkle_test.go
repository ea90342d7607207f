package merkle

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/herdius/herdius-bridge/crypto/herhash"
)

func sum(parts ...[]byte) []byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

func TestRootEmptyAndSingle(t *testing.T) {
	assert.Nil(t, Root(nil))
	assert.Equal(t, sum([]byte{0}, []byte("tx")), Root([][]byte{[]byte("tx")}))
}

func TestRootShape(t *testing.T) {
	a, b, c := []byte("a"), []byte("b"), []byte("c")
	la, lb, lc := leafHash(a), leafHash(b), leafHash(c)

	assert.Equal(t, sum([]byte{1}, la, lb), Root([][]byte{a, b}))
	// three leaves split 2+1
	assert.Equal(t, innerHash(innerHash(la, lb), lc), Root([][]byte{a, b, c}))
}

func TestRootOrderMatters(t *testing.T) {
	fwd := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	rev := [][]byte{[]byte("c"), []byte("b"), []byte("a")}

	root := Root(fwd)
	assert.Len(t, root, herhash.Size)
	assert.Equal(t, root, Root(fwd))
	assert.NotEqual(t, root, Root(rev))
}

func TestRootLeafCannotPoseAsSubtree(t *testing.T) {
	a, b := []byte("a"), []byte("b")
	forged := append(leafHash(a), leafHash(b)...)
	assert.NotEqual(t, Root([][]byte{a, b}), Root([][]byte{forged}))
}

func TestSplit(t *testing.T) {
	for n, want := range map[int]int{2: 1, 3: 2, 4: 2, 5: 4, 8: 4, 9: 8} {
		assert.Equal(t, want, split(n), "n=%d", n)
	}
}
