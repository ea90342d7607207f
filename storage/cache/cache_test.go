package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetGetDelete(t *testing.T) {
	c := New()
	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Set("k", []byte{1})
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, []byte{1}, v)

	c.Delete("k")
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestGetAllIsCopy(t *testing.T) {
	c := New()
	c.Set("a", 1)
	all := c.GetAll()
	delete(all, "a")
	_, ok := c.Get("a")
	assert.True(t, ok)

	c.DeleteAll()
	assert.Empty(t, c.GetAll())
}

func TestConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set(string(rune('a'+i)), i)
			c.Get("a")
			c.GetAll()
		}(i)
	}
	wg.Wait()
	assert.Len(t, c.GetAll(), 8)
}
