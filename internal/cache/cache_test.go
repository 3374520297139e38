package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGet(t *testing.T) {
	c, err := New(1<<20, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	c.Set(ResultKey("REC_1"), "payload")
	c.Wait()

	v, ok := c.Get(ResultKey("REC_1"))
	require.True(t, ok)
	assert.Equal(t, "payload", v)

	c.Del(ResultKey("REC_1"))
	c.Wait()
	_, ok = c.Get(ResultKey("REC_1"))
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	c, err := New(1<<20, 20*time.Millisecond)
	require.NoError(t, err)
	defer c.Close()

	c.Set("k", 1)
	c.Wait()
	time.Sleep(50 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestResultKey(t *testing.T) {
	assert.Equal(t, "result:REC_01H", ResultKey("REC_01H"))
}
