package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"device-match-service/internal/match/model"
)

func TestDetailCacheRecordAndGet(t *testing.T) {
	c := NewDetailCache(10)

	key := c.Record(&model.MatchDetail{DecisionReason: "test"})
	require.NotEmpty(t, key)

	d := c.Get(key)
	require.NotNil(t, d)
	assert.Equal(t, "test", d.DecisionReason)
	assert.Nil(t, c.Get("no-such-key"))
}

func TestDetailCacheKeysAreUnique(t *testing.T) {
	c := NewDetailCache(10)
	k1 := c.Record(&model.MatchDetail{})
	k2 := c.Record(&model.MatchDetail{})
	assert.NotEqual(t, k1, k2)
}

func TestDetailCacheEvictsOldest(t *testing.T) {
	c := NewDetailCache(3)

	first := c.Record(&model.MatchDetail{DecisionReason: "first"})
	keys := []string{first}
	for i := 0; i < 3; i++ {
		keys = append(keys, c.Record(&model.MatchDetail{}))
	}

	assert.Nil(t, c.Get(first))
	assert.Equal(t, 3, c.Len())
	for _, k := range keys[1:] {
		assert.NotNil(t, c.Get(k))
	}
}

func TestDetailCacheConcurrentAccess(t *testing.T) {
	c := NewDetailCache(100)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := c.Record(&model.MatchDetail{})
				c.Get(key)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, c.Len())
}
