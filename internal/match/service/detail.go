package service

import (
	"sync"

	"github.com/google/uuid"

	"device-match-service/internal/match/model"
)

// DetailCache is a bounded in-memory store of match explanations, keyed by
// generated UUID. When full it evicts the oldest entry. Safe for concurrent
// use.
type DetailCache struct {
	mu      sync.Mutex
	max     int
	entries map[string]*model.MatchDetail
	order   []string
}

func NewDetailCache(max int) *DetailCache {
	if max <= 0 {
		max = 1000
	}
	return &DetailCache{
		max:     max,
		entries: make(map[string]*model.MatchDetail, max),
	}
}

// Record stores a detail and returns its key.
func (c *DetailCache) Record(d *model.MatchDetail) string {
	key := uuid.NewString()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = d
	c.order = append(c.order, key)
	for len(c.order) > c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	return key
}

// Get returns the detail for key, or nil when it was never recorded or has
// been evicted.
func (c *DetailCache) Get(key string) *model.MatchDetail {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key]
}

// Len reports the number of cached details.
func (c *DetailCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
