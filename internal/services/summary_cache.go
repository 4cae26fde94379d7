package services

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"lifeledger/internal/cache"
	"lifeledger/internal/core"
)

// summaryCache memoizes per-owner month aggregates. Each owner has a
// generation that every mutation bumps; a read only stores its result if
// the generation it started under is still current, so a slow read can never
// repopulate the cache with pre-mutation totals.
type summaryCache struct {
	totals  *cache.LRUCache[core.MonthlyTotals]
	cats    *cache.LRUCache[[]core.CategoryAmount]
	manager *cache.Manager

	mu  sync.Mutex
	gen map[string]uint64
}

func newSummaryCache(size int, ttl time.Duration) *summaryCache {
	c := &summaryCache{
		totals:  cache.NewLRUCache[core.MonthlyTotals](size, ttl),
		cats:    cache.NewLRUCache[[]core.CategoryAmount](size, ttl),
		manager: cache.NewManager(),
		gen:     map[string]uint64{},
	}
	c.manager.Register(c.totals)
	c.manager.Register(c.cats)
	c.manager.StartCleanup(ttl)
	return c
}

func monthKey(owner string, year, month int) string {
	return fmt.Sprintf("%s|%04d-%02d", owner, year, month)
}

func (c *summaryCache) generation(owner string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen[owner]
}

// invalidate drops every cached month for owner.
func (c *summaryCache) invalidate(owner string) {
	c.mu.Lock()
	c.gen[owner]++
	c.mu.Unlock()
	c.totals.DeletePrefix(owner + "|")
	c.cats.DeletePrefix(owner + "|")
}

func (c *summaryCache) getTotals(key string) (core.MonthlyTotals, bool) {
	t, ok := c.totals.Get(key)
	if !ok {
		return nil, false
	}
	return maps.Clone(t), true
}

func (c *summaryCache) setTotals(owner string, gen uint64, key string, t core.MonthlyTotals) {
	c.storeIfCurrent(owner, gen, func() { c.totals.Set(key, maps.Clone(t)) })
}

func (c *summaryCache) getCategories(key string) ([]core.CategoryAmount, bool) {
	rows, ok := c.cats.Get(key)
	if !ok {
		return nil, false
	}
	return slices.Clone(rows), true
}

func (c *summaryCache) setCategories(owner string, gen uint64, key string, rows []core.CategoryAmount) {
	c.storeIfCurrent(owner, gen, func() { c.cats.Set(key, slices.Clone(rows)) })
}

func (c *summaryCache) storeIfCurrent(owner string, gen uint64, store func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen[owner] == gen {
		store()
	}
}

func (c *summaryCache) close() {
	c.manager.Stop()
}
