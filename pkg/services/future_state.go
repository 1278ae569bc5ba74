package services

import (
	"sync/atomic"

	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
)

// FutureStateCache holds the latest completed run. Writers replace the whole
// snapshot; readers never see a partially written state.
type FutureStateCache struct {
	current atomic.Pointer[models.FutureState]
}

// NewFutureStateCache returns an empty cache.
func NewFutureStateCache() *FutureStateCache {
	return &FutureStateCache{}
}

// Current returns the latest snapshot, or nil before the first completed run.
func (c *FutureStateCache) Current() *models.FutureState {
	return c.current.Load()
}

// Replace swaps in fs.
func (c *FutureStateCache) Replace(fs *models.FutureState) {
	c.current.Store(fs)
}

// Loaded reports whether any run has completed.
func (c *FutureStateCache) Loaded() bool {
	return c.current.Load() != nil
}
