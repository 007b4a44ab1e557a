package ristretto

import (
	"fmt"

	"github.com/caasmo/notespieces/cache"
	"github.com/dgraph-io/ristretto/v2"
)

type Cache[V any] struct {
	*ristretto.Cache[string, V]
}

var _ cache.Cache[int] = (*Cache[int])(nil)

type sizing struct {
	numCounters int64
	maxCost     int64
}

// Costs are counted in entries, every caller sets cost 1.
var levels = map[string]sizing{
	"small":      {numCounters: 1e4, maxCost: 1e3},
	"medium":     {numCounters: 1e5, maxCost: 1e4},
	"large":      {numCounters: 1e6, maxCost: 1e5},
	"very-large": {numCounters: 1e7, maxCost: 1e6},
}

// New creates a cache sized by level: "small", "medium", "large" or
// "very-large".
func New[V any](level string) (*Cache[V], error) {
	s, ok := levels[level]
	if !ok {
		return nil, fmt.Errorf("unknown cache level %q", level)
	}

	c, err := ristretto.NewCache(&ristretto.Config[string, V]{
		NumCounters:        s.numCounters,
		MaxCost:            s.maxCost,
		BufferItems:        64, // number of keys per Get buffer
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}

	return &Cache[V]{Cache: c}, nil
}
