// Package keylock serializes work per string key with a fixed set of
// mutexes. Distinct keys may share a mutex, never the other way around.
package keylock

import (
	"hash/maphash"
	"sync"
)

const defaultStripes = 256

type Locks struct {
	seed    maphash.Seed
	stripes []sync.Mutex
}

// New returns Locks with n stripes, 256 when n < 1.
func New(n int) *Locks {
	if n < 1 {
		n = defaultStripes
	}
	return &Locks{seed: maphash.MakeSeed(), stripes: make([]sync.Mutex, n)}
}

// Lock locks the stripe of key and returns its unlock function.
func (l *Locks) Lock(key string) func() {
	m := &l.stripes[maphash.String(l.seed, key)%uint64(len(l.stripes))]
	m.Lock()
	return m.Unlock
}
