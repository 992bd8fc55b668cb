package cache

import (
	"slices"
	"sync"

	"opsconsole/internal/shared_kernel/domain"
)

// Keyed is an ordered collection of resources addressable by id. It is the
// local echo of a server list: order follows whatever the server returned and
// writes are last-write-wins, with no reconciliation between racing callers.
type Keyed[T domain.Resource] struct {
	mu    sync.RWMutex
	items []T
}

func NewKeyed[T domain.Resource]() *Keyed[T] {
	return &Keyed[T]{}
}

func (k *Keyed[T]) Get(id domain.ID) (T, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if i := k.index(id); i >= 0 {
		return k.items[i], true
	}
	var zero T
	return zero, false
}

// Put replaces the entry with the same id in place, or appends it.
func (k *Keyed[T]) Put(item T) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if i := k.index(item.ResourceID()); i >= 0 {
		k.items[i] = item
		return
	}
	k.items = append(k.items, item)
}

func (k *Keyed[T]) Remove(id domain.ID) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	i := k.index(id)
	if i < 0 {
		return false
	}
	k.items = slices.Delete(k.items, i, i+1)
	return true
}

// ReplaceAll drops the current contents in favour of items, verbatim.
func (k *Keyed[T]) ReplaceAll(items []T) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.items = slices.Clone(items)
}

func (k *Keyed[T]) List() []T {
	k.mu.RLock()
	defer k.mu.RUnlock()

	return slices.Clone(k.items)
}

func (k *Keyed[T]) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()

	return len(k.items)
}

func (k *Keyed[T]) index(id domain.ID) int {
	return slices.IndexFunc(k.items, func(item T) bool {
		return item.ResourceID() == id
	})
}
