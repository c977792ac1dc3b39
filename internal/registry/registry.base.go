// Package registry provides a generic, thread-safe registry keyed by name.
// The worker uses it to route consumed messages to handlers by topic.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrEmptyName is returned when an item is registered without a name.
var ErrEmptyName = errors.New("name cannot be empty")

// Registry stores items of type T by name.
//
// Example:
//
//	handlers := NewRegistry[Handler]()
//	handlers.Register("survey-processing", surveyHandler)
//	if h, ok := handlers.Get(topic); ok {
//	    err = h.Handle(ctx, msg)
//	}
type Registry[T any] struct {
	items map[string]T
	mu    sync.RWMutex
}

// NewRegistry returns an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		items: make(map[string]T),
	}
}

// Register stores item under name, replacing any previous item.
// isNew is false when an existing item was overwritten.
func (r *Registry[T]) Register(name string, item T) (isNew bool, err error) {
	if name == "" {
		return false, ErrEmptyName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.items[name]
	r.items[name] = item
	return !exists, nil
}

// Get returns the item registered under name.
func (r *Registry[T]) Get(name string) (item T, exists bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, exists = r.items[name]
	return item, exists
}

// GetOrCreate returns the item under name, creating and storing it with creator when absent.
func (r *Registry[T]) GetOrCreate(name string, creator func() (T, error)) (item T, err error) {
	if name == "" {
		return item, ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.items[name]; ok {
		return existing, nil
	}

	created, err := creator()
	if err != nil {
		return item, fmt.Errorf("failed to create item %s: %w", name, err)
	}
	r.items[name] = created
	return created, nil
}

// Names returns the registered names in sorted order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClearAll removes every item, calling cleanup on each first when given.
func (r *Registry[T]) ClearAll(cleanup func(T) error) (count int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count = len(r.items)
	if cleanup != nil {
		var errs []error
		for name, item := range r.items {
			if err := cleanup(item); err != nil {
				errs = append(errs, fmt.Errorf("failed to cleanup %s: %w", name, err))
			}
		}
		if len(errs) > 0 {
			return 0, errors.Join(errs...)
		}
	}

	r.items = make(map[string]T)
	return count, nil
}
