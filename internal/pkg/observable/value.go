// Package observable holds a value with exactly one writer and any number of
// readers that want to be told when it changes.
package observable

import "sync"

// Value is a single-writer observable. Set must only be called by the owner;
// Get and Subscribe are safe from any goroutine.
type Value[T any] struct {
	mu   sync.RWMutex
	v    T
	subs map[int]func(T)
	next int
}

// New returns a Value holding initial.
func New[T any](initial T) *Value[T] {
	return &Value[T]{v: initial, subs: make(map[int]func(T))}
}

// Get returns the current value.
func (o *Value[T]) Get() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.v
}

// Set stores v and calls every subscriber with it, in subscription order.
// Subscribers run on the caller's goroutine and must not block.
func (o *Value[T]) Set(v T) {
	o.mu.Lock()
	o.v = v
	fns := make([]func(T), 0, len(o.subs))
	for id := 0; id < o.next; id++ {
		if fn, ok := o.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Subscribe registers fn and returns a function that removes it.
func (o *Value[T]) Subscribe(fn func(T)) (cancel func()) {
	o.mu.Lock()
	id := o.next
	o.next++
	o.subs[id] = fn
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs, id)
			o.mu.Unlock()
		})
	}
}
