package credstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Observed wraps a Store and signals subscribers after every successful
// write or removal. Signals carry no payload and coalesce: a subscriber that
// is slow to react sees one pending signal, not a backlog, and re-reads the
// store itself.
type Observed struct {
	Store

	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

// NewObserved wraps s.
func NewObserved(s Store) *Observed {
	return &Observed{Store: s, subs: make(map[int]chan struct{})}
}

// Subscribe returns a channel that receives a signal after each change and a
// function that unsubscribes and closes it.
func (o *Observed) Subscribe() (<-chan struct{}, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.next
	o.next++
	ch := make(chan struct{}, 1)
	o.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			delete(o.subs, id)
			close(ch)
		})
	}
}

// Set stores value and signals subscribers.
func (o *Observed) Set(ctx context.Context, key, value string) error {
	if err := o.Store.Set(ctx, key, value); err != nil {
		return err
	}
	o.notify()
	return nil
}

// Remove deletes key and signals subscribers.
func (o *Observed) Remove(ctx context.Context, key string) error {
	if err := o.Store.Remove(ctx, key); err != nil {
		return err
	}
	o.notify()
	return nil
}

// RemoveAll deletes keys, atomically when the wrapped store supports it, and
// signals subscribers once. Otherwise every key is attempted and the failures
// are joined; subscribers are signalled if any key was removed.
func (o *Observed) RemoveAll(ctx context.Context, keys ...string) error {
	if mr, ok := o.Store.(multiRemover); ok {
		if err := mr.RemoveAll(ctx, keys...); err != nil {
			return err
		}
		o.notify()
		return nil
	}

	var errs []error
	for _, k := range keys {
		if err := o.Store.Remove(ctx, k); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", k, err))
		}
	}
	if len(errs) < len(keys) {
		o.notify()
	}
	return errors.Join(errs...)
}

func (o *Observed) notify() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, ch := range o.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

var (
	_ Store        = (*Observed)(nil)
	_ multiRemover = (*Observed)(nil)
)
