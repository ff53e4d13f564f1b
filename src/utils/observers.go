package utils

import "sync"

// Observers is a subscription list with ordered delivery.
//
// Values are delivered in the order they were published, one value at a time.
// A goroutine that finds delivery already running on another goroutine leaves
// its value queued for that goroutine, so a slow subscriber never lets a later
// value overtake an earlier one, and a publisher never waits on another
// publisher's subscribers.
type Observers[T any] struct {
	mu         sync.Mutex
	nextID     int
	subs       []subscription[T]
	queue      []T
	delivering bool
}

type subscription[T any] struct {
	id int
	fn func(T)
}

// -----------------------------------------------------------------------------

// Subscribe adds fn and returns a func that removes it again.
func (o *Observers[T]) Subscribe(fn func(T)) func() {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.subs = append(o.subs, subscription[T]{id: id, fn: fn})
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { o.remove(id) })
	}
}

// -----------------------------------------------------------------------------

func (o *Observers[T]) remove(id int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, s := range o.subs {
		if s.id == id {
			o.subs = append(o.subs[:i:i], o.subs[i+1:]...)
			return
		}
	}
}

// -----------------------------------------------------------------------------

// Publish queues v. Call it while holding the lock that guards the state v was
// copied from, so queue order matches mutation order, then call Flush after
// releasing that lock.
func (o *Observers[T]) Publish(v T) {
	o.mu.Lock()
	o.queue = append(o.queue, v)
	o.mu.Unlock()
}

// -----------------------------------------------------------------------------

// Flush delivers queued values. When delivery is already running elsewhere it
// returns at once; the running goroutine drains the queue before it returns.
func (o *Observers[T]) Flush() {
	o.mu.Lock()
	if o.delivering {
		o.mu.Unlock()
		return
	}
	o.delivering = true
	defer func() {
		o.mu.Lock()
		o.delivering = false
		o.mu.Unlock()
	}()

	for len(o.queue) > 0 {
		v := o.queue[0]
		var zero T
		o.queue[0] = zero
		o.queue = o.queue[1:]
		subs := o.subs
		o.mu.Unlock()

		for _, s := range subs {
			s.fn(v)
		}

		o.mu.Lock()
	}
	o.mu.Unlock()
}

// -----------------------------------------------------------------------------

// Notify publishes v and flushes.
func (o *Observers[T]) Notify(v T) {
	o.Publish(v)
	o.Flush()
}

// -----------------------------------------------------------------------------

// Clear drops every subscriber and any undelivered value.
func (o *Observers[T]) Clear() {
	o.mu.Lock()
	o.subs = nil
	o.queue = nil
	o.mu.Unlock()
}

// -----------------------------------------------------------------------------

func (o *Observers[T]) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subs)
}
