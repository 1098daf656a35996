package evictingqueue

//
// EvictingQueue is a queue structure that automatically maintains the desired maximum size by
// evicting its oldest element if a new element is being added when at capacity. It is modeled after
// the EvictingQueue class from the Google Guava library for Java.
//
// It is not safe for concurrent use. Every owner in this module is confined to a single goroutine.
//
type EvictingQueue[T any] struct {
	size  int
	queue []T
}

//
// New instantiates a new evicting queue with the specified maximum size. A non-positive size is
// treated as one so that the most recent element is always retained.
//
func New[T any](maxSize int) *EvictingQueue[T] {
	if maxSize < 1 {
		maxSize = 1
	}

	return &EvictingQueue[T]{
		size:  maxSize,
		queue: make([]T, 0, maxSize),
	}
}

//
// Add appends the provided element to the evicting queue and returns the element that was evicted
// to make room for it (along with a true sentinel), if any.
//
func (o *EvictingQueue[T]) Add(e T) (T, bool) {
	var evicted T
	didEvict := false

	if len(o.queue) == o.size {
		evicted = o.queue[0]
		didEvict = true

		copy(o.queue, o.queue[1:])
		o.queue = o.queue[:len(o.queue)-1]
	}

	o.queue = append(o.queue, e)

	return evicted, didEvict
}

//
// Get returns the element that exists at the specified index of the queue (zero being the oldest)
// and a true sentinel, or the zero value and a false sentinel if the index is out-of-range.
//
func (o *EvictingQueue[T]) Get(index int) (T, bool) {
	if index < 0 || index >= len(o.queue) {
		var zero T

		return zero, false
	}

	return o.queue[index], true
}

// Newest returns the most recently added element.
func (o *EvictingQueue[T]) Newest() (T, bool) {
	return o.Get(len(o.queue) - 1)
}

// Len returns the current length of the queue.
func (o *EvictingQueue[T]) Len() int {
	return len(o.queue)
}

// Cap returns the maximum length of the queue.
func (o *EvictingQueue[T]) Cap() int {
	return o.size
}

// Full reports whether the next Add will evict.
func (o *EvictingQueue[T]) Full() bool {
	return len(o.queue) == o.size
}

//
// Values returns a copy of the queued elements, oldest first.
//
func (o *EvictingQueue[T]) Values() []T {
	ret := make([]T, len(o.queue))
	copy(ret, o.queue)

	return ret
}

// Clear drops every element.
func (o *EvictingQueue[T]) Clear() {
	o.queue = o.queue[:0]
}
