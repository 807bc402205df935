package turnengine

import "context"

// Iterator is a generic pull iterator over items produced lazily, used
// by stores to stream journal entries without loading them all up
// front.
type Iterator[T any] struct {
	nextFunc func(ctx context.Context) (*T, error)
	current  *T
	err      error
}

// NewIterator creates an Iterator from a function that produces the
// next item. The function should return (nil, nil) when the iterator
// is finished, or (nil, err) on error.
func NewIterator[T any](nextFunc func(ctx context.Context) (*T, error)) *Iterator[T] {
	return &Iterator[T]{nextFunc: nextFunc}
}

// Next advances the iterator. Returns false when the iterator is done
// or an error occurred.
func (it *Iterator[T]) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	it.current, it.err = it.nextFunc(ctx)
	return it.current != nil && it.err == nil
}

// Value returns the current item.
func (it *Iterator[T]) Value() *T {
	return it.current
}

// Err returns the last error encountered during iteration.
func (it *Iterator[T]) Err() error {
	return it.err
}

// All consumes the iterator and returns the remaining items.
func (it *Iterator[T]) All(ctx context.Context) ([]*T, error) {
	var results []*T
	for it.Next(ctx) {
		results = append(results, it.Value())
	}
	return results, it.Err()
}
