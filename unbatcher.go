package flushz

import (
	"context"
)

// Unbatcher flattens batches into individual items.
// It's the inverse operation of Batcher.
type Unbatcher[T any] struct {
	name string
}

// NewUnbatcher creates a processor that converts Result[[]T] channels to
// Result[T] channels. Items are emitted individually in order. An error batch
// becomes one error Result carrying the same underlying error.
//
// Example:
//
//	// Batch for a bulk lookup, then continue per item
//	batched := batcher.Process(ctx, source)
//	enriched := bulkEnrich.Process(ctx, batched)
//	items := flushz.NewUnbatcher[Event]().Process(ctx, enriched)
func NewUnbatcher[T any]() *Unbatcher[T] {
	return &Unbatcher[T]{
		name: "unbatcher",
	}
}

func (*Unbatcher[T]) Process(ctx context.Context, in <-chan Result[[]T]) <-chan Result[T] {
	out := make(chan Result[T])

	go func() {
		defer close(out)

		for batch := range in {
			if batch.IsError() {
				select {
				case out <- unbatchError(batch.Error()):
				case <-ctx.Done():
					return
				}
				continue
			}

			for _, item := range batch.Value() {
				select {
				case out <- NewSuccess(item):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

func (u *Unbatcher[T]) Name() string {
	return u.name
}

func unbatchError[T any](se *StreamError[[]T]) Result[T] {
	var item T
	if len(se.Item) > 0 {
		item = se.Item[0]
	}
	return Result[T]{err: newStreamErrorAt(item, se.Err, se.ProcessorName, se.Timestamp)}
}
