// Package flushz provides a type-safe stream batching operator for Go channels.
// Items arriving on an input channel are regrouped into non-empty, ordered
// batches, where each batch boundary is decided by whichever of three
// independent triggers fires first:
//
//   - MaxSize: the batch reached a maximum item count
//   - MaxBurst: the batch's first item has waited long enough
//   - Silence: no new item arrived for a while
//
// The core abstraction is the Processor interface which transforms input
// channels to output channels, so the batcher composes with any other
// channel-based stage.
//
// Basic usage:
//
//	ctx := context.Background()
//	source := make(chan flushz.Result[Event])
//
//	batcher, err := flushz.NewBatcher[Event](flushz.BatchConfig{
//		Silence:  200 * time.Millisecond,
//		MaxBurst: time.Second,
//		MaxSize:  100,
//	}, flushz.RealClock)
//	if err != nil {
//		return err
//	}
//
//	for batch := range batcher.Process(ctx, source) {
//		if batch.IsError() {
//			// upstream failed; any pending items were flushed before this
//			return batch.Error()
//		}
//		bulkInsert(batch.Value())
//	}
//
// Closing the input channel is a normal completion. Sending an error Result is
// an upstream failure: pending items are flushed first, then the failure is
// forwarded and the output channel is closed. Cancelling the context stops the
// batcher without emitting anything further.
package flushz

import (
	"context"
)

// Processor is the core interface for stream processing components.
// It transforms an input channel of type In to an output channel of type Out.
// Processors should:
//   - Close the output channel when the input channel is closed
//   - Respect context cancellation
//   - Be safe for concurrent use
type Processor[In, Out any] interface {
	// Process transforms the input channel to an output channel.
	// It should close the output channel when processing is complete.
	Process(ctx context.Context, in <-chan In) <-chan Out

	// Name returns a descriptive name for the processor, useful for debugging.
	Name() string
}
