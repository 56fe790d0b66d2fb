package flushz

import (
	"context"
)

// Sink receives the output of a batching processor as callbacks.
type Sink[T any] interface {
	// OnBatch receives each non-empty batch in order.
	OnBatch(batch []T)

	// OnComplete is called once after the last batch. err is nil on normal
	// completion and the forwarded upstream failure otherwise. It is not
	// called when the subscription is cancelled.
	OnComplete(err error)
}

// SinkFuncs adapts plain functions to a Sink. Nil functions are skipped.
type SinkFuncs[T any] struct {
	Batch    func(batch []T)
	Complete func(err error)
}

func (s SinkFuncs[T]) OnBatch(batch []T) {
	if s.Batch != nil {
		s.Batch(batch)
	}
}

func (s SinkFuncs[T]) OnComplete(err error) {
	if s.Complete != nil {
		s.Complete(err)
	}
}

// reportingProcessor is implemented by processors that can tell a run cut
// short by cancellation apart from one that completed. Batcher implements it.
type reportingProcessor[T any] interface {
	processReporting(ctx context.Context, in <-chan Result[T], interrupted *bool) <-chan Result[[]T]
}

// Subscription is a running Subscribe pump.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Subscribe runs p over in and delivers its output to sink on a dedicated
// goroutine. Callbacks are invoked sequentially. A sink must not block on
// sending to in from within OnBatch, since the processor may itself be
// waiting to deliver the next batch.
//
// Example:
//
//	sub := flushz.Subscribe(ctx, batcher, events, flushz.SinkFuncs[Event]{
//		Batch:    func(batch []Event) { bulkInsert(batch) },
//		Complete: func(err error) { log.Println("stream ended:", err) },
//	})
//	defer sub.Cancel()
func Subscribe[T any](ctx context.Context, p Processor[Result[T], Result[[]T]], in <-chan Result[T], sink Sink[T]) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	// interrupted is written by the processor before it closes out, so it is
	// safe to read once the range below ends.
	var interrupted bool
	var out <-chan Result[[]T]
	rp, reporting := p.(reportingProcessor[T])
	if reporting {
		out = rp.processReporting(ctx, in, &interrupted)
	} else {
		out = p.Process(ctx, in)
	}

	go func() {
		defer close(s.done)
		defer cancel()

		var failure error
		for result := range out {
			if result.IsError() {
				failure = result.Error()
				continue
			}
			sink.OnBatch(result.Value())
		}

		if !reporting {
			interrupted = ctx.Err() != nil
		}
		if interrupted {
			s.err = ctx.Err()
			return
		}
		s.err = failure
		sink.OnComplete(failure)
	}()

	return s
}

// Cancel tears down the subscription: the processor stops reading upstream,
// its timers are stopped, and no further callbacks are made. Cancel does not
// wait; use Wait for that. Calling Cancel more than once is a no-op.
func (s *Subscription) Cancel() {
	s.cancel()
}

// Done is closed once the subscription has ended.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the subscription ends. It returns nil on normal
// completion, the forwarded failure on upstream failure, and the context
// error on cancellation.
func (s *Subscription) Wait() error {
	<-s.done
	return s.err
}
