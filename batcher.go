package flushz

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Batcher collects items from a stream and groups them into non-empty, ordered
// batches. A batch is flushed by whichever trigger fires first:
//
//   - size: the buffer reached MaxSize items (checked on every append)
//   - burst: MaxBurst elapsed since the batch's first item
//   - silence: Silence elapsed since the most recent item
//
// Closing the input flushes the pending batch before the output is closed.
// An error Result on the input is an upstream failure: the pending batch is
// flushed, the failure is forwarded, and the output is closed.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type Batcher[T any] struct {
	config  BatchConfig
	name    string
	clock   Clock
	logger  *zap.Logger
	metrics *Metrics

	// testHookStep runs on the run goroutine after each input or timer fire is handled.
	testHookStep func(runState)
}

// runState is a snapshot of a run's buffer and timers.
type runState struct {
	buffered     int
	burstArmed   bool
	silenceArmed bool
}

// NewBatcher creates a processor that groups items into batches using size,
// burst and silence triggers. It returns an error wrapping ErrInvalidConfig
// if config cannot drive a Batcher. A nil clock means RealClock.
//
// When to use:
//   - Coalescing bursts of change notifications into one reload
//   - Bulk writes that must not wait on a quiet stream forever
//   - Flushing log lines once the producer goes idle
//
// Example:
//
//	// Flush after 200ms of quiet, after 2s at most, or at 500 items
//	batcher, err := flushz.NewBatcher[Event](flushz.BatchConfig{
//		Silence:  200 * time.Millisecond,
//		MaxBurst: 2 * time.Second,
//		MaxSize:  500,
//	}, flushz.RealClock)
//	if err != nil {
//		return err
//	}
//
//	for batch := range batcher.Process(ctx, events) {
//		if batch.IsError() {
//			return batch.Error()
//		}
//		bulkInsert(batch.Value())
//	}
//
// Parameters:
//   - config: Flush trigger configuration
//   - clock: Clock interface driving the burst and silence timers
func NewBatcher[T any](config BatchConfig, clock Clock) (*Batcher[T], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = RealClock
	}

	return &Batcher[T]{
		config: config,
		name:   "batcher",
		clock:  clock,
		logger: zap.NewNop(),
	}, nil
}

// MustBatcher is like NewBatcher but panics on an invalid config.
func MustBatcher[T any](config BatchConfig, clock Clock) *Batcher[T] {
	b, err := NewBatcher[T](config, clock)
	if err != nil {
		panic(err)
	}
	return b
}

// WithName sets a custom name for this processor.
// If not set, defaults to "batcher".
func (b *Batcher[T]) WithName(name string) *Batcher[T] {
	b.name = name
	return b
}

// WithLogger sets the logger used for flush and lifecycle events.
// If not set or nil, nothing is logged.
func (b *Batcher[T]) WithLogger(logger *zap.Logger) *Batcher[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	b.logger = logger
	return b
}

// WithMetrics sets the metrics recorded by this processor.
func (b *Batcher[T]) WithMetrics(metrics *Metrics) *Batcher[T] {
	b.metrics = metrics
	return b
}

// Config returns the flush trigger configuration.
func (b *Batcher[T]) Config() BatchConfig {
	return b.config
}

func (b *Batcher[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[[]T] {
	return b.processReporting(ctx, in, nil)
}

// processReporting is Process, additionally setting *interrupted before the
// output is closed if the run ended because ctx was done.
func (b *Batcher[T]) processReporting(ctx context.Context, in <-chan Result[T], interrupted *bool) <-chan Result[[]T] {
	out := make(chan Result[[]T])

	r := &batchRun[T]{
		Batcher:     b,
		ctx:         ctx,
		out:         out,
		interrupted: interrupted,
		logger:      b.logger.Named(b.name),
		burst:       flushTimer{kind: burstTimer},
		silence:     flushTimer{kind: silenceTimer},
		fires:       make(chan timerFire, 4),
		done:        make(chan struct{}),
	}

	go r.run(in)

	return out
}

func (b *Batcher[T]) Name() string {
	return b.name
}

// batchRun is the state of one Process call. Every field is owned by the run
// goroutine; timer callbacks only post to fires.
type batchRun[T any] struct {
	*Batcher[T]

	ctx         context.Context
	out         chan<- Result[[]T]
	logger      *zap.Logger
	interrupted *bool

	buffer []T
	start  time.Time

	burst   flushTimer
	silence flushTimer
	fires   chan timerFire
	done    chan struct{}
}

func (r *batchRun[T]) run(in <-chan Result[T]) {
	defer close(r.out)
	defer close(r.done)

	for {
		var ok bool

		select {
		case <-r.ctx.Done():
			r.cancel()
			return

		case item, open := <-in:
			switch {
			case !open:
				r.flush(TriggerComplete)
				return
			case item.IsError():
				r.fail(item.Error())
				return
			default:
				ok = r.append(item.Value())
			}

		case fire := <-r.fires:
			ok = r.fire(fire)
		}

		if !ok {
			r.cancel()
			return
		}
		if r.testHookStep != nil {
			r.testHookStep(runState{
				buffered:     len(r.buffer),
				burstArmed:   r.burst.armed(),
				silenceArmed: r.silence.armed(),
			})
		}
	}
}

func (r *batchRun[T]) append(item T) bool {
	wasEmpty := len(r.buffer) == 0
	if wasEmpty {
		r.start = r.clock.Now()
	}
	r.buffer = append(r.buffer, item)
	r.metrics.pushed()

	// Size wins over both timers; no timer is armed for this item.
	if r.config.MaxSize > 0 && len(r.buffer) >= r.config.MaxSize {
		return r.flush(TriggerSize)
	}

	if wasEmpty && r.config.MaxBurst > 0 {
		r.burst.arm(r.clock, r.config.MaxBurst, r.fires, r.done)
	}
	r.silence.arm(r.clock, r.config.Silence, r.fires, r.done)

	return true
}

func (r *batchRun[T]) fire(f timerFire) bool {
	t := &r.silence
	if f.kind == burstTimer {
		t = &r.burst
	}

	if !t.current(f) {
		r.logger.Debug("ignoring stale timer",
			zap.Stringer("timer", f.kind),
			zap.Uint64("generation", f.gen))
		return true
	}

	return r.flush(f.kind.trigger())
}

// flush detaches the buffer, cancels both timers and emits the detached items
// if there are any. It reports false if the context ended during emission, in
// which case the batch counts as discarded rather than flushed.
func (r *batchRun[T]) flush(trigger FlushTrigger) bool {
	batch, start := r.buffer, r.start
	r.buffer = make([]T, 0, r.config.MaxSize)

	r.burst.cancel()
	r.silence.cancel()

	if len(batch) == 0 {
		return true
	}

	now := r.clock.Now()
	r.logger.Debug("flushing batch",
		zap.String("trigger", string(trigger)),
		zap.Int("size", len(batch)),
		zap.Duration("age", now.Sub(start)))

	result := NewSuccess(batch).
		WithMetadata(MetadataFlushTrigger, string(trigger)).
		WithMetadata(MetadataBatchStart, start).
		WithMetadata(MetadataTimestamp, now).
		WithMetadata(MetadataBatchSize, len(batch)).
		WithMetadata(MetadataProcessor, r.name)

	if !r.emit(result) {
		r.metrics.discarded(len(batch))
		return false
	}
	r.metrics.flushed(trigger, len(batch))
	return true
}

// fail flushes pending items and then forwards the upstream failure.
func (r *batchRun[T]) fail(se *StreamError[T]) {
	if !r.flush(TriggerFailure) {
		return
	}

	r.logger.Warn("forwarding upstream failure",
		zap.Error(se.Err),
		zap.String("origin", se.ProcessorName))

	forwarded := Result[[]T]{
		err: newStreamErrorAt([]T{se.Item}, se.Err, se.ProcessorName, se.Timestamp),
	}
	r.emit(forwarded.WithMetadata(MetadataProcessor, r.name))
}

// cancel stops both timers and drops the pending batch without emitting it.
func (r *batchRun[T]) cancel() {
	r.interrupt()
	r.burst.cancel()
	r.silence.cancel()

	r.metrics.discarded(len(r.buffer))
	r.logger.Debug("batcher cancelled",
		zap.Int("discarded", len(r.buffer)),
		zap.Error(context.Cause(r.ctx)))
	r.buffer = nil
}

func (r *batchRun[T]) emit(result Result[[]T]) bool {
	if r.ctx.Err() != nil {
		r.interrupt()
		return false
	}

	select {
	case r.out <- result:
		return true
	case <-r.ctx.Done():
		r.interrupt()
		return false
	}
}

func (r *batchRun[T]) interrupt() {
	if r.interrupted != nil {
		*r.interrupted = true
	}
}
