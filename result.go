package flushz

import (
	"errors"
	"fmt"
	"time"
)

// Result represents either a successful value or an error flowing through a stream.
// Upstream items reach a Batcher as Result[T]; batches leave it as Result[[]T]
// annotated with metadata describing why and when the batch was flushed.
type Result[T any] struct {
	value    T
	err      *StreamError[T]
	metadata map[string]interface{} // nil by default for zero overhead
}

// NewSuccess creates a Result containing a successful value.
func NewSuccess[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// NewError creates a Result containing an error.
func NewError[T any](item T, err error, processorName string) Result[T] {
	return Result[T]{err: NewStreamError(item, err, processorName)}
}

// IsError returns true if this Result contains an error.
func (r Result[T]) IsError() bool {
	return r.err != nil
}

// IsSuccess returns true if this Result contains a successful value.
func (r Result[T]) IsSuccess() bool {
	return r.err == nil
}

// Value returns the successful value.
// Panics if called on a Result containing an error - always check IsSuccess() first.
func (r Result[T]) Value() T {
	if r.err != nil {
		panic("called Value() on Result containing an error")
	}
	return r.value
}

// Error returns the StreamError.
// Returns nil if this Result contains a successful value.
func (r Result[T]) Error() *StreamError[T] {
	return r.err
}

// ValueOr returns the successful value if present, otherwise returns the fallback.
func (r Result[T]) ValueOr(fallback T) T {
	if r.err != nil {
		return fallback
	}
	return r.value
}

// Standard metadata keys attached to emitted batches.
const (
	MetadataFlushTrigger = "flush_trigger" // string - FlushTrigger that caused the flush
	MetadataBatchStart   = "batch_start"   // time.Time - arrival of the batch's first item
	MetadataBatchSize    = "batch_size"    // int - number of items in the batch
	MetadataTimestamp    = "timestamp"     // time.Time - flush time
	MetadataProcessor    = "processor"     // string - processor that emitted the batch
)

// WithMetadata returns a new Result with the specified metadata key-value pair.
// The original Result is unchanged. Empty keys are ignored.
func (r Result[T]) WithMetadata(key string, value interface{}) Result[T] {
	if key == "" {
		return r
	}

	var newMetadata map[string]interface{}
	if r.metadata == nil {
		newMetadata = map[string]interface{}{key: value}
	} else {
		newMetadata = make(map[string]interface{}, len(r.metadata)+1)
		for k, v := range r.metadata {
			newMetadata[k] = v
		}
		newMetadata[key] = value
	}

	return Result[T]{
		value:    r.value,
		err:      r.err,
		metadata: newMetadata,
	}
}

// GetMetadata retrieves a metadata value by key.
// Returns the value and true if the key exists, nil and false otherwise.
func (r Result[T]) GetMetadata(key string) (interface{}, bool) {
	if r.metadata == nil {
		return nil, false
	}
	value, exists := r.metadata[key]
	return value, exists
}

// HasMetadata returns true if this Result contains any metadata.
func (r Result[T]) HasMetadata() bool {
	return len(r.metadata) > 0
}

// MetadataKeys returns all metadata keys for this Result.
func (r Result[T]) MetadataKeys() []string {
	if r.metadata == nil {
		return []string{}
	}

	keys := make([]string, 0, len(r.metadata))
	for key := range r.metadata {
		keys = append(keys, key)
	}
	return keys
}

// GetStringMetadata retrieves string metadata.
// Returns: (value, found, error)
// - found=false, error=nil: key not present
// - found=false, error!=nil: key present but wrong type
// - found=true, error=nil: successful retrieval.
func (r Result[T]) GetStringMetadata(key string) (value string, found bool, err error) {
	metaValue, exists := r.GetMetadata(key)
	if !exists {
		return "", false, nil
	}
	str, ok := metaValue.(string)
	if !ok {
		return "", false, fmt.Errorf("metadata key %q has type %T, expected string", key, metaValue)
	}
	return str, true, nil
}

// GetTimeMetadata retrieves time.Time metadata.
func (r Result[T]) GetTimeMetadata(key string) (time.Time, bool, error) {
	value, exists := r.GetMetadata(key)
	if !exists {
		return time.Time{}, false, nil
	}
	t, ok := value.(time.Time)
	if !ok {
		return time.Time{}, false, fmt.Errorf("metadata key %q has type %T, expected time.Time", key, value)
	}
	return t, true, nil
}

// GetIntMetadata retrieves int metadata.
func (r Result[T]) GetIntMetadata(key string) (value int, found bool, err error) {
	metaValue, exists := r.GetMetadata(key)
	if !exists {
		return 0, false, nil
	}
	i, ok := metaValue.(int)
	if !ok {
		return 0, false, fmt.Errorf("metadata key %q has type %T, expected int", key, metaValue)
	}
	return i, true, nil
}

// FlushTrigger names the event that caused a batch to be flushed.
type FlushTrigger string

// Flush triggers.
const (
	TriggerSize     FlushTrigger = "size"
	TriggerBurst    FlushTrigger = "burst"
	TriggerSilence  FlushTrigger = "silence"
	TriggerComplete FlushTrigger = "complete"
	TriggerFailure  FlushTrigger = "failure"
)

// BatchInfo is the typed view of the metadata a Batcher attaches to a batch.
type BatchInfo struct {
	Start     time.Time
	FlushedAt time.Time
	Trigger   FlushTrigger
	Processor string
	Size      int
}

// Age returns how long the batch's first item waited before the flush.
func (i BatchInfo) Age() time.Duration {
	return i.FlushedAt.Sub(i.Start)
}

// GetBatchInfo extracts and validates batch metadata from a Result.
func GetBatchInfo[T any](result Result[[]T]) (BatchInfo, error) {
	trigger, found, err := result.GetStringMetadata(MetadataFlushTrigger)
	if err != nil {
		return BatchInfo{}, fmt.Errorf("invalid flush trigger: %w", err)
	}
	if !found {
		return BatchInfo{}, errors.New("flush trigger not found")
	}

	switch FlushTrigger(trigger) {
	case TriggerSize, TriggerBurst, TriggerSilence, TriggerComplete, TriggerFailure:
	default:
		return BatchInfo{}, fmt.Errorf("invalid flush trigger: %s", trigger)
	}

	start, found, err := result.GetTimeMetadata(MetadataBatchStart)
	if err != nil {
		return BatchInfo{}, fmt.Errorf("invalid batch start: %w", err)
	}
	if !found {
		return BatchInfo{}, errors.New("batch start not found")
	}

	flushedAt, found, err := result.GetTimeMetadata(MetadataTimestamp)
	if err != nil {
		return BatchInfo{}, fmt.Errorf("invalid flush timestamp: %w", err)
	}
	if !found {
		return BatchInfo{}, errors.New("flush timestamp not found")
	}

	info := BatchInfo{
		Start:     start,
		FlushedAt: flushedAt,
		Trigger:   FlushTrigger(trigger),
	}

	// Size and processor are optional
	if size, found, err := result.GetIntMetadata(MetadataBatchSize); found && err == nil {
		info.Size = size
	}
	if name, found, err := result.GetStringMetadata(MetadataProcessor); found && err == nil {
		info.Processor = name
	}

	return info, nil
}
