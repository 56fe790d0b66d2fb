// Package testing provides test utilities for flushz pipelines.
package testing

import (
	"reflect"
	"testing"
	"time"

	"github.com/zoobzio/flushz"
)

// CollectResultsWithTimeout collects all results from a channel until it is
// closed or the timeout expires.
func CollectResultsWithTimeout[T any](t *testing.T, ch <-chan flushz.Result[T], timeout time.Duration) []flushz.Result[T] {
	t.Helper()

	var results []flushz.Result[T]
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case result, ok := <-ch:
			if !ok {
				return results
			}
			results = append(results, result)
		case <-timer.C:
			return results
		}
	}
}

// CollectBatches collects the successful batches from a batcher output,
// ignoring a forwarded failure.
func CollectBatches[T any](t *testing.T, ch <-chan flushz.Result[[]T], timeout time.Duration) [][]T {
	t.Helper()

	results := CollectResultsWithTimeout(t, ch, timeout)
	batches := make([][]T, 0, len(results))
	for _, r := range results {
		if r.IsSuccess() {
			batches = append(batches, r.Value())
		}
	}
	return batches
}

// NextBatch waits for a single result from a batcher output.
// It fails the test if the channel closes or the timeout expires first.
func NextBatch[T any](t *testing.T, ch <-chan flushz.Result[[]T], timeout time.Duration) flushz.Result[[]T] {
	t.Helper()

	select {
	case result, ok := <-ch:
		if !ok {
			t.Fatal("output closed while waiting for a batch")
		}
		return result
	case <-time.After(timeout):
		t.Fatalf("no batch within %v", timeout)
	}
	return flushz.Result[[]T]{}
}

// SendValues sends a slice of values to a channel as successful Results.
// Closes the channel after all values are sent.
func SendValues[T any](t *testing.T, values []T) <-chan flushz.Result[T] {
	t.Helper()

	ch := make(chan flushz.Result[T], len(values))
	for _, v := range values {
		ch <- flushz.NewSuccess(v)
	}
	close(ch)
	return ch
}

// Flatten concatenates batches in order.
func Flatten[T any](batches [][]T) []T {
	var items []T
	for _, b := range batches {
		items = append(items, b...)
	}
	return items
}

// AssertBatches verifies the exact batches received.
func AssertBatches[T any](t *testing.T, got, want [][]T) {
	t.Helper()

	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected batches %v, got %v", want, got)
	}
}

// AssertNoEmptyBatches verifies every batch holds at least one item.
func AssertNoEmptyBatches[T any](t *testing.T, batches [][]T) {
	t.Helper()

	for i, b := range batches {
		if len(b) == 0 {
			t.Errorf("batch %d is empty", i)
		}
	}
}

// AssertTrigger verifies the flush trigger recorded on a batch.
func AssertTrigger[T any](t *testing.T, result flushz.Result[[]T], want flushz.FlushTrigger) {
	t.Helper()

	info, err := flushz.GetBatchInfo(result)
	if err != nil {
		t.Errorf("batch has no flush metadata: %v", err)
		return
	}
	if info.Trigger != want {
		t.Errorf("expected %s trigger, got %s", want, info.Trigger)
	}
}
