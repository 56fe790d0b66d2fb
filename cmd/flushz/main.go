// Command flushz batches newline-delimited items read from stdin and writes
// each batch to stdout as a JSON array, one batch per line.
//
// Usage:
//
//	tail -f app.log | flushz -silence 500ms -max-burst 5s -max-size 100
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zoobzio/flushz"
)

// maxLineSize bounds a single input line; longer lines end the run with a
// read error.
const maxLineSize = 16 << 20

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "flushz:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("flushz", flag.ContinueOnError)
	var (
		silence  = fs.Duration("silence", time.Second, "flush after this much idle time")
		maxBurst = fs.Duration("max-burst", 0, "flush this long after a batch's first line (0 disables)")
		maxSize  = fs.Int("max-size", 0, "flush at this many lines (0 disables)")
		verbose  = fs.Bool("verbose", false, "log flush events to stderr")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // stderr sync errors are not actionable

	batcher, err := flushz.NewBatcher[string](flushz.BatchConfig{
		Silence:  *silence,
		MaxBurst: *maxBurst,
		MaxSize:  *maxSize,
	}, flushz.RealClock)
	if err != nil {
		return err
	}
	batcher.WithName("stdin").WithLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return pipe(ctx, os.Stdin, os.Stdout, batcher, logger)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		return cfg.Build()
	}
	return zap.NewDevelopment()
}

// pipe reads lines from r, batches them with p and writes each batch to w.
// It returns when r is exhausted and every batch has been written, or when
// ctx is cancelled.
func pipe(ctx context.Context, r io.Reader, w io.Writer, p flushz.Processor[flushz.Result[string], flushz.Result[[]string]], logger *zap.Logger) error {
	g, ctx := errgroup.WithContext(ctx)
	lines := make(chan flushz.Result[string])

	// Unblock a pending read when the pipeline is torn down.
	if closer, ok := r.(io.Closer); ok {
		stopClose := context.AfterFunc(ctx, func() {
			_ = closer.Close()
		})
		defer stopClose()
	}

	g.Go(func() error {
		defer close(lines)

		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)
		for scanner.Scan() {
			select {
			case lines <- flushz.NewSuccess(scanner.Text()):
			case <-ctx.Done():
				return nil
			}
		}

		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			select {
			case lines <- flushz.NewError("", err, "stdin"):
			case <-ctx.Done():
			}
		}
		return nil
	})

	g.Go(func() error {
		enc := json.NewEncoder(w)
		var written int

		for batch := range p.Process(ctx, lines) {
			if batch.IsError() {
				return fmt.Errorf("read input: %w", batch.Error().Err)
			}
			if err := enc.Encode(batch.Value()); err != nil {
				return fmt.Errorf("write batch: %w", err)
			}
			written++
		}

		logger.Debug("input drained", zap.Int("batches", written))
		return nil
	})

	return g.Wait()
}
