package logger

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

const defaultQueueLines = 1024

// lineSink fans log lines out to every output from a single goroutine.
// Write never blocks the caller: when the queue is full the line is dropped
// and counted, so a slow disk cannot stall a running media job.
type lineSink struct {
	lines   chan []byte
	flushes chan chan error
	stopped chan struct{}

	mu     sync.RWMutex
	closed bool

	outs    []*bufio.Writer
	errOnce sync.Once
	err     error

	written atomic.Int64
	dropped atomic.Int64
}

func newLineSink(outputs []io.Writer, queue int) *lineSink {
	if queue <= 0 {
		queue = defaultQueueLines
	}
	s := &lineSink{
		lines:   make(chan []byte, queue),
		flushes: make(chan chan error),
		stopped: make(chan struct{}),
	}
	for _, w := range outputs {
		if w != nil {
			s.outs = append(s.outs, bufio.NewWriter(w))
		}
	}
	go s.run()
	return s
}

func (s *lineSink) run() {
	defer close(s.stopped)
	for {
		select {
		case line, ok := <-s.lines:
			if !ok {
				s.fail(s.flush())
				return
			}
			s.write(line)
			// batch bursts; flush once the queue is empty
			if len(s.lines) == 0 {
				s.fail(s.flush())
			}
		case ack := <-s.flushes:
			for len(s.lines) > 0 {
				s.write(<-s.lines)
			}
			ack <- s.flush()
		}
	}
}

func (s *lineSink) write(line []byte) {
	for _, out := range s.outs {
		if _, err := out.Write(line); err != nil {
			s.fail(err)
		}
	}
	s.written.Add(1)
}

func (s *lineSink) flush() error {
	var errs []error
	for _, out := range s.outs {
		if err := out.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *lineSink) fail(err error) {
	if err != nil {
		s.errOnce.Do(func() { s.err = err })
	}
}

// Write queues a copy of p. Lines written after Close are dropped.
func (s *lineSink) Write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	line := append([]byte(nil), p...)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return nil
	}
	select {
	case s.lines <- line:
	default:
		s.dropped.Add(1)
	}
	return nil
}

// Flush writes out everything queued so far.
func (s *lineSink) Flush(ctx context.Context) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return s.err
	}
	ack := make(chan error, 1)
	select {
	case s.flushes <- ack:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-ack:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting lines and waits until the queue is drained or ctx ends.
func (s *lineSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.lines)
	}
	s.mu.Unlock()

	select {
	case <-s.stopped:
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats reports how many lines reached the outputs and how many were dropped.
func (s *lineSink) Stats() (written, dropped int64) {
	return s.written.Load(), s.dropped.Load()
}
