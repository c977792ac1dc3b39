package logger

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"
)

// AsyncHook buffers log entries and writes them from a dedicated goroutine.
// When the buffer is full new entries are dropped rather than blocking the caller.
type AsyncHook struct {
	writers []io.Writer
	entries chan *logrus.Entry
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
}

// NewAsyncHookWithWriters creates a hook writing to every writer. bufferSize <= 0 uses 1000.
func NewAsyncHookWithWriters(writers []io.Writer, bufferSize int) *AsyncHook {
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	hook := &AsyncHook{
		writers: writers,
		entries: make(chan *logrus.Entry, bufferSize),
	}

	hook.wg.Add(1)
	go hook.processEntries()

	return hook
}

// Levels returns every level.
func (h *AsyncHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire enqueues a copy of the entry without blocking.
func (h *AsyncHook) Fire(entry *logrus.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		// after Close, write synchronously
		data, err := entry.Logger.Formatter.Format(entry)
		if err != nil {
			return err
		}
		h.write(data)
		return nil
	}

	clone := *entry
	clone.Data = make(logrus.Fields, len(entry.Data))
	for k, v := range entry.Data {
		clone.Data[k] = v
	}

	select {
	case h.entries <- &clone:
	default:
	}
	return nil
}

func (h *AsyncHook) processEntries() {
	defer h.wg.Done()

	for entry := range h.entries {
		func() {
			defer func() {
				if r := recover(); r != nil {
					// cannot log through logrus here
					fmt.Fprintf(os.Stderr, "[LOGGER PANIC] async hook recovered: %v\n", r)
					debug.PrintStack()
				}
			}()

			data, err := entry.Logger.Formatter.Format(entry)
			if err != nil {
				return
			}
			h.write(data)
		}()
	}
}

func (h *AsyncHook) write(data []byte) {
	for _, w := range h.writers {
		_, _ = w.Write(data)
	}
}

// Close stops accepting entries and waits for the queue to drain.
func (h *AsyncHook) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	close(h.entries)
	h.mu.Unlock()

	h.wg.Wait()
	return nil
}
