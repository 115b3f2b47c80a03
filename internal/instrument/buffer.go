package instrument

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const flushTimeout = 5 * time.Second

// EventBuffer collects events in memory and periodically hands them to a
// Sink in one batch, so requests never wait on the sink.
type EventBuffer struct {
	mu      sync.Mutex
	events  []Event
	sink    Sink
	maxSize int
	ticker  *time.Ticker
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewEventBuffer creates a buffer that flushes on a timer or when full.
func NewEventBuffer(sink Sink, maxSize int, flushInterval time.Duration) *EventBuffer {
	if maxSize <= 0 {
		maxSize = 500
	}
	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	eb := &EventBuffer{
		sink:    sink,
		maxSize: maxSize,
		ticker:  time.NewTicker(flushInterval),
		done:    make(chan struct{}),
	}
	eb.wg.Add(1)
	go eb.run()
	return eb
}

func (eb *EventBuffer) run() {
	defer eb.wg.Done()
	for {
		select {
		case <-eb.done:
			return
		case <-eb.ticker.C:
			eb.Flush()
		}
	}
}

// Enqueue adds an event. A full buffer triggers an asynchronous flush that
// Stop waits for. Enqueue must not be called after Stop.
func (eb *EventBuffer) Enqueue(event Event) {
	eb.mu.Lock()
	eb.events = append(eb.events, event)
	shouldFlush := len(eb.events) >= eb.maxSize
	eb.mu.Unlock()
	if shouldFlush {
		eb.wg.Add(1)
		go func() {
			defer eb.wg.Done()
			eb.Flush()
		}()
	}
}

// Len returns the number of events waiting for the next flush.
func (eb *EventBuffer) Len() int {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	return len(eb.events)
}

// Flush writes all buffered events to the sink. Failed batches are logged
// and dropped.
func (eb *EventBuffer) Flush() {
	eb.mu.Lock()
	if len(eb.events) == 0 {
		eb.mu.Unlock()
		return
	}
	batch := eb.events
	eb.events = nil
	eb.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := eb.sink.Write(ctx, batch); err != nil {
		slog.Error("event buffer flush failed", "sink", eb.sink.Name(), "events", len(batch), "error", err)
	}
}

// Stop halts the background ticker, waits for in-flight flushes, flushes
// remaining events and closes the sink.
func (eb *EventBuffer) Stop() {
	eb.ticker.Stop()
	close(eb.done)
	eb.wg.Wait()
	eb.Flush()
	if err := eb.sink.Close(); err != nil {
		slog.Error("close event sink", "sink", eb.sink.Name(), "error", err)
	}
}
