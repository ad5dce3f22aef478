package mailer

import (
	"context"
	"errors"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"yamdb/internal/logging"
	"yamdb/internal/metrics"
)

const breakerName = "mail"

// ErrQueueFull is reported when a message is dropped because every worker is busy.
var ErrQueueFull = errors.New("mail queue is full")

// ErrDispatcherClosed is reported for messages enqueued after Shutdown.
var ErrDispatcherClosed = errors.New("mail dispatcher is closed")

// Dispatcher sends mail asynchronously on a fixed pool of workers. Each send
// runs with its own timeout behind a circuit breaker; failures are logged and
// counted, never returned to the caller.
type Dispatcher struct {
	mailer  Mailer
	cb      *gobreaker.CircuitBreaker[struct{}]
	timeout time.Duration
	workers int

	queue    chan Message
	wg       sync.WaitGroup
	closeMux sync.Mutex
	closed   bool
}

// NewDispatcher creates a dispatcher with a queue of workers*16 messages.
// Call Start before enqueueing.
func NewDispatcher(m Mailer, workers int, timeout time.Duration) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("mail circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &Dispatcher{
		mailer:  m,
		cb:      cb,
		timeout: timeout,
		workers: workers,
		queue:   make(chan Message, workers*16),
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Start launches the worker goroutines.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	logging.Info().Int("workers", d.workers).Msg("mail dispatcher started")
}

// Enqueue hands msg to the pool without blocking.
func (d *Dispatcher) Enqueue(msg Message) error {
	d.closeMux.Lock()
	defer d.closeMux.Unlock()

	if d.closed {
		metrics.MailDeliveries.WithLabelValues("dropped").Inc()
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- msg:
		return nil
	default:
		metrics.MailDeliveries.WithLabelValues("dropped").Inc()
		logging.Warn().Str("to", msg.To).Msg("mail queue full, message dropped")
		return ErrQueueFull
	}
}

// Shutdown stops accepting messages and waits for queued ones to be sent or
// for ctx to expire.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.closeMux.Lock()
	if !d.closed {
		close(d.queue)
		d.closed = true
	}
	d.closeMux.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info().Msg("mail dispatcher drained")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for msg := range d.queue {
		d.send(id, msg)
	}
}

func (d *Dispatcher) send(id int, msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	_, err := d.cb.Execute(func() (struct{}, error) {
		return struct{}{}, d.mailer.Send(ctx, msg)
	})
	if err != nil {
		metrics.MailDeliveries.WithLabelValues("failed").Inc()
		logging.Error().Err(err).Int("worker", id).Str("to", msg.To).Msg("mail delivery failed")
		return
	}
	metrics.MailDeliveries.WithLabelValues("sent").Inc()
}
