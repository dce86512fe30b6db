package mail

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Broker is the queue surface the worker needs: pop from one end, push
// back to the other. Pop is also the acknowledgment.
type Broker interface {
	PopRaw(ctx context.Context) ([]byte, error)
	PushRaw(ctx context.Context, payload []byte) error
}

// Worker drains the mail queue for the lifetime of the process.
// Delivery is at-least-once: a task is removed from the queue before the
// send attempt and re-enqueued unchanged when the attempt fails. A task
// that can never be delivered keeps cycling; there is no retry cap or
// dead-letter queue yet.
type Worker struct {
	queue        Broker
	sender       Sender
	logger       *slog.Logger
	idleBackoff  time.Duration
	retryBackoff time.Duration

	metricsOnce        sync.Once
	metricsInitialized bool
	delivered          prometheus.Counter
	requeued           prometheus.Counter
	failures           prometheus.Counter
}

// NewWorker constructs a Worker. idle is the sleep after finding the
// queue empty, retry the shorter sleep after a pop or decode error.
func NewWorker(queue Broker, sender Sender, logger *slog.Logger, idle, retry time.Duration) *Worker {
	if idle <= 0 {
		idle = 5 * time.Second
	}
	if retry <= 0 {
		retry = time.Second
	}
	return &Worker{
		queue:        queue,
		sender:       sender,
		logger:       logger,
		idleBackoff:  idle,
		retryBackoff: retry,
	}
}

// Run loops until ctx is canceled. It never terminates on its own; a
// returned error is the context's, reported to the supervising layer.
func (w *Worker) Run(ctx context.Context) error {
	w.initMetrics()
	w.logger.Info("mail worker started")
	for {
		if err := ctx.Err(); err != nil {
			w.logger.Info("mail worker stopping")
			return err
		}

		switch err := w.popSend(ctx); {
		case err == nil:
			// Task handled, loop immediately.
		case errors.Is(err, ErrEmptyQueue):
			if !w.sleep(ctx, w.idleBackoff) {
				w.logger.Info("mail worker stopping")
				return ctx.Err()
			}
		default:
			w.logger.Error("mail worker iteration failed", "error", err)
			if !w.sleep(ctx, w.retryBackoff) {
				w.logger.Info("mail worker stopping")
				return ctx.Err()
			}
		}
	}
}

// popSend takes one task off the queue and attempts delivery. A send
// failure re-enqueues the raw payload byte-identical to its pre-attempt
// form and still counts as a handled iteration.
func (w *Worker) popSend(ctx context.Context) error {
	payload, err := w.queue.PopRaw(ctx)
	if err != nil {
		return err
	}

	var task Task
	if err := json.Unmarshal(payload, &task); err != nil {
		return errors.Join(errors.New("decode mail task"), err)
	}

	if err := w.sender.Send(task); err != nil {
		w.countFailure()
		w.logger.Warn("mail delivery failed, re-enqueueing", "recipient", task.Recipient, "error", err)
		if err := w.queue.PushRaw(ctx, payload); err != nil {
			return errors.Join(errors.New("re-enqueue mail task"), err)
		}
		w.countRequeue()
		return nil
	}

	w.countDelivery()
	w.logger.Info("mail task delivered", "recipient", task.Recipient)
	return nil
}

// sleep waits for d or context cancellation, reporting false on cancel.
func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (w *Worker) initMetrics() {
	w.metricsOnce.Do(func() {
		w.delivered = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marquee",
			Subsystem: "mail",
			Name:      "tasks_delivered_total",
			Help:      "Count of successfully delivered mail tasks",
		})
		w.requeued = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marquee",
			Subsystem: "mail",
			Name:      "tasks_requeued_total",
			Help:      "Count of mail tasks re-enqueued after a failed send",
		})
		w.failures = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marquee",
			Subsystem: "mail",
			Name:      "send_failures_total",
			Help:      "Count of failed delivery attempts",
		})

		for i, collector := range []prometheus.Counter{w.delivered, w.requeued, w.failures} {
			if err := prometheus.Register(collector); err != nil {
				var are prometheus.AlreadyRegisteredError
				if errors.As(err, &are) {
					existing := are.ExistingCollector.(prometheus.Counter)
					switch i {
					case 0:
						w.delivered = existing
					case 1:
						w.requeued = existing
					case 2:
						w.failures = existing
					}
				}
			}
		}
		w.metricsInitialized = true
	})
}

func (w *Worker) countDelivery() {
	if w.metricsInitialized {
		w.delivered.Inc()
	}
}

func (w *Worker) countRequeue() {
	if w.metricsInitialized {
		w.requeued.Inc()
	}
}

func (w *Worker) countFailure() {
	if w.metricsInitialized {
		w.failures.Inc()
	}
}
