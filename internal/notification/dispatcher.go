package notification

import (
	"context"
	"sync"

	"github.com/evenza/settlement/internal/logger"
	"github.com/evenza/settlement/internal/metrics"
)

const (
	defaultCountWorkers = 4
	defaultQueueSize    = 256
)

// Dispatcher fans notifications out to a fixed pool of workers over a
// buffered channel. Enqueue never blocks the caller: when the queue is full
// the notification is dropped and counted.
type Dispatcher struct {
	countWorkers int

	notifier Notifier
	logger   logger.Logger
	queue    chan Notification
}

func NewDispatcher(notifier Notifier, l logger.Logger) *Dispatcher {
	return &Dispatcher{
		countWorkers: defaultCountWorkers,
		notifier:     notifier,
		logger:       l,
		queue:        make(chan Notification, defaultQueueSize),
	}
}

// Enqueue schedules a notification for delivery and returns immediately
func (d *Dispatcher) Enqueue(n Notification) {
	select {
	case d.queue <- n:
		metrics.NotificationQueueLength.Set(float64(len(d.queue)))
	default:
		d.logger.Warn("Notification queue full, dropping", "kind", n.Kind, "recipient", n.Recipient)
		metrics.NotificationsTotal.WithLabelValues(n.Kind, "dropped").Inc()
	}
}

// Run starts the workers and blocks until the context is cancelled and the
// queue is drained. The returned channel closes when every worker stopped.
func (d *Dispatcher) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < d.countWorkers; i++ {
		wg.Add(1)
		go func() {
			d.worker(ctx)
			wg.Done()
		}()
	}

	go func() {
		defer close(idleStopped)
		wg.Wait()
		d.logger.Debug("Notification dispatcher stopped")
	}()

	return idleStopped
}

func (d *Dispatcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-d.queue:
			metrics.NotificationQueueLength.Set(float64(len(d.queue)))

			err := d.notifier.Notify(ctx, n)
			if err != nil {
				d.logger.Error("Failed to deliver notification", "kind", n.Kind, "recipient", n.Recipient, "error", err)
				metrics.NotificationsTotal.WithLabelValues(n.Kind, "failed").Inc()
				continue
			}

			metrics.NotificationsTotal.WithLabelValues(n.Kind, "sent").Inc()
		}
	}
}
