// Package events fans appointment events out to sinks on a background
// worker, away from the request path.
package events

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"salonbook-backend/metrics"
	"salonbook-backend/models"
)

// Sink consumes appointment events. A failing sink never affects the
// others or the change that produced the event.
type Sink interface {
	Name() string
	Handle(ctx context.Context, evt models.AppointmentEvent) error
}

type DispatcherConfig struct {
	BufferSize  int
	SinkTimeout time.Duration
}

type Dispatcher struct {
	queue   chan models.AppointmentEvent
	sinks   []Sink
	timeout time.Duration
	metrics metrics.BookingMetrics
	logger  *slog.Logger
	done    chan struct{}
}

func NewDispatcher(cfg DispatcherConfig, m metrics.BookingMetrics, logger *slog.Logger, sinks ...Sink) *Dispatcher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}
	if cfg.SinkTimeout <= 0 {
		cfg.SinkTimeout = 10 * time.Second
	}
	if m == nil {
		m = metrics.Noop()
	}
	return &Dispatcher{
		queue:   make(chan models.AppointmentEvent, cfg.BufferSize),
		sinks:   sinks,
		timeout: cfg.SinkTimeout,
		metrics: m,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Publish enqueues evt without blocking. When the queue is full the event
// is dropped and logged.
func (d *Dispatcher) Publish(evt models.AppointmentEvent) {
	select {
	case d.queue <- evt:
	default:
		d.metrics.IncEventDropped()
		d.logger.Warn("event queue full, dropping event",
			"type", evt.Type,
			"appointment_id", evt.Appointment.ID,
		)
	}
}

// Run delivers events until ctx is cancelled, then drains what is left in
// the queue before returning.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			d.drain()
			return
		case evt := <-d.queue:
			d.deliver(ctx, evt)
		}
	}
}

// Done is closed once Run has returned.
func (d *Dispatcher) Done() <-chan struct{} { return d.done }

func (d *Dispatcher) drain() {
	for {
		select {
		case evt := <-d.queue:
			d.deliver(context.Background(), evt)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, evt models.AppointmentEvent) {
	base := context.WithoutCancel(ctx)
	if evt.SpanContext.IsValid() {
		base = trace.ContextWithSpanContext(base, evt.SpanContext)
	}
	for _, sink := range d.sinks {
		sinkCtx, cancel := context.WithTimeout(base, d.timeout)
		err := sink.Handle(sinkCtx, evt)
		cancel()
		d.metrics.IncEventDelivered(sink.Name(), err == nil)
		if err != nil {
			d.logger.Error("event sink failed",
				"sink", sink.Name(),
				"type", evt.Type,
				"appointment_id", evt.Appointment.ID,
				"err", err,
			)
		}
	}
}

// LogSink writes every event to the structured log.
type LogSink struct {
	Logger *slog.Logger
}

func (LogSink) Name() string { return "log" }

func (s LogSink) Handle(_ context.Context, evt models.AppointmentEvent) error {
	s.Logger.Info("appointment event",
		"type", evt.Type,
		"appointment_id", evt.Appointment.ID,
		"status", evt.Appointment.Status,
		"date", evt.Appointment.Date.String(),
		"time_slot", evt.Appointment.TimeSlot,
	)
	return nil
}
