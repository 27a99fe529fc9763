package broadcast

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/racesim/log"
)

//nolint:lll // url
// see https://betterprogramming.pub/how-to-broadcast-messages-in-go-using-channels-b68f42bdf32e

const DefaultSkipTimeout = 50 * time.Millisecond

type Server[T any] interface {
	Subscribe() <-chan T
	CancelSubscription(<-chan T)
	// Done is closed once all listeners are closed
	Done() <-chan struct{}
	Stats() Stats
	Close()
}

type Stats struct {
	Received  int
	Sent      int
	Skipped   int
	Listeners int
}

type server[T any] struct {
	name           string
	raceID         string
	source         <-chan T
	listeners      []chan T
	addListener    chan chan T
	removeListener chan (<-chan T)
	statsReq       chan chan Stats
	ctx            context.Context
	cancel         context.CancelFunc
	done           chan struct{}
	skipTimeout    time.Duration
	stats          Stats
	l              *log.Logger
}

type Option[T any] func(*server[T])

// WithTelemetry adds the race id to the exported gauges
func WithTelemetry[T any](raceID string) Option[T] {
	return func(b *server[T]) {
		b.raceID = raceID
	}
}

// WithSkipTimeout sets how long a message waits for a slow listener
func WithSkipTimeout[T any](d time.Duration) Option[T] {
	return func(b *server[T]) {
		b.skipTimeout = d
	}
}

func WithLogger[T any](l *log.Logger) Option[T] {
	return func(b *server[T]) {
		b.l = l
	}
}

// NewServer distributes every message of source to all subscribers.
// Closing source closes all subscriber channels.
//
//nolint:whitespace // false positive
func NewServer[T any](
	name string,
	source <-chan T,
	opts ...Option[T],
) Server[T] {
	ctx, cancel := context.WithCancel(context.Background())
	b := &server[T]{
		name:           name,
		source:         source,
		addListener:    make(chan chan T),
		removeListener: make(chan (<-chan T)),
		statsReq:       make(chan chan Stats),
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
		skipTimeout:    DefaultSkipTimeout,
		l:              log.Default().Named("broadcast"),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.setupMetrics()
	go b.serve()
	return b
}

// Subscribe returns a closed channel if the server is already done
func (b *server[T]) Subscribe() <-chan T {
	ch := make(chan T)
	select {
	case b.addListener <- ch:
	case <-b.done:
		close(ch)
	}
	return ch
}

func (b *server[T]) CancelSubscription(ch <-chan T) {
	select {
	case b.removeListener <- ch:
	case <-b.done:
	}
}

func (b *server[T]) Done() <-chan struct{} {
	return b.done
}

func (b *server[T]) Stats() Stats {
	req := make(chan Stats, 1)
	select {
	case b.statsReq <- req:
		return <-req
	case <-b.done:
		return b.stats
	}
}

func (b *server[T]) Close() {
	b.cancel()
	<-b.done
	b.l.Debug("broadcast server closed",
		log.String("name", b.name),
		log.Int("rcv", b.stats.Received),
		log.Int("snd", b.stats.Sent),
		log.Int("skip", b.stats.Skipped))
}

//nolint:lll,funlen // readability
func (b *server[T]) setupMetrics() {
	meter := otel.GetMeterProvider().Meter(fmt.Sprintf("rsim.broadcast.%s", b.name))
	register := func(metricName, desc, unit string, valueProvider func() int64) {
		if _, err := meter.Int64ObservableGauge(
			metricName,
			metric.WithDescription(desc),
			metric.WithUnit(unit),

			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(valueProvider(),
					metric.WithAttributes(
						attribute.String("name", b.name),
						attribute.String("race", b.raceID),
					),
				)
				return nil
			})); err != nil {
			b.l.Error("failed to register metric",
				log.String("metric", metricName),
				log.ErrorField(err))
		}
	}
	type data struct {
		name  string
		desc  string
		unit  string
		value func() int64
	}
	for _, d := range []*data{
		{
			"rsim.broadcast.rcv", "Number of received messages", "{count}",
			func() int64 { return int64(b.Stats().Received) },
		},
		{
			"rsim.broadcast.snd", "Number of sent messages", "{count}",
			func() int64 { return int64(b.Stats().Sent) },
		},
		{
			"rsim.broadcast.skip", "Number of skipped messages", "{count}",
			func() int64 { return int64(b.Stats().Skipped) },
		},
		{
			"rsim.broadcast.listener", "Number of listeners", "{count}",
			func() int64 { return int64(b.Stats().Listeners) },
		},
	} {
		register(d.name, d.desc, d.unit, d.value)
	}
}

//nolint:cyclop // ok
func (b *server[T]) serve() {
	defer func() {
		for _, listener := range b.listeners {
			close(listener)
		}
		b.listeners = nil
		b.stats.Listeners = 0
		close(b.done)
	}()
	for {
		select {
		case <-b.ctx.Done():
			return
		case req := <-b.statsReq:
			s := b.stats
			s.Listeners = len(b.listeners)
			req <- s
		case ch := <-b.addListener:
			b.listeners = append(b.listeners, ch)
		case ch := <-b.removeListener:
			for i, listener := range b.listeners {
				if listener == ch {
					b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
					close(listener)
					break
				}
			}
		case msg, ok := <-b.source:
			if !ok {
				b.l.Debug("source closed", log.String("name", b.name))
				return
			}
			b.stats.Received++
			for _, listener := range b.listeners {
				select {
				case listener <- msg:
					b.stats.Sent++
				case <-time.After(b.skipTimeout):
					b.stats.Skipped++
				}
			}
		}
	}
}
