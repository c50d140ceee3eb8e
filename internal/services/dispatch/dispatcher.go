package dispatch

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/fertigation/internal/model/messages"
	"github.com/LeonardoBeccarini/fertigation/pkg/dedup"
)

type Config struct {
	QueueSize   int
	DedupTTL    time.Duration
	SendTimeout time.Duration

	BreakerFailures int
	BreakerOpenFor  time.Duration
	BreakerInterval time.Duration

	Logger     *zap.SugaredLogger
	Registerer prometheus.Registerer
}

// Dispatcher consegna gli eventi ai sink in background: il calcolo della
// pagina non aspetta mai MQTT o Influx.
type Dispatcher struct {
	cfg   Config
	log   *zap.SugaredLogger
	queue chan messages.RecipeCalculatedEvent
	sinks []guardedSink
	dedup *dedup.Deduper
	sent  *prometheus.CounterVec
	drops *prometheus.CounterVec
}

// Un breaker per ciascun sink
type guardedSink struct {
	sink Sink
	cb   *gobreaker.CircuitBreaker
}

func New(cfg Config, sinks ...Sink) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.NewRegistry()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 3 * time.Second
	}
	if cfg.BreakerFailures < 1 {
		cfg.BreakerFailures = 3
	}
	if cfg.BreakerOpenFor <= 0 {
		cfg.BreakerOpenFor = 10 * time.Second
	}

	f := promauto.With(cfg.Registerer)
	d := &Dispatcher{
		cfg:   cfg,
		log:   cfg.Logger,
		queue: make(chan messages.RecipeCalculatedEvent, cfg.QueueSize),
		dedup: dedup.New(cfg.DedupTTL, 0),
		sent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fertigation_dispatch_total",
			Help: "Recipe events delivered to sinks, by sink and result.",
		}, []string{"sink", "result"}),
		drops: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fertigation_dispatch_dropped_total",
			Help: "Recipe events not queued, by reason.",
		}, []string{"reason"}),
	}
	for _, s := range sinks {
		if s == nil {
			continue
		}
		d.sinks = append(d.sinks, guardedSink{sink: s, cb: d.newBreaker(s.Name())})
	}
	return d
}

func (d *Dispatcher) newBreaker(name string) *gobreaker.CircuitBreaker {
	fails := uint32(d.cfg.BreakerFailures)
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: d.cfg.BreakerInterval,
		Timeout:  d.cfg.BreakerOpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= fails
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			d.log.Warnf("dispatch: breaker %s %s -> %s", name, from, to)
		},
	})
}

// Enabled reports whether at least one sink is configured.
func (d *Dispatcher) Enabled() bool { return d != nil && len(d.sinks) > 0 }

// Submit enqueues evt without blocking. It returns false when there is no
// sink, when the same stage/volume was submitted within the dedup window, or
// when the queue is full.
func (d *Dispatcher) Submit(evt messages.RecipeCalculatedEvent) bool {
	if !d.Enabled() {
		return false
	}
	key := dedup.Key(evt.Stage, strconv.FormatFloat(evt.VolumeLiters, 'g', -1, 64))
	if !d.dedup.ShouldProcess(key) {
		d.drops.WithLabelValues("duplicate").Inc()
		return false
	}
	select {
	case d.queue <- evt:
		return true
	default:
		// non consegnato: un nuovo invio identico deve poter passare
		d.dedup.Forget(key)
		d.drops.WithLabelValues("queue_full").Inc()
		d.log.Warnf("dispatch: queue full, dropping %s/%gL", evt.Stage, evt.VolumeLiters)
		return false
	}
}

// Run consuma la coda finché ctx non viene cancellato.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-d.queue:
			d.deliver(ctx, evt)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, evt messages.RecipeCalculatedEvent) {
	for _, gs := range d.sinks {
		_, err := gs.cb.Execute(func() (interface{}, error) {
			sctx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
			defer cancel()
			return nil, gs.sink.Send(sctx, evt)
		})

		result := "ok"
		switch {
		case err == nil:
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			result = "breaker_open"
		default:
			result = "error"
			d.log.Warnf("dispatch: %s send failed stage=%s volume=%g: %v", gs.sink.Name(), evt.Stage, evt.VolumeLiters, err)
		}
		d.sent.WithLabelValues(gs.sink.Name(), result).Inc()
	}
}

// States returns sink name -> breaker state ("closed", "open", "half-open").
func (d *Dispatcher) States() map[string]string {
	out := map[string]string{}
	if d == nil {
		return out
	}
	for _, gs := range d.sinks {
		out[gs.sink.Name()] = gs.cb.State().String()
	}
	return out
}
