package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/fertigation/internal/model/messages"
)

type recordingSink struct {
	name string
	err  error

	mu   sync.Mutex
	got  []messages.RecipeCalculatedEvent
	seen chan struct{}
}

func newRecordingSink(name string, err error) *recordingSink {
	return &recordingSink{name: name, err: err, seen: make(chan struct{}, 16)}
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Send(_ context.Context, evt messages.RecipeCalculatedEvent) error {
	s.mu.Lock()
	s.got = append(s.got, evt)
	s.mu.Unlock()
	s.seen <- struct{}{}
	return s.err
}

func (s *recordingSink) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func evt(stage string, vol float64) messages.RecipeCalculatedEvent {
	return messages.RecipeCalculatedEvent{Stage: stage, VolumeLiters: vol, Timestamp: time.Unix(0, 0)}
}

// start avvia Run e restituisce la funzione di stop che attende l'uscita.
func start(t *testing.T, d *Dispatcher) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()
	return func() {
		cancel()
		<-done
	}
}

func TestDispatcher_DeliversToEverySink(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, b := newRecordingSink("mqtt", nil), newRecordingSink("influx", nil)
	d := New(Config{Registerer: reg, DedupTTL: time.Minute}, a, b)
	stop := start(t, d)
	defer stop()

	require.True(t, d.Submit(evt("seedling", 1000)))
	<-a.seen
	<-b.seen

	assert.Equal(t, "seedling", a.got[0].Stage)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(d.sent.WithLabelValues("influx", "ok")) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(d.sent.WithLabelValues("mqtt", "ok")))
}

func TestDispatcher_SuppressesDuplicateSubmissions(t *testing.T) {
	a := newRecordingSink("mqtt", nil)
	d := New(Config{DedupTTL: time.Minute}, a)

	assert.True(t, d.Submit(evt("flowering", 500)))
	assert.False(t, d.Submit(evt("flowering", 500)))
	assert.True(t, d.Submit(evt("flowering", 501)))
	assert.Equal(t, 1.0, testutil.ToFloat64(d.drops.WithLabelValues("duplicate")))
	assert.Len(t, d.queue, 2)
}

func TestDispatcher_QueueFullDoesNotBlock(t *testing.T) {
	a := newRecordingSink("mqtt", nil)
	d := New(Config{QueueSize: 1}, a)

	assert.True(t, d.Submit(evt("seedling", 1)))
	assert.False(t, d.Submit(evt("seedling", 2)))
	assert.Equal(t, 1.0, testutil.ToFloat64(d.drops.WithLabelValues("queue_full")))
}

func TestDispatcher_QueueFullDropIsNotRememberedAsDuplicate(t *testing.T) {
	a := newRecordingSink("mqtt", nil)
	d := New(Config{QueueSize: 1, DedupTTL: time.Minute}, a)

	require.True(t, d.Submit(evt("seedling", 1)))
	require.False(t, d.Submit(evt("fruiting", 2)))
	<-d.queue

	assert.True(t, d.Submit(evt("fruiting", 2)))
	assert.Equal(t, 0.0, testutil.ToFloat64(d.drops.WithLabelValues("duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(d.drops.WithLabelValues("queue_full")))
}

func TestDispatcher_NoSinks(t *testing.T) {
	d := New(Config{})
	assert.False(t, d.Enabled())
	assert.False(t, d.Submit(evt("seedling", 1)))
	assert.Empty(t, d.States())
}

func TestDispatcher_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	failing := newRecordingSink("influx", errors.New("influx down"))
	d := New(Config{BreakerFailures: 2, BreakerOpenFor: time.Hour}, failing)
	stop := start(t, d)
	defer stop()

	for i := 1; i <= 3; i++ {
		require.True(t, d.Submit(evt("fruiting", float64(i))))
	}

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(d.sent.WithLabelValues("influx", "breaker_open")) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, failing.calls())
	assert.Equal(t, 2.0, testutil.ToFloat64(d.sent.WithLabelValues("influx", "error")))
	assert.Equal(t, map[string]string{"influx": "open"}, d.States())
}

func TestDispatcher_RunStopsOnCancel(t *testing.T) {
	d := New(Config{}, newRecordingSink("mqtt", nil))
	stop := start(t, d)
	stop()
	// goleak in TestMain verifica che la goroutine sia uscita
}
