// Package bulk executes batches of store writes with a bounded worker pool,
// retrying rate-limited requests with exponential backoff and jitter and
// pacing dispatch to stay under the store's request quota.
package bulk

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"alcyxob/trainplan/internal/clock"
	"alcyxob/trainplan/internal/logger"
	"alcyxob/trainplan/internal/metrics"
	"alcyxob/trainplan/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

const (
	MinConcurrency = 1
	MaxConcurrency = 5
)

type Config struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	BaseDelay      time.Duration `mapstructure:"base_delay"`
	MaxJitter      time.Duration `mapstructure:"max_jitter"`
	PaceEvery      int           `mapstructure:"pace_every"`
	PacePause      time.Duration `mapstructure:"pace_pause"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:    6,
		BaseDelay:      500 * time.Millisecond,
		MaxJitter:      250 * time.Millisecond,
		PaceEvery:      20,
		PacePause:      200 * time.Millisecond,
		RequestTimeout: 10 * time.Second,
	}
}

// ClampConcurrency bounds n to [MinConcurrency, MaxConcurrency].
func ClampConcurrency(n int) int {
	return min(max(n, MinConcurrency), MaxConcurrency)
}

type Option func(*Writer)

// WithClock replaces the clock used for backoff and pacing sleeps.
func WithClock(c clock.Clock) Option {
	return func(w *Writer) { w.clock = c }
}

// WithJitter replaces the jitter source. fn receives the configured maximum.
func WithJitter(fn func(max time.Duration) time.Duration) Option {
	return func(w *Writer) { w.jitter = fn }
}

type Writer struct {
	store   store.DocumentStore
	cfg     Config
	clock   clock.Clock
	jitter  func(max time.Duration) time.Duration
	metrics *metrics.Manager
	log     *logger.Logger

	dispatched atomic.Int64
	keys       keyLocks
}

func NewWriter(st store.DocumentStore, cfg Config, m *metrics.Manager, log *logger.Logger, opts ...Option) *Writer {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxJitter < 0 {
		cfg.MaxJitter = 0
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	w := &Writer{
		store:   st,
		cfg:     cfg,
		clock:   clock.RealClock{},
		jitter:  randomJitter,
		metrics: m,
		log:     log,
		keys:    keyLocks{locks: make(map[string]*keyLock)},
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return rand.N(limit + 1)
}

type runOptions struct {
	stopOnError bool
	onResult    func(Result)
}

type RunOption func(*runOptions)

// WithStopOnError stops dispatching new requests once any request fails.
// Requests already in flight still finish.
func WithStopOnError() RunOption {
	return func(o *runOptions) { o.stopOnError = true }
}

// WithResultHook calls fn after every finished request. fn is called from
// worker goroutines and must be safe for concurrent use.
func WithResultHook(fn func(Result)) RunOption {
	return func(o *runOptions) { o.onResult = fn }
}

// Run executes reqs with concurrency workers (clamped to [1, 5]) and returns
// one Result per request, in request order. Upserts of the same key within
// one run are applied in request order, so the last one wins.
//
// Cancelling ctx stops dispatch; in-flight store calls run to completion on a
// detached context and undispatched requests report the context error.
func (w *Writer) Run(ctx context.Context, reqs []Request, concurrency int, opts ...RunOption) Results {
	var ro runOptions
	for _, o := range opts {
		o(&ro)
	}

	results := make(Results, len(reqs))
	for i := range results {
		results[i] = Result{Index: i, Err: ErrNotDispatched}
	}
	if len(reqs) == 0 {
		return results
	}
	concurrency = ClampConcurrency(concurrency)
	after := previousSameKey(reqs)
	done := make([]chan struct{}, len(reqs))
	for i := range done {
		done[i] = make(chan struct{})
	}

	dispatchCtx, stop := context.WithCancel(ctx)
	defer stop()

	queue := make(chan int)
	var g errgroup.Group

	g.Go(func() error {
		defer close(queue)
		for i := range reqs {
			if dispatchCtx.Err() != nil {
				return nil
			}
			select {
			case queue <- i:
			case <-dispatchCtx.Done():
				return nil
			}
			w.pace(dispatchCtx)
		}
		return nil
	})

	for range concurrency {
		g.Go(func() error {
			for i := range queue {
				// The earlier request was dispatched first, so it is running
				// or finished.
				if p := after[i]; p >= 0 {
					<-done[p]
				}
				res := w.execute(ctx, i, reqs[i])
				results[i] = res
				close(done[i])
				if ro.onResult != nil {
					ro.onResult(res)
				}
				if res.Err != nil && ro.stopOnError {
					stop()
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		for i := range results {
			if !results[i].Dispatched {
				results[i].Err = err
			}
		}
	}
	return results
}

// previousSameKey returns, per request, the index of the closest earlier
// upsert with the same key, or -1.
func previousSameKey(reqs []Request) []int {
	after := make([]int, len(reqs))
	last := make(map[string]int)
	for i, req := range reqs {
		after[i] = -1
		if req.Op() != OpUpsert {
			continue
		}
		digest, err := req.Key.Digest()
		if err != nil {
			continue
		}
		key := req.Collection + "\x00" + digest
		if p, ok := last[key]; ok {
			after[i] = p
		}
		last[key] = i
	}
	return after
}

// Find runs a read through the same rate-limit retry loop as writes.
func (w *Writer) Find(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	var docs []store.Document
	_, err := w.withRetry(ctx, collection, "find", func(callCtx context.Context) error {
		var err error
		docs, err = w.store.List(callCtx, collection, q)
		return err
	})
	return docs, err
}

// pace pauses dispatch after every PaceEvery requests handed out by this writer.
func (w *Writer) pace(ctx context.Context) {
	n := w.dispatched.Add(1)
	if w.cfg.PaceEvery <= 0 || w.cfg.PacePause <= 0 || n%int64(w.cfg.PaceEvery) != 0 {
		return
	}
	w.metrics.CounterPacePauses.Inc()
	_ = w.clock.Sleep(ctx, w.cfg.PacePause)
}

func (w *Writer) execute(ctx context.Context, index int, req Request) Result {
	res := Result{Index: index, Dispatched: true}
	op := req.Op()

	w.metrics.GaugeInFlight.Inc()
	defer w.metrics.GaugeInFlight.Dec()
	start := w.clock.Now()

	if op == OpUpsert {
		digest, err := req.Key.Digest()
		if err != nil {
			res.Err = err
			w.observe(req, op, start, err)
			return res
		}
		unlock := w.keys.lock(digest)
		defer unlock()
	}

	res.Attempts, res.Err = w.withRetry(ctx, req.Collection, req.Label, func(callCtx context.Context) error {
		var err error
		if op == OpUpsert {
			res.ID, res.Updated, err = w.upsert(callCtx, req)
		} else {
			res.ID, err = w.store.Create(callCtx, req.Collection, primitive.NilObjectID, req.Payload)
		}
		return err
	})
	w.observe(req, op, start, res.Err)
	return res
}

// withRetry calls fn until it succeeds, fails with a non rate-limit error or
// MaxAttempts is reached. It returns the number of attempts made.
func (w *Writer) withRetry(ctx context.Context, collection, label string, fn func(context.Context) error) (int, error) {
	for attempt := 1; ; attempt++ {
		callCtx, cancel := w.callContext(ctx)
		err := fn(callCtx)
		cancel()
		if err == nil {
			return attempt, nil
		}
		if !store.IsRateLimited(err) {
			return attempt, err
		}
		if attempt >= w.cfg.MaxAttempts {
			return attempt, fmt.Errorf("retries exhausted after %d attempts: %w", attempt, err)
		}

		delay := w.backoff(attempt)
		w.metrics.CounterRetries.WithLabelValues(collection).Inc()
		w.log.Warn("store rate limited, backing off",
			"collection", collection,
			"request", label,
			"attempt", attempt,
			"maxAttempts", w.cfg.MaxAttempts,
			"sleep", delay.String(),
		)
		if err := w.clock.Sleep(ctx, delay); err != nil {
			return attempt, err
		}
	}
}

// maxBackoffShift bounds the exponent. 500ms << 20 is about six days.
const maxBackoffShift = 20

// backoff is BaseDelay * 2^(attempt-1) plus up to MaxJitter. The exponent
// stops growing at maxBackoffShift and the delay saturates instead of
// overflowing.
func (w *Writer) backoff(attempt int) time.Duration {
	shift := min(attempt-1, maxBackoffShift)
	d := w.cfg.BaseDelay << shift
	if d>>shift != w.cfg.BaseDelay {
		d = math.MaxInt64 - w.cfg.MaxJitter
	}
	return d + w.jitter(w.cfg.MaxJitter)
}

// callContext bounds a single store call. It is detached from ctx
// cancellation so a request already sent is never abandoned halfway.
func (w *Writer) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), w.cfg.RequestTimeout)
}

func (w *Writer) upsert(ctx context.Context, req Request) (primitive.ObjectID, bool, error) {
	existing, err := w.lookup(ctx, req)
	if err != nil {
		return primitive.NilObjectID, false, err
	}
	if !existing.IsZero() {
		err := w.store.Update(ctx, req.Collection, existing, req.Payload)
		if !store.IsNotFound(err) {
			return existing, err == nil, err
		}
	}

	id, err := w.store.Create(ctx, req.Collection, primitive.NilObjectID, req.Payload)
	if !store.IsConflict(err) {
		return id, false, err
	}

	// Another writer created the key between our lookup and create.
	existing, lerr := w.lookup(ctx, req)
	if lerr != nil {
		return primitive.NilObjectID, false, lerr
	}
	if existing.IsZero() {
		return primitive.NilObjectID, false, err
	}
	if err := w.store.Update(ctx, req.Collection, existing, req.Payload); err != nil {
		return existing, false, err
	}
	return existing, true, nil
}

func (w *Writer) lookup(ctx context.Context, req Request) (primitive.ObjectID, error) {
	docs, err := w.store.List(ctx, req.Collection, store.Query{Filters: req.Key.Filters(), Limit: 1})
	if err != nil {
		return primitive.NilObjectID, err
	}
	if len(docs) == 0 {
		return primitive.NilObjectID, nil
	}
	return docs[0].ID, nil
}

func (w *Writer) observe(req Request, op Op, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = store.KindOf(err).String()
	}
	w.metrics.CounterWrites.WithLabelValues(req.Collection, string(op), outcome).Inc()
	w.metrics.HistogramWriteDuration.WithLabelValues(req.Collection, string(op)).Observe(w.clock.Now().Sub(start).Seconds())
}

// keyLocks serializes upserts of the same composite key within the process.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyLocks) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
