package persistence

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/coplib/orderengine/internal/model"
	"github.com/coplib/orderengine/internal/runtime"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Worker is the write-behind persistence path (spec.md §4.I): a single
// background goroutine draining an unbounded FIFO of WriteRequests into
// PostgreSQL, reconnecting with exponential backoff on connection loss
// and re-enqueuing the in-flight request rather than dropping it.
//
// Grounded directly on PGWriteBehind.{h,cpp}'s single-thread/single-
// connection design; the tbb::concurrent_queue is replaced by a
// mutex-guarded slice FIFO plus a coalescing wake channel, the same
// idiom internal/taskmanager uses for its worker wakeups.
type Worker struct {
	rt  *runtime.Runtime
	dsn string

	backoffMin time.Duration
	backoffMax time.Duration

	mu    sync.Mutex
	items []WriteRequest
	wake  chan struct{}

	shuttingDown atomic.Bool
	done         chan struct{}

	enqueued atomic.Int64
	written  atomic.Int64
	errs     atomic.Int64
	inFlight atomic.Int64
}

// New constructs a Worker against rt.Config.PGDSN/PGBackoffMin/PGBackoffMax.
// Start must be called to launch the background goroutine.
func New(rt *runtime.Runtime) *Worker {
	return &Worker{
		rt:         rt.With("persistence"),
		dsn:        rt.Config.PGDSN,
		backoffMin: rt.Config.PGBackoffMin,
		backoffMax: rt.Config.PGBackoffMax,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// EnqueueOrderWrite implements processor.WriteBehindSink.
func (w *Worker) EnqueueOrderWrite(o model.Order) {
	w.enqueue(OrderWriteFromOrder(o))
}

// EnqueueInstrumentWrite enqueues an instrument upsert.
func (w *Worker) EnqueueInstrumentWrite(req InstrumentWrite) { w.enqueue(req) }

// EnqueueAccountWrite enqueues an account upsert.
func (w *Worker) EnqueueAccountWrite(req AccountWrite) { w.enqueue(req) }

// EnqueueClearingWrite enqueues a clearing-firm upsert.
func (w *Worker) EnqueueClearingWrite(req ClearingWrite) { w.enqueue(req) }

func (w *Worker) enqueue(req WriteRequest) {
	w.mu.Lock()
	w.items = append(w.items, req)
	w.mu.Unlock()
	w.enqueued.Add(1)
	w.inFlight.Add(1)
	w.rt.Metrics.PersistenceEnqueued.Inc()
	w.rt.Metrics.PersistenceInFlight.Set(float64(w.inFlight.Load()))
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Worker) dequeue() (WriteRequest, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.items) == 0 {
		return nil, false
	}
	req := w.items[0]
	w.items[0] = nil
	w.items = w.items[1:]
	return req, true
}

// requeueFront pushes req back onto the head of the queue, preserving
// order for the transient-failure retry path.
func (w *Worker) requeueFront(req WriteRequest) {
	w.mu.Lock()
	w.items = append([]WriteRequest{req}, w.items...)
	w.mu.Unlock()
}

// Enqueued, Written, Errors, InFlight report the atomic counters the
// original exposed as totalEnqueued/totalWritten/totalErrors; InFlight
// has no original counterpart (the original queue length served that
// role) but the invariant enqueued == written + errors + inFlight holds
// at every observation point.
func (w *Worker) Enqueued() int64 { return w.enqueued.Load() }
func (w *Worker) Written() int64  { return w.written.Load() }
func (w *Worker) Errors() int64   { return w.errs.Load() }
func (w *Worker) InFlight() int64 { return w.inFlight.Load() }

// Start launches the background worker goroutine and returns
// immediately; cmd/orderengine starts the worker this way.
func (w *Worker) Start(ctx context.Context) {
	go w.run(ctx)
}

// Shutdown requests the worker drain its queue and stop; it does not
// block. Callers wait on the channel returned by Done.
func (w *Worker) Shutdown() {
	w.shuttingDown.Store(true)
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Done returns a channel closed once the worker goroutine has exited.
func (w *Worker) Done() <-chan struct{} { return w.done }

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = w.backoffMin
	bo.MaxInterval = w.backoffMax
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0 // retry forever; the spec has no give-up condition

	var conn *pgx.Conn
	connect := func() bool {
		c, err := pgx.Connect(ctx, w.dsn)
		if err != nil {
			w.rt.Log.Error("persistence: connect failed", "err", err)
			conn = nil
			return false
		}
		conn = c
		bo.Reset()
		w.rt.Log.Info("persistence: connected to postgres")
		return true
	}

	if w.dsn != "" {
		connect()
	}

	for {
		req, ok := w.dequeue()
		if !ok {
			if w.shuttingDown.Load() {
				break
			}
			select {
			case <-w.wake:
			case <-time.After(200 * time.Millisecond):
			case <-ctx.Done():
				w.drainOnShutdown(ctx, conn)
				return
			}
			continue
		}

		if conn == nil {
			if !connect() {
				w.requeueFront(req)
				if w.shuttingDown.Load() || ctx.Err() != nil {
					break
				}
				w.sleepBackoff(ctx, bo.NextBackOff())
				continue
			}
		}

		if err := w.execute(ctx, conn, req); err != nil {
			if isConnectionError(err) {
				w.rt.Log.Error("persistence: connection lost, re-enqueuing", "err", err)
				_ = conn.Close(ctx)
				conn = nil
				w.requeueFront(req)
				w.sleepBackoff(ctx, bo.NextBackOff())
				continue
			}
			w.rt.Log.Error("persistence: write failed", "err", err)
			w.errs.Add(1)
			w.inFlight.Add(-1)
			w.rt.Metrics.PersistenceErrors.Inc()
			w.rt.Metrics.PersistenceInFlight.Set(float64(w.inFlight.Load()))
			continue
		}

		w.written.Add(1)
		w.inFlight.Add(-1)
		w.rt.Metrics.PersistenceWritten.Inc()
		w.rt.Metrics.PersistenceInFlight.Set(float64(w.inFlight.Load()))
	}

	w.drainOnShutdown(ctx, conn)
}

// drainOnShutdown attempts one reconnection if down, then flushes any
// remaining queued items before the worker exits, per spec.md §4.I
// shutdown semantics.
func (w *Worker) drainOnShutdown(ctx context.Context, conn *pgx.Conn) {
	if conn == nil && w.dsn != "" {
		if c, err := pgx.Connect(ctx, w.dsn); err == nil {
			conn = c
		}
	}
	for {
		req, ok := w.dequeue()
		if !ok {
			break
		}
		if conn == nil {
			w.errs.Add(1)
			w.inFlight.Add(-1)
			w.rt.Metrics.PersistenceErrors.Inc()
			continue
		}
		if err := w.execute(ctx, conn, req); err != nil {
			w.errs.Add(1)
			w.inFlight.Add(-1)
			w.rt.Metrics.PersistenceErrors.Inc()
			continue
		}
		w.written.Add(1)
		w.inFlight.Add(-1)
		w.rt.Metrics.PersistenceWritten.Inc()
	}
	if conn != nil {
		_ = conn.Close(ctx)
	}
	w.rt.Log.Info("persistence: shutdown complete", "written", w.written.Load(), "errors", w.errs.Load())
}

func (w *Worker) sleepBackoff(ctx context.Context, d time.Duration) {
	if d == backoff.Stop {
		d = w.backoffMax
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

func (w *Worker) execute(ctx context.Context, conn *pgx.Conn, req WriteRequest) error {
	switch r := req.(type) {
	case InstrumentWrite:
		_, err := conn.Exec(ctx, upsertInstrumentSQL, r.Symbol, r.SecurityID, r.SecurityIDSource)
		return err
	case AccountWrite:
		_, err := conn.Exec(ctx, upsertAccountSQL, r.Account, r.Firm, accountTypeString(r.Type))
		return err
	case ClearingWrite:
		_, err := conn.Exec(ctx, upsertClearingSQL, r.Firm)
		return err
	case OrderWrite:
		_, err := conn.Exec(ctx, upsertOrderSQL,
			r.OrderID, r.OrderDate, r.ClOrderID, r.OrigClOrderID,
			r.Source, r.Destination, sideString(r.Side), orderTypeString(r.OrdType), r.Price, r.StopPx,
			r.OrderQty, r.MinQty, r.LeavesQty, r.CumQty, r.AvgPx,
			r.DayOrderQty, r.DayCumQty, r.DayAvgPx,
			orderStatusString(r.Status), tifString(r.TIF), settlTypeString(r.SettlType), capacityString(r.Capacity), currencyString(r.Currency),
			r.InstrumentID.ID, r.InstrumentID.Date, r.AccountID.ID, r.AccountID.Date,
			r.ClearingID.ID, r.ClearingID.Date, r.ExpireTime, r.SettlDate)
		return err
	default:
		return nil
	}
}

// isConnectionError reports whether err reflects a broken connection
// (transient: re-enqueue and back off) as opposed to a rejected
// statement (permanent: count as an error and drop), mirroring the
// original's pqxx::broken_connection/pqxx::sql_error split. A *pgconn.PgError
// is the server actively rejecting the statement; anything else reaching
// here (network resets, context deadline, closed conn) is connectivity.
func isConnectionError(err error) bool {
	var pgErr *pgconn.PgError
	return !errors.As(err, &pgErr)
}
