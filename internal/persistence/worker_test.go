package persistence

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/coplib/orderengine/internal/metrics"
	"github.com/coplib/orderengine/internal/model"
	"github.com/coplib/orderengine/internal/runtime"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func testWorker(t *testing.T, dsn string) *Worker {
	t.Helper()
	rt := runtime.New(runtime.Config{
		FixedDate:    20260101,
		PGDSN:        dsn,
		PGBackoffMin: 10 * time.Millisecond,
		PGBackoffMax: 50 * time.Millisecond,
	}, log.Root(), metrics.New())
	return New(rt)
}

// TestEnqueueIncrementsCountersBeforeAnyWrite mirrors the original's
// "enqueue then check totalEnqueued before shutdown" assertion style,
// without requiring a live connection.
func TestEnqueueIncrementsCountersBeforeAnyWrite(t *testing.T) {
	w := testWorker(t, "")

	for i := 0; i < 10; i++ {
		w.EnqueueInstrumentWrite(InstrumentWrite{Symbol: "SYM", SecurityID: "SEC", SecurityIDSource: "SRC"})
	}

	require.EqualValues(t, 10, w.Enqueued())
	require.EqualValues(t, 10, w.InFlight())
	require.EqualValues(t, 0, w.Written())
	require.EqualValues(t, 0, w.Errors())
}

// TestEnqueuedInvariantHoldsAfterNoConnectionDrain: with an empty DSN the
// worker can never connect, so a shutdown drain counts every queued item
// as an error rather than hanging — and the invariant
// enqueued == written + errors + inFlight holds throughout.
func TestEnqueuedInvariantHoldsAfterNoConnectionDrain(t *testing.T) {
	w := testWorker(t, "")
	ctx, cancel := testContext(t)
	defer cancel()

	w.Start(ctx)
	for i := 0; i < 5; i++ {
		w.EnqueueOrderWrite(model.Order{ID: model.IdT{ID: uint64(i + 1), Date: 20260101}})
	}
	w.Shutdown()

	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not shut down")
	}

	require.EqualValues(t, 5, w.Enqueued())
	require.EqualValues(t, 0, w.InFlight())
	require.EqualValues(t, w.Enqueued(), w.Written()+w.Errors())
}

func TestIsConnectionErrorClassifiesSQLErrorsAsPermanent(t *testing.T) {
	require.True(t, isConnectionError(errors.New("connection reset by peer")))
	require.False(t, isConnectionError(&pgconn.PgError{Code: "23505", Message: "duplicate key"}))
}

// TestLiveWriteAndShutdown is the Go counterpart of
// PGWriteBehindTest.EnqueueInstrumentAndShutdown: it requires a live
// PostgreSQL instance and is skipped otherwise.
func TestLiveWriteAndShutdown(t *testing.T) {
	dsn := os.Getenv("PG_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("PG_CONNECTION_STRING not set; skipping persistence integration test")
	}

	w := testWorker(t, dsn)
	ctx, cancel := testContext(t)
	defer cancel()
	w.Start(ctx)

	w.EnqueueInstrumentWrite(InstrumentWrite{Symbol: "TEST_INSTR", SecurityID: "SEC001", SecurityIDSource: "CUSIP"})
	require.EqualValues(t, 1, w.Enqueued())

	w.Shutdown()
	<-w.Done()

	require.EqualValues(t, 1, w.Written())
	require.EqualValues(t, 0, w.Errors())
}
