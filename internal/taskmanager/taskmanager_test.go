package taskmanager

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coplib/orderengine/internal/metrics"
	"github.com/coplib/orderengine/internal/model"
	"github.com/coplib/orderengine/internal/queue"
	"github.com/coplib/orderengine/internal/runtime"
	"github.com/coplib/orderengine/internal/txmgr"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain uses goleak to verify the worker pools this package starts
// always wind down cleanly on Shutdown.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingEventProcessor struct{ n int32 }

func (p *countingEventProcessor) OnEvent(source string, payload queue.EventVariant) {
	atomic.AddInt32(&p.n, 1)
}

type countingRunner struct {
	remaining int32
	ran       int32
}

func (r *countingRunner) RunOneReady() bool {
	for {
		cur := atomic.LoadInt32(&r.remaining)
		if cur <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt32(&r.remaining, cur, cur-1) {
			atomic.AddInt32(&r.ran, 1)
			return true
		}
	}
}

func testRuntime() *runtime.Runtime {
	return runtime.New(runtime.Config{FixedDate: 20260101, EventWorkers: 2, TransactionWorkers: 2}, log.Root(), metrics.New())
}

func TestEventWorkersDrainQueueOnWake(t *testing.T) {
	rt := testRuntime()
	in := queue.NewInQueue(16)
	proc := &countingEventProcessor{}
	txns := txmgr.New(rt.IDGen)
	runner := &countingRunner{}

	mgr := New(rt, in, proc, txns, runner)
	ctx, cancel := context.WithCancel(context.Background())
	mgr.Start(ctx)

	for i := 0; i < 10; i++ {
		in.Push("src", queue.TimerEvent{ID: model.IdT{ID: uint64(i + 1), Date: 1}})
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&proc.n) == 10
	}, time.Second, time.Millisecond)

	mgr.Shutdown()
	cancel()
	require.NoError(t, mgr.Wait())
}

func TestTransactionWorkersDrainReadyWorkOnStart(t *testing.T) {
	rt := testRuntime()
	in := queue.NewInQueue(4)
	proc := &countingEventProcessor{}
	txns := txmgr.New(rt.IDGen)
	runner := &countingRunner{remaining: 5}

	mgr := New(rt, in, proc, txns, runner)
	ctx, cancel := context.WithCancel(context.Background())
	mgr.Start(ctx)

	// No wake is sent: each worker calls RunOneReady before its first
	// idle wait, so the five ready items run right after Start.
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&runner.ran) == 5
	}, time.Second, time.Millisecond)

	mgr.Shutdown()
	cancel()
	require.NoError(t, mgr.Wait())
}

func TestWaitUntilTransactionsFinishedTimesOutWhenGraphNonEmpty(t *testing.T) {
	rt := testRuntime()
	in := queue.NewInQueue(4)
	proc := &countingEventProcessor{}
	txns := txmgr.New(rt.IDGen)
	runner := &countingRunner{}

	mgr := New(rt, in, proc, txns, runner)
	ctx, cancel := context.WithCancel(context.Background())
	mgr.Start(ctx)
	defer func() {
		mgr.Shutdown()
		cancel()
		_ = mgr.Wait()
	}()

	stuck := &stuckTxn{objects: model.NewObjects(model.ObjectInTransaction{Kind: model.KindOrder, Key: model.IdT{ID: 1, Date: 1}})}
	txns.Add(stuck)

	require.False(t, mgr.WaitUntilTransactionsFinished(20*time.Millisecond))

	require.True(t, txns.Remove(stuck.ID()))
	require.True(t, mgr.WaitUntilTransactionsFinished(time.Second))
}

type stuckTxn struct {
	id      model.TransactionId
	objects model.ObjectsInTransaction
}

func (t *stuckTxn) ID() model.TransactionId                   { return t.id }
func (t *stuckTxn) SetID(id model.TransactionId)               { t.id = id }
func (t *stuckTxn) RelatedObjects() model.ObjectsInTransaction { return t.objects }
func (t *stuckTxn) Execute() bool                              { return true }
