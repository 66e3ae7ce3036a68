// Package taskmanager implements the Task Manager (spec.md §4.F): two
// worker pools — event workers and transaction workers — woken by the
// condition-variable-style observer callbacks InQueuesObserver.OnNewEvent
// and TransactionObserver.OnReadyToExecute, with a cooperative
// shutdown/drain protocol.
package taskmanager

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/coplib/orderengine/internal/queue"
	"github.com/coplib/orderengine/internal/runtime"
	"github.com/coplib/orderengine/internal/txmgr"
	"golang.org/x/sync/errgroup"
)

// TransactionRunner executes one ready transaction's full
// execute-then-remove cycle (processor.Processor.RunOneReady), reporting
// false when no root transaction was available.
type TransactionRunner interface {
	RunOneReady() bool
}

// idleWake is a condition-variable-style wake channel: Notify is a
// non-blocking send, coalescing multiple notifications the way spec.md
// §4.C permits ("on_new_event at-least-once per push; coalescing ...
// is permitted").
type idleWake chan struct{}

func newIdleWake() idleWake { return make(idleWake, 1) }

func (w idleWake) Notify() {
	select {
	case w <- struct{}{}:
	default:
	}
}

type eventObserver struct{ wake idleWake }

func (o eventObserver) OnNewEvent() { o.wake.Notify() }

type txObserver struct{ wake idleWake }

func (o txObserver) OnReadyToExecute() { o.wake.Notify() }

// maxIdleWait bounds how long a worker blocks between wake notifications
// before re-checking the shutdown flag — a safety net against a missed
// wake, not the primary signaling path.
const maxIdleWait = 200 * time.Millisecond

// Manager runs the Task Manager's worker pools.
type Manager struct {
	rt *runtime.Runtime

	in       *queue.InQueue
	eventsOf queue.Processor
	txns     *txmgr.Manager
	runner   TransactionRunner

	eventWorkers int
	txWorkers    int

	eventWake idleWake
	txWake    idleWake

	shuttingDown atomic.Bool
	g            *errgroup.Group
	gctx         context.Context
}

// New constructs a Task Manager. eventWorkers/txWorkers come from
// rt.Config (EventWorkers/TransactionWorkers); eventsOf is the Processor
// that drains the incoming queue, runner executes ready transactions.
func New(rt *runtime.Runtime, in *queue.InQueue, eventsOf queue.Processor, txns *txmgr.Manager, runner TransactionRunner) *Manager {
	eventWorkers := rt.Config.EventWorkers
	if eventWorkers <= 0 {
		eventWorkers = 1
	}
	txWorkers := rt.Config.TransactionWorkers
	if txWorkers <= 0 {
		txWorkers = 1
	}
	return &Manager{
		rt:           rt.With("taskmanager"),
		in:           in,
		eventsOf:     eventsOf,
		txns:         txns,
		runner:       runner,
		eventWorkers: eventWorkers,
		txWorkers:    txWorkers,
		eventWake:    newIdleWake(),
		txWake:       newIdleWake(),
	}
}

// Start attaches the wake observers and launches every worker goroutine
// under an errgroup bound to ctx. Start returns immediately; call Wait
// to block until the pools exit (on Shutdown or a fatal worker error).
func (m *Manager) Start(ctx context.Context) {
	m.in.Attach(eventObserver{wake: m.eventWake})
	m.txns.Attach(txObserver{wake: m.txWake})

	g, gctx := errgroup.WithContext(ctx)
	m.g = g
	m.gctx = gctx

	for i := 0; i < m.eventWorkers; i++ {
		g.Go(func() error {
			m.eventWorkerLoop(gctx)
			return nil
		})
	}
	for i := 0; i < m.txWorkers; i++ {
		g.Go(func() error {
			m.txWorkerLoop(gctx)
			return nil
		})
	}
}

// Wait blocks until every worker goroutine has exited.
func (m *Manager) Wait() error {
	if m.g == nil {
		return nil
	}
	return m.g.Wait()
}

// Shutdown flips the cooperative shutdown flag and wakes every idle
// worker so it can observe it; workers exit after their current item and
// once both queues report empty, per spec.md §4.F.
func (m *Manager) Shutdown() {
	m.shuttingDown.Store(true)
	m.eventWake.Notify()
	m.txWake.Notify()
}

// WaitUntilTransactionsFinished blocks until the dependency graph drains
// (no live transactions) or timeout elapses, reporting which happened.
func (m *Manager) WaitUntilTransactionsFinished(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if m.txns.Len() == 0 {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}

func (m *Manager) eventWorkerLoop(ctx context.Context) {
	for {
		for m.in.PopWith(m.eventsOf) {
			if ctx.Err() != nil {
				return
			}
		}
		if m.shuttingDown.Load() {
			return
		}
		select {
		case <-m.eventWake:
		case <-time.After(maxIdleWait):
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) txWorkerLoop(ctx context.Context) {
	for {
		for m.runner.RunOneReady() {
			if ctx.Err() != nil {
				return
			}
		}
		if m.shuttingDown.Load() && m.in.Size() == 0 && m.txns.Len() == 0 {
			return
		}
		select {
		case <-m.txWake:
		case <-time.After(maxIdleWait):
		case <-ctx.Done():
			return
		}
	}
}
