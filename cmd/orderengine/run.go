package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coplib/orderengine/internal/persistence"
	"github.com/coplib/orderengine/internal/processor"
	"github.com/coplib/orderengine/internal/queue"
	"github.com/coplib/orderengine/internal/subscription"
	"github.com/coplib/orderengine/internal/taskmanager"
	"github.com/coplib/orderengine/internal/txmgr"
	"github.com/luxfi/log"
	"github.com/urfave/cli/v2"
)

var runCommand = &cli.Command{
	Name:   "run",
	Usage:  "replay the record log if present, then serve incoming orders until interrupted",
	Flags:  configFlags,
	Action: runAction,
}

func runAction(ctx *cli.Context) error {
	e, err := newEngine(ctx)
	if err != nil {
		return err
	}
	if err := e.replayLog(); err != nil {
		return err
	}
	if err := e.openDispatcher(); err != nil {
		return err
	}

	in := queue.NewInQueue(e.rt.Config.InQueueCapacityHint)
	out := queue.NewOutQueue(e.rt.Config.InQueueCapacityHint)
	txns := txmgr.New(e.rt.IDGen)
	subs := subscription.New(e.rt.IDGen)
	layer := subscription.NewLayer(e.rt.Log.With("component", "subscription-layer"))

	pg := persistence.New(e.rt)
	sink := newDualSink(e.dispatch, pg, e.rt.Log)
	proc := processor.New(e.rt, out, txns, e.orders, e.book, subs, layer, sink)
	tasks := taskmanager.New(e.rt, in, proc, txns, proc)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg.Start(runCtx)
	tasks.Start(runCtx)
	go drainOutQueue(runCtx, out, e.rt.Log)

	e.rt.Log.Info("orderengine: serving",
		"event_workers", e.rt.Config.EventWorkers,
		"transaction_workers", e.rt.Config.TransactionWorkers,
		"record_log", e.rt.Config.RecordLogPath,
	)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	e.rt.Log.Info("orderengine: shutting down")
	tasks.Shutdown()
	_ = tasks.Wait()
	cancel()

	pg.Shutdown()
	select {
	case <-pg.Done():
	case <-time.After(10 * time.Second):
		e.rt.Log.Warn("orderengine: persistence worker did not drain within shutdown grace period")
	}

	layer.Close()
	return nil
}

// drainOutQueue is the Outgoing Queue's single drainer (spec.md §4.D
// requires exactly one): in the absence of a network/FIX gateway
// (Non-goals exclude cross-venue routing), it logs every outbound event
// at Info so the engine's external effects remain observable.
func drainOutQueue(ctx context.Context, out *queue.OutQueue, logger log.Logger) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		for {
			ev, ok := out.Pop()
			if !ok {
				break
			}
			logger.Info("orderengine: outbound event", "target", ev.Target, "event", ev.Payload)
		}
		select {
		case <-ctx.Done():
			for _, ev := range out.Drain() {
				logger.Info("orderengine: outbound event (drain)", "target", ev.Target, "event", ev.Payload)
			}
			return
		case <-ticker.C:
		}
	}
}
