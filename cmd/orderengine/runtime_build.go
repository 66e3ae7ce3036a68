package main

import (
	"github.com/coplib/orderengine/internal/book"
	"github.com/coplib/orderengine/internal/metrics"
	"github.com/coplib/orderengine/internal/record"
	"github.com/coplib/orderengine/internal/runtime"
	"github.com/luxfi/log"
	"github.com/urfave/cli/v2"
)

// engine bundles every top-level collaborator cmd/orderengine wires
// together, so run and replay share one assembly path; verify-log needs
// only the config and reads the log directly.
type engine struct {
	rt       *runtime.Runtime
	orders   *book.Storage
	book     *book.OrderBook
	catalog  *record.Catalog
	dispatch *record.Dispatcher
}

// newEngine builds the Runtime and the storage/book/catalog collaborators
// run and replay need, without starting any goroutines — callers that
// need the live queue/taskmanager/persistence stack build it themselves
// on top (see runCommand).
func newEngine(ctx *cli.Context) (*engine, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	rt := runtime.New(cfg, log.Root(), metrics.New())
	orders := book.NewStorage()
	ob := book.NewOrderBook()
	catalog := record.NewCatalog()

	return &engine{rt: rt, orders: orders, book: ob, catalog: catalog}, nil
}

// replayLog restores e's orders/book/catalog from the configured record
// log (if it exists) and raises the IdTGenerator floor to the highest id
// observed, per SPEC_FULL's Recovery/Replay module.
func (e *engine) replayLog() error {
	highest, err := record.Replay(e.rt.Config.RecordLogPath, e.orders, e.book, e.catalog)
	if err != nil {
		return err
	}
	if highest.IsValid() {
		e.rt.IDGen.SetFloor(highest.ID)
		e.rt.Log.Info("replay: recovered state", "highest_id", highest.ID, "highest_date", highest.Date)
	}
	return nil
}

// openDispatcher opens the append-only log for writing and wires it into
// a Dispatcher, for commands (run) that also need to append new records.
func (e *engine) openDispatcher() error {
	l, err := record.OpenLog(e.rt.Config.RecordLogPath)
	if err != nil {
		return err
	}
	e.dispatch = record.NewDispatcher(l, e.orders, e.book, e.catalog)
	return nil
}
