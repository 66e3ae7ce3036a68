package main

import (
	"github.com/coplib/orderengine/internal/model"
	"github.com/coplib/orderengine/internal/persistence"
	"github.com/coplib/orderengine/internal/record"
	"github.com/luxfi/log"
)

// dualSink implements processor.WriteBehindSink by first appending a
// durable record-log frame (component J — the recovery source of truth)
// and then forwarding the same order to the PostgreSQL write-behind
// worker (component I — an eventually-consistent read mirror). The log
// append is synchronous and in the critical path on purpose: a crash
// between the log append and the PG write loses nothing, since replay
// reconstructs state from the log alone.
type dualSink struct {
	dispatch *record.Dispatcher
	pg       *persistence.Worker
	log      log.Logger
}

func newDualSink(dispatch *record.Dispatcher, pg *persistence.Worker, logger log.Logger) *dualSink {
	return &dualSink{dispatch: dispatch, pg: pg, log: logger}
}

// EnqueueOrderWrite implements processor.WriteBehindSink.
func (s *dualSink) EnqueueOrderWrite(o model.Order) {
	if s.dispatch != nil {
		if err := s.dispatch.SaveOrder(o); err != nil {
			s.log.Error("record log append failed", "order_id", o.ID, "err", err)
		}
	}
	if s.pg != nil {
		s.pg.EnqueueOrderWrite(o)
	}
}
