package runtime

import (
	"github.com/coplib/orderengine/internal/metrics"
	"github.com/coplib/orderengine/internal/model"
	"github.com/luxfi/log"
)

// Runtime is the single context bag every component constructor accepts.
// It is built once by main and passed down explicitly; no component ever
// resolves a logger, id generator, or metrics registry through a
// package-level singleton.
type Runtime struct {
	Log     log.Logger
	Metrics *metrics.Registry
	IDGen   *model.IDGenerator
	Config  Config
}

// New builds a Runtime from a resolved Config. logger is stored as given
// (With adds a component tag per constructor); IDGen is pinned to
// cfg.FixedDate when set (tests, replay-resumed processes), otherwise to
// today's date.
func New(cfg Config, logger log.Logger, reg *metrics.Registry) *Runtime {
	var gen *model.IDGenerator
	if cfg.FixedDate != 0 {
		gen = model.NewIDGeneratorWithDate(cfg.FixedDate)
	} else {
		gen = model.NewIDGenerator()
	}
	return &Runtime{
		Log:     logger,
		Metrics: reg,
		IDGen:   gen,
		Config:  cfg,
	}
}

// With returns a copy of the Runtime whose Log is tagged with the given
// component name, following the teacher's practice of attaching a "tag" or
// subsystem field to every logger instance it threads through a
// constructor.
func (r *Runtime) With(component string) *Runtime {
	out := *r
	out.Log = r.Log.With("component", component)
	return &out
}
