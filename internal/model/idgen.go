package model

import (
	"sync/atomic"
	"time"
)

// IDGenerator produces monotonically increasing IdT values. The numeric id
// is a simple atomic counter; the date component is captured once at
// construction (or pinned via NewIDGeneratorWithDate) so that every id
// minted by a single process shares the same business date.
type IDGenerator struct {
	counter uint64
	date    uint32
}

// NewIDGenerator returns a generator stamped with today's UTC date in
// YYYYMMDD form.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{date: dateStamp(time.Now().UTC())}
}

// NewIDGeneratorWithDate returns a generator pinned to a fixed date, for
// deterministic tests and for recovery runs that must not let clock skew
// shift the date component mid-replay.
func NewIDGeneratorWithDate(date uint32) *IDGenerator {
	return &IDGenerator{date: date}
}

// SetFloor raises the generator's internal counter so that the next Next()
// call returns an id strictly greater than floor. Used by the replay path
// (SPEC_FULL Recovery module) to resume numbering after restoring state
// from the durable record log, so that recovered ids are never reissued.
func (g *IDGenerator) SetFloor(floor uint64) {
	for {
		cur := atomic.LoadUint64(&g.counter)
		if cur >= floor {
			return
		}
		if atomic.CompareAndSwapUint64(&g.counter, cur, floor) {
			return
		}
	}
}

// Next returns the next IdT in sequence.
func (g *IDGenerator) Next() IdT {
	id := atomic.AddUint64(&g.counter, 1)
	return IdT{ID: id, Date: g.date}
}

func dateStamp(t time.Time) uint32 {
	y, m, d := t.Date()
	return uint32(y)*10000 + uint32(m)*100 + uint32(d)
}
