package record

import (
	"sync"

	"github.com/coplib/orderengine/internal/model"
)

// Catalog is the in-memory reference-data store for the non-order
// entity kinds the log can hold. The original leaves this role to an
// abstract DataStorageRestore collaborator (StorageRecordDispatcher::
// onRecordLoaded calls storage_->restore(...)); this engine has no
// equivalent collaborator elsewhere, so Catalog fills that role
// directly rather than inventing one more layer of indirection.
type Catalog struct {
	mu          sync.RWMutex
	instruments map[model.IdT]model.Instrument
	accounts    map[model.IdT]model.Account
	clearings   map[model.IdT]model.Clearing
	strings     map[model.IdT]string
	rawData     map[model.IdT]RawData
}

// NewCatalog returns an empty reference-data catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		instruments: make(map[model.IdT]model.Instrument),
		accounts:    make(map[model.IdT]model.Account),
		clearings:   make(map[model.IdT]model.Clearing),
		strings:     make(map[model.IdT]string),
		rawData:     make(map[model.IdT]RawData),
	}
}

func (c *Catalog) restoreInstrument(val model.Instrument) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instruments[val.ID] = val
}

func (c *Catalog) restoreAccount(val model.Account) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts[val.ID] = val
}

func (c *Catalog) restoreClearing(val model.Clearing) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearings[val.ID] = val
}

func (c *Catalog) restoreString(id model.IdT, val string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.strings[id] = val
}

func (c *Catalog) restoreRawData(val RawData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rawData[val.ID] = val
}

// Instrument returns the instrument stored under id.
func (c *Catalog) Instrument(id model.IdT) (model.Instrument, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.instruments[id]
	return v, ok
}

// Account returns the account stored under id.
func (c *Catalog) Account(id model.IdT) (model.Account, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.accounts[id]
	return v, ok
}

// Clearing returns the clearing firm stored under id.
func (c *Catalog) Clearing(id model.IdT) (model.Clearing, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.clearings[id]
	return v, ok
}

// String returns the interned string stored under id.
func (c *Catalog) String(id model.IdT) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.strings[id]
	return v, ok
}

// RawData returns the raw data blob stored under id.
func (c *Catalog) RawData(id model.IdT) (RawData, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.rawData[id]
	return v, ok
}
