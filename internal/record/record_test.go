package record

import (
	"path/filepath"
	"testing"

	"github.com/coplib/orderengine/internal/book"
	"github.com/coplib/orderengine/internal/model"
	"github.com/stretchr/testify/require"
)

func sampleOrder() model.Order {
	return model.Order{
		ID:            model.IdT{ID: 42, Date: 20260101},
		ClOrderID:     "clord-1",
		OrigClOrderID: "clord-0",
		Source:        "FIX.GATEWAY",
		Destination:   "EXCH",
		InstrumentID:  model.IdT{ID: 7, Date: 20260101},
		AccountID:     model.IdT{ID: 9, Date: 20260101},
		ClearingID:    model.IdT{ID: 3, Date: 20260101},
		Side:          model.SideBuy,
		Type:          model.OrderTypeLimit,
		Status:        model.OrderStatusNew,
		TIF:           model.TIFDay,
		Capacity:      model.CapacityAgency,
		Currency:      model.CurrencyUSD,
		SettlType:     model.SettlTypeRegular,
		Price:         101.25,
		StopPx:        0,
		AvgPx:         0,
		DayAvgPx:      0,
		MinQty:        0,
		OrderQty:      1000,
		LeavesQty:     1000,
		CumQty:        0,
		DayOrderQty:   1000,
		DayCumQty:     0,
		ExpireTime:    0,
		SettlDate:     20260103,
		Executions:    []model.IdT{{ID: 1, Date: 20260101}, {ID: 2, Date: 20260101}},
	}
}

func TestOrderCodecRoundTrip(t *testing.T) {
	want := sampleOrder()
	buf := EncodeOrder(want)
	got, err := DecodeOrder(want.ID, buf)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestInstrumentCodecRoundTrip(t *testing.T) {
	want := model.Instrument{ID: model.IdT{ID: 7, Date: 20260101}, Symbol: "ACME", SecurityID: "US0000000001", SecurityIDSource: "ISIN"}
	buf := EncodeInstrument(want)
	got, err := DecodeInstrument(want.ID, buf)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestAccountCodecRoundTrip(t *testing.T) {
	want := model.Account{ID: model.IdT{ID: 9, Date: 20260101}, Account: "ACC-1", Firm: "Firm LLC", Type: model.AccountTypeCustomer}
	buf := EncodeAccount(want)
	got, err := DecodeAccount(want.ID, buf)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestClearingCodecRoundTrip(t *testing.T) {
	want := model.Clearing{ID: model.IdT{ID: 3, Date: 20260101}, Firm: "Clearing Corp"}
	buf := EncodeClearing(want)
	got, err := DecodeClearing(want.ID, buf)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestStringCodecRoundTrip(t *testing.T) {
	buf := EncodeString("hello world")
	got, err := DecodeString(buf)
	require.NoError(t, err)
	require.Equal(t, "hello world", got)
}

func TestRawDataCodecRoundTrip(t *testing.T) {
	id := model.IdT{ID: 5, Date: 20260101}
	want := RawData{ID: id, Type: RawDataXML, Data: []byte("<fix>...</fix>")}
	buf := EncodeRawData(want)
	got, err := DecodeRawData(id, buf)
	require.NoError(t, err)
	require.Equal(t, want, got)

	// The decoded payload must be an independent copy, not an alias into
	// buf — resolving the original's auto_ptr<char>::release() ownership
	// ambiguity by giving the caller a value Go's GC can track on its own.
	buf[len(buf)-1] = 'X'
	require.Equal(t, byte('>'), got.Data[len(got.Data)-1])
}

func TestDecodeOrderRejectsMissingSeparator(t *testing.T) {
	buf := EncodeOrder(sampleOrder())
	corrupt := append([]byte(nil), buf...)
	// Corrupt the byte immediately after the first composite field
	// (InstrumentID is 12 bytes: u64 + u32) where a '.' must sit.
	corrupt[12] = 'x'
	_, err := DecodeOrder(sampleOrder().ID, corrupt)
	require.Error(t, err)
}

func TestDecodeOrderRejectsTruncatedBuffer(t *testing.T) {
	buf := EncodeOrder(sampleOrder())
	_, err := DecodeOrder(sampleOrder().ID, buf[:5])
	require.Error(t, err)
}

func TestLogAppendAndReplay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.log")

	l, err := OpenLog(path)
	require.NoError(t, err)

	orders := book.NewStorage()
	ob := book.NewOrderBook()
	catalog := NewCatalog()
	d := NewDispatcher(l, orders, ob, catalog)

	instrument := model.Instrument{ID: model.IdT{ID: 7, Date: 20260101}, Symbol: "ACME", SecurityID: "US0000000001", SecurityIDSource: "ISIN"}
	account := model.Account{ID: model.IdT{ID: 9, Date: 20260101}, Account: "ACC-1", Firm: "Firm LLC", Type: model.AccountTypeCustomer}
	clearing := model.Clearing{ID: model.IdT{ID: 3, Date: 20260101}, Firm: "Clearing Corp"}
	order := sampleOrder()

	require.NoError(t, d.SaveInstrument(instrument))
	require.NoError(t, d.SaveAccount(account))
	require.NoError(t, d.SaveClearing(clearing))
	require.NoError(t, d.SaveOrder(order))
	require.NoError(t, l.Close())

	restoredOrders := book.NewStorage()
	restoredBook := book.NewOrderBook()
	restoredCatalog := NewCatalog()
	highest, err := Replay(path, restoredOrders, restoredBook, restoredCatalog)
	require.NoError(t, err)
	require.Equal(t, order.ID, highest)

	gotOrder, ok := restoredOrders.Get(order.ID)
	require.True(t, ok)
	require.Equal(t, order, *gotOrder)

	gotInstrument, ok := restoredCatalog.Instrument(instrument.ID)
	require.True(t, ok)
	require.Equal(t, instrument, gotInstrument)

	gotAccount, ok := restoredCatalog.Account(account.ID)
	require.True(t, ok)
	require.Equal(t, account, gotAccount)

	gotClearing, ok := restoredCatalog.Clearing(clearing.ID)
	require.True(t, ok)
	require.Equal(t, clearing, gotClearing)

	require.True(t, restoredBook.Cancel(order.InstrumentID, order.ID))
}

func TestReplayMissingLogReturnsZeroValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "does-not-exist.log")
	highest, err := Replay(path, book.NewStorage(), book.NewOrderBook(), NewCatalog())
	require.NoError(t, err)
	require.Equal(t, model.IdT{}, highest)
}
