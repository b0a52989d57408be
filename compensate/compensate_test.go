package compensate

import (
	"context"
	"testing"
	"time"

	"github.com/ahmadzakiakmal/rf-receiving/repository"
	"github.com/ahmadzakiakmal/rf-receiving/repository/memrepo"
	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testclock "k8s.io/utils/clock/testing"
)

var testNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func newManager(t *testing.T) (*Manager, *memrepo.Store) {
	t.Helper()
	clk := testclock.NewFakePassiveClock(testNow)
	store := memrepo.New(clk)
	return NewManager(store, clk, cmtlog.NewNopLogger()), store
}

func strPtr(s string) *string { return &s }

func seedCommittedPallet(t *testing.T, store *memrepo.Store, id, trackKey string, qty int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.CreatePallet(ctx, &models.Pallet{
		ID: id, BatchID: "B-1", ProductCode: "P-1", Quantity: qty, TrackKey: trackKey, RecordType: models.RecordTypeCommitted,
	}))
}

func TestCancelPalletLeavesNoRows(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)
	store.Load(repository.Fixtures{Products: []models.Product{{Code: "P-1", TareWeight: decimal.NewFromInt(2)}}})

	seedCommittedPallet(t, store, "PAL-1", "TK-1", 10)
	require.NoError(t, store.CreatePallet(ctx, &models.Pallet{ID: "PAL-2", BatchID: "B-1", PairedPalletID: strPtr("PAL-1")}))
	require.NoError(t, store.AddPalletDetail(ctx, &models.PalletDetail{PalletID: "PAL-1", Seq: 1, Weight: decimal.NewFromInt(5)}))
	require.NoError(t, store.SaveHold(ctx, &models.Hold{ID: "H-1", PalletID: "PAL-1", TrackKey: "TK-1", Kind: models.HoldKindBlast, Code: "BLST", External: true}))
	require.NoError(t, store.SaveLot(ctx, &models.InventoryLot{TrackKey: "TK-1", BatchID: "B-1", ProductCode: "P-1", Quantity: 10}))
	require.NoError(t, store.SaveTransaction(ctx, &models.InventoryTransaction{ID: "T-1", TrackKey: "TK-1", BatchID: "B-1", Direction: models.DirectionInbound, PalletCount: 1, Quantity: 10}))

	removed, err := m.CancelPallet(ctx, "PAL-1")
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = store.GetPallet(ctx, "PAL-1")
	assert.True(t, repository.IsNotFound(err))
	_, err = store.GetLot(ctx, "TK-1")
	assert.True(t, repository.IsNotFound(err))
	_, err = store.GetTransaction(ctx, "TK-1", models.DirectionInbound)
	assert.True(t, repository.IsNotFound(err))

	details, err := store.ListPalletDetails(ctx, "PAL-1")
	require.NoError(t, err)
	assert.Empty(t, details)
	holds, err := store.ListHolds(ctx, "PAL-1")
	require.NoError(t, err)
	assert.Empty(t, holds)

	paired, err := store.GetPallet(ctx, "PAL-2")
	require.NoError(t, err)
	assert.Nil(t, paired.PairedPalletID)
	assert.Len(t, store.RoutineCalls(repository.RoutineStackHoldRelease), 1)

	removed, err = m.CancelPallet(ctx, "PAL-1")
	require.NoError(t, err)
	assert.False(t, removed, "second cancel is a no-op")
	assert.Len(t, store.RoutineCalls(repository.RoutineStackHoldRelease), 1)
}

func TestCancelPalletKeepsSharedLot(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)
	store.Load(repository.Fixtures{Products: []models.Product{{Code: "P-1", TareWeight: decimal.NewFromInt(2)}}})

	seedCommittedPallet(t, store, "PAL-1", "TK-1", 10)
	seedCommittedPallet(t, store, "PAL-2", "TK-1", 6)
	require.NoError(t, store.SaveLot(ctx, &models.InventoryLot{TrackKey: "TK-1", BatchID: "B-1", ProductCode: "P-1", Quantity: 16, Weight: decimal.NewFromInt(32)}))
	require.NoError(t, store.SaveTransaction(ctx, &models.InventoryTransaction{ID: "T-1", TrackKey: "TK-1", BatchID: "B-1", Direction: models.DirectionInbound, PalletCount: 2, Quantity: 16, Weight: decimal.NewFromInt(32)}))

	_, err := m.CancelPallet(ctx, "PAL-1")
	require.NoError(t, err)

	lot, err := store.GetLot(ctx, "TK-1")
	require.NoError(t, err)
	assert.Equal(t, 6, lot.Quantity)
	assert.True(t, decimal.NewFromInt(12).Equal(lot.Weight))

	inbound, err := store.GetTransaction(ctx, "TK-1", models.DirectionInbound)
	require.NoError(t, err)
	assert.Equal(t, 1, inbound.PalletCount)
	assert.Equal(t, 6, inbound.Quantity)
}

func TestCancelTemporaryPalletWithoutLot(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)
	require.NoError(t, store.CreatePallet(ctx, &models.Pallet{ID: "PAL-9", BatchID: "B-1"}))

	removed, err := m.CancelPallet(ctx, "PAL-9")
	require.NoError(t, err)
	assert.True(t, removed)

	pallets, err := store.ListPallets(ctx, repository.PalletFilter{BatchID: "B-1"})
	require.NoError(t, err)
	assert.Empty(t, pallets)
}

func TestCloseBatch(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)
	earlier := testNow.Add(-48 * time.Hour)
	store.Load(repository.Fixtures{
		Products:      []models.Product{{Code: "P-1", TareWeight: decimal.NewFromInt(1)}},
		Confirmations: []models.Confirmation{{Number: "C-1", CustomerCode: "CUST", FinishAt: &earlier}},
		Batches: []models.Batch{
			{ID: "B-1", ConfirmationNumber: "C-1", CustomerCode: "CUST", ScanStatus: models.ScanStatusOpen, Door: "D01", OutboundBatchID: strPtr("OB-1")},
			{ID: "B-2", ConfirmationNumber: "C-1", CustomerCode: "CUST", ScanStatus: models.ScanStatusOpen},
		},
	})
	seedCommittedPallet(t, store, "PAL-1", "TK-1", 10)
	seedCommittedPallet(t, store, "PAL-2", "TK-1", 5)
	require.NoError(t, store.SaveTransaction(ctx, &models.InventoryTransaction{ID: "OUT-1", TrackKey: "TK-1", BatchID: "OB-1", Direction: models.DirectionOutbound, PalletCount: 7, Quantity: 99}))
	require.NoError(t, store.SaveTransaction(ctx, &models.InventoryTransaction{ID: "OUT-2", TrackKey: "TK-GONE", BatchID: "OB-1", Direction: models.DirectionOutbound, PalletCount: 1, Quantity: 4}))

	require.NoError(t, m.CloseBatch(ctx, "B-1"))

	for _, id := range []string{"B-1", "B-2"} {
		b, err := store.GetBatch(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.ScanStatusReceived, b.ScanStatus, id)
	}

	conf, err := store.GetConfirmation(ctx, "C-1")
	require.NoError(t, err)
	require.NotNil(t, conf.FinishAt)
	assert.Equal(t, testNow, *conf.FinishAt)

	outbound, err := store.ListTransactions(ctx, "OB-1", models.DirectionOutbound)
	require.NoError(t, err)
	require.Len(t, outbound, 1, "zero-quantity outbound rows are netted out")
	assert.Equal(t, 2, outbound[0].PalletCount)
	assert.Equal(t, 15, outbound[0].Quantity)
	assert.Equal(t, "D01", outbound[0].StageDoor)

	calls := store.RoutineCalls(repository.RoutineAutoReceiveInbound)
	require.Len(t, calls, 1)
	assert.Equal(t, "B-1", calls[0].String("batch_id"))

	// running the close again changes nothing but the routine call count
	require.NoError(t, m.CloseBatch(ctx, "B-1"))
	outbound, err = store.ListTransactions(ctx, "OB-1", models.DirectionOutbound)
	require.NoError(t, err)
	assert.Equal(t, 15, outbound[0].Quantity)
}

func TestCloseBatchRollsBackOnRoutineFailure(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)
	store.Load(repository.Fixtures{
		Batches: []models.Batch{{ID: "B-1", ConfirmationNumber: "C-1", CustomerCode: "CUST", ScanStatus: models.ScanStatusOpen}},
	})
	store.SetRoutine(repository.RoutineAutoReceiveInbound, func(ctx context.Context, in repository.RoutineIO) (repository.RoutineIO, error) {
		return nil, assert.AnError
	})

	err := m.CloseBatch(ctx, "B-1")
	require.Error(t, err)
	assert.True(t, repository.IsRoutineFailure(err))

	b, err := store.GetBatch(ctx, "B-1")
	require.NoError(t, err)
	assert.Equal(t, models.ScanStatusOpen, b.ScanStatus)
}

func TestQuickOutFinalize(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)
	batch := &models.Batch{ID: "B-1", TruckToTruck: true}
	lot := &models.InventoryLot{TrackKey: "TK-1", HoldCode: "BLST"}
	pallet := &models.Pallet{ID: "PAL-1", Quantity: 10, HoldCode: "BLST"}

	res, err := m.QuickOutFinalize(ctx, store, QuickOut{Batch: batch, Pallet: pallet, Lot: lot, Weight: decimal.NewFromInt(20), OutboundBatchID: "OB-1", StageDoor: "STG-07"})
	require.NoError(t, err)
	assert.True(t, res.Loading)
	require.NotNil(t, res.Transaction)
	assert.Equal(t, "BLST", res.Transaction.HoldCode)

	res, err = m.QuickOutFinalize(ctx, store, QuickOut{Batch: batch, Pallet: &models.Pallet{ID: "PAL-2", Quantity: 5}, Lot: lot, Weight: decimal.NewFromInt(10), OutboundBatchID: "OB-1"})
	require.NoError(t, err)

	out, err := store.GetTransaction(ctx, "TK-1", models.DirectionOutbound)
	require.NoError(t, err)
	assert.Equal(t, 2, out.PalletCount)
	assert.Equal(t, 15, out.Quantity)
	assert.Equal(t, "OB-1", out.BatchID)
	assert.Equal(t, "STG-07", out.StageDoor)
	assert.True(t, decimal.NewFromInt(30).Equal(out.Weight))

	res, err = m.QuickOutFinalize(ctx, store, QuickOut{Batch: &models.Batch{ID: "B-2"}, Pallet: pallet, Lot: lot})
	require.NoError(t, err)
	assert.Nil(t, res.Transaction)
	assert.False(t, res.Loading)
}

func TestCloseBatchKeepsOutboundRowsOfOtherLoads(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)
	store.Load(repository.Fixtures{
		Products:      []models.Product{{Code: "P-1"}},
		Confirmations: []models.Confirmation{{Number: "C-1", CustomerCode: "CUST"}},
		Batches: []models.Batch{
			{ID: "B-1", ConfirmationNumber: "C-1", CustomerCode: "CUST", ScanStatus: models.ScanStatusOpen, Door: "D01", OutboundBatchID: strPtr("OB-1")},
			{ID: "B-2", ConfirmationNumber: "C-1", CustomerCode: "CUST", ScanStatus: models.ScanStatusOpen, Door: "D02", OutboundBatchID: strPtr("OB-1")},
		},
	})
	require.NoError(t, store.CreatePallet(ctx, &models.Pallet{
		ID: "PAL-A", BatchID: "B-1", ProductCode: "P-1", Quantity: 10, TrackKey: "TK-A", RecordType: models.RecordTypeCommitted,
	}))
	require.NoError(t, store.CreatePallet(ctx, &models.Pallet{
		ID: "PAL-B", BatchID: "B-2", ProductCode: "P-1", Quantity: 5, TrackKey: "TK-B", RecordType: models.RecordTypeCommitted,
	}))
	require.NoError(t, store.SaveTransaction(ctx, &models.InventoryTransaction{ID: "OUT-A", TrackKey: "TK-A", BatchID: "OB-1", Direction: models.DirectionOutbound, PalletCount: 1, Quantity: 10}))
	require.NoError(t, store.SaveTransaction(ctx, &models.InventoryTransaction{ID: "OUT-B", TrackKey: "TK-B", BatchID: "OB-1", Direction: models.DirectionOutbound, PalletCount: 1, Quantity: 5}))

	for _, id := range []string{"B-1", "B-2"} {
		require.NoError(t, m.CloseBatch(ctx, id), id)

		outbound, err := store.ListTransactions(ctx, "OB-1", models.DirectionOutbound)
		require.NoError(t, err)
		require.Len(t, outbound, 2, "after closing %s", id)
		byKey := map[string]models.InventoryTransaction{}
		for _, out := range outbound {
			byKey[out.TrackKey] = out
		}
		assert.Equal(t, 10, byKey["TK-A"].Quantity)
		assert.Equal(t, "D01", byKey["TK-A"].StageDoor)
		assert.Equal(t, 5, byKey["TK-B"].Quantity)
		assert.Equal(t, 1, byKey["TK-B"].PalletCount)
	}
}

func TestQuickOutHoldOnExistingRow(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)
	batch := &models.Batch{ID: "B-1"}
	require.NoError(t, store.SaveTransaction(ctx, &models.InventoryTransaction{ID: "OUT-1", TrackKey: "TK-1", BatchID: "OB-1", Direction: models.DirectionOutbound, PalletCount: 1, Quantity: 4}))
	require.NoError(t, store.SaveTransaction(ctx, &models.InventoryTransaction{ID: "OUT-2", TrackKey: "TK-2", BatchID: "OB-1", Direction: models.DirectionOutbound, HoldCode: "HPP1"}))

	tests := []struct {
		name     string
		trackKey string
		lotHold  string
		want     string
	}{
		{"held lot puts its hold on an unheld row", "TK-1", "BLST", "BLST"},
		{"held row keeps its own hold", "TK-2", "BLST", "HPP1"},
		{"unheld lot leaves the row unheld", "TK-3", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lot := &models.InventoryLot{TrackKey: tt.trackKey, HoldCode: tt.lotHold}
			res, err := m.QuickOutFinalize(ctx, store, QuickOut{Batch: batch, Pallet: &models.Pallet{ID: "PAL-" + tt.trackKey, Quantity: 1}, Lot: lot, OutboundBatchID: "OB-1"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Transaction.HoldCode)

			out, err := store.GetTransaction(ctx, tt.trackKey, models.DirectionOutbound)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.HoldCode)
		})
	}
}
