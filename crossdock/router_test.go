package crossdock

import (
	"context"
	"testing"

	"github.com/ahmadzakiakmal/rf-receiving/repository"
	"github.com/ahmadzakiakmal/rf-receiving/repository/memrepo"
	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeDockBatch() *models.Batch {
	return &models.Batch{
		ID: "B-1", ConfirmationNumber: "C-1", CustomerCode: "CUST", QuickReceiveType: models.QuickReceiveStoreDock,
	}
}

func TestMatch(t *testing.T) {
	ctx := context.Background()
	store := memrepo.New(nil)
	store.Load(repository.Fixtures{CrossDockOrders: []models.CrossDockOrder{
		{ID: "XD-1", ConfirmationNumber: "C-1", ProductCode: "P-1", CustomerCode: "CUST", Lot: "L1", OutboundBatchID: "OB-1", Door: "D07", StageDoor: "STG-07"},
		{ID: "XD-2", ConfirmationNumber: "C-1", ProductCode: "P-2", CustomerCode: "CUST", OutboundBatchID: "OB-1", StageDoor: "STG-02"},
		{ID: "XD-3", ConfirmationNumber: "C-1", ProductCode: "P-3", CustomerCode: "CUST", OutboundBatchID: "OB-1", Door: "D09", Shipped: true},
	}})
	router := NewRouter(cmtlog.NewNopLogger())

	testCases := []struct {
		name    string
		batch   *models.Batch
		product string
		lot     string
		want    *Route
	}{
		{
			name:    "lot matches door order",
			batch:   storeDockBatch(),
			product: "P-1",
			lot:     "L1",
			want:    &Route{OrderLineID: "XD-1", OutboundBatchID: "OB-1", Destination: "D07", DestinationKind: DestinationDoor},
		},
		{
			name:    "empty carried lot matches on product",
			batch:   storeDockBatch(),
			product: "P-1",
			want:    &Route{OrderLineID: "XD-1", OutboundBatchID: "OB-1", Destination: "D07", DestinationKind: DestinationDoor},
		},
		{
			name:    "different lot falls through",
			batch:   storeDockBatch(),
			product: "P-1",
			lot:     "L2",
		},
		{
			name:    "no door routes to stage",
			batch:   storeDockBatch(),
			product: "P-2",
			lot:     "ANY",
			want:    &Route{OrderLineID: "XD-2", OutboundBatchID: "OB-1", Destination: "STG-02", DestinationKind: DestinationStage},
		},
		{
			name:    "shipped order ignored",
			batch:   storeDockBatch(),
			product: "P-3",
		},
		{
			name:    "not a store-on-dock batch",
			batch:   &models.Batch{ID: "B-2", ConfirmationNumber: "C-1", CustomerCode: "CUST", QuickReceiveType: models.QuickReceiveLeaveTruck},
			product: "P-1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := router.Match(ctx, store, tc.batch, tc.product, tc.lot)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Match() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLocationMatches(t *testing.T) {
	r := &Route{Destination: "D07"}
	assert.True(t, r.LocationMatches(" d07 "))
	assert.False(t, r.LocationMatches("D08"))
}

func TestReconcileFlipsShipped(t *testing.T) {
	ctx := context.Background()
	store := memrepo.New(nil)
	store.Load(repository.Fixtures{
		Batches: []models.Batch{
			{ID: "B-1", ConfirmationNumber: "C-1", CustomerCode: "CUST", QuickReceiveType: models.QuickReceiveStoreDock},
			{ID: "B-2", ConfirmationNumber: "C-1", CustomerCode: "CUST"},
		},
		CrossDockOrders: []models.CrossDockOrder{
			{ID: "XD-1", ConfirmationNumber: "C-1", ProductCode: "P-1", CustomerCode: "CUST", OutboundBatchID: "OB-1", Door: "D07"},
		},
	})
	require.NoError(t, store.SaveTransaction(ctx, &models.InventoryTransaction{ID: "T-1", TrackKey: "TK-1", BatchID: "B-1", Direction: models.DirectionInbound, Quantity: 10}))
	require.NoError(t, store.SaveTransaction(ctx, &models.InventoryTransaction{ID: "T-2", TrackKey: "TK-2", BatchID: "B-2", Direction: models.DirectionInbound, Quantity: 10}))

	router := NewRouter(cmtlog.NewNopLogger())
	route := &Route{OrderLineID: "XD-1", OutboundBatchID: "OB-1", Destination: "D07"}
	b1, err := store.GetBatch(ctx, "B-1")
	require.NoError(t, err)

	require.NoError(t, router.Reconcile(ctx, store, b1, &models.Pallet{ID: "PAL-1", TrackKey: "TK-1"}, route))
	b2, err := store.GetBatch(ctx, "B-2")
	require.NoError(t, err)
	assert.False(t, b2.Shipped, "second load still has unshipped stock")

	require.NoError(t, router.Reconcile(ctx, store, b2, &models.Pallet{ID: "PAL-2", TrackKey: "TK-2"}, route))
	for _, id := range []string{"B-1", "B-2"} {
		b, err := store.GetBatch(ctx, id)
		require.NoError(t, err)
		assert.True(t, b.Shipped, id)
	}
	orders, err := store.ListCrossDockOrders(ctx, "C-1")
	require.NoError(t, err)
	assert.True(t, orders[0].Shipped)
	assert.Len(t, store.RoutineCalls(repository.RoutineAutoReceiveCrossDock), 2)
}

func TestReconcileSkipsEmptyLoad(t *testing.T) {
	ctx := context.Background()
	store := memrepo.New(nil)
	store.Load(repository.Fixtures{
		Batches: []models.Batch{
			{ID: "B-1", ConfirmationNumber: "C-1", CustomerCode: "CUST", QuickReceiveType: models.QuickReceiveStoreDock, ScanStatus: models.ScanStatusReceived, Version: 3},
			{ID: "B-2", ConfirmationNumber: "C-1", CustomerCode: "CUST", ScanStatus: models.ScanStatusOpen},
		},
		CrossDockOrders: []models.CrossDockOrder{
			{ID: "XD-1", ConfirmationNumber: "C-1", ProductCode: "P-1", CustomerCode: "CUST", OutboundBatchID: "OB-1", Door: "D07"},
		},
	})
	require.NoError(t, store.SaveTransaction(ctx, &models.InventoryTransaction{ID: "T-1", TrackKey: "TK-1", BatchID: "B-1", Direction: models.DirectionInbound, Quantity: 10}))

	router := NewRouter(cmtlog.NewNopLogger())
	route := &Route{OrderLineID: "XD-1", OutboundBatchID: "OB-1", Destination: "D07"}
	b1, err := store.GetBatch(ctx, "B-1")
	require.NoError(t, err)
	require.NoError(t, router.Reconcile(ctx, store, b1, &models.Pallet{ID: "PAL-1", TrackKey: "TK-1"}, route))

	for _, id := range []string{"B-1", "B-2"} {
		b, err := store.GetBatch(ctx, id)
		require.NoError(t, err)
		assert.True(t, b.Shipped, "%s should be shipped", id)
	}
	orders, err := store.ListCrossDockOrders(ctx, "C-1")
	require.NoError(t, err)
	assert.True(t, orders[0].Shipped)

	// only the shipped flag is written
	b1, err = store.GetBatch(ctx, "B-1")
	require.NoError(t, err)
	assert.Equal(t, models.ScanStatusReceived, b1.ScanStatus)
	assert.Equal(t, 3, b1.Version)
	b2, err := store.GetBatch(ctx, "B-2")
	require.NoError(t, err)
	assert.Equal(t, models.ScanStatusOpen, b2.ScanStatus)
	assert.Zero(t, b2.Version)
}
