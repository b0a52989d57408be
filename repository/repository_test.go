package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "receiving.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	r := NewRepositoryWithDB(db, time.Second)
	require.NoError(t, r.Migrate())
	r.Seed()
	return r
}

func TestSeedAndLookups(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	batch, err := r.GetBatch(ctx, "B-1001-1")
	require.NoError(t, err)
	assert.True(t, batch.MultiReceiver)
	assert.Equal(t, models.ScanStatusOpen, batch.ScanStatus)

	loads, err := r.ListBatchesByConfirmation(ctx, "CONF-1001")
	require.NoError(t, err)
	assert.Len(t, loads, 2)

	pos, err := r.ListPurchaseOrders(ctx, "B-1003-1", "P-400")
	require.NoError(t, err)
	assert.Len(t, pos, 2)

	profile, err := r.GetRequirementProfile(ctx, "BASIC")
	require.NoError(t, err)
	assert.Equal(t, models.DateFormatJulian, profile.DateFormat)

	_, err = r.GetBatch(ctx, "B-404")
	assert.True(t, IsNotFound(err))

	// seeding twice is a no-op
	r.Seed()
	loads, err = r.ListBatchesByConfirmation(ctx, "CONF-1001")
	require.NoError(t, err)
	assert.Len(t, loads, 2)
}

func TestSetBatchScanStatusCompareAndSwap(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

	batch, err := r.GetBatch(ctx, "B-1002-1")
	require.NoError(t, err)

	ok, err := r.SetBatchScanStatus(ctx, batch.ID, batch.Version, models.ScanStatusReceived, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.SetBatchScanStatus(ctx, batch.ID, batch.Version, models.ScanStatusReceived, now)
	require.NoError(t, err)
	assert.False(t, ok, "a stale version must lose the swap")

	after, err := r.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScanStatusReceived, after.ScanStatus)
	assert.Equal(t, batch.Version+1, after.Version)
}

func TestWithTxRollsBack(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := r.WithTx(ctx, func(tx Store) error {
		require.NoError(t, tx.CreatePallet(ctx, &models.Pallet{ID: "PLT-TX", BatchID: "B-1002-1", ProductCode: "P-300"}))
		// nested calls join the outer transaction
		return tx.WithTx(ctx, func(inner Store) error {
			require.NoError(t, inner.SaveLot(ctx, &models.InventoryLot{TrackKey: "TK-TX", BatchID: "B-1002-1", ProductCode: "P-300"}))
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	_, err = r.GetPallet(ctx, "PLT-TX")
	assert.True(t, IsNotFound(err))
	_, err = r.GetLot(ctx, "TK-TX")
	assert.True(t, IsNotFound(err))
}

func TestPalletLifecycle(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	p := &models.Pallet{ID: "PLT-1", BatchID: "B-1001-1", ProductCode: "P-200", Quantity: 48}
	require.NoError(t, r.CreatePallet(ctx, p))
	assert.Error(t, r.CreatePallet(ctx, &models.Pallet{ID: "PLT-1", BatchID: "B-1001-1"}))

	got, err := r.GetPallet(ctx, "PLT-1")
	require.NoError(t, err)
	assert.Equal(t, models.RecordTypeTemporary, got.RecordType)
	assert.Equal(t, "{}", got.Attributes)

	for i, w := range []string{"20.5", "19.75"} {
		require.NoError(t, r.AddPalletDetail(ctx, &models.PalletDetail{PalletID: "PLT-1", Seq: i + 1, Weight: decimal.RequireFromString(w)}))
	}
	details, err := r.ListPalletDetails(ctx, "PLT-1")
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.True(t, details[1].Weight.Equal(decimal.RequireFromString("19.75")))

	temps, err := r.ListPallets(ctx, PalletFilter{BatchID: "B-1001-1", RecordType: models.RecordTypeTemporary})
	require.NoError(t, err)
	assert.Len(t, temps, 1)

	require.NoError(t, r.DeletePalletDetails(ctx, "PLT-1"))
	deleted, err := r.DeletePallet(ctx, "PLT-1")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = r.DeletePallet(ctx, "PLT-1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestLatestCodeDate(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	lots := []models.InventoryLot{
		{TrackKey: "TK-1", BatchID: "B-1001-1", ProductCode: "P-100", Owner: "ACME", Lot: "L1", CodeDate: "20240901", Quantity: 10},
		{TrackKey: "TK-2", BatchID: "B-1001-1", ProductCode: "P-100", Owner: "ACME", Lot: "L2", CodeDate: "20241001", Quantity: 10},
		{TrackKey: "TK-3", BatchID: "B-1001-1", ProductCode: "P-100", Owner: "ACME", Lot: "L3", CodeDate: "20241201", Quantity: 0},
	}
	for i := range lots {
		require.NoError(t, r.SaveLot(ctx, &lots[i]))
	}

	latest, err := r.LatestCodeDate(ctx, "P-100", "ACME", "")
	require.NoError(t, err)
	assert.Equal(t, "20241001", latest, "lots with no quantity left do not count")

	latest, err = r.LatestCodeDate(ctx, "P-100", "ACME", "L1")
	require.NoError(t, err)
	assert.Equal(t, "20240901", latest)

	latest, err = r.LatestCodeDate(ctx, "P-300", "", "")
	require.NoError(t, err)
	assert.Empty(t, latest)
}

func TestReceivers(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, r.UpsertReceiver(ctx, &models.BatchReceiver{BatchID: "B-1001-1", OperatorID: "OP-001", TerminalID: "T1", Active: true}))
	require.NoError(t, r.UpsertReceiver(ctx, &models.BatchReceiver{BatchID: "B-1001-1", OperatorID: "OP-002", TerminalID: "T2", Active: true}))
	require.NoError(t, r.UpsertReceiver(ctx, &models.BatchReceiver{BatchID: "B-1001-1", OperatorID: "OP-001", TerminalID: "T1", Active: false}))

	receivers, err := r.ListReceivers(ctx, "B-1001-1")
	require.NoError(t, err)
	require.Len(t, receivers, 2)
	active := map[string]bool{}
	for _, rc := range receivers {
		active[rc.OperatorID] = rc.Active
	}
	assert.Equal(t, map[string]bool{"OP-001": false, "OP-002": true}, active)
}

func TestRunRoutineRejectsUnknownName(t *testing.T) {
	r := newTestRepository(t)
	_, err := r.RunRoutine(context.Background(), "drop_everything", RoutineIO{})
	assert.True(t, IsRoutineFailure(err))
}

func TestWrapDBError(t *testing.T) {
	unique := &pgconn.PgError{Code: PgErrUniqueViolation, Detail: "Key (pallet_id)=(PLT-1) already exists."}
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantDetail string
	}{
		{"record not found", gorm.ErrRecordNotFound, CodeNotFound, "Pallet PLT-1 does not exist"},
		{"postgres unique violation", unique, CodeConflict, unique.Detail},
		{"wrapped unique violation", fmt.Errorf("insert: %w", unique), CodeConflict, unique.Detail},
		{"translated duplicate key", gorm.ErrDuplicatedKey, CodeConflict, gorm.ErrDuplicatedKey.Error()},
		{"postgres foreign key", &pgconn.PgError{Code: PgErrForeignKeyViolation, Detail: "missing batch"}, CodeConflict, "missing batch"},
		{"translated foreign key", gorm.ErrForeignKeyViolated, CodeConflict, gorm.ErrForeignKeyViolated.Error()},
		{"deadline", context.DeadlineExceeded, CodeRoutineTimeout, context.DeadlineExceeded.Error()},
		{"anything else", errors.New("connection reset"), CodeDatabase, "connection reset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrapDBError(tt.err, "Pallet", "PLT-1", "Failed to save pallet")
			var repoErr *RepositoryError
			require.ErrorAs(t, err, &repoErr)
			assert.Equal(t, tt.wantCode, repoErr.Code)
			assert.Equal(t, tt.wantDetail, repoErr.Detail)
		})
	}
	assert.NoError(t, wrapDBError(nil, "Pallet", "PLT-1", ""))
}

func TestSetBatchShipped(t *testing.T) {
	ctx := context.Background()
	r := newTestRepository(t)

	before, err := r.GetBatch(ctx, "B-1002-1")
	require.NoError(t, err)
	swapped, err := r.SetBatchScanStatus(ctx, before.ID, before.Version, models.ScanStatusReceived, time.Now())
	require.NoError(t, err)
	require.True(t, swapped)

	require.NoError(t, r.SetBatchShipped(ctx, before.ID, true))
	after, err := r.GetBatch(ctx, before.ID)
	require.NoError(t, err)
	assert.True(t, after.Shipped)
	assert.Equal(t, models.ScanStatusReceived, after.ScanStatus)
	assert.Equal(t, before.Version+1, after.Version)

	assert.True(t, IsNotFound(r.SetBatchShipped(ctx, "B-NONE", true)))
}
