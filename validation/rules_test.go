package validation

import (
	"context"
	"testing"
	"time"

	"github.com/ahmadzakiakmal/rf-receiving/repository/memrepo"
	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testclock "k8s.io/utils/clock/testing"
)

func TestCheckRotation(t *testing.T) {
	ctx := context.Background()
	store := memrepo.New(testclock.NewFakePassiveClock(time.Now()))
	require.NoError(t, store.SaveLot(ctx, &models.InventoryLot{
		TrackKey: "TK-1", BatchID: "B-1", ProductCode: "P-100", Owner: "ACME", Lot: "L1", CodeDate: "20240510", Quantity: 40,
	}))

	testCases := []struct {
		name     string
		lot      string
		codeDate string
		violated bool
	}{
		{name: "older than on hand", lot: "L1", codeDate: "20240401", violated: true},
		{name: "same date", lot: "L1", codeDate: "20240510"},
		{name: "newer date", lot: "L1", codeDate: "20240601"},
		{name: "other lot has no history", lot: "L2", codeDate: "20240101"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := CheckRotation(ctx, store, "P-100", "ACME", tc.lot, tc.codeDate)
			require.NoError(t, err)
			assert.Equal(t, tc.violated, res.Violated)
		})
	}
}

func TestAuditorRecord(t *testing.T) {
	ctx := context.Background()
	clk := testclock.NewFakePassiveClock(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
	store := memrepo.New(clk)

	err := NewAuditor(clk).Record(ctx, store, Violation{
		BatchID: "B-1", PalletID: "PAL-1", Field: "best_before", BadValue: "01012020", Rule: RuleDateWindow, AutoResolved: true,
	})
	require.NoError(t, err)

	audits, err := store.ListAudits(ctx, "B-1")
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, RuleDateWindow, audits[0].Rule)
	assert.True(t, audits[0].AutoResolved)
	assert.Equal(t, clk.Now(), audits[0].CreatedAt)
}

func TestSplitBarcode(t *testing.T) {
	profile := &models.RequirementProfile{BarcodeLength: 16, LotStart: 1, LotLength: 8, DateStart: 9, DateLength: 8}

	seg, ok := SplitBarcode(profile, "LOT0001206012024")
	require.True(t, ok)
	assert.Equal(t, "LOT00012", seg.Lot)
	assert.Equal(t, "06012024", seg.Date)

	_, ok = SplitBarcode(profile, "LOT00012")
	assert.False(t, ok)
	_, ok = SplitBarcode(&models.RequirementProfile{}, "LOT0001206012024")
	assert.False(t, ok)
}

func TestCheckLotMask(t *testing.T) {
	ctx := context.Background()
	store := memrepo.New(nil)

	ok, err := CheckLotMask(ctx, store, "AA9999", "LT1234")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckLotMask(ctx, store, "AA9999", "1234LT")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = CheckLotMask(ctx, store, "", "anything")
	require.NoError(t, err)
	assert.True(t, ok)
}
