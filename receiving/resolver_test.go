package receiving

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func TestNextRequired(t *testing.T) {
	temp := decimal.NewFromFloat(-18)
	tests := []struct {
		name   string
		req    Requirements
		fields Fields
		want   Step
	}{
		{"nothing required", Requirements{}, Fields{Quantity: 10}, StepCommit},
		{"lot first", Requirements{Lot: true, Establishment: true}, Fields{}, StepLot},
		{"establishment after lot", Requirements{Lot: true, Establishment: true}, Fields{Lot: "L1"}, StepEstablishment},
		{"blast undecided comes first", Requirements{Lot: true, AskBlast: true}, Fields{}, StepBlast},
		{"blast answered", Requirements{AskBlast: true}, Fields{Blast: boolPtr(false)}, StepCommit},
		{"blast Y needs temperature", Requirements{AskBlast: true}, Fields{Blast: boolPtr(true)}, StepTemperature},
		{"temperature given", Requirements{AskBlast: true}, Fields{Blast: boolPtr(true), Temperature: &temp}, StepCommit},
		{
			"copied steps are skipped",
			Requirements{Lot: true, Reference: true, BestBefore: true},
			Fields{Copied: map[Step]bool{StepLot: true, StepReference: true}},
			StepBestBefore,
		},
		{
			"walk order",
			Requirements{CustomerLot: true, SlaughterDate: true, Consignee: true},
			Fields{CustomerLot: "C1"},
			StepSlaughterDate,
		},
		{"consignee last", Requirements{BestBefore: true, Consignee: true}, Fields{BestBefore: "20240901"}, StepConsignee},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextRequired(tt.req, tt.fields))
		})
	}
}

func TestNextRequiredIsPure(t *testing.T) {
	req := Requirements{Lot: true, Establishment: true, BestBefore: true}
	fields := Fields{Lot: "L1", Copied: map[Step]bool{StepLot: true}}
	before := fields
	before.Copied = map[Step]bool{StepLot: true}

	first := NextRequired(req, fields)
	second := NextRequired(req, fields)
	assert.Equal(t, first, second)
	if diff := cmp.Diff(before, fields); diff != "" {
		t.Errorf("fields changed (-before +after):\n%s", diff)
	}
}

func TestCommitStage(t *testing.T) {
	tests := []struct {
		name  string
		facts CommitFacts
		want  Step
	}{
		{"all off", CommitFacts{}, StepCommit},
		{"catch weight incomplete", CommitFacts{CatchWeight: true}, StepCatchWeight},
		{"catch weight done", CommitFacts{CatchWeight: true, WeightsComplete: true}, StepCommit},
		{"pallet type", CommitFacts{AskPalletType: true, AskPutaway: true}, StepPalletType},
		{"machine id already known", CommitFacts{AskMachineID: true, MachineIDSet: true}, StepCommit},
		{"merge without candidate", CommitFacts{AskMerge: true}, StepCommit},
		{"merge with candidate", CommitFacts{AskMerge: true, MergeCandidate: true, AskPutaway: true}, StepMerge},
		{"putaway after merge decided", CommitFacts{AskMerge: true, MergeCandidate: true, MergeDecided: true, AskPutaway: true}, StepPutaway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CommitStage(tt.facts))
		})
	}
}

func TestStateCopyPrior(t *testing.T) {
	st := NewState("OP-1", "T1")
	assert.False(t, st.copyPrior(false))

	st.Prior = &PriorPallet{
		PalletID:    "PAL-1",
		ProductCode: "BEEF001",
		Tie:         5,
		High:        10,
		Fields: Fields{
			Quantity:      50,
			Blast:         boolPtr(true),
			Lot:           "L1",
			Establishment: "E1",
			BestBefore:    "20240901",
			Consignee:     "C1",
		},
	}
	assert.True(t, st.copyPrior(false))
	assert.Equal(t, "L1", st.Fields.Lot)
	assert.Empty(t, st.Fields.BestBefore)
	assert.Zero(t, st.Fields.Quantity)
	assert.True(t, st.Fields.Populated(StepReference))
	assert.False(t, st.Fields.Populated(StepBestBefore))
	assert.Equal(t, 5, st.Tie)

	st.ClearPallet()
	assert.True(t, st.copyPrior(true))
	assert.Equal(t, "20240901", st.Fields.BestBefore)
	assert.Equal(t, "C1", st.Fields.Consignee)
	assert.True(t, st.Pending.RotationChecked)
}

func TestStateReset(t *testing.T) {
	st := &State{
		Step:        StepPalletID,
		OperatorID:  "OP-1",
		TerminalID:  "T1",
		MachineID:   "M7",
		Facility:    "WH1",
		BatchID:     "B-1",
		ProductCode: "BEEF001",
		PalletID:    "PAL-1",
		Prior:       &PriorPallet{PalletID: "PAL-0"},
	}
	st.Reset()
	want := &State{Step: StepConfirmation, OperatorID: "OP-1", TerminalID: "T1", MachineID: "M7", Facility: "WH1"}
	if diff := cmp.Diff(want, st); diff != "" {
		t.Errorf("reset mismatch (-want +got):\n%s", diff)
	}
}
