package receiving

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ahmadzakiakmal/rf-receiving/compensate"
	"github.com/ahmadzakiakmal/rf-receiving/printclient"
	"github.com/ahmadzakiakmal/rf-receiving/repository"
	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
	"github.com/ahmadzakiakmal/rf-receiving/session"
	"github.com/ahmadzakiakmal/rf-receiving/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatchWeightProgress is the running tally of the catch-weight sub-flow
type CatchWeightProgress struct {
	PalletID string          `json:"pallet_id"`
	Cases    int             `json:"cases"`
	Total    decimal.Decimal `json:"total"`
}

// commitStage is the first pre-commit stage still open, or the commit screen
func (e *Engine) commitStage(t *turn) (Step, error) {
	st := t.st
	profile := st.profile()
	facts := CommitFacts{
		CatchWeight:    st.CatchWeight,
		AskPalletType:  profile.AskPalletType,
		PalletTypeSet:  st.Pending.PalletType != "",
		AskMachineID:   profile.AskMachineID,
		MachineIDSet:   st.MachineID != "",
		AskMerge:       profile.AskMerge,
		MergeDecided:   st.Pending.MergeDecided,
		AskPutaway:     profile.AskPutaway,
		PutawayDecided: st.Pending.PutawayDecided,
	}

	var weighed int
	if st.CatchWeight {
		details, err := e.store.ListPalletDetails(t.ctx, st.PalletID)
		if err != nil {
			return "", fmt.Errorf("failed to read catch weights: %w", err)
		}
		weighed = len(details)
		facts.WeightsComplete = weighed >= st.Fields.Quantity
	}
	if facts.AskMerge && !facts.MergeDecided {
		candidate, err := e.mergeCandidate(t)
		if err != nil {
			return "", err
		}
		facts.MergeCandidate = candidate != ""
		if candidate != "" {
			t.set("merge_with", candidate)
		}
	}

	step := CommitStage(facts)
	switch step {
	case StepCatchWeight:
		t.set("case", weighed+1)
		t.set("cases", st.Fields.Quantity)
	case StepPutaway:
		if st.Pending.Location == "" {
			out, err := e.store.RunRoutine(t.ctx, repository.RoutineSlottingFetch, repository.RoutineIO{
				"batch_id":     st.BatchID,
				"pallet_id":    st.PalletID,
				"product_code": st.ProductCode,
				"quantity":     st.Fields.Quantity,
			})
			if err != nil {
				return "", err
			}
			st.Pending.Location = out.String("location")
		}
		t.set("suggested_location", st.Pending.Location)
	case StepCommit:
		t.set("quantity", st.Fields.Quantity)
		if st.Fields.Lot != "" {
			t.set("lot", st.Fields.Lot)
		}
		if st.Fields.BestBefore != "" {
			t.set("code_date", st.Fields.BestBefore)
		}
		if st.Route != nil {
			t.set("destination", st.Route.Destination)
		}
	}
	return step, nil
}

// mergeCandidate finds a committed, unpaired pallet of the batch with the
// same product, lot and code date
func (e *Engine) mergeCandidate(t *turn) (string, error) {
	st := t.st
	pallets, err := e.store.ListPallets(t.ctx, repository.PalletFilter{
		BatchID:     st.BatchID,
		ProductCode: st.ProductCode,
		RecordType:  models.RecordTypeCommitted,
	})
	if err != nil {
		return "", fmt.Errorf("failed to look for merge candidates: %w", err)
	}
	for _, p := range pallets {
		if p.ID == st.PalletID || p.PairedPalletID != nil {
			continue
		}
		if p.Lot == st.Fields.Lot && p.CodeDate == st.Fields.BestBefore {
			return p.ID, nil
		}
	}
	return "", nil
}

// onCatchWeight records one case weight per keystroke until every case of
// the pallet is weighed
func (e *Engine) onCatchWeight(t *turn) (Step, error) {
	st := t.st
	weight, err := decimal.NewFromString(t.value)
	if err != nil || !weight.IsPositive() {
		return "", inputErrorf("Case weight must be a positive number")
	}

	details, err := e.store.ListPalletDetails(t.ctx, st.PalletID)
	if err != nil {
		return "", fmt.Errorf("failed to read catch weights: %w", err)
	}
	if len(details) >= st.Fields.Quantity {
		return e.commitStage(t)
	}

	seq := len(details) + 1
	err = e.store.AddPalletDetail(t.ctx, &models.PalletDetail{PalletID: st.PalletID, Seq: seq, Weight: weight})
	if err != nil {
		return "", fmt.Errorf("failed to save catch weight: %w", err)
	}

	var progress CatchWeightProgress
	err = session.Update(e.sessions, st.OperatorID, session.ContextCatchWeight, func(cw *CatchWeightProgress) (bool, error) {
		if cw.PalletID != st.PalletID {
			*cw = CatchWeightProgress{PalletID: st.PalletID}
		}
		cw.Cases = seq
		cw.Total = cw.Total.Add(weight)
		progress = *cw
		return true, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to update catch weight progress: %w", err)
	}
	t.set("total_weight", progress.Total.String())
	return e.commitStage(t)
}

func (e *Engine) onPalletType(t *turn) (Step, error) {
	if t.value == "" {
		return "", inputErrorf("Pallet type is required")
	}
	if limit := maxLength(StepPalletType); len(t.value) > limit {
		return "", inputErrorf("Pallet type is longer than %d characters", limit)
	}
	t.st.Pending.PalletType = strings.ToUpper(t.value)
	if err := e.syncPallet(t); err != nil {
		return "", err
	}
	return e.commitStage(t)
}

func (e *Engine) onMachineID(t *turn) (Step, error) {
	if t.value == "" {
		return "", inputErrorf("Machine ID is required")
	}
	if limit := maxLength(StepMachineID); len(t.value) > limit {
		return "", inputErrorf("Machine ID is longer than %d characters", limit)
	}
	t.st.MachineID = strings.ToUpper(t.value)
	if err := e.syncPallet(t); err != nil {
		return "", err
	}
	return e.commitStage(t)
}

func (e *Engine) onMerge(t *turn) (Step, error) {
	yes, err := parseYesNo(t.value)
	if err != nil {
		return "", err
	}
	st := t.st
	st.Pending.MergeDecided = true
	st.Pending.MergeWith = ""
	if yes {
		candidate, err := e.mergeCandidate(t)
		if err != nil {
			return "", err
		}
		if candidate == "" {
			t.warn("No pallet left to merge with")
		}
		st.Pending.MergeWith = candidate
	}
	return e.commitStage(t)
}

// onPutaway takes the scanned location; blank accepts the suggestion
func (e *Engine) onPutaway(t *turn) (Step, error) {
	st := t.st
	code := strings.ToUpper(t.value)
	if code == "" {
		code = st.Pending.Location
	}
	if code == "" {
		return "", inputErrorf("Location is required")
	}
	loc, err := e.store.GetLocation(t.ctx, code)
	if err != nil {
		if repository.IsNotFound(err) {
			return "", inputErrorf("Location %s not found", code)
		}
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	st.Pending.Location = loc.Code
	st.Pending.PutawayDecided = true
	if err := e.syncPallet(t); err != nil {
		return "", err
	}
	return e.commitStage(t)
}

func (e *Engine) onCommit(t *turn) (Step, error) {
	return e.commitPallet(t)
}

// commitPallet promotes the temporary pallet and posts its inventory in one
// store transaction, then prints the label and moves to the next pallet
func (e *Engine) commitPallet(t *turn) (Step, error) {
	st := t.st
	if st.Fields.Quantity <= 0 {
		return "", inputErrorf("Quantity must be entered before sending")
	}
	batch, open, err := e.openBatch(t)
	if err != nil {
		return "", err
	}
	if !open {
		return StepClosedByOther, nil
	}
	product, err := e.store.GetProduct(t.ctx, st.ProductCode)
	if err != nil {
		return "", fmt.Errorf("failed to read product: %w", err)
	}

	var committed *models.Pallet
	var loading bool
	err = e.store.WithTx(t.ctx, func(tx repository.Store) error {
		p, err := tx.GetPallet(t.ctx, st.PalletID)
		if err != nil {
			if repository.IsNotFound(err) {
				return dataErrorf(StepPalletID, "Pallet %s no longer exists", st.PalletID)
			}
			return err
		}
		if p.IsCommitted() {
			return dataErrorf(StepPalletID, "Pallet %s was already received", p.ID)
		}
		applyFields(p, st)
		p.RecordType = models.RecordTypeCommitted

		weight, err := compensate.PalletWeight(t.ctx, tx, p, product)
		if err != nil {
			return err
		}
		lot, err := e.rollupLot(t.ctx, tx, batch, p, product, weight)
		if err != nil {
			return err
		}
		p.TrackKey = lot.TrackKey

		if err := e.applyHolds(t.ctx, tx, st, p, lot); err != nil {
			return err
		}
		if err := tx.SaveLot(t.ctx, lot); err != nil {
			return err
		}
		if err := e.rollupInbound(t.ctx, tx, batch, lot, p, weight); err != nil {
			return err
		}

		if st.profile().DynamicAttributes {
			if err := e.resolveAttributes(t.ctx, tx, batch, p); err != nil {
				return err
			}
		}
		if st.Pending.MergeWith != "" {
			if err := e.pair(t.ctx, tx, p, st.Pending.MergeWith); err != nil {
				return err
			}
		}
		if err := tx.SavePallet(t.ctx, p); err != nil {
			return err
		}

		if batch.QuickReceiveType.Active() || st.Route != nil {
			res, err := e.comp.QuickOutFinalize(t.ctx, tx, e.quickOut(st, batch, p, lot, weight))
			if err != nil {
				return err
			}
			loading = res.Loading
		}
		if st.Route != nil {
			if err := e.router.Reconcile(t.ctx, tx, batch, p, st.Route); err != nil {
				return err
			}
		}
		committed = p
		return nil
	})
	if err != nil {
		return "", err
	}

	e.logger.Info("Pallet received", "operator", st.OperatorID, "batch", batch.ID, "pallet", committed.ID, "quantity", committed.Quantity, "track_key", committed.TrackKey, "hold", committed.HoldCode)

	if st.profile().PrintLabel || st.facility().PrintLabels {
		if err := e.printer.PrintLabel(t.ctx, e.label(st, product, committed)); err != nil {
			e.logger.Error("Label print failed", "pallet", committed.ID, "err", err)
			t.warn("Label not printed for %s", committed.ID)
		}
	}
	if err := e.sessions.Delete(st.OperatorID, session.ContextCatchWeight); err != nil {
		return "", fmt.Errorf("failed to clear catch weight progress: %w", err)
	}

	st.Prior = &PriorPallet{
		PalletID:    committed.ID,
		ProductCode: st.ProductCode,
		PONumber:    st.PONumber,
		Tie:         st.Tie,
		High:        st.High,
		HPP:         st.HPP,
		Fields:      st.Fields,
	}
	st.Prior.Fields.Copied = nil
	st.PalletsDone++
	t.set("received_pallet", committed.ID)
	t.set("pallets_done", st.PalletsDone)
	st.ClearPallet()

	switch {
	case loading:
		if err := e.queueForLoading(t, committed.ID); err != nil {
			return "", err
		}
		return StepLoading, nil
	case st.quickReceiving():
		t.set("note", batch.QuickNote)
		return StepQuickNote, nil
	}
	return StepProduct, nil
}

// rollupLot adds the pallet to the batch lot of the same product, lot and
// code date, opening a new lot when there is none
func (e *Engine) rollupLot(ctx context.Context, tx repository.Store, batch *models.Batch, p *models.Pallet, product *models.Product, weight decimal.Decimal) (*models.InventoryLot, error) {
	lot, err := tx.FindLot(ctx, batch.ID, p.ProductCode, p.Lot, p.CodeDate)
	if err != nil {
		if !repository.IsNotFound(err) {
			return nil, err
		}
		lot = &models.InventoryLot{
			TrackKey:    "TK-" + uuid.New().String()[:8],
			BatchID:     batch.ID,
			ProductCode: p.ProductCode,
			Owner:       product.Owner,
			Lot:         p.Lot,
			CodeDate:    p.CodeDate,
			ReceivedAt:  e.clock.Now(),
		}
	}
	lot.Quantity += p.Quantity
	lot.Weight = lot.Weight.Add(weight)
	return lot, nil
}

func (e *Engine) rollupInbound(ctx context.Context, tx repository.Store, batch *models.Batch, lot *models.InventoryLot, p *models.Pallet, weight decimal.Decimal) error {
	in, err := tx.GetTransaction(ctx, lot.TrackKey, models.DirectionInbound)
	if err != nil {
		if !repository.IsNotFound(err) {
			return err
		}
		in = &models.InventoryTransaction{
			ID:        "TRX-" + uuid.New().String()[:8],
			TrackKey:  lot.TrackKey,
			BatchID:   batch.ID,
			Direction: models.DirectionInbound,
			StageDoor: batch.Door,
		}
	}
	in.PalletCount++
	in.Quantity += p.Quantity
	in.Weight = in.Weight.Add(weight)
	in.HoldCode = lot.HoldCode
	return tx.SaveTransaction(ctx, in)
}

// applyHolds puts the blast and HPP holds on the pallet. With stack holds
// the facility's hold routine issues the code.
func (e *Engine) applyHolds(ctx context.Context, tx repository.Store, st *State, p *models.Pallet, lot *models.InventoryLot) error {
	fac := st.facility()
	type want struct {
		kind models.HoldKind
		code string
	}
	var wants []want
	if p.Blast && fac.BlastHoldCode != "" {
		wants = append(wants, want{models.HoldKindBlast, fac.BlastHoldCode})
	}
	if p.HPP && fac.HPPHoldCode != "" {
		wants = append(wants, want{models.HoldKindHPP, fac.HPPHoldCode})
	}

	for _, w := range wants {
		code, external := w.code, false
		if fac.UseStackHold {
			out, err := tx.RunRoutine(ctx, repository.RoutineStackHoldCreate, repository.RoutineIO{
				"pallet_id": p.ID,
				"track_key": lot.TrackKey,
				"hold_code": w.code,
				"kind":      string(w.kind),
			})
			if err != nil {
				return err
			}
			if c := out.String("hold_code"); c != "" {
				code = c
			}
			external = true
		}
		err := tx.SaveHold(ctx, &models.Hold{
			ID:       "HLD-" + uuid.New().String()[:8],
			PalletID: p.ID,
			TrackKey: lot.TrackKey,
			Kind:     w.kind,
			Code:     code,
			External: external,
		})
		if err != nil {
			return err
		}
		if p.HoldCode == "" {
			p.HoldCode = code
		}
	}
	if lot.HoldCode == "" {
		lot.HoldCode = p.HoldCode
	}
	return nil
}

func (e *Engine) resolveAttributes(ctx context.Context, tx repository.Store, batch *models.Batch, p *models.Pallet) error {
	out, err := tx.RunRoutine(ctx, repository.RoutineDynamicAttributes, repository.RoutineIO{
		"batch_id":      batch.ID,
		"customer_code": batch.CustomerCode,
		"pallet_id":     p.ID,
		"product_code":  p.ProductCode,
	})
	if err != nil {
		return err
	}
	attrs, ok := out["attributes"]
	if !ok || attrs == nil {
		return nil
	}
	raw, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("invalid dynamic attributes: %w", err)
	}
	p.Attributes = string(raw)
	return nil
}

// pair links two merged pallets to each other
func (e *Engine) pair(ctx context.Context, tx repository.Store, p *models.Pallet, otherID string) error {
	other, err := tx.GetPallet(ctx, otherID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return err
	}
	id := p.ID
	other.PairedPalletID = &id
	p.PairedPalletID = &otherID
	return tx.SavePallet(ctx, other)
}

func (e *Engine) quickOut(st *State, batch *models.Batch, p *models.Pallet, lot *models.InventoryLot, weight decimal.Decimal) compensate.QuickOut {
	q := compensate.QuickOut{
		Batch:     batch,
		Pallet:    p,
		Lot:       lot,
		Weight:    weight,
		StageDoor: st.facility().DefaultStageDoor,
	}
	if batch.OutboundBatchID != nil {
		q.OutboundBatchID = *batch.OutboundBatchID
	}
	if st.Route != nil {
		q.OutboundBatchID = st.Route.OutboundBatchID
		q.StageDoor = st.Route.Destination
	}
	return q
}

func (e *Engine) label(st *State, product *models.Product, p *models.Pallet) printclient.Label {
	l := printclient.Label{
		PalletID:    p.ID,
		BatchID:     p.BatchID,
		ProductCode: p.ProductCode,
		Description: product.Description,
		Quantity:    p.Quantity,
		Lot:         p.Lot,
		HoldCode:    p.HoldCode,
		TerminalID:  st.TerminalID,
		PrintedAt:   e.clock.Now(),
	}
	if d, err := validation.ParseStored(p.CodeDate); err == nil {
		l.CodeDate = d.Format(validation.GregorianLayout)
	}
	if st.Route != nil {
		l.Destination = st.Route.Destination
	}
	return l
}
