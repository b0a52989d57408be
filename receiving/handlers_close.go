package receiving

import (
	"fmt"
	"strings"
	"time"

	"github.com/ahmadzakiakmal/rf-receiving/compensate"
	"github.com/ahmadzakiakmal/rf-receiving/repository"
	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
	"github.com/ahmadzakiakmal/rf-receiving/session"
)

// LoadingState is the truck-to-truck sub-flow of an operator
type LoadingState struct {
	Door    string         `json:"door,omitempty"`
	Pending []string       `json:"pending,omitempty"`
	Loaded  []LoadedPallet `json:"loaded,omitempty"`
}

// LoadedPallet is a pallet moved straight onto an outbound trailer
type LoadedPallet struct {
	PalletID string    `json:"pallet_id"`
	Door     string    `json:"door"`
	At       time.Time `json:"at"`
}

// requestClose is F4: ask for a close, for everyone on a multi-receiver batch
func (e *Engine) requestClose(t *turn) (Step, error) {
	_, open, err := e.openBatch(t)
	if err != nil {
		return "", err
	}
	if !open {
		return StepClosedByOther, nil
	}
	if t.st.MultiReceiver {
		return StepCloseAll, nil
	}
	return StepCloseSingle, nil
}

// closeForAll is F7: close the batch without asking the other receivers
func (e *Engine) closeForAll(t *turn) (Step, error) {
	return e.closeBatch(t)
}

func (e *Engine) onCloseSingle(t *turn) (Step, error) {
	yes, err := parseYesNo(t.value)
	if err != nil {
		return "", err
	}
	if !yes {
		return e.backToEntry(t)
	}
	return e.closeBatch(t)
}

// onCloseAll: Y closes for everyone; N signs this receiver off and closes
// only once nobody else is still receiving
func (e *Engine) onCloseAll(t *turn) (Step, error) {
	yes, err := parseYesNo(t.value)
	if err != nil {
		return "", err
	}
	if yes {
		return e.closeBatch(t)
	}

	if err := e.setReceiverActive(t, false); err != nil {
		return "", err
	}
	others, err := e.othersActive(t)
	if err != nil {
		return "", err
	}
	if len(others) > 0 {
		t.set("waiting_on", others)
		return StepWaitingOther, nil
	}
	return e.closeBatch(t)
}

func (e *Engine) onWaitingOther(t *turn) (Step, error) {
	_, open, err := e.openBatch(t)
	if err != nil {
		return "", err
	}
	if !open {
		return StepClosedByOther, nil
	}
	others, err := e.othersActive(t)
	if err != nil {
		return "", err
	}
	if len(others) > 0 {
		t.set("waiting_on", others)
		return StepWaitingOther, nil
	}
	return e.closeBatch(t)
}

// onClosedByOther acknowledges a batch closed elsewhere and starts over
func (e *Engine) onClosedByOther(t *turn) (Step, error) {
	if err := e.dropOpenPallet(t); err != nil {
		return "", err
	}
	t.st.Reset()
	return StepConfirmation, nil
}

// closeBatch flips the batch to received with a compare-and-swap on its
// version and leaves the rest of the close to a background task. Losing
// the swap means another receiver closed first.
func (e *Engine) closeBatch(t *turn) (Step, error) {
	st := t.st
	batch, open, err := e.openBatch(t)
	if err != nil {
		return "", err
	}
	if !open {
		return StepClosedByOther, nil
	}
	if err := e.dropOpenPallet(t); err != nil {
		return "", err
	}

	now := e.clock.Now()
	swapped, err := e.store.SetBatchScanStatus(t.ctx, batch.ID, batch.Version, models.ScanStatusReceived, now)
	if err != nil {
		return "", fmt.Errorf("failed to close batch: %w", err)
	}
	if !swapped {
		e.logger.Info("Batch close lost to another receiver", "operator", st.OperatorID, "batch", batch.ID)
		return StepClosedByOther, nil
	}

	task := compensate.CloseTask{BatchID: batch.ID, OperatorID: st.OperatorID, ClosedAt: now}
	if _, err := e.tasks.Enqueue(t.ctx, compensate.TaskBatchClose, compensate.CloseDedupeKey(batch.ID), task); err != nil {
		var finish time.Time
		if batch.FinishAt != nil {
			finish = *batch.FinishAt
		}
		if _, revertErr := e.store.SetBatchScanStatus(t.ctx, batch.ID, batch.Version+1, models.ScanStatusOpen, finish); revertErr != nil {
			e.logger.Error("Failed to reopen batch after enqueue failure", "batch", batch.ID, "err", revertErr)
		}
		return "", fmt.Errorf("failed to queue batch close: %w", err)
	}

	if st.MultiReceiver {
		if err := e.setReceiverActive(t, false); err != nil {
			e.logger.Error("Failed to sign receiver off", "operator", st.OperatorID, "batch", batch.ID, "err", err)
		}
	}
	if err := e.sessions.Delete(st.OperatorID, session.ContextLoading); err != nil {
		return "", err
	}

	t.set("closed_batch", batch.ID)
	e.logger.Info("Batch closed for receiving", "operator", st.OperatorID, "batch", batch.ID, "confirmation", batch.ConfirmationNumber)
	return StepBatchClosed, nil
}

// exit is F3: leave receiving, dropping a pallet that never got a quantity
func (e *Engine) exit(t *turn) (Step, error) {
	st := t.st
	if err := e.dropOpenPallet(t); err != nil {
		return "", err
	}
	if st.MultiReceiver && st.BatchID != "" {
		if err := e.setReceiverActive(t, false); err != nil {
			return "", err
		}
	}
	return StepExit, nil
}

// onLoading takes the trailer door the queued pallets were loaded onto
func (e *Engine) onLoading(t *turn) (Step, error) {
	st := t.st
	code := strings.ToUpper(t.value)
	if code == "" {
		return "", inputErrorf("Trailer door is required")
	}
	loc, err := e.store.GetLocation(t.ctx, code)
	if err != nil {
		if repository.IsNotFound(err) {
			return "", inputErrorf("Door %s not found", code)
		}
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	if loc.Kind != "DOOR" {
		return "", inputErrorf("%s is not a door", code)
	}

	now := e.clock.Now()
	var loaded int
	err = session.Update(e.sessions, st.OperatorID, session.ContextLoading, func(ls *LoadingState) (bool, error) {
		ls.Door = loc.Code
		for _, id := range ls.Pending {
			ls.Loaded = append(ls.Loaded, LoadedPallet{PalletID: id, Door: loc.Code, At: now})
		}
		loaded = len(ls.Pending)
		ls.Pending = nil
		return true, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to update loading: %w", err)
	}
	e.logger.Info("Pallets loaded", "operator", st.OperatorID, "door", loc.Code, "pallets", loaded)
	t.set("loaded", loaded)
	return e.backToEntry(t)
}

func (e *Engine) queueForLoading(t *turn, palletID string) error {
	var pending []string
	err := session.Update(e.sessions, t.st.OperatorID, session.ContextLoading, func(ls *LoadingState) (bool, error) {
		ls.Pending = append(ls.Pending, palletID)
		pending = ls.Pending
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("failed to queue pallet for loading: %w", err)
	}
	t.set("loading_pallets", pending)
	return nil
}

// backToEntry is the screen that starts the next pallet
func (e *Engine) backToEntry(t *turn) (Step, error) {
	if !t.st.quickReceiving() {
		return StepProduct, nil
	}
	batch, err := e.store.GetBatch(t.ctx, t.st.BatchID)
	if err != nil {
		return "", fmt.Errorf("failed to read batch: %w", err)
	}
	t.set("note", batch.QuickNote)
	return StepQuickNote, nil
}

// dropOpenPallet cancels a pallet under construction that has no quantity;
// one with a quantity stays temporary so it can be resumed
func (e *Engine) dropOpenPallet(t *turn) error {
	st := t.st
	if !st.HasPallet() {
		return nil
	}
	if st.Fields.Quantity == 0 {
		if _, err := e.comp.CancelPallet(t.ctx, st.PalletID); err != nil {
			return err
		}
	}
	st.ClearPallet()
	return nil
}

func (e *Engine) setReceiverActive(t *turn, active bool) error {
	st := t.st
	err := e.store.UpsertReceiver(t.ctx, &models.BatchReceiver{
		BatchID:    st.BatchID,
		OperatorID: st.OperatorID,
		TerminalID: st.TerminalID,
		Active:     active,
	})
	if err != nil {
		return fmt.Errorf("failed to update receiver: %w", err)
	}
	return nil
}

// othersActive lists the other operators still receiving the batch
func (e *Engine) othersActive(t *turn) ([]string, error) {
	receivers, err := e.store.ListReceivers(t.ctx, t.st.BatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to read receivers: %w", err)
	}
	var others []string
	for _, r := range receivers {
		if r.Active && r.OperatorID != t.st.OperatorID {
			others = append(others, r.OperatorID)
		}
	}
	return others, nil
}
