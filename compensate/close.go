package compensate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ahmadzakiakmal/rf-receiving/repository"
	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
	"github.com/shopspring/decimal"
)

// TaskBatchClose is the task kind that runs CloseBatch in the background
const TaskBatchClose = "batch_close"

// CloseTask is the payload of a TaskBatchClose task
type CloseTask struct {
	BatchID    string    `json:"batch_id"`
	OperatorID string    `json:"operator_id"`
	ClosedAt   time.Time `json:"closed_at"`
}

// CloseDedupeKey collapses repeated close requests for one batch
func CloseDedupeKey(batchID string) string {
	return "close:" + batchID
}

// HandleCloseTask is the task queue handler for TaskBatchClose
func (m *Manager) HandleCloseTask(ctx context.Context, payload json.RawMessage) error {
	var task CloseTask
	if err := json.Unmarshal(payload, &task); err != nil {
		return fmt.Errorf("invalid close task: %w", err)
	}
	return m.CloseBatch(ctx, task.BatchID)
}

// CloseBatch marks every load of the batch's confirmation received, moves
// the confirmation finish forward, reconciles outbound stock of loads that
// feed an outbound batch, and runs the inbound auto-receive routine.
func (m *Manager) CloseBatch(ctx context.Context, batchID string) error {
	err := m.store.WithTx(ctx, func(tx repository.Store) error {
		batch, err := tx.GetBatch(ctx, batchID)
		if err != nil {
			return err
		}
		finish := m.clock.Now()
		if batch.FinishAt != nil && !batch.FinishAt.IsZero() {
			finish = *batch.FinishAt
		}

		loads, err := tx.ListBatchesByConfirmation(ctx, batch.ConfirmationNumber)
		if err != nil {
			return err
		}
		for i := range loads {
			load := &loads[i]
			if load.ScanStatus.IsOpen() {
				swapped, err := tx.SetBatchScanStatus(ctx, load.ID, load.Version, models.ScanStatusReceived, finish)
				if err != nil {
					return err
				}
				if !swapped {
					m.logger.Info("Load changed while closing, leaving its status", "batch", load.ID)
				}
			}
		}

		if err := m.advanceConfirmationFinish(ctx, tx, batch.ConfirmationNumber, finish); err != nil {
			return err
		}

		reconciled := map[string]bool{}
		for i := range loads {
			load := &loads[i]
			if load.OutboundBatchID == nil || load.Shipped || reconciled[*load.OutboundBatchID] {
				continue
			}
			reconciled[*load.OutboundBatchID] = true
			if err := m.ReconcileOutbound(ctx, tx, load); err != nil {
				return fmt.Errorf("outbound reconciliation of %s failed: %w", load.ID, err)
			}
		}

		_, err = tx.RunRoutine(ctx, repository.RoutineAutoReceiveInbound, repository.RoutineIO{
			"batch_id":            batch.ID,
			"confirmation_number": batch.ConfirmationNumber,
		})
		return err
	})
	if err != nil {
		m.logger.Error("Batch close failed", "batch", batchID, "err", err)
		return err
	}
	m.logger.Info("Batch closed", "batch", batchID)
	return nil
}

func (m *Manager) advanceConfirmationFinish(ctx context.Context, tx repository.Store, number string, finish time.Time) error {
	conf, err := tx.GetConfirmation(ctx, number)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return err
	}
	if conf.FinishAt != nil && !conf.FinishAt.Before(finish) {
		return nil
	}
	conf.FinishAt = &finish
	return tx.SaveConfirmation(ctx, conf)
}

// ReconcileOutbound recomputes every outbound transaction of the load's
// outbound batch from the committed pallets behind its track key, whichever
// load received them, and drops the ones with no pallet left.
func (m *Manager) ReconcileOutbound(ctx context.Context, tx repository.Store, load *models.Batch) error {
	outbound, err := tx.ListTransactions(ctx, *load.OutboundBatchID, models.DirectionOutbound)
	if err != nil {
		return err
	}

	products := map[string]*models.Product{}
	for i := range outbound {
		out := &outbound[i]
		pallets, err := tx.ListPallets(ctx, repository.PalletFilter{
			TrackKey:   out.TrackKey,
			RecordType: models.RecordTypeCommitted,
		})
		if err != nil {
			return err
		}

		count, qty, weight := 0, 0, decimal.Zero
		for j := range pallets {
			p := &pallets[j]
			product, ok := products[p.ProductCode]
			if !ok {
				product, err = tx.GetProduct(ctx, p.ProductCode)
				if err != nil && !repository.IsNotFound(err) {
					return err
				}
				products[p.ProductCode] = product
			}
			w, err := PalletWeight(ctx, tx, p, product)
			if err != nil {
				return err
			}
			count++
			qty += p.Quantity
			weight = weight.Add(w)
		}

		if count == 0 {
			if err := tx.DeleteTransaction(ctx, out.ID); err != nil {
				return err
			}
			continue
		}

		out.PalletCount, out.Quantity, out.Weight = count, qty, weight
		if out.StageDoor == "" && pallets[0].BatchID == load.ID {
			out.StageDoor = load.Door
		}
		if err := tx.SaveTransaction(ctx, out); err != nil {
			return err
		}
	}
	return nil
}
