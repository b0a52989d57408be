package receiving

import (
	"fmt"
	"strings"

	"github.com/ahmadzakiakmal/rf-receiving/repository"
	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
)

// onConfirmation accepts a batch id or a confirmation number; a confirmation
// opens its first load still open
func (e *Engine) onConfirmation(t *turn) (Step, error) {
	if t.value == "" {
		return "", inputErrorf("Confirmation # is required")
	}

	batch, err := e.store.GetBatch(t.ctx, t.value)
	if err != nil {
		if !repository.IsNotFound(err) {
			return "", fmt.Errorf("failed to read batch: %w", err)
		}
		batch, err = e.firstOpenLoad(t)
		if err != nil {
			return "", err
		}
	}
	if !batch.ScanStatus.IsOpen() {
		return "", inputErrorf("Batch %s is already closed", batch.ID)
	}

	st := t.st
	st.Reset()
	st.ConfirmationNumber = batch.ConfirmationNumber
	st.BatchID = batch.ID
	st.CustomerCode = batch.CustomerCode
	st.MultiReceiver = batch.MultiReceiver
	st.QuickReceiveType = batch.QuickReceiveType
	st.TruckToTruck = batch.TruckToTruck
	st.ScanStatus = batch.ScanStatus

	if err := e.loadProfile(t.ctx, st, batch); err != nil {
		return "", err
	}

	if batch.MultiReceiver {
		err := e.store.UpsertReceiver(t.ctx, &models.BatchReceiver{
			BatchID:    batch.ID,
			OperatorID: st.OperatorID,
			TerminalID: st.TerminalID,
			Active:     true,
		})
		if err != nil {
			return "", fmt.Errorf("failed to register receiver: %w", err)
		}
	}

	t.set("customer_code", batch.CustomerCode)
	t.set("confirmation_number", batch.ConfirmationNumber)
	if batch.QuickReceiveType.Active() {
		t.set("quick_receive_type", string(batch.QuickReceiveType))
	}
	e.logger.Info("Batch opened for receiving", "operator", st.OperatorID, "batch", batch.ID, "customer", batch.CustomerCode, "multi_receiver", batch.MultiReceiver)
	return StepProduct, nil
}

func (e *Engine) firstOpenLoad(t *turn) (*models.Batch, error) {
	loads, err := e.store.ListBatchesByConfirmation(t.ctx, t.value)
	if err != nil {
		return nil, fmt.Errorf("failed to read confirmation: %w", err)
	}
	if len(loads) == 0 {
		return nil, inputErrorf("Confirmation %s not found", t.value)
	}
	for i := range loads {
		if loads[i].ScanStatus.IsOpen() {
			return &loads[i], nil
		}
	}
	return nil, inputErrorf("Confirmation %s is already closed", t.value)
}

func (e *Engine) onProduct(t *turn) (Step, error) {
	if t.value == "" {
		return "", inputErrorf("Product is required")
	}
	batch, open, err := e.openBatch(t)
	if err != nil {
		return "", err
	}
	if !open {
		return StepClosedByOther, nil
	}

	product, err := e.store.GetProduct(t.ctx, strings.ToUpper(t.value))
	if err != nil {
		if repository.IsNotFound(err) {
			return "", inputErrorf("Product %s not found", t.value)
		}
		return "", fmt.Errorf("failed to read product: %w", err)
	}
	lines, err := e.store.ListPurchaseOrders(t.ctx, batch.ID, product.Code)
	if err != nil {
		return "", fmt.Errorf("failed to read purchase orders: %w", err)
	}
	if len(lines) == 0 {
		return "", inputErrorf("Product %s is not on batch %s", product.Code, batch.ID)
	}

	st := t.st
	st.ClearPallet()
	st.ProductCode = product.Code
	st.PONumber = ""
	st.Tie, st.High = product.Tie, product.High
	st.CatchWeight = product.CatchWeight
	st.HPP = product.HPPRequired

	t.set("description", product.Description)
	if len(lines) == 1 {
		t.set("po_number", lines[0].PONumber)
	}
	return StepPurchaseOrder, nil
}

// onPurchaseOrder takes the PO line; blank picks the only line there is
func (e *Engine) onPurchaseOrder(t *turn) (Step, error) {
	st := t.st
	lines, err := e.store.ListPurchaseOrders(t.ctx, st.BatchID, st.ProductCode)
	if err != nil {
		return "", fmt.Errorf("failed to read purchase orders: %w", err)
	}

	var line *models.PurchaseOrder
	switch {
	case t.value == "" && len(lines) == 1:
		line = &lines[0]
	case t.value == "":
		return "", inputErrorf("PO # is required")
	default:
		for i := range lines {
			if strings.EqualFold(lines[i].PONumber, t.value) {
				line = &lines[i]
				break
			}
		}
	}
	if line == nil {
		return "", inputErrorf("PO %s not found for product %s", t.value, st.ProductCode)
	}

	st.PONumber = line.PONumber
	t.set("expected_qty", line.ExpectedQty)
	return StepPalletID, nil
}

// onQuickNote acknowledges the advisory note and repeats the prior pallet
func (e *Engine) onQuickNote(t *turn) (Step, error) {
	_, open, err := e.openBatch(t)
	if err != nil {
		return "", err
	}
	if !open {
		return StepClosedByOther, nil
	}

	st := t.st
	if !st.copyPrior(true) {
		return StepProduct, nil
	}
	st.ProductCode = st.Prior.ProductCode
	st.PONumber = st.Prior.PONumber
	st.Fields.Quantity = st.Prior.Fields.Quantity
	return StepPalletID, nil
}

func (e *Engine) onPalletID(t *turn) (Step, error) {
	if t.value == "" {
		return "", inputErrorf("Pallet ID is required")
	}
	batch, open, err := e.openBatch(t)
	if err != nil {
		return "", err
	}
	if !open {
		return StepClosedByOther, nil
	}

	st := t.st
	id := strings.ToUpper(t.value)
	pallet, err := e.store.GetPallet(t.ctx, id)
	switch {
	case err == nil:
		if err := e.resumePallet(t, pallet); err != nil {
			return "", err
		}
	case repository.IsNotFound(err):
		err := e.store.CreatePallet(t.ctx, &models.Pallet{
			ID:          id,
			BatchID:     st.BatchID,
			ProductCode: st.ProductCode,
			PONumber:    st.PONumber,
			HPP:         st.HPP,
			MachineID:   st.MachineID,
			RecordType:  models.RecordTypeTemporary,
			ReceivedBy:  st.OperatorID,
		})
		if err != nil {
			if repository.IsPalletExists(err) {
				return "", dataErrorf(StepPalletID, "Pallet %s is already in use", id)
			}
			return "", fmt.Errorf("failed to create pallet: %w", err)
		}
		st.PalletID = id
		if st.UsedPriorCopy {
			if err := e.syncPallet(t); err != nil {
				return "", err
			}
		}
	default:
		return "", fmt.Errorf("failed to read pallet: %w", err)
	}

	route, err := e.router.Match(t.ctx, e.store, batch, st.ProductCode, st.Fields.Lot)
	if err != nil {
		return "", err
	}
	if route != nil {
		st.Route = route
		t.set("destination", route.Destination)
		t.set("destination_kind", route.DestinationKind)
		t.set("outbound_batch_id", route.OutboundBatchID)
		return StepCrossDockInfo, nil
	}

	if expected := st.Tie * st.High; expected > 0 {
		t.set("expected_qty", expected)
	}
	return StepQuantity, nil
}

// resumePallet picks a temporary pallet of this batch back up
func (e *Engine) resumePallet(t *turn, p *models.Pallet) error {
	st := t.st
	if p.BatchID != st.BatchID {
		return dataErrorf(StepPalletID, "Pallet %s belongs to batch %s", p.ID, p.BatchID)
	}
	if p.IsCommitted() {
		return dataErrorf(StepPalletID, "Pallet %s was already received", p.ID)
	}
	if p.ProductCode != "" && p.ProductCode != st.ProductCode {
		return dataErrorf(StepPalletID, "Pallet %s is for product %s", p.ID, p.ProductCode)
	}

	st.ClearPallet()
	st.PalletID = p.ID
	st.Fields = fieldsFromPallet(p)
	st.Pending.PalletType = p.PalletType
	t.warn("Resuming pallet %s", p.ID)
	e.logger.Info("Pallet resumed", "operator", st.OperatorID, "pallet", p.ID, "quantity", p.Quantity)
	return nil
}

func fieldsFromPallet(p *models.Pallet) Fields {
	f := Fields{
		Quantity:      p.Quantity,
		Lot:           p.Lot,
		CustomerLot:   p.CustomerLot,
		Establishment: p.Establishment,
		SlaughterDate: p.SlaughterDate,
		Reference:     p.Reference,
		Temperature:   p.Temperature,
		BestBefore:    p.CodeDate,
		Consignee:     p.Consignee,
	}
	if p.Blast {
		blast := true
		f.Blast = &blast
	}
	return f
}

// syncPallet writes the values collected so far to the temporary pallet row
// so the pallet can be resumed from another session
func (e *Engine) syncPallet(t *turn) error {
	st := t.st
	p, err := e.store.GetPallet(t.ctx, st.PalletID)
	if err != nil {
		if repository.IsNotFound(err) {
			return dataErrorf(StepPalletID, "Pallet %s no longer exists", st.PalletID)
		}
		return fmt.Errorf("failed to read pallet: %w", err)
	}
	applyFields(p, st)
	if err := e.store.SavePallet(t.ctx, p); err != nil {
		return fmt.Errorf("failed to save pallet: %w", err)
	}
	return nil
}

func applyFields(p *models.Pallet, st *State) {
	f := st.Fields
	p.ProductCode = st.ProductCode
	p.PONumber = st.PONumber
	p.Quantity = f.Quantity
	p.Blast = f.BlastRequested()
	p.HPP = st.HPP
	p.Lot = f.Lot
	p.CustomerLot = f.CustomerLot
	p.Establishment = f.Establishment
	p.SlaughterDate = f.SlaughterDate
	p.Reference = f.Reference
	p.Temperature = f.Temperature
	p.CodeDate = f.BestBefore
	p.Consignee = f.Consignee
	p.MachineID = st.MachineID
	p.PalletType = st.Pending.PalletType
	if st.Pending.PutawayDecided {
		p.Location = st.Pending.Location
	}
}
