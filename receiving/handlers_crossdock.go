package receiving

import (
	"fmt"
	"strings"

	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
	"github.com/google/uuid"
)

// onCrossDockInfo acknowledges the cross-dock destination message
func (e *Engine) onCrossDockInfo(t *turn) (Step, error) {
	st := t.st
	if st.Route == nil {
		return e.afterCrossDock(t)
	}
	if st.facility().ConfirmCrossDockLocation {
		t.set("destination", st.Route.Destination)
		return StepCrossDockLocation, nil
	}
	return e.afterCrossDock(t)
}

// onCrossDockLocation checks the scanned location against the destination
func (e *Engine) onCrossDockLocation(t *turn) (Step, error) {
	st := t.st
	if t.value == "" {
		return "", inputErrorf("Location is required")
	}
	if st.Route == nil {
		return e.afterCrossDock(t)
	}
	st.Route.ScannedLocation = strings.ToUpper(t.value)
	if st.Route.LocationMatches(t.value) {
		return e.afterCrossDock(t)
	}
	t.set("expected_location", st.Route.Destination)
	t.set("scanned_location", st.Route.ScannedLocation)
	return StepCrossDockException, nil
}

// onCrossDockException records why the pallet went to the wrong location
func (e *Engine) onCrossDockException(t *turn) (Step, error) {
	st := t.st
	if t.value == "" {
		return "", inputErrorf("Reason code is required")
	}
	if limit := maxLength(StepCrossDockException); len(t.value) > limit {
		return "", inputErrorf("Reason code is longer than %d characters", limit)
	}
	if st.Route == nil {
		return e.afterCrossDock(t)
	}

	err := e.store.SaveException(t.ctx, &models.InventoryException{
		ID:               "EXC-" + uuid.New().String()[:8],
		PalletID:         st.PalletID,
		BatchID:          st.BatchID,
		ExpectedLocation: st.Route.Destination,
		ScannedLocation:  st.Route.ScannedLocation,
		ReasonCode:       strings.ToUpper(t.value),
		OperatorID:       st.OperatorID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to save inventory exception: %w", err)
	}
	st.Route.Exception = true
	e.logger.Info("Cross-dock location exception", "pallet", st.PalletID, "expected", st.Route.Destination, "scanned", st.Route.ScannedLocation)
	return e.afterCrossDock(t)
}

// afterCrossDock continues a routed pallet: quantity when unknown, then the
// usual attribute and commit path
func (e *Engine) afterCrossDock(t *turn) (Step, error) {
	if t.st.Fields.Quantity <= 0 {
		return StepQuantity, nil
	}
	return e.advance(t)
}
