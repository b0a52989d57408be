package receiving

import (
	"context"
	"fmt"

	"github.com/ahmadzakiakmal/rf-receiving/repository"
	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
)

// loadProfile snapshots the customer's requirement profile and the
// facility settings into the session
func (e *Engine) loadProfile(ctx context.Context, st *State, batch *models.Batch) error {
	profile, err := e.store.GetRequirementProfile(ctx, batch.CustomerCode)
	if err != nil {
		if repository.IsNotFound(err) {
			return inputErrorf("No receiving profile for customer %s", batch.CustomerCode)
		}
		return fmt.Errorf("failed to load requirement profile: %w", err)
	}

	facility := batch.Facility
	if facility == "" {
		facility = st.Facility
	}
	fac, err := e.store.GetFacilityConfig(ctx, facility)
	if err != nil {
		if !repository.IsNotFound(err) {
			return fmt.Errorf("failed to load facility config: %w", err)
		}
		fac = &models.FacilityConfig{Facility: facility}
	}

	st.Profile = profile
	st.FacilityConfig = fac
	if st.Facility == "" {
		st.Facility = facility
	}
	return nil
}

func (st *State) profile() *models.RequirementProfile {
	if st.Profile == nil {
		return &models.RequirementProfile{}
	}
	return st.Profile
}

func (st *State) facility() *models.FacilityConfig {
	if st.FacilityConfig == nil {
		return &models.FacilityConfig{Facility: st.Facility}
	}
	return st.FacilityConfig
}

// openBatch re-reads the batch so a close by another receiver is noticed
func (e *Engine) openBatch(t *turn) (*models.Batch, bool, error) {
	batch, err := e.store.GetBatch(t.ctx, t.st.BatchID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read batch %s: %w", t.st.BatchID, err)
	}
	t.st.ScanStatus = batch.ScanStatus
	return batch, batch.ScanStatus.IsOpen(), nil
}
