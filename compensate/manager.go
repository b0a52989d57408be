// Package compensate undoes and reconciles inventory rows: cancelling a
// pallet, closing a batch, and linking quick-receive pallets to outbound
// stock. Every operation tolerates being applied more than once.
package compensate

import (
	"context"
	"fmt"

	"github.com/ahmadzakiakmal/rf-receiving/repository"
	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/shopspring/decimal"
	"k8s.io/utils/clock"
)

// Manager runs the compensating transactions against a store
type Manager struct {
	store  repository.Store
	clock  clock.PassiveClock
	logger cmtlog.Logger
}

func NewManager(store repository.Store, clk clock.PassiveClock, logger cmtlog.Logger) *Manager {
	return &Manager{store: store, clock: clk, logger: logger.With("module", "compensate")}
}

// PalletWeight is the summed catch weights of a catch-weight product, or
// tare x quantity otherwise
func PalletWeight(ctx context.Context, store repository.Store, pallet *models.Pallet, product *models.Product) (decimal.Decimal, error) {
	if product != nil && product.CatchWeight {
		details, err := store.ListPalletDetails(ctx, pallet.ID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to load catch weights: %w", err)
		}
		total := decimal.Zero
		for _, d := range details {
			total = total.Add(d.Weight)
		}
		return total, nil
	}
	if product == nil {
		return decimal.Zero, nil
	}
	return product.TareWeight.Mul(decimal.NewFromInt(int64(pallet.Quantity))), nil
}
