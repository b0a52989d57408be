package crossdock

import (
	"context"
	"fmt"

	"github.com/ahmadzakiakmal/rf-receiving/repository"
	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
)

// Reconcile posts a cross-docked pallet through the auto-receive routine,
// marks its inbound transaction shipped, and flips every load of the
// confirmation to shipped once all of their inbound transactions are.
// Loads without inbound transactions are skipped.
func (r *Router) Reconcile(ctx context.Context, store repository.Store, b *models.Batch, pallet *models.Pallet, route *Route) error {
	_, err := store.RunRoutine(ctx, repository.RoutineAutoReceiveCrossDock, repository.RoutineIO{
		"batch_id":          b.ID,
		"pallet_id":         pallet.ID,
		"track_key":         pallet.TrackKey,
		"order_line_id":     route.OrderLineID,
		"outbound_batch_id": route.OutboundBatchID,
		"destination":       route.Destination,
	})
	if err != nil {
		return fmt.Errorf("auto receive cross-dock failed: %w", err)
	}

	inbound, err := store.GetTransaction(ctx, pallet.TrackKey, models.DirectionInbound)
	if err != nil {
		return fmt.Errorf("failed to load inbound transaction: %w", err)
	}
	if !inbound.Shipped {
		inbound.Shipped = true
		if err := store.SaveTransaction(ctx, inbound); err != nil {
			return err
		}
	}

	loads, err := store.ListBatchesByConfirmation(ctx, b.ConfirmationNumber)
	if err != nil {
		return err
	}
	// a load with nothing received does not hold the others back
	for _, load := range loads {
		txs, err := store.ListTransactions(ctx, load.ID, models.DirectionInbound)
		if err != nil {
			return err
		}
		for _, tx := range txs {
			if !tx.Shipped {
				return nil
			}
		}
	}

	for _, load := range loads {
		if load.Shipped {
			continue
		}
		if err := store.SetBatchShipped(ctx, load.ID, true); err != nil {
			return err
		}
	}
	orders, err := store.ListCrossDockOrders(ctx, b.ConfirmationNumber)
	if err != nil {
		return err
	}
	for i := range orders {
		if orders[i].Shipped {
			continue
		}
		orders[i].Shipped = true
		if err := store.SaveCrossDockOrder(ctx, &orders[i]); err != nil {
			return err
		}
	}
	r.logger.Info("Confirmation fully shipped", "confirmation", b.ConfirmationNumber)
	return nil
}
