// Package crossdock routes store-on-dock pallets to pre-advised outbound
// shipments instead of putaway.
package crossdock

import (
	"context"
	"fmt"
	"strings"

	"github.com/ahmadzakiakmal/rf-receiving/repository"
	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// Destination kinds
const (
	DestinationDoor  = "DOOR"
	DestinationStage = "STAGE"
)

// Route is where a matched pallet goes
type Route struct {
	OrderLineID     string `json:"order_line_id"`
	OutboundBatchID string `json:"outbound_batch_id"`
	Destination     string `json:"destination"`
	DestinationKind string `json:"destination_kind"`
	ScannedLocation string `json:"scanned_location,omitempty"`
	Exception       bool   `json:"exception,omitempty"`
}

// Router matches pallets against cross-dock orders
type Router struct {
	logger cmtlog.Logger
}

func NewRouter(logger cmtlog.Logger) *Router {
	return &Router{logger: logger.With("module", "crossdock")}
}

// Applies reports whether pallets of the batch are routed at all
func Applies(b *models.Batch) bool {
	return b != nil && b.QuickReceiveType == models.QuickReceiveStoreDock
}

// Match looks for an unshipped order line of the batch's confirmation for the
// product and customer. An empty lot on either side matches any lot.
// A nil route means the pallet takes the standard path.
func (r *Router) Match(ctx context.Context, store repository.Store, b *models.Batch, productCode, lot string) (*Route, error) {
	if !Applies(b) {
		return nil, nil
	}
	orders, err := store.FindCrossDockOrders(ctx, b.ConfirmationNumber, productCode, b.CustomerCode)
	if err != nil {
		return nil, fmt.Errorf("failed to look up cross-dock orders: %w", err)
	}

	for _, o := range orders {
		if lot != "" && o.Lot != "" && !strings.EqualFold(o.Lot, lot) {
			continue
		}
		route := &Route{OrderLineID: o.ID, OutboundBatchID: o.OutboundBatchID}
		if o.Door != "" {
			route.Destination, route.DestinationKind = o.Door, DestinationDoor
		} else {
			route.Destination, route.DestinationKind = o.StageDoor, DestinationStage
		}
		r.logger.Info("Pallet routed to cross-dock", "batch", b.ID, "product", productCode, "order_line", o.ID, "destination", route.Destination)
		return route, nil
	}

	r.logger.Debug("No cross-dock order matched", "batch", b.ID, "product", productCode, "lot", lot)
	return nil, nil
}

// LocationMatches compares a scanned location with the route destination
func (r *Route) LocationMatches(scanned string) bool {
	return strings.EqualFold(strings.TrimSpace(scanned), r.Destination)
}
