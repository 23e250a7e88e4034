// Package execution handles order placement, modification, and
// cancellation through the broker API, plus the SQLite trade journal.
//
// The live implementation sits behind the rate-limited SmartConnect
// command queue; PaperExecutor simulates fills in-process so the full
// lifecycle can run without a broker session.
package execution

import (
	"context"

	"swing-traderv1/internal/model"
)

// OrderExecutor is the execution collaborator: the only way orders leave
// the process. The auto-trader's command queue is its sole live caller.
type OrderExecutor interface {
	// PlaceOrder submits an order and returns the broker order id.
	PlaceOrder(ctx context.Context, spec model.OrderSpec) (string, error)

	// ModifyOrder updates price/trigger/qty on a pending order.
	ModifyOrder(ctx context.Context, orderID string, spec model.OrderSpec) error

	// CancelOrder cancels a pending order.
	CancelOrder(ctx context.Context, orderID, variety string) error
}
