package execution

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"swing-traderv1/internal/model"
)

// PaperExecutor simulates order execution without real broker calls.
// Market orders fill immediately at the spec's reference price with
// configurable slippage; stop orders rest until cancelled or modified.
type PaperExecutor struct {
	mu       sync.RWMutex
	orders   map[string]model.Order
	orderSeq int64

	slippageBps int64 // basis points of slippage (e.g., 5 = 0.05%)
}

// NewPaperExecutor creates a paper trading executor.
func NewPaperExecutor(slippageBps int64) *PaperExecutor {
	return &PaperExecutor{
		orders:      make(map[string]model.Order),
		slippageBps: slippageBps,
	}
}

// PlaceOrder simulates submission. Market orders fill at the reference
// price adjusted by slippage; stop-loss orders rest as OPEN.
func (p *PaperExecutor) PlaceOrder(_ context.Context, spec model.OrderSpec) (string, error) {
	if spec.Qty <= 0 {
		return "", fmt.Errorf("paper: invalid qty %d", spec.Qty)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.orderSeq++
	orderID := fmt.Sprintf("PAPER-%d", p.orderSeq)

	ord := model.Order{
		OrderID:   orderID,
		Spec:      spec,
		Status:    "OPEN",
		UpdatedAt: time.Now(),
	}

	if spec.OrderType == model.OrderTypeMarket {
		fillPrice := spec.Price
		slip := fillPrice * p.slippageBps / 10000
		if spec.Side == model.SideBuy {
			fillPrice += slip // buy higher
		} else {
			fillPrice -= slip // sell lower
		}
		ord.Status = "COMPLETE"
		ord.FilledQty = spec.Qty
		ord.AvgPrice = fillPrice
	}

	p.orders[orderID] = ord
	log.Printf("[paper] %s %s %s:%s qty=%d price=%d status=%s order=%s",
		spec.Side, spec.OrderType, spec.Exchange, spec.Token,
		spec.Qty, ord.AvgPrice, ord.Status, orderID)
	return orderID, nil
}

// ModifyOrder updates a resting order's spec.
func (p *PaperExecutor) ModifyOrder(_ context.Context, orderID string, spec model.OrderSpec) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ord, ok := p.orders[orderID]
	if !ok {
		return fmt.Errorf("paper: unknown order %s", orderID)
	}
	if ord.Status != "OPEN" {
		return fmt.Errorf("paper: order %s is %s, cannot modify", orderID, ord.Status)
	}
	ord.Spec = spec
	ord.UpdatedAt = time.Now()
	p.orders[orderID] = ord
	return nil
}

// CancelOrder cancels a resting order.
func (p *PaperExecutor) CancelOrder(_ context.Context, orderID, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ord, ok := p.orders[orderID]
	if !ok {
		return fmt.Errorf("paper: unknown order %s", orderID)
	}
	ord.Status = "CANCELLED"
	ord.UpdatedAt = time.Now()
	p.orders[orderID] = ord
	return nil
}

// Order returns a snapshot of one order.
func (p *PaperExecutor) Order(orderID string) (model.Order, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ord, ok := p.orders[orderID]
	return ord, ok
}

// Orders returns a snapshot of all orders.
func (p *PaperExecutor) Orders() []model.Order {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]model.Order, 0, len(p.orders))
	for _, o := range p.orders {
		out = append(out, o)
	}
	return out
}
