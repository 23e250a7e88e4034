package execution

import (
	"context"
	"fmt"
	"strconv"

	"swing-traderv1/internal/model"
	"swing-traderv1/pkg/smartconnect"
)

// LiveExecutor places real orders through the SmartConnect client. Every
// call goes via the rate-limited command queue, which owns the session
// renewal retry.
type LiveExecutor struct {
	client *smartconnect.SmartConnect
	queue  *smartconnect.Queue
}

// NewLiveExecutor wires the client behind its command queue.
func NewLiveExecutor(client *smartconnect.SmartConnect, queue *smartconnect.Queue) *LiveExecutor {
	return &LiveExecutor{client: client, queue: queue}
}

// PlaceOrder submits an order and returns the broker order id.
func (e *LiveExecutor) PlaceOrder(ctx context.Context, spec model.OrderSpec) (string, error) {
	params, err := orderParams(spec)
	if err != nil {
		return "", err
	}
	var orderID string
	err = e.queue.Do(ctx, func() error {
		id, perr := e.client.PlaceOrder(params)
		if perr != nil {
			return perr
		}
		orderID = id
		return nil
	})
	return orderID, err
}

// ModifyOrder amends a pending order.
func (e *LiveExecutor) ModifyOrder(ctx context.Context, orderID string, spec model.OrderSpec) error {
	params, err := orderParams(spec)
	if err != nil {
		return err
	}
	params.OrderID = orderID
	return e.queue.Do(ctx, func() error {
		return e.client.ModifyOrder(params)
	})
}

// CancelOrder cancels a pending order.
func (e *LiveExecutor) CancelOrder(ctx context.Context, orderID, variety string) error {
	return e.queue.Do(ctx, func() error {
		return e.client.CancelOrder(orderID, variety)
	})
}

// orderParams translates the internal spec into the broker payload.
// Prices cross the boundary as rupee strings with two decimals.
func orderParams(spec model.OrderSpec) (smartconnect.OrderParams, error) {
	if spec.Qty <= 0 {
		return smartconnect.OrderParams{}, fmt.Errorf("live: invalid qty %d for %s", spec.Qty, spec.Symbol)
	}
	p := smartconnect.OrderParams{
		Variety:         spec.Variety,
		TradingSymbol:   spec.Symbol,
		SymbolToken:     spec.Token,
		TransactionType: spec.Side,
		Exchange:        spec.Exchange,
		OrderType:       spec.OrderType,
		ProductType:     spec.ProductType,
		Duration:        "DAY",
		Quantity:        strconv.FormatInt(spec.Qty, 10),
	}
	if spec.OrderType == model.OrderTypeMarket {
		p.Price = "0"
	} else {
		p.Price = rupeeString(spec.Price)
	}
	if spec.TriggerPrice > 0 {
		p.TriggerPrice = rupeeString(spec.TriggerPrice)
	}
	return p, nil
}

func rupeeString(paise int64) string {
	return strconv.FormatFloat(model.Rupees(paise), 'f', 2, 64)
}
