package model

import "time"

// Order sides and types as the broker API expects them.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"

	OrderTypeMarket   = "MARKET"
	OrderTypeLimit    = "LIMIT"
	OrderTypeStopLoss = "STOPLOSS_LIMIT"

	VarietyNormal   = "NORMAL"
	VarietyStopLoss = "STOPLOSS"

	ProductDelivery = "DELIVERY"
	ProductIntraday = "INTRADAY"
)

// OrderSpec describes an order to be placed with the execution collaborator.
type OrderSpec struct {
	Symbol       string `json:"symbol"`
	Token        string `json:"token"`
	Exchange     string `json:"exchange"`
	Side         string `json:"side"`       // BUY, SELL
	OrderType    string `json:"order_type"` // MARKET, LIMIT, STOPLOSS_LIMIT
	Variety      string `json:"variety"`    // NORMAL, STOPLOSS
	ProductType  string `json:"product_type"`
	Qty          int64  `json:"qty"`
	Price        int64  `json:"price"`         // limit price in paise (0 for market)
	TriggerPrice int64  `json:"trigger_price"` // stop trigger in paise
}

// Order is the broker's view of a placed order.
type Order struct {
	OrderID   string    `json:"order_id"`
	Spec      OrderSpec `json:"spec"`
	Status    string    `json:"status"` // PLACED, OPEN, COMPLETE, REJECTED, CANCELLED
	FilledQty int64     `json:"filled_qty"`
	AvgPrice  int64     `json:"avg_price"` // fill average in paise
	UpdatedAt time.Time `json:"updated_at"`
}
