package model

// Instrument identifies one tradeable scrip on an exchange.
type Instrument struct {
	Symbol   string `json:"symbol"` // trading symbol, e.g. "RELIANCE-EQ"
	Token    string `json:"token"`  // broker numeric token
	Exchange string `json:"exchange"`
	LotSize  int    `json:"lot_size,omitempty"`
	TickSize int64  `json:"tick_size,omitempty"` // minimum price movement in paise
}

// Key returns a unique key for this instrument: "exchange:token".
func (in Instrument) Key() string {
	return in.Exchange + ":" + in.Token
}
