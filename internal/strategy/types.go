// Package strategy evaluates a panel of independent, declarative trading
// strategies against an indicator snapshot and selects a single primary
// recommendation.
//
// Each strategy is a registry descriptor: a setup predicate plus
// deterministic level formulas and a fixed confidence weight. Strategies
// never see each other's conclusions, so results are reproducible and the
// panel can grow or shrink without side effects.
package strategy

import (
	"time"
)

// Signal is a strategy's directional verdict.
type Signal string

const (
	SignalBuy     Signal = "BUY"
	SignalSell    Signal = "SELL"
	SignalNoTrade Signal = "NO-TRADE"
)

// MarketCondition classifies the broad trend from the EMA stack.
type MarketCondition string

const (
	ConditionUptrend    MarketCondition = "UPTREND"
	ConditionDowntrend  MarketCondition = "DOWNTREND"
	ConditionRangeBound MarketCondition = "RANGE-BOUND"
)

// Evaluation is one strategy's result for one analysis call. Ephemeral:
// recomputed each call, never persisted by the engine itself.
// QualityScore and Confidence are only meaningful when IsValid is true;
// invalid evaluations must not be ranked against valid ones.
type Evaluation struct {
	StrategyName    string     `json:"strategy_name"`
	IsValid         bool       `json:"is_valid"`
	Signal          Signal     `json:"signal"`
	IdealEntryRange [2]float64 `json:"ideal_entry_range"`
	StopLoss        float64    `json:"stop_loss"`
	TargetPrices    []float64  `json:"target_prices"`
	RiskReward      float64    `json:"risk_reward_ratio"`
	QualityScore    float64    `json:"quality_score"`
	Confidence      float64    `json:"confidence"`
	Notes           string     `json:"notes"`
}

// Primary is the single selected recommendation: the engine's output
// contract, or a synthetic "No Trade Setup" / "Safety Lock" value.
type Primary struct {
	StrategyName    string    `json:"strategy_name"`
	Signal          Signal    `json:"signal"`
	IdealEntryRange []float64 `json:"ideal_entry_range"`
	StopLoss        float64   `json:"stop_loss"`
	TargetPrices    []float64 `json:"target_prices"`
	RiskReward      float64   `json:"risk_reward_ratio"`
	Confidence      float64   `json:"confidence"`
	Reason          string    `json:"reason"`
}

// Technicals is the rounded indicator summary published with a result.
type Technicals struct {
	RSI          float64 `json:"rsi"`
	ADX          float64 `json:"adx"`
	MACD         string  `json:"macd"` // BULLISH or BEARISH
	EMA20        float64 `json:"ema_20"`
	EMA50        float64 `json:"ema_50"`
	EMA200       float64 `json:"ema_200"`
	Support      float64 `json:"support"`
	Resistance   float64 `json:"resistance"`
	VolumeStatus string  `json:"volume_status"` // HIGH or AVERAGE
	ATR14        float64 `json:"atr14"`
}

// Result is the full analysis output for one symbol.
type Result struct {
	Symbol          string          `json:"symbol"`
	Timeframe       string          `json:"timeframe"`
	MarketCondition MarketCondition `json:"market_condition"`
	CurrentPrice    float64         `json:"current_price"`
	PreviousClose   float64         `json:"previous_close"`
	DataTimestamp   time.Time       `json:"data_timestamp"`
	Technicals      Technicals      `json:"technicals"`
	Strategies      []Evaluation    `json:"strategies_evaluated"`
	Primary         Primary         `json:"primary_recommendation"`
	Disclaimer      string          `json:"disclaimer"`
}
