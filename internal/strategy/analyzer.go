package strategy

import (
	"fmt"

	"swing-traderv1/internal/model"
	"swing-traderv1/internal/safety"
)

const disclaimer = "Algorithmic Analysis. Verify before trading. Not investment advice."

// Analyze runs the full pipeline for one symbol: series validation,
// safety gate, indicator snapshot, the strategy panel, and primary
// selection. Pure per call: identical input yields an identical result,
// and concurrent calls for different symbols need no coordination.
//
// Returns an error (wrapping model.ErrInsufficientData) below the 60-bar
// warm-up floor; a safety rejection is not an error but a NO-TRADE result.
func Analyze(symbol string, s model.Series, exchange string) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("analyze %s: %w", symbol, err)
	}

	if rej := safety.Check(s, exchange); rej != nil {
		return rejectionResult(symbol, s, rej), nil
	}

	ctx := NewContext(s)
	price := ctx.Price()

	evals := make([]Evaluation, 0, len(Registry()))
	for _, d := range Registry() {
		evals = append(evals, buildEvaluation(d, d.Evaluate(ctx), price))
	}

	primary := selectPrimary(evals)

	volumeStatus := "AVERAGE"
	if ctx.Snap.VolumeSpike {
		volumeStatus = "HIGH"
	}
	macdBias := "BEARISH"
	if ctx.Snap.MACD.Line > ctx.Snap.MACD.Signal {
		macdBias = "BULLISH"
	}

	return &Result{
		Symbol:          symbol,
		Timeframe:       "Daily",
		MarketCondition: ctx.Condition,
		CurrentPrice:    price,
		PreviousClose:   ctx.Snap.PrevClose,
		DataTimestamp:   s.Last().Date,
		Technicals: Technicals{
			RSI:          model.RoundRupees(ctx.Snap.RSI),
			ADX:          model.RoundRupees(ctx.Snap.ADX),
			MACD:         macdBias,
			EMA20:        model.RoundRupees(ctx.Snap.EMA20),
			EMA50:        model.RoundRupees(ctx.Snap.EMA50),
			EMA200:       model.RoundRupees(ctx.Snap.EMA200),
			Support:      model.RoundRupees(ctx.Snap.Support),
			Resistance:   model.RoundRupees(ctx.Snap.Resistance),
			VolumeStatus: volumeStatus,
			ATR14:        model.RoundRupees(ctx.Snap.ATR),
		},
		Strategies: evals,
		Primary:    primary,
		Disclaimer: disclaimer,
	}, nil
}

// buildEvaluation turns a descriptor outcome into the published form:
// signal derived from validity, invalid panel entries pinned at quality
// 0.3 / confidence 0, price levels rounded here and only here.
func buildEvaluation(d Descriptor, out Outcome, price float64) Evaluation {
	signal := SignalNoTrade
	quality := 0.3
	confidence := 0.0
	if out.Valid {
		signal = SignalBuy
		quality = out.Confidence
		confidence = out.Confidence
	}

	targets := make([]float64, len(out.Targets))
	for i, t := range out.Targets {
		targets[i] = model.RoundRupees(t)
	}

	return Evaluation{
		StrategyName:    d.Name,
		IsValid:         out.Valid,
		Signal:          signal,
		IdealEntryRange: [2]float64{price, price * 1.01},
		StopLoss:        model.RoundRupees(out.Stop),
		TargetPrices:    targets,
		RiskReward:      d.RiskReward,
		QualityScore:    quality,
		Confidence:      confidence,
		Notes:           out.Notes,
	}
}

// selectPrimary applies the greedy selection rule: among valid BUY
// evaluations pick the maximum quality score, first registered winning
// ties. No ensemble, no voting: the fired rule must stay auditable.
func selectPrimary(evals []Evaluation) Primary {
	best := -1
	for i, e := range evals {
		if !e.IsValid || e.Signal != SignalBuy {
			continue
		}
		if best < 0 || e.QualityScore > evals[best].QualityScore {
			best = i
		}
	}

	if best < 0 {
		// No setup: synthetic NO-TRADE carrying the first panel entry's
		// levels for reference, with zero confidence.
		e := evals[0]
		return Primary{
			StrategyName:    "No Trade Setup",
			Signal:          SignalNoTrade,
			IdealEntryRange: e.IdealEntryRange[:],
			StopLoss:        e.StopLoss,
			TargetPrices:    e.TargetPrices,
			RiskReward:      e.RiskReward,
			Confidence:      0,
			Reason:          "No high-probability setup detected.",
		}
	}

	e := evals[best]
	return Primary{
		StrategyName:    e.StrategyName,
		Signal:          SignalBuy,
		IdealEntryRange: e.IdealEntryRange[:],
		StopLoss:        e.StopLoss,
		TargetPrices:    e.TargetPrices,
		RiskReward:      e.RiskReward,
		Confidence:      e.Confidence,
		Reason:          fmt.Sprintf("Buy Signal: %s. %s", e.StrategyName, e.Notes),
	}
}

// rejectionResult is the synthetic Safety Lock output: the gate tripped,
// so no strategy ran and nothing here can imply a BUY.
func rejectionResult(symbol string, s model.Series, rej *safety.Rejection) *Result {
	last := s.Last()
	price := model.Rupees(last.Close)
	return &Result{
		Symbol:          symbol,
		Timeframe:       "Daily",
		MarketCondition: ConditionRangeBound,
		CurrentPrice:    price,
		PreviousClose:   price,
		DataTimestamp:   last.Date,
		Technicals:      Technicals{MACD: "BEARISH", VolumeStatus: "AVERAGE"},
		Strategies:      nil,
		Primary: Primary{
			StrategyName:    "Safety Lock",
			Signal:          SignalNoTrade,
			IdealEntryRange: []float64{},
			TargetPrices:    []float64{},
			Confidence:      0,
			Reason:          "BLOCKED: " + rej.Reason,
		},
		Disclaimer: "Safety Block Triggered.",
	}
}
