package model

import "math"

// Rupees converts a paise amount to rupees.
func Rupees(paise int64) float64 {
	return float64(paise) / 100.0
}

// ToPaise converts a rupee amount to paise, rounding half away from zero.
func ToPaise(rupees float64) int64 {
	if rupees < 0 {
		return -int64(math.Floor(-rupees*100 + 0.5))
	}
	return int64(math.Floor(rupees*100 + 0.5))
}

// RoundRupees rounds a rupee value to two decimals, half away from zero.
// Applied only at the recommendation boundary; internal math stays unrounded.
func RoundRupees(v float64) float64 {
	return float64(ToPaise(v)) / 100.0
}
