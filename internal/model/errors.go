package model

import "errors"

// ErrInsufficientData is returned when a series is shorter than the
// warm-up floor. Distinct from a NO-TRADE recommendation: analysis did
// not run at all.
var ErrInsufficientData = errors.New("insufficient history")
