package strategy

import (
	"strings"

	"scanbot/internal/signal"
)

// Strategy defines behaviour shared by strategy implementations used by the scanner.
type Strategy interface {
	Evaluate(symbol string, series signal.Series) signal.Signal
	Name() string
}

// Params expresses tunable knobs required by strategy constructors.
type Params struct {
	FastSpan     int
	SlowSpan     int
	VolumeWindow int
	VolumeSurge  float64
	MACDFast     int
	MACDSlow     int
	MinBars      int
}

// Build returns a strategy implementation matching the configured mode.
func Build(mode string, params Params) Strategy {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "momentum":
		return NewMomentum(params)
	case "crossover", "ema_crossover":
		return NewCrossover(params)
	default:
		return NewMomentum(params)
	}
}
