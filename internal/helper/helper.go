package helper

import "math"

// RoundToTick — к ближайшему тику (для TP/SL).
func RoundToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	return math.Round(px/tick) * tick
}

func RoundDownToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	steps := math.Floor(px/tick + 1e-12)
	return steps * tick
}

func RoundUpToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	steps := math.Ceil(px/tick - 1e-12)
	return steps * tick
}

// RoundToStep — количество вниз до шага лота.
func RoundToStep(qty, step float64) float64 {
	if step <= 0 {
		return qty
	}
	steps := math.Floor(qty/step + 1e-9)
	return steps * step
}
