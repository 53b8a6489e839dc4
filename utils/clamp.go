// Package utils holds small numeric and colour helpers shared by the click outputs and
// the terminal UI.
package utils

import "math"

// Clamp limits t to [min, max]. The bounds may be given in either order.
func Clamp(t, min, max float64) float64 {
	min, max = math.Min(min, max), math.Max(min, max)
	return math.Max(math.Min(t, max), min)
}

// ToUnitClamp returns a function that scales a number from the interval [rMin,rMax]
// to the unit interval ([0,1]), if the result falls outside [0,1], it is clamped
// to 0 or 1.
func ToUnitClamp(rMin, rMax float64) func(m float64) float64 {
	return func(m float64) float64 {
		if rMax == rMin {
			return 0
		}
		return Clamp((m-rMin)/(rMax-rMin), 0, 1)
	}
}

// ToDMX converts a unit level to a DMX channel value.
func ToDMX(level float64) byte {
	return byte(math.Round(Clamp(level, 0, 1) * 255))
}
