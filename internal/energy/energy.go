// Package energy converts charge and consumption into range and
// charge-need decisions.
package energy

import "math"

// Range returns the distance coverable with the given charge (kWh) at the
// given consumption rate (kWh/km). Zero consumption means unlimited range.
func Range(chargeKwh, consumptionPerKm float64) float64 {
	if consumptionPerKm == 0 {
		return math.Inf(1)
	}
	return chargeKwh / consumptionPerKm
}

// NeedsCharging reports whether the journey energy, padded by safetyMargin,
// exceeds the current charge.
func NeedsCharging(distanceKm, chargeKwh, consumptionPerKm, safetyMargin float64) bool {
	return distanceKm*consumptionPerKm*safetyMargin > chargeKwh
}
