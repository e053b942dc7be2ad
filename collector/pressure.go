package collector

// Pressure thresholds. Fixed by contract with downstream consumers, not
// configurable.
const (
	highFreeFraction   = 0.05
	mediumFreeFraction = 0.10
	highSwapMB         = 256
)

// classifyPressure maps derived memory figures to a pressure level:
//
//	high   if free < 5% of total OR swap > 256 MB
//	medium if free < 10% of total OR swap > 0
//	low    otherwise
//
// The conditions overlap, so high is checked first. Inactive pages are
// accepted for completeness but do not enter the thresholds.
func classifyPressure(freeMB, inactiveMB, totalMB, swapUsedMB int64) Pressure {
	switch {
	case float64(freeMB) < highFreeFraction*float64(totalMB) || swapUsedMB > highSwapMB:
		return PressureHigh
	case float64(freeMB) < mediumFreeFraction*float64(totalMB) || swapUsedMB > 0:
		return PressureMedium
	default:
		return PressureLow
	}
}
