package song

import "dmf2mlm/internal/mlmerr"

const (
	tmaMaxFreq   = 55560.0
	tmaMinFreq   = 54.25
	maxTimeBase  = 255
)

// ResolveTiming picks a driver time base and YM2610 timer A counter for
// hzValue, boosting the base rate by successive integer multiples until
// it lands in the timer's representable frequency range (§4.11).
func ResolveTiming(hzValue float64) (timeBase int, tmaCounter int, err error) {
	if hzValue > tmaMaxFreq {
		return 0, 0, mlmerr.DomainErrorf("invalid frequency %.2fHz (higher than 55.56kHz)", hzValue)
	}

	timeBase = 1
	if hzValue < tmaMinFreq {
		found := false
		for i := 2; i <= maxTimeBase; i++ {
			if hzValue*float64(i) > tmaMaxFreq {
				return 0, 0, mlmerr.DomainErrorf("invalid frequency %.2fHz", hzValue)
			}
			if hzValue*float64(i) > tmaMinFreq {
				timeBase = i
				hzValue *= float64(i)
				found = true
				break
			}
		}
		if !found || hzValue < tmaMinFreq {
			return 0, 0, mlmerr.DomainErrorf("invalid frequency (lower than %.4fHz)", tmaMinFreq/maxTimeBase)
		}
	}

	tmaCounter, err = CalculateTmaCnt(hzValue)
	if err != nil {
		return 0, 0, err
	}
	return timeBase, tmaCounter, nil
}

// CalculateTmaCnt derives the YM2610 timer A reload value that produces
// the given driver tick frequency.
func CalculateTmaCnt(frequency float64) (int, error) {
	cnt := 1024.0 - (1.0 / frequency / 72.0 * 4000000.0)
	if cnt < 0 || cnt > 0x3FF {
		return 0, mlmerr.DomainErrorf("invalid timer A counter value for %.2fHz", frequency)
	}
	return round(cnt), nil
}
