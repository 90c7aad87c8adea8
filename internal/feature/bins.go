package feature

import "time"

// Temperature bins, lower bound inclusive
const (
	TempCold = "Cold" // below 5°C
	TempCool = "Cool" // 5-14°C
	TempMild = "Mild" // 15-22°C
	TempWarm = "Warm" // above 22°C
)

// Run length bins
const (
	LengthShort  = "Short"  // under 6km
	LengthMedium = "Medium" // 6-12km
	LengthLong   = "Long"   // over 12km
)

// Time-of-day buckets
const (
	TimeMorning   = "Morning"   // [05:00, 11:00)
	TimeAfternoon = "Afternoon" // [11:00, 17:00)
	TimeEvening   = "Evening"   // [17:00, 21:00)
	TimeNight     = "Night"
)

// TempBin buckets a temperature in Celsius
func TempBin(tempC float64) string {
	switch {
	case tempC < 5:
		return TempCold
	case tempC < 15:
		return TempCool
	case tempC <= 22:
		return TempMild
	default:
		return TempWarm
	}
}

// RunLengthBin buckets a run distance in kilometers
func RunLengthBin(distanceKM float64) string {
	switch {
	case distanceKM < 6:
		return LengthShort
	case distanceKM <= 12:
		return LengthMedium
	default:
		return LengthLong
	}
}

// TimeOfDay buckets the local start hour of a run
func TimeOfDay(t time.Time) string {
	switch hour := t.Hour(); {
	case hour >= 5 && hour < 11:
		return TimeMorning
	case hour >= 11 && hour < 17:
		return TimeAfternoon
	case hour >= 17 && hour < 21:
		return TimeEvening
	default:
		return TimeNight
	}
}
