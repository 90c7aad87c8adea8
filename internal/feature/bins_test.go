package feature

import (
	"testing"
	"time"
)

func TestTempBin(t *testing.T) {
	tests := []struct {
		tempC float64
		want  string
	}{
		{-10, TempCold},
		{4.9, TempCold},
		{5.0, TempCool},
		{10, TempCool},
		{14.9, TempCool},
		{15.0, TempMild},
		{22.0, TempMild},
		{22.1, TempWarm},
		{35, TempWarm},
	}

	for _, tt := range tests {
		if got := TempBin(tt.tempC); got != tt.want {
			t.Errorf("TempBin(%v) = %q, want %q", tt.tempC, got, tt.want)
		}
	}
}

func TestRunLengthBin(t *testing.T) {
	tests := []struct {
		distanceKM float64
		want       string
	}{
		{1, LengthShort},
		{5.9, LengthShort},
		{6.0, LengthMedium},
		{12.0, LengthMedium},
		{12.1, LengthLong},
		{42.2, LengthLong},
	}

	for _, tt := range tests {
		if got := RunLengthBin(tt.distanceKM); got != tt.want {
			t.Errorf("RunLengthBin(%v) = %q, want %q", tt.distanceKM, got, tt.want)
		}
	}
}

func TestTimeOfDay(t *testing.T) {
	at := func(hour int) time.Time {
		return time.Date(2026, 2, 3, hour, 30, 0, 0, time.Local)
	}

	tests := []struct {
		hour int
		want string
	}{
		{4, TimeNight},
		{5, TimeMorning},
		{10, TimeMorning},
		{11, TimeAfternoon},
		{16, TimeAfternoon},
		{17, TimeEvening},
		{20, TimeEvening},
		{21, TimeNight},
		{0, TimeNight},
	}

	for _, tt := range tests {
		if got := TimeOfDay(at(tt.hour)); got != tt.want {
			t.Errorf("TimeOfDay(%02d:30) = %q, want %q", tt.hour, got, tt.want)
		}
	}
}
