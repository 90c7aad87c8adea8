package feature

import (
	"time"

	"runsound/internal/analysis"
)

// paceBPM maps a pace band (min/km, lower bound inclusive) to a target tempo.
// Faster running wants a higher cadence and the music follows it.
var paceBPM = []struct {
	lower, upper float64
	bpm          float64
}{
	{4.0, 4.5, 180},
	{4.5, 5.0, 170},
	{5.0, 5.5, 165},
	{5.5, 6.0, 160},
	{6.0, 7.0, 150},
	{7.0, 8.0, 140},
}

const (
	bpmVeryFast = 185 // below the mapped bands
	bpmVerySlow = 135 // above the mapped bands
)

// PaceToBPM maps a pace in min/km to a target tempo in BPM
func PaceToBPM(paceMinKM float64) float64 {
	for _, band := range paceBPM {
		if paceMinKM >= band.lower && paceMinKM < band.upper {
			return band.bpm
		}
	}
	if paceMinKM < paceBPM[0].lower {
		return bpmVeryFast
	}
	return bpmVerySlow
}

// energyValenceByType holds the base energy/valence for each run type
var energyValenceByType = map[analysis.RunType][2]float64{
	analysis.RunInterval: {0.85, 0.7},
	analysis.RunTempo:    {0.75, 0.65},
	analysis.RunEasy:     {0.4, 0.6},
	analysis.RunRace:     {0.9, 0.8},
	analysis.RunLong:     {0.55, 0.6},
	analysis.RunSteady:   {0.6, 0.5},
}

// HeuristicTargets derives the music profile a run calls for from its
// characteristics alone. This is the label generator: the predictor is
// trained against these targets computed over the athlete's history, then
// learns the athlete-specific corrections the heuristic can't express.
func HeuristicTargets(paceMinKM float64, runType analysis.RunType, tempC float64, startLocal time.Time) TargetProfile {
	base, ok := energyValenceByType[runType]
	if !ok {
		base = energyValenceByType[analysis.RunSteady]
	}

	p := TargetProfile{
		TempoBPM: PaceToBPM(paceMinKM),
		Energy:   base[0],
		Valence:  base[1],
	}

	// Cold dampens the mood, warmth lifts it
	switch TempBin(tempC) {
	case TempCold:
		p.Valence = max(0.2, p.Valence-0.15)
	case TempWarm:
		p.Valence = min(0.9, p.Valence+0.15)
	}

	switch TimeOfDay(startLocal) {
	case TimeMorning:
		p.Valence = min(0.8, p.Valence+0.1)
	case TimeNight:
		p.Energy = max(0.3, p.Energy-0.15)
	}

	return p
}
