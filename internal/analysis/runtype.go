package analysis

import "strings"

// RunType categorizes a run's intent
type RunType string

const (
	RunInterval RunType = "interval"
	RunTempo    RunType = "tempo"
	RunEasy     RunType = "easy"
	RunLong     RunType = "long"
	RunRace     RunType = "race"
	RunSteady   RunType = "steady"
	RunUnknown  RunType = "unknown"
)

// ParseRunType maps a string to a RunType, falling back to unknown
func ParseRunType(s string) RunType {
	switch t := RunType(strings.ToLower(strings.TrimSpace(s))); t {
	case RunInterval, RunTempo, RunEasy, RunLong, RunRace, RunSteady:
		return t
	default:
		return RunUnknown
	}
}

// Pace offsets (min/km) against the athlete's easy-pace baseline used when a
// run carries no explicit type. Defaults, not laws; see PipelineConfig.
const (
	intervalPaceDelta = 1.5 // this much faster than easy pace
	tempoPaceDelta    = 1.0
	easyPaceDelta     = 0.5 // this much slower than easy pace
	shortFastKM       = 8   // interval/tempo efforts stay under this
	longRunKM         = 15
)

var nameKeywords = []struct {
	words   []string
	runType RunType
}{
	{[]string{"interval", "repeat", "400m", "200m"}, RunInterval},
	{[]string{"tempo", "threshold", "marathon pace"}, RunTempo},
	{[]string{"easy", "recovery", "jog"}, RunEasy},
	{[]string{"race", "competition"}, RunRace},
}

// Classify infers the run type from the run's title and its pace/distance
// relative to the athlete's easy-pace baseline. It never fails: anything
// unrecognizable is a steady run.
func Classify(name string, paceMinKM, distanceKM, easyPaceMinKM float64) RunType {
	lower := strings.ToLower(name)

	for _, kw := range nameKeywords {
		for _, w := range kw.words {
			if strings.Contains(lower, w) {
				return kw.runType
			}
		}
	}
	// "pr" only as its own word, otherwise "sprint"/"progression" match
	for _, tok := range strings.Fields(lower) {
		if strings.Trim(tok, "!.,") == "pr" {
			return RunRace
		}
	}

	if paceMinKM <= 0 || distanceKM <= 0 {
		return RunSteady
	}

	if distanceKM >= longRunKM {
		return RunLong
	}

	if easyPaceMinKM > 0 && distanceKM < shortFastKM {
		switch {
		case paceMinKM <= easyPaceMinKM-intervalPaceDelta:
			return RunInterval
		case paceMinKM <= easyPaceMinKM-tempoPaceDelta:
			return RunTempo
		}
	}

	if easyPaceMinKM > 0 && paceMinKM >= easyPaceMinKM+easyPaceDelta {
		return RunEasy
	}

	return RunSteady
}

// ResolveRunType returns the labeled type when present, otherwise classifies
func ResolveRunType(labeled, name string, paceMinKM, distanceKM, easyPaceMinKM float64) RunType {
	if t := ParseRunType(labeled); t != RunUnknown {
		return t
	}
	return Classify(name, paceMinKM, distanceKM, easyPaceMinKM)
}
