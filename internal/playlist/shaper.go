package playlist

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"runsound/internal/analysis"
	"runsound/internal/feature"
)

// ErrInsufficientCandidates is returned alongside a valid, shorter playlist
// when the candidate pool cannot fill every slot. Callers may still use the
// playlist.
var ErrInsufficientCandidates = errors.New("not enough candidate tracks")

// Track is one playlist candidate. TempoBPM is nil when no tempo estimate
// is available for the track; such tracks are kept but ranked after tracks
// with a known tempo.
type Track struct {
	ID         string
	Name       string
	Artist     string
	URI        string
	TempoBPM   *float64
	Energy     *float64
	Valence    *float64
	Popularity int
	DurationMS int
}

// Phase labels where a track sits in a progressive playlist.
type Phase string

const (
	PhaseWarmup Phase = "warmup"
	PhaseMain   Phase = "main"
	PhaseFinish Phase = "finish"
)

// Entry is one shaped playlist slot.
type Entry struct {
	Track Track
	Phase Phase
}

// Playlist is the shaped output, ready to publish.
type Playlist struct {
	Title       string
	Targets     feature.TargetProfile
	Progressive bool
	Entries     []Entry
	// Shortfall is how many slots went unfilled, zero when full
	Shortfall int
}

func (p *Playlist) URIs() []string {
	uris := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		uris[i] = e.Track.URI
	}
	return uris
}

type Config struct {
	TempoPadBPM    float64
	Length         int
	LongRunKM      float64
	WarmupFraction float64
	FinishFraction float64
}

func DefaultConfig() Config {
	return Config{
		TempoPadBPM:    8,
		Length:         30,
		LongRunKM:      12,
		WarmupFraction: 0.2,
		FinishFraction: 0.2,
	}
}

// Tempo offsets for the outer phases of a progressive playlist. Warmup
// settles in below the target, the finish pushes above it.
const (
	warmupTempoOffset = -10
	finishTempoOffset = 10
)

// Shape turns a candidate pool into an ordered playlist for the given
// targets. Runs at or beyond cfg.LongRunKM get a progressive warmup, main
// and finish structure; shorter runs get a flat ordering around the target
// tempo. The same inputs always produce the same playlist.
func Shape(candidates []Track, targets feature.TargetProfile, runType analysis.RunType, distanceKM float64, date time.Time, cfg Config) (Playlist, error) {
	pool := dedupe(candidates)

	p := Playlist{
		Title:       Title(runType, date),
		Targets:     targets,
		Progressive: distanceKM >= cfg.LongRunKM,
	}

	if p.Progressive {
		p.Entries = shapeProgressive(pool, targets.TempoBPM, cfg)
	} else {
		flat := selectTracks(pool, targets.TempoBPM, cfg.TempoPadBPM, cfg.Length)
		if len(flat) == 0 {
			// Nothing inside the tempo band. A short playlist beats an
			// empty one, so rank the whole pool by distance instead.
			flat = topRanked(pool, targets.TempoBPM, cfg.Length)
		}
		p.Entries = make([]Entry, len(flat))
		for i, t := range flat {
			p.Entries[i] = Entry{Track: t, Phase: PhaseMain}
		}
	}

	if len(p.Entries) < cfg.Length {
		p.Shortfall = cfg.Length - len(p.Entries)
		return p, fmt.Errorf("%w: %d of %d slots filled", ErrInsufficientCandidates, len(p.Entries), cfg.Length)
	}
	return p, nil
}

// shapeProgressive fills warmup, main and finish slots around phase-shifted
// tempo targets. The main block always gets at least half the slots. When a
// phase pool runs dry the remaining slots are filled from whatever is left,
// nearest the overall target first.
func shapeProgressive(pool []Track, targetBPM float64, cfg Config) []Entry {
	warmupSlots := int(math.Round(float64(cfg.Length) * cfg.WarmupFraction))
	finishSlots := int(math.Round(float64(cfg.Length) * cfg.FinishFraction))
	mainSlots := cfg.Length - warmupSlots - finishSlots
	for mainSlots < cfg.Length/2 && warmupSlots+finishSlots > 0 {
		if warmupSlots >= finishSlots {
			warmupSlots--
		} else {
			finishSlots--
		}
		mainSlots = cfg.Length - warmupSlots - finishSlots
	}

	used := map[string]bool{}
	take := func(phaseBPM float64, slots int) []Track {
		avail := make([]Track, 0, len(pool))
		for _, t := range pool {
			if !used[t.ID] {
				avail = append(avail, t)
			}
		}
		picked := selectTracks(avail, phaseBPM, cfg.TempoPadBPM, slots)
		for _, t := range picked {
			used[t.ID] = true
		}
		return picked
	}

	warmup := take(targetBPM+warmupTempoOffset, warmupSlots)
	main := take(targetBPM, mainSlots)
	finish := take(targetBPM+finishTempoOffset, finishSlots)

	// Top up any underfilled phase from the leftovers, ignoring the phase
	// tempo windows.
	missing := cfg.Length - len(warmup) - len(main) - len(finish)
	if missing > 0 {
		leftovers := make([]Track, 0, len(pool))
		for _, t := range pool {
			if !used[t.ID] {
				leftovers = append(leftovers, t)
			}
		}
		extra := topRanked(leftovers, targetBPM, missing)
		main = append(main, extra...)
	}

	entries := make([]Entry, 0, len(warmup)+len(main)+len(finish))
	for _, t := range warmup {
		entries = append(entries, Entry{Track: t, Phase: PhaseWarmup})
	}
	for _, t := range main {
		entries = append(entries, Entry{Track: t, Phase: PhaseMain})
	}
	for _, t := range finish {
		entries = append(entries, Entry{Track: t, Phase: PhaseFinish})
	}
	return entries
}

// selectTracks filters the pool to tracks within pad BPM of target (tracks
// without a tempo estimate always pass), ranks them and returns up to limit.
func selectTracks(pool []Track, targetBPM, pad float64, limit int) []Track {
	matched := make([]Track, 0, len(pool))
	for _, t := range pool {
		if t.TempoBPM == nil || math.Abs(*t.TempoBPM-targetBPM) <= pad {
			matched = append(matched, t)
		}
	}
	return topRanked(matched, targetBPM, limit)
}

// topRanked orders tracks by tempo distance to target, then popularity,
// then original position, and returns the first limit tracks. Unknown-tempo
// tracks rank after every known-tempo track.
func topRanked(pool []Track, targetBPM float64, limit int) []Track {
	ranked := append([]Track(nil), pool...)
	sort.SliceStable(ranked, func(a, b int) bool {
		da, db := tempoDistance(ranked[a], targetBPM), tempoDistance(ranked[b], targetBPM)
		if da != db {
			return da < db
		}
		return ranked[a].Popularity > ranked[b].Popularity
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func tempoDistance(t Track, targetBPM float64) float64 {
	if t.TempoBPM == nil {
		return math.Inf(1)
	}
	return math.Abs(*t.TempoBPM - targetBPM)
}

// dedupe drops repeated track IDs, keeping the first occurrence.
func dedupe(tracks []Track) []Track {
	seen := map[string]bool{}
	out := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}

// Title names a playlist after the run it was shaped for.
func Title(runType analysis.RunType, date time.Time) string {
	return fmt.Sprintf("%s Run Mix - %s", capitalize(string(runType)), date.Format("Jan 2"))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
