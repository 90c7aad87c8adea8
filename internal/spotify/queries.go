package spotify

import (
	"fmt"
	"strings"

	"runsound/internal/analysis"
)

// Base search queries per run type. Kept generic so the genre bias appended
// by SearchQueries shapes the results.
var queriesByRunType = map[analysis.RunType][]string{
	analysis.RunInterval: {"high intensity workout", "interval training music", "fast tempo running"},
	analysis.RunTempo:    {"tempo run playlist", "threshold running", "upbeat workout"},
	analysis.RunEasy:     {"easy running", "recovery run music", "chill workout"},
	analysis.RunRace:     {"race day music", "high energy running", "motivation workout"},
	analysis.RunLong:     {"long run playlist", "endurance running", "steady pace music"},
	analysis.RunSteady:   {"running music", "jogging playlist", "workout mix"},
}

// FallbackQuery widens the pool when the typed queries come up short
const FallbackQuery = "running music"

// SearchQueries builds catalog search queries for a planned run, biased
// toward the athlete's preferred genres. Fast and slow paces each add one
// extra query.
func SearchQueries(runType analysis.RunType, paceMinKM float64, genres []string) []string {
	base, ok := queriesByRunType[runType]
	if !ok {
		base = queriesByRunType[analysis.RunSteady]
	}

	genreBias := strings.Join(genres, " OR ")

	queries := make([]string, 0, len(base)+1)
	for _, q := range base {
		queries = append(queries, withGenres(q, genreBias))
	}
	if paceMinKM > 0 && paceMinKM < 5.0 {
		queries = append(queries, withGenres("fast running music", genreBias))
	} else if paceMinKM > 6.5 {
		queries = append(queries, withGenres("slow jog playlist", genreBias))
	}
	return queries
}

func withGenres(query, genreBias string) string {
	if genreBias == "" {
		return query
	}
	return fmt.Sprintf("%s (%s)", query, genreBias)
}
