package service

const (
	// SearchLimit is the per-query catalog search size
	SearchLimit = 50

	// MinCandidatePool triggers the generic fallback query when the typed
	// searches return fewer unique tracks than this
	MinCandidatePool = 15

	// WeatherBatchSize bounds how many runs get weather per sync pass
	WeatherBatchSize = 50

	// ArtifactsToKeep is how many trained model artifacts are retained
	ArtifactsToKeep = 5

	// ChartWeeks is the mileage chart window on the dashboard
	ChartWeeks = 12

	// RecentRunsLimit bounds the dashboard run list
	RecentRunsLimit = 10

	// RecentPlaylistsLimit bounds the playlist history screen
	RecentPlaylistsLimit = 20
)
