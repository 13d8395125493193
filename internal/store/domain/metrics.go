package domain

// Search fallback reasons
const (
	FallbackIndexMissing = "index_missing"
	FallbackUnavailable  = "unavailable"
	FallbackError        = "error"
)

// Recorder counts outcomes on the degraded paths
type Recorder interface {
	SearchFallback(reason string)
	RecentDegraded(op string)
	FavoriteToggled(favorited bool)
}

// NopRecorder discards every observation
type NopRecorder struct{}

func (NopRecorder) SearchFallback(string) {}
func (NopRecorder) RecentDegraded(string) {}
func (NopRecorder) FavoriteToggled(bool)  {}
