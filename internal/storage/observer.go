package storage

import "time"

// Lookup layers reported to an Observer.
const (
	LayerMemo  = "memo"
	LayerCache = "cache"
)

// Observer receives cache events. metrics.CacheMetrics implements it.
type Observer interface {
	Hit(layer string)
	Miss(layer string)
	Rebuilt(took time.Duration)
	Invalidated()
}

type noopObserver struct{}

func (noopObserver) Hit(string)            {}
func (noopObserver) Miss(string)           {}
func (noopObserver) Rebuilt(time.Duration) {}
func (noopObserver) Invalidated()          {}
