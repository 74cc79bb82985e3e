package registry

// Observer receives resolution events from a registry. Implementations must
// be safe for concurrent use. The registry core performs no logging or
// metrics itself; an observer is the hook for embedding applications.
type Observer interface {
	// ResolveStarted is called when a resolution misses the concrete cache.
	ResolveStarted(serialName string)

	// CacheHit is called when a resolution is served from the concrete cache.
	CacheHit(serialName string)

	// ResolveFailed is called when a resolution returns an error.
	ResolveFailed(serialName string, err error)
}

type nopObserver struct{}

func (nopObserver) ResolveStarted(string)       {}
func (nopObserver) CacheHit(string)             {}
func (nopObserver) ResolveFailed(string, error) {}
