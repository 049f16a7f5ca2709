package cache

// Keyer derives cache keys from content hashes and option sets.
type Keyer interface {
	// PlacementKey keys a placement result by the hash of its input specs.
	PlacementKey(inputHash string, opts PlacementKeyOpts) string

	// ArtifactKey keys an exported document by the hash of its placement result.
	ArtifactKey(resultHash string, opts ArtifactKeyOpts) string
}

// PlacementKeyOpts lists every option that can change a placement result.
// The index kind is deliberately absent: all indexes produce identical
// placements, so their results share cache entries.
type PlacementKeyOpts struct {
	Width   float64      `json:"width"`
	Height  float64      `json:"height"`
	Offsets [][2]float64 `json:"offsets"`
}

// ArtifactKeyOpts lists every option that can change an exported document.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
}

// DefaultKeyer builds keys of the form "<kind>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// PlacementKey implements Keyer.
func (DefaultKeyer) PlacementKey(inputHash string, opts PlacementKeyOpts) string {
	return hashKey("placement", inputHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(resultHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", resultHash, opts)
}

// ScopedKeyer wraps a Keyer with a prefix so that several tenants or
// environments can share one backend, typically Redis.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// A nil inner keyer falls back to DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// PlacementKey generates a prefixed placement key.
func (k *ScopedKeyer) PlacementKey(inputHash string, opts PlacementKeyOpts) string {
	return k.prefix + k.inner.PlacementKey(inputHash, opts)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(resultHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(resultHash, opts)
}
