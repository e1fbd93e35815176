package catalog

// Provider names a catalog backend.
type Provider string

// Provider constants.
const (
	DMM    Provider = "dmm"
	Sokmil Provider = "sokmil"
	DLsite Provider = "dlsite"
	FC2    Provider = "fc2"
)

// IsValid checks if the provider is one of the supported values.
func (p Provider) IsValid() bool {
	return p == DMM || p == Sokmil || p == DLsite || p == FC2
}

// Hit limits shared by every provider.
const (
	DefaultHits = 20
	MaxHits     = 100
)

// ClampHits bounds a requested result count to [1, MaxHits], defaulting zero or negative values.
func ClampHits(hits int) int {
	if hits <= 0 {
		return DefaultHits
	}
	if hits > MaxHits {
		return MaxHits
	}
	return hits
}
