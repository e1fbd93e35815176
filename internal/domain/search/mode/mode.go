package mode

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	// Retrieval extracts keywords and queries a real catalog.
	Retrieval Mode = "retrieval"
	// Fictitious asks the LLM to invent plausible entries without retrieval.
	Fictitious Mode = "fictitious"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Retrieval || m == Fictitious
}
