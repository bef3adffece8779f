package domain

// BackendCandidate is one model identifier tried in priority order. Rank 0
// is the primary; higher ranks are fallbacks.
type BackendCandidate struct {
	// Model is the provider model identifier, e.g. "z-ai/glm-4.5-air:free".
	Model string

	// Rank is the position in the configured priority order.
	Rank int
}
