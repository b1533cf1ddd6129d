package types

// Event represents a typed event emitted during state transitions. Attributes
// carry the identities and amounts consumers need for audit trails.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
