package types

// Event represents a typed event emitted during a ledger operation. Attribute
// values are rendered as strings so sinks can persist them without knowing
// the originating module.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
