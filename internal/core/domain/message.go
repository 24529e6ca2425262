package domain

// Message is an outgoing RPC request.
type Message struct {
	ID         string `json:"id,omitempty"`
	ServerType string `json:"server_type"`
	Service    string `json:"service"`
	Method     string `json:"method"`
	Args       []any  `json:"args,omitempty"`
}
