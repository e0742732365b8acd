package hub

// Message is one pre-encoded JSON payload queued for broadcast.
type Message struct {
	Data []byte
}

// NewJSONMessage wraps already-encoded JSON bytes.
func NewJSONMessage(data []byte) Message {
	return Message{Data: data}
}
