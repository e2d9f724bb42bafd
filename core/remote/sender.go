package remote

// Sender publishes remote calls to the peer.
type Sender interface {
	SendMessage(method string, args ...any) error
}

// Receiver accepts decoded calls from the transport.
type Receiver interface {
	Deliver(msg Message) error
}
