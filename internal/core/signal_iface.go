package core

// Frame is a raw encoded payload.
type Frame []byte

// SignalConnection abstracts the per-client messaging transport.
// Close may be called more than once.
type SignalConnection interface {
	// TrySend enqueues f without blocking.
	TrySend(Frame) error
	// Ping asks the peer to prove it is alive.
	Ping() error
	Close()
}
