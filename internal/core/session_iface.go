package core

// ConnectionID identifies one live client session for the process lifetime.
type ConnectionID string
