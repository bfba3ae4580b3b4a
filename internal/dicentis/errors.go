package dicentis

import "fmt"

// TransportError wraps a socket, TLS or WebSocket failure. It is fatal to the
// session: the bridge does not reconnect.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("dicentis: transport failure during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError means the server's response was not valid structured data.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("dicentis: malformed %s response: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// AuthError is a login rejected by the server, carrying its message.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("dicentis: login failed: %s", e.Message)
}
