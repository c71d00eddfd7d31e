package gateway

import (
	"fmt"
)

// ConnectionError reports a transport failure talking to the host. Op is
// "dial", "deadline", "write" or "read".
type ConnectionError struct {
	Op   string
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("vif gateway %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ResponseError reports a framed reply from the host that is not valid
// VIF text.
type ResponseError struct {
	Addr     string
	Response string
	Err      error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("vif gateway %s: unreadable response: %v", e.Addr, e.Err)
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}

// HostError reports a vrp header with a non-zero error number.
type HostError struct {
	RequestCode int
	PacketID    string
	Number      int
	Text        string
}

func (e *HostError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("vif host error %d (request %d, packet %s)", e.Number, e.RequestCode, e.PacketID)
	}
	return fmt.Sprintf("vif host error %d (request %d, packet %s): %s", e.Number, e.RequestCode, e.PacketID, e.Text)
}
