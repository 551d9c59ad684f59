package tcpstream

import (
	"net"
)

// OutcomeKind tags the result of one connection attempt, or of a whole
// CreateStream call. Exactly one kind holds.
type OutcomeKind int32

const (
	pending OutcomeKind = iota
	// Connected means the attempt produced a live connection.
	Connected
	// Failed means the connect primitive failed on its own.
	Failed
	// Cancelled means the caller's context settled the race.
	Cancelled
	// TimedOut means the attempt deadline settled the race.
	TimedOut
)

func (k OutcomeKind) String() string {
	switch k {
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	case TimedOut:
		return "timed_out"
	default:
		return "pending"
	}
}

// Outcome is the tagged result of an attempt. Conn is set only for
// Connected. For every other kind Err says why: the connect failure for
// Failed, a *CancelledError or a *ConnectTimeoutError otherwise.
type Outcome struct {
	Kind      OutcomeKind
	Candidate Candidate
	Conn      net.Conn
	Err       error
}
