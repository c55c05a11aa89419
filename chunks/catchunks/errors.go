// Package catchunks implements the segmented-content fetch engine: version
// discovery, a pluggable congestion-controlled Interest pipeline, and a
// reorder buffer that streams validated segments to a sink in order.
package catchunks

import "fmt"

// ErrTransportFatal covers non-retryable NACK reasons and retry-ceiling
// exhaustion: the fetch cannot proceed no matter how long it waits.
type ErrTransportFatal struct {
	Segment uint64
	Reason  string
}

func (e ErrTransportFatal) Error() string {
	return fmt.Sprintf("transport-fatal error on segment %d: %s", e.Segment, e.Reason)
}

// ErrProtocolFatal is reported when an Interest cannot be encoded. An
// invalid versioned name from discovery is reported as ErrDiscoveryFailed
// instead, and a FinalBlockId that disagrees with an already-received
// larger segment is not detected: only the first FinalBlockId seen is used.
type ErrProtocolFatal struct {
	Reason string
}

func (e ErrProtocolFatal) Error() string {
	return fmt.Sprintf("protocol-fatal error: %s", e.Reason)
}

// ErrApplicationNack is reported when a Data's ContentType is Nack:
// the producer rejected the request at the application layer.
type ErrApplicationNack struct {
	Segment uint64
}

func (e ErrApplicationNack) Error() string {
	return fmt.Sprintf("application nack on segment %d", e.Segment)
}

// ErrValidationFailure is reported by the Validator collaborator.
type ErrValidationFailure struct {
	Segment uint64
	Reason  string
}

func (e ErrValidationFailure) Error() string {
	return fmt.Sprintf("validation failed on segment %d: %s", e.Segment, e.Reason)
}

// ErrSessionTimeout is reported when the session's overall deadline (if
// configured) elapses before the fetch completes.
type ErrSessionTimeout struct{}

func (e ErrSessionTimeout) Error() string { return "fetch session timed out" }

// ErrDiscoveryFailed wraps a VersionDiscovery failure reason.
type ErrDiscoveryFailed struct {
	Reason string
}

func (e ErrDiscoveryFailed) Error() string {
	return fmt.Sprintf("version discovery failed: %s", e.Reason)
}
