package ledger

// Status is the outcome of a gateway call.
type Status int

const (
	StatusPending     Status = iota // Zero value: no outcome yet
	StatusOK                        // The ledger accepted the call
	StatusFailed                    // The ledger was called and returned an error
	StatusSkipped                   // No wallet connected; the ledger was not called
	StatusDuplicate                 // End already attempted for this session
	StatusUnavailable               // A read could not be served
)

// String returns a human-readable name for the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	case StatusDuplicate:
		return "duplicate"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Result is the outcome of a write.
type Result struct {
	Status  Status
	Receipt Receipt
	Err     error
}

// OK reports whether the write was accepted.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// Read is the outcome of a read. Value is meaningful only when Status is
// StatusOK; an unavailable read is "no data", never zero.
type Read[T any] struct {
	Status Status
	Value  T
	Err    error
}

// Get returns the value and whether it is available.
func (r Read[T]) Get() (T, bool) {
	if r.Status != StatusOK {
		var zero T
		return zero, false
	}
	return r.Value, true
}
