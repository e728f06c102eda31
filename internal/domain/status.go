package domain

// Status represents the lifecycle state of an incentive, derived purely
// from its campaign windows relative to the current time.
type Status string

const (
	StatusPast Status = "PAST"
	StatusLive Status = "LIVE"
	StatusSoon Status = "SOON"
)

// String returns the string representation of Status.
func (s Status) String() string {
	return string(s)
}

// IsValid checks if the status is a valid value.
func (s Status) IsValid() bool {
	return s == StatusPast || s == StatusLive || s == StatusSoon
}

// Priority returns the sort rank of the status: LIVE first, then SOON,
// then PAST.
func (s Status) Priority() int {
	switch s {
	case StatusLive:
		return 0
	case StatusSoon:
		return 1
	default:
		return 2
	}
}
