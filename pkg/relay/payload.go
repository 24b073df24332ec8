// Package relay passes one filter payload between two independently loaded
// pages of the host console through a single named slot.
//
// The slot holds at most one payload (last write wins). A payload is usable
// only while its age stays within TTL; a stale payload is treated as absent
// and purged on first access. Consumers read then delete; the payload is
// meant to survive exactly one navigation.
package relay

import "time"

// TTL is the maximum payload age before it is treated as absent.
const TTL = 5 * time.Minute

// SlotKey is the well-known name of the relay slot.
const SlotKey = "filterrelay:slot"

// Payload is the only persisted entity: the minute-precision date bounds and
// an optional worker filter captured on the source page. Field names match
// the filter parameters of the consuming pages.
type Payload struct {
	// StartBound is the inclusive lower date-time bound, "YYYY-MM-DD HH:mm".
	StartBound string `json:"startDateLowerBound"`

	// EndBound is the upper bound in the same format, minute-rounded-up
	// from the source row's second-precision end date.
	EndBound string `json:"endDateUpperBound"`

	// WorkerName is the optional secondary filter dimension. Empty means
	// no worker filter.
	WorkerName string `json:"workerName,omitempty"`

	// CreatedAt is the creation timestamp in epoch milliseconds.
	CreatedAt int64 `json:"timestamp"`
}

// Age returns how long ago the payload was created.
func (p Payload) Age(now time.Time) time.Duration {
	return time.Duration(now.UnixMilli()-p.CreatedAt) * time.Millisecond
}

// Stale reports whether the payload has outlived TTL at the given instant.
func (p Payload) Stale(now time.Time) bool {
	return p.Age(now) > TTL
}
