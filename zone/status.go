package zone

import (
	"fmt"
	"time"
)

// Status is the temporal classification of a zone relative to a reference
// instant. It is never stored: it must be recomputed on every evaluation
// because it is a function of wall-clock time.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
)

// ExpiredLabel is the sentinel returned by TimeRemaining for expired zones.
const ExpiredLabel = "Terminée"

// Classify returns exactly one of Upcoming, Active or Expired.
// A zone is Active on the closed interval [start, end].
func Classify(z Zone, now time.Time) Status {
	switch {
	case now.Before(z.Start):
		return StatusUpcoming
	case now.After(z.End):
		return StatusExpired
	default:
		return StatusActive
	}
}

// TimeRemaining formats the time left until the zone ends. Expired zones get
// the fixed sentinel; otherwise minutes are floored, never rounded up.
func TimeRemaining(z Zone, now time.Time) string {
	if Classify(z, now) == StatusExpired {
		return ExpiredLabel
	}

	diff := z.End.Sub(now)
	hours := int(diff / time.Hour)
	minutes := int(diff/time.Minute) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dmin", hours, minutes)
	}
	return fmt.Sprintf("%dmin", minutes)
}
