// Package status derives a campaign's effective status from its stored
// status and the clock. Campaigns auto-expire without an explicit write, so
// every read path must resolve the stored value instead of trusting it.
package status

import "time"

// Stored campaign statuses.
const (
	Draft     = "draft"
	Active    = "active"
	Ended     = "ended"
	Paused    = "paused"
	Cancelled = "cancelled"
	InReview  = "in_review"
)

// Resolve maps a stored status plus an optional end time to the effective
// status at the given instant. Terminal and administrative statuses override
// time; only an active campaign whose end time has passed flips to ended.
// Resolve is pure and idempotent.
func Resolve(stored string, endsAt *time.Time, now time.Time) string {
	switch stored {
	case Ended, Paused, InReview, Cancelled:
		return stored
	}
	if stored == Active {
		if endsAt != nil && endsAt.Before(now) {
			return Ended
		}
		return Active
	}
	return stored
}

// ResolveRaw is Resolve for callers holding the end time as text. An
// unparseable end time is treated as no end date (fail open) rather than
// expiring the campaign.
func ResolveRaw(stored, rawEnd string, now time.Time) string {
	if rawEnd == "" {
		return Resolve(stored, nil, now)
	}
	t, err := time.Parse(time.RFC3339, rawEnd)
	if err != nil {
		return Resolve(stored, nil, now)
	}
	return Resolve(stored, &t, now)
}

// IsStored reports whether s is one of the recognized stored statuses.
func IsStored(s string) bool {
	switch s {
	case Draft, Active, Ended, Paused, Cancelled, InReview:
		return true
	}
	return false
}
