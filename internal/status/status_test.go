package status

import (
	"testing"
	"time"
)

func TestResolve(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-1 * time.Second)
	future := now.Add(24 * time.Hour)

	t.Run("active past end time becomes ended", func(t *testing.T) {
		if got := Resolve(Active, &past, now); got != Ended {
			t.Errorf("got %q, want %q", got, Ended)
		}
	})

	t.Run("active before end time stays active", func(t *testing.T) {
		if got := Resolve(Active, &future, now); got != Active {
			t.Errorf("got %q, want %q", got, Active)
		}
	})

	t.Run("active without end time stays active", func(t *testing.T) {
		if got := Resolve(Active, nil, now); got != Active {
			t.Errorf("got %q, want %q", got, Active)
		}
	})

	t.Run("terminal statuses override time", func(t *testing.T) {
		for _, stored := range []string{Ended, Paused, InReview, Cancelled} {
			if got := Resolve(stored, &past, now); got != stored {
				t.Errorf("Resolve(%q) = %q, want unchanged", stored, got)
			}
		}
	})

	t.Run("draft passes through verbatim", func(t *testing.T) {
		if got := Resolve(Draft, &past, now); got != Draft {
			t.Errorf("got %q, want %q", got, Draft)
		}
	})

	t.Run("resolving twice is a no-op", func(t *testing.T) {
		once := Resolve(Active, &past, now)
		if got := Resolve(once, &past, now); got != once {
			t.Errorf("second resolve changed %q to %q", once, got)
		}
	})
}

func TestResolveRaw(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("parseable past end time expires", func(t *testing.T) {
		raw := now.Add(-time.Minute).Format(time.RFC3339)
		if got := ResolveRaw(Active, raw, now); got != Ended {
			t.Errorf("got %q, want %q", got, Ended)
		}
	})

	t.Run("unparseable end time fails open", func(t *testing.T) {
		if got := ResolveRaw(Active, "not-a-date", now); got != Active {
			t.Errorf("got %q, want %q", got, Active)
		}
	})

	t.Run("empty end time means no end date", func(t *testing.T) {
		if got := ResolveRaw(Active, "", now); got != Active {
			t.Errorf("got %q, want %q", got, Active)
		}
	})
}
