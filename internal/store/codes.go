package store

import (
	"context"
	"time"
)

// IssueCode atomically checks for a live code issued within the dedup
// window and inserts a new one only if none exists. An advisory lock keyed
// by (user, action) serializes concurrent issuance for the same pair, so a
// double-submitted request cannot slip two codes past the window check.
// Superseded codes (live but older than the window) are marked consumed
// before the new one is written. Returns false when a recent code already
// exists and nothing was inserted.
func (s *Store) IssueCode(ctx context.Context, userID int64, action, code string, expiresAt time.Time, window time.Duration) (bool, error) {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	lockQuery := `SELECT pg_advisory_xact_lock(hashtext($1::text || ':' || $2))`
	if _, err := tx.ExecContext(ctx, lockQuery, userID, action); err != nil {
		return false, err
	}

	var recent int
	query := `
		SELECT COUNT(*) FROM security_codes
		WHERE user_id = $1 AND action = $2
		  AND consumed_at IS NULL AND expires_at > now()
		  AND created_at > now() - make_interval(secs => $3)`
	if err := tx.GetContext(ctx, &recent, query, userID, action, window.Seconds()); err != nil {
		return false, err
	}
	if recent > 0 {
		return false, nil
	}

	query = `
		UPDATE security_codes SET consumed_at = now()
		WHERE user_id = $1 AND action = $2 AND consumed_at IS NULL`
	if _, err := tx.ExecContext(ctx, query, userID, action); err != nil {
		return false, err
	}

	query = `
		INSERT INTO security_codes (user_id, action, code, expires_at)
		VALUES ($1, $2, $3, $4)`
	if _, err := tx.ExecContext(ctx, query, userID, action, code, expiresAt); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// CheckCode reports whether a live matching code exists, without consuming
// it. Used to order validation without burning the code on an unrelated
// precondition failure.
func (s *Store) CheckCode(ctx context.Context, userID int64, action, code string) (bool, error) {
	var n int
	query := `
		SELECT COUNT(*) FROM security_codes
		WHERE user_id = $1 AND action = $2 AND code = $3
		  AND consumed_at IS NULL AND expires_at > now()`
	if err := s.DB.GetContext(ctx, &n, query, userID, action, code); err != nil {
		return false, err
	}
	return n > 0, nil
}

// ConsumeCode marks a live matching code consumed. The single UPDATE is the
// atomicity boundary: of two racing verifications only one affects a row.
// Returns false when no live code matched, for any reason.
func (s *Store) ConsumeCode(ctx context.Context, userID int64, action, code string) (bool, error) {
	query := `
		UPDATE security_codes SET consumed_at = now()
		WHERE user_id = $1 AND action = $2 AND code = $3
		  AND consumed_at IS NULL AND expires_at > now()`
	res, err := s.DB.ExecContext(ctx, query, userID, action, code)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
