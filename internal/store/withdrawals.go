package store

import (
	"context"

	"fundgate/internal/models"
)

// WithdrawnTotal sums the withdrawals that count against a campaign's
// balance: pending and completed. Rejected withdrawals release their funds.
func (s *Store) WithdrawnTotal(ctx context.Context, campaignID int64) (int64, error) {
	var total int64
	query := `
		SELECT COALESCE(SUM(amount_cents), 0) FROM withdrawals
		WHERE campaign_id = $1 AND status IN ($2, $3)`
	err := s.DB.GetContext(ctx, &total, query,
		campaignID, models.WithdrawalPending, models.WithdrawalCompleted)
	return total, err
}

// CreateWithdrawal inserts a pending withdrawal if the campaign still has
// the requested amount available. The campaign row is locked for the span
// of the transaction so the balance check and the insert see one snapshot;
// two racing requests cannot both draw down the same funds.
// Returns false when the available balance is insufficient.
func (s *Store) CreateWithdrawal(ctx context.Context, w *models.Withdrawal) (bool, error) {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var captured int64
	query := `SELECT captured_cents FROM campaigns WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &captured, query, w.CampaignID); err != nil {
		return false, err
	}

	var withdrawn int64
	query = `
		SELECT COALESCE(SUM(amount_cents), 0) FROM withdrawals
		WHERE campaign_id = $1 AND status IN ($2, $3)`
	if err := tx.GetContext(ctx, &withdrawn, query,
		w.CampaignID, models.WithdrawalPending, models.WithdrawalCompleted); err != nil {
		return false, err
	}

	if w.AmountCents > captured-withdrawn {
		return false, nil
	}

	query = `
		INSERT INTO withdrawals (campaign_id, owner_id, amount_cents, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	if err := tx.GetContext(ctx, w, query,
		w.CampaignID, w.OwnerID, w.AmountCents, models.WithdrawalPending); err != nil {
		return false, err
	}
	w.Status = models.WithdrawalPending

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) ListWithdrawalsByOwner(ctx context.Context, ownerID int64) ([]models.Withdrawal, error) {
	var list []models.Withdrawal
	query := `SELECT * FROM withdrawals WHERE owner_id = $1 ORDER BY created_at DESC`
	if err := s.DB.SelectContext(ctx, &list, query, ownerID); err != nil {
		return nil, err
	}
	return list, nil
}
