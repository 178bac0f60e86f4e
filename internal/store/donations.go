package store

import (
	"context"
	"database/sql"
	"errors"

	"fundgate/internal/models"
)

func (s *Store) CreateIntent(ctx context.Context, in *models.PaymentIntent) error {
	query := `
		INSERT INTO payment_intents
		  (order_id, campaign_id, donor_name, donor_email, donor_user_id,
		   base_cents, tip_cents, fee_cents, total_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`
	return s.DB.GetContext(ctx, in, query,
		in.OrderID, in.CampaignID, in.DonorName, in.DonorEmail, in.DonorUserID,
		in.BaseCents, in.TipCents, in.FeeCents, in.TotalCents)
}

func (s *Store) GetIntent(ctx context.Context, orderID string) (*models.PaymentIntent, error) {
	var in models.PaymentIntent
	query := `SELECT * FROM payment_intents WHERE order_id = $1`
	if err := s.DB.GetContext(ctx, &in, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &in, nil
}

// InsertDonation writes a ledger entry and bumps the campaign aggregates in
// one transaction. The unique constraint on gateway_tx_id makes the insert
// race-free: a concurrent duplicate hits ON CONFLICT DO NOTHING, affects no
// rows, and the aggregates are only touched on the insert that won.
// Returns false when the payment was already recorded.
func (s *Store) InsertDonation(ctx context.Context, d *models.Donation) (bool, error) {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO donations
		  (campaign_id, gateway_tx_id, order_id, donor_name, donor_email,
		   donor_user_id, base_cents, tip_cents, fee_cents, total_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (gateway_tx_id) DO NOTHING`
	res, err := tx.ExecContext(ctx, query,
		d.CampaignID, d.GatewayTxID, d.OrderID, d.DonorName, d.DonorEmail,
		d.DonorUserID, d.BaseCents, d.TipCents, d.FeeCents, d.TotalCents, d.Status)
	if err != nil {
		return false, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if inserted == 0 {
		return false, nil
	}

	query = `
		UPDATE campaigns
		SET captured_cents = captured_cents + $1,
		    donor_count = donor_count + 1,
		    updated_at = now()
		WHERE id = $2`
	if _, err := tx.ExecContext(ctx, query, d.BaseCents, d.CampaignID); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) ListDonationsByCampaign(ctx context.Context, campaignID int64) ([]models.Donation, error) {
	var list []models.Donation
	query := `SELECT * FROM donations WHERE campaign_id = $1 ORDER BY created_at DESC`
	if err := s.DB.SelectContext(ctx, &list, query, campaignID); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) ListCompletedDonations(ctx context.Context, campaignID int64) ([]models.Donation, error) {
	var list []models.Donation
	query := `
		SELECT * FROM donations
		WHERE campaign_id = $1 AND status = $2
		ORDER BY created_at`
	if err := s.DB.SelectContext(ctx, &list, query, campaignID, models.DonationCompleted); err != nil {
		return nil, err
	}
	return list, nil
}

// MarkDonationRefunded is the only permitted mutation of a ledger entry.
func (s *Store) MarkDonationRefunded(ctx context.Context, gatewayTxID string) error {
	query := `UPDATE donations SET status = $1 WHERE gateway_tx_id = $2`
	res, err := s.DB.ExecContext(ctx, query, models.DonationRefunded, gatewayTxID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
