package store

import (
	"context"
	"database/sql"
	"errors"

	"fundgate/internal/models"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

func (s *Store) CreateCampaign(ctx context.Context, c *models.Campaign) error {
	query := `
		INSERT INTO campaigns (owner_id, title, description, target_cents, status, ends_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, captured_cents, donor_count, created_at, updated_at`
	return s.DB.GetContext(ctx, c, query,
		c.OwnerID, c.Title, c.Description, c.TargetCents, c.Status, c.EndsAt)
}

func (s *Store) GetCampaign(ctx context.Context, id int64) (*models.Campaign, error) {
	var c models.Campaign
	query := `SELECT * FROM campaigns WHERE id = $1`
	if err := s.DB.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListCampaignsByOwner(ctx context.Context, ownerID int64) ([]models.Campaign, error) {
	var list []models.Campaign
	query := `SELECT * FROM campaigns WHERE owner_id = $1 ORDER BY created_at DESC`
	if err := s.DB.SelectContext(ctx, &list, query, ownerID); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) ListCampaigns(ctx context.Context, limit, offset int) ([]models.Campaign, error) {
	var list []models.Campaign
	query := `SELECT * FROM campaigns ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	if err := s.DB.SelectContext(ctx, &list, query, limit, offset); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) SetCampaignStatus(ctx context.Context, id int64, stored string) error {
	query := `UPDATE campaigns SET status = $1, updated_at = now() WHERE id = $2`
	res, err := s.DB.ExecContext(ctx, query, stored, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetCampaignCover(ctx context.Context, id int64, url string) error {
	query := `UPDATE campaigns SET cover_url = $1, updated_at = now() WHERE id = $2`
	res, err := s.DB.ExecContext(ctx, query, url, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
