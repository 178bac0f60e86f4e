package store

import (
	"context"
	"database/sql"
	"errors"

	"fundgate/internal/models"
)

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	query := `SELECT * FROM users WHERE id = $1`
	if err := s.DB.GetContext(ctx, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	query := `SELECT * FROM users WHERE email = $1`
	if err := s.DB.GetContext(ctx, &u, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts the user and the profile in one transaction so that
// both exist or neither does.
func (s *Store) CreateUser(ctx context.Context, u *models.User, p *models.Profile) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`
	if err := tx.GetContext(ctx, u, query, u.Email, u.PasswordHash); err != nil {
		return err
	}

	p.UserID = u.ID
	query = `
		INSERT INTO profiles (user_id, display_name, widget_secret_token)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`
	if err := tx.GetContext(ctx, p, query, p.UserID, p.DisplayName, p.WidgetSecretToken); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	var p models.Profile
	query := `SELECT * FROM profiles WHERE user_id = $1`
	if err := s.DB.GetContext(ctx, &p, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetProfileByWidgetToken(ctx context.Context, token string) (*models.Profile, error) {
	var p models.Profile
	query := `SELECT * FROM profiles WHERE widget_secret_token = $1`
	if err := s.DB.GetContext(ctx, &p, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpdateProfilePhone(ctx context.Context, userID int64, phone string) error {
	query := `UPDATE profiles SET phone = $1, updated_at = now() WHERE user_id = $2`
	res, err := s.DB.ExecContext(ctx, query, phone, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateProfileTaxID(ctx context.Context, userID int64, taxID string) error {
	query := `UPDATE profiles SET tax_id = $1, updated_at = now() WHERE user_id = $2`
	res, err := s.DB.ExecContext(ctx, query, taxID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetBankAccount(ctx context.Context, userID int64) (*models.BankAccount, error) {
	var b models.BankAccount
	query := `SELECT * FROM bank_accounts WHERE user_id = $1`
	if err := s.DB.GetContext(ctx, &b, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (s *Store) UpsertBankAccount(ctx context.Context, b *models.BankAccount) error {
	query := `
		INSERT INTO bank_accounts (user_id, bank_name, account_number, holder_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET bank_name = EXCLUDED.bank_name,
		    account_number = EXCLUDED.account_number,
		    holder_name = EXCLUDED.holder_name,
		    updated_at = now()
		RETURNING id, created_at, updated_at`
	return s.DB.GetContext(ctx, b, query, b.UserID, b.BankName, b.AccountNumber, b.HolderName)
}
