package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"folio/api/internal/util"
)

type ContactEmail struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	EmailStatusPending = "pending"
	EmailStatusSent    = "sent"
	EmailStatusFailed  = "failed"
)

func (s *PostgresStore) InsertContactEmail(ctx context.Context, name, email, message string) (string, error) {
	id := util.NewID("msg")
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contact_emails (id, name, email, message, status)
		VALUES ($1, $2, $3, $4, $5)
	`, id, name, email, message, EmailStatusPending)
	if err != nil {
		return "", fmt.Errorf("insert contact email: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) UpdateContactEmailStatus(ctx context.Context, id, status string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE contact_emails SET status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return fmt.Errorf("update contact email status: %w", err)
	}
	return requireRows(result, id)
}

func (s *PostgresStore) ListContactEmails(ctx context.Context) ([]ContactEmail, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, message, status, created_at
		FROM contact_emails
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list contact emails: %w", err)
	}
	defer rows.Close()

	items := make([]ContactEmail, 0)
	for rows.Next() {
		var item ContactEmail
		if err := rows.Scan(&item.ID, &item.Name, &item.Email, &item.Message, &item.Status, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contact email: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contact emails: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) DeleteContactEmail(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "contact_emails", id)
}

type AdminEmail struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *PostgresStore) ListAdminEmails(ctx context.Context) ([]AdminEmail, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, email, created_at FROM admin_emails ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list admin emails: %w", err)
	}
	defer rows.Close()

	items := make([]AdminEmail, 0)
	for rows.Next() {
		var item AdminEmail
		if err := rows.Scan(&item.ID, &item.Email, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan admin email: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admin emails: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertAdminEmail(ctx context.Context, email string) (string, error) {
	id := util.NewID("adm")
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_emails (id, email) VALUES ($1, $2)
		ON CONFLICT (email) DO NOTHING
	`, id, email)
	if err != nil {
		return "", fmt.Errorf("insert admin email: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) DeleteAdminEmail(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "admin_emails", id)
}

type AdminUser struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
}

func (s *PostgresStore) GetAdminUserByEmail(ctx context.Context, email string) (AdminUser, error) {
	var user AdminUser
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, display_name
		FROM admin_users
		WHERE email = $1
	`, email).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return AdminUser{}, fmt.Errorf("%w: admin user", ErrNotFound)
	}
	if err != nil {
		return AdminUser{}, fmt.Errorf("lookup admin user: %w", err)
	}
	return user, nil
}
