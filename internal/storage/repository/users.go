package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/aicollect/restriction-engine/internal/models"
)

// EnsureUser возвращает пользователя по внешнему идентификатору,
// создавая запись при первом контакте. Непустой email дополняет
// существующую запись, но не затирает уже известный адрес.
func (s *Storage) EnsureUser(ctx context.Context, externalID, email string) (*models.User, error) {
	const op = "storage.EnsureUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (uid, external_id, email)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (external_id) DO UPDATE
			  SET email = COALESCE(NULLIF(EXCLUDED.email, ''), users.email)
			  RETURNING id, uid, external_id, COALESCE(email, ''), created_at`
	u := &models.User{}
	err := s.DB.QueryRowContext(ctx, query, uuid.New().String(), externalID, email).
		Scan(&u.ID, &u.UID, &u.ExternalID, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByExternalID возвращает пользователя по идентификатору в мессенджере.
func (s *Storage) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	const op = "storage.GetUserByExternalID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, uid, external_id, COALESCE(email, ''), created_at
			  FROM users
			  WHERE external_id = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, externalID), op)
}

// GetUserByEmail возвращает пользователя по адресу почты без учёта регистра.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, uid, external_id, COALESCE(email, ''), created_at
			  FROM users
			  WHERE LOWER(email) = LOWER($1)`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, email), op)
}

// GetUser возвращает пользователя по внутреннему числовому идентификатору.
func (s *Storage) GetUser(ctx context.Context, id int) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, uid, external_id, COALESCE(email, ''), created_at
			  FROM users
			  WHERE id = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, id), op)
}

func (s *Storage) scanUser(row *sql.Row, op string) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.UID, &u.ExternalID, &u.Email, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
