package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aicollect/restriction-engine/internal/models"
)

// GetLastUsage возвращает последнюю запись журнала использования для
// пары (пользователь, тип контента) или nil, если записей нет.
// Запрос опирается на индекс (user_id, content_type, created_at),
// поэтому не сканирует историю.
func (s *Storage) GetLastUsage(ctx context.Context, userID int, contentType string) (*models.UsageLog, error) {
	const op = "storage.GetLastUsage"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, content_type, usage_quantity, is_free, created_at
			  FROM usage_logs
			  WHERE user_id = $1 AND content_type = $2
			  ORDER BY created_at DESC
			  LIMIT 1`
	var u models.UsageLog
	err := s.DB.QueryRowContext(ctx, query, userID, contentType).
		Scan(&u.ID, &u.UserID, &u.ContentType, &u.Quantity, &u.IsFree, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}

// CreateCancellationRecord добавляет запись в историю отмен.
// История только пополняется и служит аудиту; правила доступа её не читают.
func (s *Storage) CreateCancellationRecord(ctx context.Context, userID int, contentType, reason string) (int, error) {
	const op = "storage.CreateCancellationRecord"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO cancellation_history (user_id, content_type, reason)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	var newID int
	if err := s.DB.QueryRowContext(ctx, query, userID, contentType, reason).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListCancellationHistory возвращает историю отмен пользователя по типу контента.
func (s *Storage) ListCancellationHistory(ctx context.Context, userID int, contentType string) ([]*models.CancellationRecord, error) {
	const op = "storage.ListCancellationHistory"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, content_type, reason, created_at
			  FROM cancellation_history
			  WHERE user_id = $1 AND content_type = $2
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID, contentType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.CancellationRecord
	for rows.Next() {
		var c models.CancellationRecord
		if err := rows.Scan(&c.ID, &c.UserID, &c.ContentType, &c.Reason, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
