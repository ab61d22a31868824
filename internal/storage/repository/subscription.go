package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aicollect/restriction-engine/internal/models"
)

const subscriptionColumns = `id, user_id, content_type, start_date, end_date, status, created_at, updated_at`

// CreateSubscription вставляет новую подписку с окном
// [NOW(), NOW() + durationDays) и статусом active, возвращает созданную запись.
func (s *Storage) CreateSubscription(ctx context.Context, userID int, contentType string, durationDays int) (*models.Subscription, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (user_id, content_type, start_date, end_date, status)
			  VALUES ($1, $2, NOW(), NOW() + make_interval(days => $3), $4)
			  RETURNING ` + subscriptionColumns
	row := s.DB.QueryRowContext(ctx, query, userID, contentType, durationDays, models.SubscriptionStatusActive)
	return scanSubscription(row, op)
}

// ExtendSubscription продлевает подписку на additionalDays от более
// позднего из двух моментов: текущей даты окончания или NOW().
// Продление просроченной подписки не открывает доступ задним числом.
// Выполняется одним UPDATE, поэтому конкурентные продления
// сериализуются блокировкой строки.
func (s *Storage) ExtendSubscription(ctx context.Context, id int, additionalDays int) (*models.Subscription, error) {
	const op = "storage.ExtendSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET end_date = GREATEST(end_date, NOW()) + make_interval(days => $2),
			      updated_at = NOW()
			  WHERE id = $1
			  RETURNING ` + subscriptionColumns
	row := s.DB.QueryRowContext(ctx, query, id, additionalDays)
	result, err := scanSubscription(row, op)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrSubscriptionNotFound)
		}
		return nil, err
	}
	return result, nil
}

// CancelSubscription переводит подписку в статус cancelled и обрезает
// end_date до NOW(), если окно ещё открыто. Повторная отмена идемпотентна:
// уже отменённая запись возвращается без изменений. Признак effective
// сообщает, что именно этот вызов выполнил отмену: охраняемый UPDATE
// совпадает только для одного из конкурентных вызовов.
func (s *Storage) CancelSubscription(ctx context.Context, id int) (*models.Subscription, bool, error) {
	const op = "storage.CancelSubscription"
	select {
	case <-ctx.Done():
		return nil, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET status = $2,
			      end_date = LEAST(end_date, NOW()),
			      updated_at = NOW()
			  WHERE id = $1 AND status <> $2
			  RETURNING ` + subscriptionColumns
	row := s.DB.QueryRowContext(ctx, query, id, models.SubscriptionStatusCancelled)
	result, err := scanSubscription(row, op)
	if err == nil {
		return result, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	// Либо записи нет, либо её уже отменил другой вызов.
	readQuery := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	result, err = scanSubscription(s.DB.QueryRowContext(ctx, readQuery, id), op)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, fmt.Errorf("%s: %w", op, models.ErrSubscriptionNotFound)
		}
		return nil, false, err
	}
	return result, false, nil
}

// GetSubscription возвращает подписку по её ID.
func (s *Storage) GetSubscription(ctx context.Context, id int) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	result, err := scanSubscription(s.DB.QueryRowContext(ctx, query, id), op)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrSubscriptionNotFound)
		}
		return nil, err
	}
	return result, nil
}

// ListSubscriptions возвращает все подписки пользователя в порядке
// убывания end_date. Пустой список ошибкой не считается.
func (s *Storage) ListSubscriptions(ctx context.Context, userID int) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_id = $1
			  ORDER BY end_date DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		var item models.Subscription
		if err := rows.Scan(&item.ID, &item.UserID, &item.ContentType, &item.StartDate,
			&item.EndDate, &item.Status, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func scanSubscription(row *sql.Row, op string) (*models.Subscription, error) {
	var result models.Subscription
	if err := row.Scan(&result.ID, &result.UserID, &result.ContentType, &result.StartDate,
		&result.EndDate, &result.Status, &result.CreatedAt, &result.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}
