package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aicollect/restriction-engine/internal/models"
)

// UpsertPeriod сохраняет состояние биллингового периода, пришедшее от
// платёжного провайдера. Ключ — внешний идентификатор подписки:
// повторный callback по тому же идентификатору обновляет существующую запись.
func (s *Storage) UpsertPeriod(ctx context.Context, userID int, billingID string,
	status models.PeriodStatus, periodStart, periodEnd time.Time) (*models.SubscriptionPeriod, error) {
	const op = "storage.UpsertPeriod"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscription_periods
			      (user_id, billing_id, subscription_status, current_period_start, current_period_end)
			  VALUES ($1, $2, $3, $4, $5)
			  ON CONFLICT (billing_id) DO UPDATE
			  SET subscription_status = EXCLUDED.subscription_status,
			      current_period_start = EXCLUDED.current_period_start,
			      current_period_end = EXCLUDED.current_period_end,
			      updated_at = NOW()
			  RETURNING id, user_id, billing_id, subscription_status,
			      current_period_start, current_period_end, created_at, updated_at`
	var p models.SubscriptionPeriod
	err := s.DB.QueryRowContext(ctx, query, userID, billingID, string(status), periodStart, periodEnd).
		Scan(&p.ID, &p.UserID, &p.BillingID, &p.SubscriptionStatus,
			&p.CurrentPeriodStart, &p.CurrentPeriodEnd, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// ListPeriods возвращает все биллинговые периоды пользователя.
func (s *Storage) ListPeriods(ctx context.Context, userID int) ([]*models.SubscriptionPeriod, error) {
	const op = "storage.ListPeriods"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, user_id, billing_id, subscription_status,
			      current_period_start, current_period_end, created_at, updated_at
			  FROM subscription_periods
			  WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SubscriptionPeriod
	for rows.Next() {
		var p models.SubscriptionPeriod
		if err := rows.Scan(&p.ID, &p.UserID, &p.BillingID, &p.SubscriptionStatus,
			&p.CurrentPeriodStart, &p.CurrentPeriodEnd, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
