package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aicollect/restriction-engine/internal/models"
)

// EvaluationSnapshot читает в одной транзакции все данные, нужные для
// вынесения вердикта: биллинговые периоды пользователя, его подписки на
// запрошенный тип контента и последнюю запись журнала использования.
// Одна транзакция исключает расхождение между проверкой периода и
// проверкой подписки при конкурентных изменениях.
func (s *Storage) EvaluationSnapshot(ctx context.Context, userID int, contentType string) (*models.EvaluationSnapshot, error) {
	const op = "storage.EvaluationSnapshot"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	snapshot := &models.EvaluationSnapshot{}

	rows, err := tx.QueryContext(ctx, `SELECT id, user_id, billing_id, subscription_status,
			      current_period_start, current_period_end, created_at, updated_at
			  FROM subscription_periods
			  WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for rows.Next() {
		var p models.SubscriptionPeriod
		if err := rows.Scan(&p.ID, &p.UserID, &p.BillingID, &p.SubscriptionStatus,
			&p.CurrentPeriodStart, &p.CurrentPeriodEnd, &p.CreatedAt, &p.UpdatedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		snapshot.Periods = append(snapshot.Periods, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	_ = rows.Close()

	rows, err = tx.QueryContext(ctx, `SELECT `+subscriptionColumns+`
			  FROM subscriptions
			  WHERE user_id = $1 AND content_type = $2`, userID, contentType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for rows.Next() {
		var item models.Subscription
		if err := rows.Scan(&item.ID, &item.UserID, &item.ContentType, &item.StartDate,
			&item.EndDate, &item.Status, &item.CreatedAt, &item.UpdatedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		snapshot.Subscriptions = append(snapshot.Subscriptions, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	_ = rows.Close()

	var lastUsage models.UsageLog
	err = tx.QueryRowContext(ctx, `SELECT id, user_id, content_type, usage_quantity, is_free, created_at
			  FROM usage_logs
			  WHERE user_id = $1 AND content_type = $2
			  ORDER BY created_at DESC
			  LIMIT 1`, userID, contentType).
		Scan(&lastUsage.ID, &lastUsage.UserID, &lastUsage.ContentType,
			&lastUsage.Quantity, &lastUsage.IsFree, &lastUsage.CreatedAt)
	switch {
	case err == nil:
		snapshot.LastUsage = &lastUsage
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Для наблюдаемости различаем "ничего не подошло" и "записей нет вовсе":
	// учитываются записи по любому типу контента.
	var hasAnyRecord bool
	err = tx.QueryRowContext(ctx, `SELECT
			      EXISTS (SELECT 1 FROM subscription_periods WHERE user_id = $1)
			   OR EXISTS (SELECT 1 FROM subscriptions WHERE user_id = $1)
			   OR EXISTS (SELECT 1 FROM usage_logs WHERE user_id = $1)`, userID).
		Scan(&hasAnyRecord)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	snapshot.HasAnyRecord = hasAnyRecord

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return snapshot, nil
}
