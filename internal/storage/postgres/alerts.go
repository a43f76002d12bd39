package postgres

import (
	"context"
	"fmt"
	"time"

	"tokenMirror/internal/model"
)

func (s *Store) InsertAlert(ctx context.Context, alert model.SystemAlert) error {
	createdAt := alert.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO system_alerts (severity, title, description, source, created_at, resolved)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, string(alert.Severity), alert.Title, alert.Description, alert.Source, createdAt, alert.Resolved)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (s *Store) UnresolvedAlerts(ctx context.Context, limit int) ([]model.SystemAlert, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, severity, title, description, source, created_at, resolved
		FROM system_alerts
		WHERE NOT resolved
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("unresolved alerts: %w", err)
	}
	defer rows.Close()

	out := make([]model.SystemAlert, 0, limit)
	for rows.Next() {
		var (
			alert    model.SystemAlert
			severity string
		)
		if err := rows.Scan(&alert.ID, &severity, &alert.Title, &alert.Description, &alert.Source, &alert.CreatedAt, &alert.Resolved); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alert.Severity = model.Severity(severity)
		alert.CreatedAt = alert.CreatedAt.UTC()
		out = append(out, alert)
	}
	return out, rows.Err()
}
