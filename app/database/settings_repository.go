package database

import (
	"context"
	"database/sql"
	"fmt"
)

var _ SettingsRepository = (*settingsRepository)(nil)

type settingsRepository struct {
	q querier
}

func (r *settingsRepository) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.q.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, true, nil
}

func (r *settingsRepository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}
