package database

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
)

const SettingPrivateToken = "private_token"

// Store bundles the repositories over one connection or one transaction.
type Store struct {
	db *DB

	Feeds    FeedRepository
	Items    ItemRepository
	Settings SettingsRepository
}

func NewStore(db *DB) *Store {
	return newStore(db, db.DB)
}

func newStore(db *DB, q querier) *Store {
	return &Store{
		db:       db,
		Feeds:    &feedRepository{q: q},
		Items:    &itemRepository{q: q},
		Settings: &settingsRepository{q: q},
	}
}

// Init migrates the schema, seeds the own feed and generates the private
// token when none is stored yet.
func (s *Store) Init(ctx context.Context) error {
	version, dirty, err := RunMigrations(s.db)
	if err != nil {
		return err
	}
	slog.Debug("Database migrated", "version", version, "dirty", dirty)

	return s.InTx(ctx, func(tx *Store) error {
		if err := tx.Feeds.EnsureOwnFeed(ctx); err != nil {
			return err
		}

		_, ok, err := tx.Settings.GetSetting(ctx, SettingPrivateToken)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		token, err := NewToken()
		if err != nil {
			return err
		}
		slog.Info("Generated private feed token")
		return tx.Settings.SetSetting(ctx, SettingPrivateToken, token)
	})
}

// InTx runs fn against a transaction-bound store. The transaction commits
// only when fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(newStore(s.db, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Error("Transaction rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) PrivateToken(ctx context.Context) (string, error) {
	token, ok, err := s.Settings.GetSetting(ctx, SettingPrivateToken)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("private token is not initialized")
	}
	return token, nil
}

func (s *Store) RegeneratePrivateToken(ctx context.Context) (string, error) {
	token, err := NewToken()
	if err != nil {
		return "", err
	}
	if err := s.Settings.SetSetting(ctx, SettingPrivateToken, token); err != nil {
		return "", err
	}
	return token, nil
}

// NewToken returns 128 random bits, hex encoded.
func NewToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
