package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"pawledger/internal/domain"
	"pawledger/internal/ledger"
	"pawledger/internal/store"
)

// ledger_rows keeps every ledger in one append-only table. row_key holds the
// normalised key column so "latest row for a key" is an index lookup.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS ledger_rows (
	seq        BIGSERIAL PRIMARY KEY,
	ledger     TEXT NOT NULL,
	row_key    TEXT,
	cells      JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_ledger_rows_ledger_seq ON ledger_rows (ledger, seq);
CREATE INDEX IF NOT EXISTS idx_ledger_rows_key ON ledger_rows (ledger, row_key, seq DESC);
CREATE TABLE IF NOT EXISTS users (
	username   TEXT PRIMARY KEY,
	password   TEXT NOT NULL,
	role       TEXT NOT NULL,
	active     BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	accounts, err := store.SeedAccounts()
	if err != nil {
		return err
	}
	for _, account := range accounts {
		if err := s.CreateUser(ctx, account); err != nil && !errors.Is(err, store.ErrInvalidInput) {
			return err
		}
	}
	log.Printf("[postgres-store] seeded %d staff accounts", len(accounts))
	return nil
}

func (s *Store) Fetch(ctx context.Context, name string) ([]ledger.Row, error) {
	schema, err := store.Schema(name)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT cells
		FROM ledger_rows
		WHERE ledger = $1
		ORDER BY seq
	`, schema.Name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]ledger.Row, 0, 128)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		row, err := decodeCells(raw)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) Append(ctx context.Context, name string, row ledger.Row) error {
	schema, err := store.Schema(name)
	if err != nil {
		return err
	}
	if len(row) == 0 {
		return store.ErrInvalidInput
	}

	payload, err := json.Marshal([]string(row))
	if err != nil {
		return err
	}
	var key sql.NullString
	if k, ok := schema.Key(row); ok {
		key = sql.NullString{String: k, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ledger_rows (ledger, row_key, cells, created_at)
		VALUES ($1, $2, $3, now())
	`, schema.Name, key, payload)
	return err
}

func (s *Store) Latest(ctx context.Context, name string, key string) (ledger.Row, bool, error) {
	schema, err := store.Schema(name)
	if err != nil {
		return nil, false, err
	}
	if !schema.Keyed() {
		return nil, false, store.ErrInvalidInput
	}

	var raw []byte
	err = s.db.QueryRowContext(ctx, `
		SELECT cells
		FROM ledger_rows
		WHERE ledger = $1 AND row_key = $2
		ORDER BY seq DESC
		LIMIT 1
	`, schema.Name, ledger.NormalizeKey(key)).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	row, err := decodeCells(raw)
	if err != nil {
		return nil, false, err
	}
	return row, true, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.Username == "" || user.Password == "" {
		return store.ErrInvalidInput
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var u domain.UserAccount
		if err := rows.Scan(&u.Username, &u.Password, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.CreatedAt = u.CreatedAt.UTC()
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $2 WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func decodeCells(raw []byte) (ledger.Row, error) {
	var cells []string
	if err := json.Unmarshal(raw, &cells); err != nil {
		return nil, fmt.Errorf("decode ledger row: %w", err)
	}
	return ledger.Row(cells), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
