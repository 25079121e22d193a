package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stepsnap/stepsnap/internal/action"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id UUID PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	actions JSONB NOT NULL DEFAULT '[]',
	actions_count INT NOT NULL DEFAULT 0,
	has_captures BOOLEAN NOT NULL DEFAULT FALSE,
	is_shared BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

const sessionColumns = "id::text, title, description, actions, actions_count, has_captures, is_shared, created_at, updated_at"

// PostgresStore persists sessions in a postgres table. The action
// sequence is stored as a jsonb document in the wire format of the
// action package; the derived columns are recomputed in Go before
// every insert and update.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to postgres: %v", err)
	}
	if _, err := db.Exec(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while creating sessions table: %v", err)
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) Create(ctx context.Context, s *Session) (*Session, error) {
	stored := s.Copy()
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	stored.Recompute()

	encoded, err := action.Encode(stored.Actions)
	if err != nil {
		return nil, err
	}
	_, err = p.db.Exec(ctx, `
		INSERT INTO sessions (id, title, description, actions, actions_count, has_captures, is_shared, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, stored.ID, stored.Title, stored.Description, encoded, stored.ActionsCount, stored.HasCaptures, stored.IsShared, stored.CreatedAt, stored.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("error while inserting session: %v", err)
	}
	return stored, nil
}

// validID reports whether id can exist as a primary key at all.
// Malformed ids are treated as missing instead of surfacing a uuid
// cast error from postgres.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (p *PostgresStore) GetByID(ctx context.Context, id string) (*Session, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	row := p.db.QueryRow(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE id = $1", id)
	return scanSession(row)
}

func (p *PostgresStore) List(ctx context.Context) ([]*Session, error) {
	rows, err := p.db.Query(ctx, "SELECT "+sessionColumns+" FROM sessions ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("error while listing sessions: %v", err)
	}
	defer rows.Close()
	sessions := []*Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (p *PostgresStore) Update(ctx context.Context, id string, patch Patch) (*Session, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("error while starting transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE id = $1 FOR UPDATE", id)
	s, err := scanSession(row)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		s.Title = *patch.Title
	}
	if patch.Description != nil {
		s.Description = *patch.Description
	}
	if patch.Actions != nil {
		s.Actions = *patch.Actions
	}
	s.UpdatedAt = time.Now()
	s.Recompute()

	encoded, err := action.Encode(s.Actions)
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(ctx, `
		UPDATE sessions
		SET title = $2, description = $3, actions = $4, actions_count = $5, has_captures = $6, updated_at = $7
		WHERE id = $1
	`, id, s.Title, s.Description, encoded, s.ActionsCount, s.HasCaptures, s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("error while updating session: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("error while committing update: %v", err)
	}
	return s, nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	tag, err := p.db.Exec(ctx, "DELETE FROM sessions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("error while deleting session: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) SetShared(ctx context.Context, id string, shared bool) (*Session, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	row := p.db.QueryRow(ctx, `
		UPDATE sessions SET is_shared = $2, updated_at = $3 WHERE id = $1
		RETURNING `+sessionColumns, id, shared, time.Now())
	return scanSession(row)
}

func (p *PostgresStore) GetShared(ctx context.Context, id string) (*Session, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	// exists-but-unshared looks exactly like missing
	row := p.db.QueryRow(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE id = $1 AND is_shared = TRUE", id)
	return scanSession(row)
}

func (p *PostgresStore) Close() {
	p.db.Close()
}

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	var encoded []byte
	err := row.Scan(&s.ID, &s.Title, &s.Description, &encoded, &s.ActionsCount, &s.HasCaptures, &s.IsShared, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error while scanning session: %v", err)
	}
	actions, err := action.DecodeSlice(encoded)
	if err != nil {
		return nil, fmt.Errorf("error while decoding stored actions: %v", err)
	}
	s.Actions = actions
	return &s, nil
}
