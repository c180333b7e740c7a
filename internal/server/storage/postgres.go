package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/cloudzz-dev/batepapo/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS participants (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	last_status TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	id        BIGSERIAL PRIMARY KEY,
	sender    TEXT NOT NULL,
	recipient TEXT NOT NULL,
	body      TEXT NOT NULL,
	kind      TEXT NOT NULL,
	sent_at   TEXT NOT NULL
);`

// uniqueViolation is the Postgres SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// Postgres is a Store backed by lib/pq.
type Postgres struct {
	db *sql.DB
}

// NewPostgres connects to connStr and creates the tables if needed.
func NewPostgres(ctx context.Context, connStr string) (*Postgres, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (s *Postgres) Close() error {
	return s.db.Close()
}

func (s *Postgres) AddParticipant(ctx context.Context, name string, now time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO participants (name, last_status) VALUES ($1, $2)",
		name, now,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrExists
	}
	return err
}

func (s *Postgres) Touch(ctx context.Context, name string, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE participants SET last_status = $1 WHERE name = $2",
		now, name,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) Online(ctx context.Context, name string) (bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM participants WHERE name = $1", name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Postgres) Participants(ctx context.Context) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM participants ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Participant{}
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) RemoveIdle(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"DELETE FROM participants WHERE last_status < $1 RETURNING name",
		cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var removed []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		removed = append(removed, name)
	}
	return removed, rows.Err()
}

func (s *Postgres) AppendMessage(ctx context.Context, m models.Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (sender, recipient, body, kind, sent_at)
		VALUES ($1, $2, $3, $4, $5)
	`, m.From, m.To, m.Text, string(m.Type), m.Time)
	return err
}

func (s *Postgres) Messages(ctx context.Context, limit int) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sender, recipient, body, kind, sent_at
		FROM messages
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []models.Message{}
	for rows.Next() {
		var m models.Message
		var kind string
		if err := rows.Scan(&m.From, &m.To, &m.Text, &kind, &m.Time); err != nil {
			return nil, err
		}
		m.Type = models.Kind(kind)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to get oldest first
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
