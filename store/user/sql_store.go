package user

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// SQLStore implements Store using a database/sql connection.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a new SQLStore.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (id, username, password_hash, is_online, last_seen, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	if u.LastSeen.IsZero() {
		u.LastSeen = u.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, query, u.ID, u.Username, u.PasswordHash, u.IsOnline, u.LastSeen, u.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return ErrDuplicateUsername
		}
		return err
	}

	return nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, username, password_hash, is_online, last_seen, created_at
		FROM users
		WHERE id = $1
	`

	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

func (s *SQLStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	query := `
		SELECT id, username, password_hash, is_online, last_seen, created_at
		FROM users
		WHERE username = $1
	`

	return s.scanOne(s.db.QueryRowContext(ctx, query, username))
}

func (s *SQLStore) UpdatePresence(ctx context.Context, id string, online bool, lastSeen time.Time) error {
	query := `
		UPDATE users
		SET is_online = $2, last_seen = $3
		WHERE id = $1
	`

	res, err := s.db.ExecContext(ctx, query, id, online, lastSeen)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (s *SQLStore) scanOne(row *sql.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsOnline, &u.LastSeen, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &u, nil
}
