package group

import (
	"context"
	"database/sql"
	"time"

	"github.com/pulse-im/pulse/store/user"
)

// SQLStore implements Store using a database/sql connection.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a new SQLStore.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) CreateGroup(ctx context.Context, g *Group, memberIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				_ = rollbackErr
			}
		}
	}()

	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}

	groupInsert := `
		INSERT INTO groups (name, created_by, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	if err = tx.QueryRowContext(ctx, groupInsert, g.Name, g.CreatedBy, g.CreatedAt).Scan(&g.ID); err != nil {
		return err
	}

	memberInsert := `
		INSERT INTO group_members (group_id, user_id, joined_at)
		VALUES ($1, $2, $3)
	`

	joinedAt := time.Now()
	for _, memberID := range memberIDs {
		if _, err = tx.ExecContext(ctx, memberInsert, g.ID, memberID, joinedAt); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (s *SQLStore) Members(ctx context.Context, groupID string) ([]user.User, error) {
	query := `
		SELECT u.id, u.username, u.is_online, u.last_seen, u.created_at
		FROM users u
		JOIN group_members m ON m.user_id = u.id
		WHERE m.group_id = $1
	`

	rows, err := s.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var members []user.User
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.ID, &u.Username, &u.IsOnline, &u.LastSeen, &u.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(members) == 0 {
		return nil, ErrGroupNotFound
	}

	return members, nil
}

func (s *SQLStore) CreateMessage(ctx context.Context, m *GroupMessage) error {
	query := `
		INSERT INTO group_messages (group_id, sender_id, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	return s.db.QueryRowContext(ctx, query, m.GroupID, m.SenderID, m.Content, m.CreatedAt).Scan(&m.ID)
}
