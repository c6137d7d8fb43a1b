package message

import (
	"context"
	"database/sql"
	"time"
)

const defaultHistoryLimit = 50

// SQLStore implements Store using a database/sql connection.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a new SQLStore.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Create(ctx context.Context, m *DirectMessage) error {
	query := `
		INSERT INTO messages (sender_id, receiver_id, content, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	return s.db.QueryRowContext(ctx, query, m.SenderID, m.ReceiverID, m.Content, m.IsRead, m.CreatedAt).Scan(&m.ID)
}

func (s *SQLStore) MarkRead(ctx context.Context, receiverID, senderID string) error {
	query := `
		UPDATE messages
		SET is_read = TRUE
		WHERE receiver_id = $1 AND sender_id = $2 AND is_read = FALSE
	`

	_, err := s.db.ExecContext(ctx, query, receiverID, senderID)
	return err
}

func (s *SQLStore) ListBetween(ctx context.Context, userAID, userBID string, limit int) ([]DirectMessage, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	query := `
		SELECT id, sender_id, receiver_id, content, is_read, created_at
		FROM (
			SELECT id, sender_id, receiver_id, content, is_read, created_at
			FROM messages
			WHERE (sender_id = $1 AND receiver_id = $2)
				OR (sender_id = $2 AND receiver_id = $1)
			ORDER BY created_at DESC
			LIMIT $3
		) recent
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userAID, userBID, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var messages []DirectMessage
	for rows.Next() {
		var m DirectMessage
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}
