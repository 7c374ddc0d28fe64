package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"chatroom-server/internal/models"
)

// MessageRepo is the persistence boundary for routed messages. The core
// consumes it, never implements it; tests substitute a fake.
type MessageRepo interface {
	Insert(ctx context.Context, m *models.ChatMessage) (int64, error)
	Query(ctx context.Context, page, size int, filter, nickname string) ([]*models.ChatMessage, int64, error)
	SoftDeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type PostgresMessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) MessageRepo {
	return &PostgresMessageRepo{
		pool: pool,
	}
}

func (r *PostgresMessageRepo) Insert(ctx context.Context, m *models.ChatMessage) (int64, error) {
	query := `
        INSERT INTO chat_message (from_user, to_user, content, message_type, file_url, file_size, create_time, type)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `

	var id int64
	err := r.pool.QueryRow(ctx, query,
		m.FromUser,
		m.ToUser,
		m.Content,
		m.MsgType,
		m.FileUrl,
		m.FileSize,
		m.CreateTime,
		m.Type,
	).Scan(&id)

	if err != nil {
		log.Printf("[REPO ERROR] Failed to save message from %s: %v", m.FromUser, err)
		return 0, fmt.Errorf("insert chat message: %w", err)
	}

	m.ID = id
	return id, nil
}

// Query returns one page of non-deleted messages ordered by create_time
// descending, plus the total count of the filtered set. "group" keeps
// broadcast messages only; "self-private" keeps private messages the
// requester sent or received; anything else is unfiltered.
func (r *PostgresMessageRepo) Query(ctx context.Context, page, size int, filter, nickname string) ([]*models.ChatMessage, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}

	clause := "WHERE is_deleted = FALSE"
	args := []any{}
	switch filter {
	case "group":
		clause += " AND type = 'chat'"
	case "self-private":
		args = append(args, nickname)
		clause += " AND type = 'private' AND (from_user = $1 OR to_user = $1)"
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM chat_message " + clause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Printf("[REPO ERROR] History count failed: %v", err)
		return nil, 0, fmt.Errorf("count chat messages: %w", err)
	}

	query := fmt.Sprintf(`
        SELECT id, from_user, to_user, content, message_type, file_url, file_size, create_time, type
        FROM chat_message
        %s
        ORDER BY create_time DESC
        LIMIT $%d OFFSET $%d
    `, clause, len(args)+1, len(args)+2)

	rows, err := r.pool.Query(ctx, query, append(args, size, (page-1)*size)...)
	if err != nil {
		log.Printf("[REPO ERROR] History fetch failed: %v", err)
		return nil, 0, fmt.Errorf("query chat messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		m := &models.ChatMessage{}
		err := rows.Scan(
			&m.ID,
			&m.FromUser,
			&m.ToUser,
			&m.Content,
			&m.MsgType,
			&m.FileUrl,
			&m.FileSize,
			&m.CreateTime,
			&m.Type,
		)
		if err != nil {
			log.Printf("[REPO ERROR] Scan failed: %v", err)
			return nil, 0, fmt.Errorf("scan chat message: %w", err)
		}
		messages = append(messages, m)
	}

	return messages, total, rows.Err()
}

// SoftDeleteBefore flags messages older than the cutoff as deleted. Rows
// are never physically removed.
func (r *PostgresMessageRepo) SoftDeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
        UPDATE chat_message
        SET is_deleted = TRUE, version = version + 1
        WHERE is_deleted = FALSE AND create_time < $1
    `

	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		log.Printf("[REPO ERROR] Retention sweep failed: %v", err)
		return 0, fmt.Errorf("soft delete chat messages: %w", err)
	}

	return tag.RowsAffected(), nil
}
