package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quickbite/storefront-api/internal/model"
	"github.com/quickbite/storefront-api/internal/repository"
)

const messageColumns = `id, sender_id, subject, body, recipient_type, recipient_id, reply, replied_by, replied_at, is_read, recipient_read, created_at`

func (r *messageRepository) Create(ctx context.Context, msg *model.Message) error {
	query := `
		INSERT INTO messages (id, sender_id, subject, body, recipient_type, recipient_id, is_read, recipient_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	msg.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		msg.ID,
		msg.SenderID,
		msg.Subject,
		msg.Body,
		msg.Recipient.Type,
		msg.Recipient.UserID,
		msg.IsRead,
		msg.RecipientRead,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *messageRepository) Get(ctx context.Context, id uuid.UUID) (*model.Message, error) {
	query := fmt.Sprintf(`SELECT %s FROM messages WHERE id = $1`, messageColumns)

	var row messageRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if translated := translateErr(err); translated == repository.ErrNotFound {
			return nil, translated
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return row.toModel(), nil
}

func (r *messageRepository) ListInbox(ctx context.Context, userID uuid.UUID, roles []model.Role) ([]*model.InboxMessage, error) {
	// Direct targets always match; broadcast classes match by role.
	// Admins also see all_employees broadcasts (supervisory read).
	conditions := `(m.recipient_id = $1)`
	args := []interface{}{userID}

	hasAdmin := false
	hasEmployee := false
	for _, role := range roles {
		switch role {
		case model.RoleAdmin:
			hasAdmin = true
		case model.RoleEmployee:
			hasEmployee = true
		}
	}
	if hasAdmin {
		conditions += ` OR (m.recipient_type = 'admin' AND m.recipient_id IS NULL) OR (m.recipient_type = 'all_employees')`
	} else if hasEmployee {
		conditions += ` OR (m.recipient_type = 'all_employees')`
	}

	query := fmt.Sprintf(`
		SELECT m.id, m.sender_id, m.subject, m.body, m.recipient_type, m.recipient_id,
		       m.reply, m.replied_by, m.replied_at, m.is_read, m.recipient_read, m.created_at,
		       COALESCE(p.full_name, p.username, p.email) AS sender_name
		FROM messages m
		JOIN profiles p ON p.id = m.sender_id
		WHERE %s
		ORDER BY m.created_at DESC
	`, conditions)

	var rows []inboxRow
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list inbox: %w", err)
	}

	inbox := make([]*model.InboxMessage, 0, len(rows))
	for _, row := range rows {
		inbox = append(inbox, &model.InboxMessage{
			Message:    *row.toModel(),
			SenderName: row.SenderName,
		})
	}
	return inbox, nil
}

func (r *messageRepository) ListSent(ctx context.Context, senderID uuid.UUID) ([]*model.SentMessage, error) {
	query := `
		SELECT m.id, m.sender_id, m.subject, m.body, m.recipient_type, m.recipient_id,
		       m.reply, m.replied_by, m.replied_at, m.is_read, m.recipient_read, m.created_at,
		       CASE
		           WHEN m.recipient_id IS NULL AND m.recipient_type = 'admin' THEN 'All admins'
		           WHEN m.recipient_type = 'all_employees' THEN 'All employees'
		           ELSE COALESCE(p.full_name, p.username, p.email, 'Unknown')
		       END AS recipient_name
		FROM messages m
		LEFT JOIN profiles p ON p.id = m.recipient_id
		WHERE m.sender_id = $1
		ORDER BY m.created_at DESC
	`
	var rows []sentRow
	err := r.db.SelectContext(ctx, &rows, query, senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sent messages: %w", err)
	}

	sent := make([]*model.SentMessage, 0, len(rows))
	for _, row := range rows {
		sent = append(sent, &model.SentMessage{
			Message:       *row.toModel(),
			RecipientName: row.RecipientName,
		})
	}
	return sent, nil
}

// SetReply is the first-reply-wins write: the WHERE clause only matches
// while reply is still null, so a racing second replier affects zero
// rows instead of overwriting the winner.
func (r *messageRepository) SetReply(ctx context.Context, id uuid.UUID, reply string, repliedBy uuid.UUID, repliedAt time.Time) error {
	query := `
		UPDATE messages
		SET reply = $1, replied_by = $2, replied_at = $3, is_read = FALSE
		WHERE id = $4 AND reply IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, reply, repliedBy, repliedAt, id)
	if err != nil {
		return fmt.Errorf("failed to set reply: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM messages WHERE id = $1)`, id); err != nil {
			return fmt.Errorf("failed to check message existence: %w", err)
		}
		if exists {
			return repository.ErrAlreadyReplied
		}
		return repository.ErrNotFound
	}

	return nil
}

func (r *messageRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	return r.setFlag(ctx, id, "is_read")
}

func (r *messageRepository) MarkRecipientRead(ctx context.Context, id uuid.UUID) error {
	return r.setFlag(ctx, id, "recipient_read")
}

func (r *messageRepository) setFlag(ctx context.Context, id uuid.UUID, column string) error {
	query := fmt.Sprintf(`UPDATE messages SET %s = TRUE WHERE id = $1`, column)
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *messageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// A single row holds the message and its reply, so the delete is
	// atomic by construction.
	result, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// messageRow flattens the recipient union for sqlx scanning.
type messageRow struct {
	ID            uuid.UUID           `db:"id"`
	SenderID      uuid.UUID           `db:"sender_id"`
	Subject       string              `db:"subject"`
	Body          string              `db:"body"`
	RecipientType model.RecipientType `db:"recipient_type"`
	RecipientID   *uuid.UUID          `db:"recipient_id"`
	Reply         *string             `db:"reply"`
	RepliedBy     *uuid.UUID          `db:"replied_by"`
	RepliedAt     *time.Time          `db:"replied_at"`
	IsRead        bool                `db:"is_read"`
	RecipientRead bool                `db:"recipient_read"`
	CreatedAt     time.Time           `db:"created_at"`
}

func (row *messageRow) toModel() *model.Message {
	return &model.Message{
		ID:       row.ID,
		SenderID: row.SenderID,
		Subject:  row.Subject,
		Body:     row.Body,
		Recipient: model.Recipient{
			Type:   row.RecipientType,
			UserID: row.RecipientID,
		},
		Reply:         row.Reply,
		RepliedBy:     row.RepliedBy,
		RepliedAt:     row.RepliedAt,
		IsRead:        row.IsRead,
		RecipientRead: row.RecipientRead,
		CreatedAt:     row.CreatedAt,
	}
}

type inboxRow struct {
	messageRow
	SenderName string `db:"sender_name"`
}

type sentRow struct {
	messageRow
	RecipientName string `db:"recipient_name"`
}
