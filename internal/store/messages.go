package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	sq "github.com/Masterminds/squirrel"

	"warbler/internal/model"
)

var messageColumns = append([]string{
	"messages.id", "messages.text", "messages.timestamp", "messages.user_id", "messages.flagged",
}, userColumns...)

func scanMessage(row rowScanner) (*model.Message, error) {
	var (
		m       model.Message
		u       model.User
		ts      int64
		flagged int
	)
	err := row.Scan(&m.ID, &m.Text, &ts, &m.UserID, &flagged,
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.ImageURL, &u.HeaderImageURL, &u.Bio, &u.Location)
	if err != nil {
		return nil, err
	}
	m.Timestamp = time.Unix(ts, 0).UTC()
	m.Flagged = flagged != 0
	m.Author = &u
	return &m, nil
}

func (s *Store) selectMessages() sq.SelectBuilder {
	return s.sb.Select(messageColumns...).
		From("messages").
		Join("users ON messages.user_id = users.id")
}

func (s *Store) listMessages(ctx context.Context, b sq.SelectBuilder) ([]model.Message, error) {
	rows, err := s.query(ctx, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

// ValidateMessage checks the text of a new warble.
func ValidateMessage(text string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if n == 0 || utf8.RuneCountInString(text) > model.MaxMessageLength {
		return ErrInvalidMessage
	}
	return nil
}

func (s *Store) CreateMessage(ctx context.Context, userID int64, text string) (*model.Message, error) {
	if err := ValidateMessage(text); err != nil {
		return nil, err
	}

	m := &model.Message{
		Text:      text,
		Timestamp: time.Now().UTC().Truncate(time.Second),
		UserID:    userID,
	}
	row, err := s.queryRow(ctx, s.sb.Insert("messages").
		Columns("text", "timestamp", "user_id", "flagged").
		Values(m.Text, m.Timestamp.Unix(), m.UserID, 0).
		Suffix("RETURNING id"))
	if err != nil {
		return nil, err
	}
	if err := row.Scan(&m.ID); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}

func (s *Store) Message(ctx context.Context, id int64) (*model.Message, error) {
	row, err := s.queryRow(ctx, s.selectMessages().Where(sq.Eq{"messages.id": id}))
	if err != nil {
		return nil, err
	}
	m, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

// UserMessages returns the unflagged messages of one user, newest first.
func (s *Store) UserMessages(ctx context.Context, userID int64, limit int) ([]model.Message, error) {
	return s.listMessages(ctx, s.selectMessages().
		Where(sq.Eq{"messages.user_id": userID, "messages.flagged": 0}).
		OrderBy("messages.timestamp DESC", "messages.id DESC").
		Limit(uint64(limit)))
}

// Timeline returns the unflagged messages of userID and everyone they follow,
// newest first.
func (s *Store) Timeline(ctx context.Context, userID int64, limit int) ([]model.Message, error) {
	return s.listMessages(ctx, s.selectMessages().
		Where(sq.Eq{"messages.flagged": 0}).
		Where(sq.Or{
			sq.Eq{"messages.user_id": userID},
			sq.Expr("messages.user_id IN (SELECT user_being_followed_id FROM follows WHERE user_following_id = ?)", userID),
		}).
		OrderBy("messages.timestamp DESC", "messages.id DESC").
		Limit(uint64(limit)))
}

// DeleteMessage removes msgID on behalf of requesterID. Only the author may
// delete a message; anyone else gets ErrNotOwner and the message is kept.
func (s *Store) DeleteMessage(ctx context.Context, msgID, requesterID int64) error {
	m, err := s.Message(ctx, msgID)
	if err != nil {
		return err
	}
	if m.UserID != requesterID {
		return ErrNotOwner
	}

	res, err := s.exec(ctx, s.sb.Delete("messages").Where(sq.Eq{"id": msgID, "user_id": requesterID}))
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return expectAffected(res)
}

// FlagMessages hides the given messages from every timeline.
func (s *Store) FlagMessages(ctx context.Context, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.exec(ctx, s.sb.Update("messages").Set("flagged", 1).Where(sq.Eq{"id": ids}))
	if err != nil {
		return 0, fmt.Errorf("flag messages: %w", err)
	}
	return res.RowsAffected()
}

// AllMessages returns every message, flagged ones included, oldest first.
func (s *Store) AllMessages(ctx context.Context) ([]model.Message, error) {
	return s.listMessages(ctx, s.selectMessages().OrderBy("messages.id"))
}
