package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"warbler/internal/model"
)

// ToggleLike likes msgID for userID, or unlikes it if already liked. It
// reports whether the message is liked afterwards.
func (s *Store) ToggleLike(ctx context.Context, userID, msgID int64) (bool, error) {
	m, err := s.Message(ctx, msgID)
	if err != nil {
		return false, err
	}
	if m.UserID == userID {
		return false, ErrOwnMessage
	}

	res, err := s.exec(ctx, s.sb.Delete("likes").Where(sq.Eq{"user_id": userID, "message_id": msgID}))
	if err != nil {
		return false, fmt.Errorf("unlike: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, err
	} else if n > 0 {
		return false, nil
	}

	_, err = s.exec(ctx, s.sb.Insert("likes").Columns("user_id", "message_id").Values(userID, msgID))
	if err != nil {
		return false, fmt.Errorf("like: %w", err)
	}
	return true, nil
}

// LikedMessages returns the unflagged messages userID likes, newest first.
func (s *Store) LikedMessages(ctx context.Context, userID int64) ([]model.Message, error) {
	return s.listMessages(ctx, s.selectMessages().
		Join("likes ON likes.message_id = messages.id").
		Where(sq.Eq{"likes.user_id": userID, "messages.flagged": 0}).
		OrderBy("messages.timestamp DESC", "messages.id DESC"))
}

// LikedIDs returns the set of message ids userID likes.
func (s *Store) LikedIDs(ctx context.Context, userID int64) (map[int64]bool, error) {
	return s.idSet(ctx, s.sb.Select("message_id").From("likes").Where(sq.Eq{"user_id": userID}))
}
