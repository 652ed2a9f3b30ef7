package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"warbler/internal/model"
)

// Stats counts a user's messages, follows in both directions and likes.
func (s *Store) Stats(ctx context.Context, userID int64) (model.Stats, error) {
	var (
		st  model.Stats
		err error
	)
	counts := []struct {
		dst *int64
		b   sq.SelectBuilder
	}{
		{&st.Messages, s.sb.Select("COUNT(*)").From("messages").Where(sq.Eq{"user_id": userID, "flagged": 0})},
		{&st.Following, s.sb.Select("COUNT(*)").From("follows").Where(sq.Eq{"user_following_id": userID})},
		{&st.Followers, s.sb.Select("COUNT(*)").From("follows").Where(sq.Eq{"user_being_followed_id": userID})},
		{&st.Likes, s.sb.Select("COUNT(*)").From("likes").Where(sq.Eq{"user_id": userID})},
	}
	for _, c := range counts {
		if *c.dst, err = s.count(ctx, c.b); err != nil {
			return model.Stats{}, err
		}
	}
	return st, nil
}
