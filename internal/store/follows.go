package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"warbler/internal/model"
)

// Follow makes followerID follow followedID. Following twice is a no-op.
func (s *Store) Follow(ctx context.Context, followerID, followedID int64) error {
	if followerID == followedID {
		return ErrSelfFollow
	}
	if _, err := s.User(ctx, followedID); err != nil {
		return err
	}

	_, err := s.exec(ctx, s.sb.Insert("follows").
		Columns("user_being_followed_id", "user_following_id").
		Values(followedID, followerID).
		Suffix("ON CONFLICT DO NOTHING"))
	if err != nil {
		return fmt.Errorf("follow: %w", err)
	}
	return nil
}

func (s *Store) Unfollow(ctx context.Context, followerID, followedID int64) error {
	_, err := s.exec(ctx, s.sb.Delete("follows").Where(sq.Eq{
		"user_being_followed_id": followedID,
		"user_following_id":      followerID,
	}))
	if err != nil {
		return fmt.Errorf("unfollow: %w", err)
	}
	return nil
}

func (s *Store) IsFollowing(ctx context.Context, followerID, followedID int64) (bool, error) {
	n, err := s.count(ctx, s.sb.Select("COUNT(*)").From("follows").Where(sq.Eq{
		"user_being_followed_id": followedID,
		"user_following_id":      followerID,
	}))
	return n > 0, err
}

// Following lists the users id follows.
func (s *Store) Following(ctx context.Context, id int64) ([]model.User, error) {
	return s.listUsers(ctx, s.sb.Select(userColumns...).
		From("users").
		Join("follows ON follows.user_being_followed_id = users.id").
		Where(sq.Eq{"follows.user_following_id": id}).
		OrderBy("users.username"))
}

// Followers lists the users following id.
func (s *Store) Followers(ctx context.Context, id int64) ([]model.User, error) {
	return s.listUsers(ctx, s.sb.Select(userColumns...).
		From("users").
		Join("follows ON follows.user_following_id = users.id").
		Where(sq.Eq{"follows.user_being_followed_id": id}).
		OrderBy("users.username"))
}

// FollowingIDs returns the set of user ids that id follows.
func (s *Store) FollowingIDs(ctx context.Context, id int64) (map[int64]bool, error) {
	return s.idSet(ctx, s.sb.Select("user_being_followed_id").
		From("follows").
		Where(sq.Eq{"user_following_id": id}))
}

func (s *Store) idSet(ctx context.Context, b sq.SelectBuilder) (map[int64]bool, error) {
	rows, err := s.query(ctx, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}
