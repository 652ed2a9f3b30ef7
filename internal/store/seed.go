package store

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"golang.org/x/crypto/bcrypt"

	"warbler/internal/model"
)

// SeedData is a full snapshot of the database. IDs are assigned in slice
// order starting at 1. A PasswordHash that is not already a bcrypt hash is
// treated as a plain password and hashed on load.
type SeedData struct {
	Users    []model.User
	Messages []model.Message
	Follows  []model.Follow
}

// Seed wipes every table and loads data in one transaction.
func (s *Store) Seed(ctx context.Context, data SeedData) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	run := func(b sq.Sqlizer) error {
		query, args, err := b.ToSql()
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, query, args...)
		return err
	}

	for _, table := range tables {
		if err := run(s.sb.Delete(table)); err != nil {
			return fmt.Errorf("wipe %s: %w", table, err)
		}
	}

	for i, u := range data.Users {
		if u.ImageURL == "" {
			u.ImageURL = model.DefaultImageURL
		}
		if u.HeaderImageURL == "" {
			u.HeaderImageURL = model.DefaultHeaderImageURL
		}
		if _, err := bcrypt.Cost([]byte(u.PasswordHash)); err != nil {
			if u.PasswordHash, err = s.hashPassword(u.PasswordHash); err != nil {
				return err
			}
		}
		err := run(s.sb.Insert("users").
			Columns("id", "username", "email", "password", "image_url", "header_image_url", "bio", "location").
			Values(int64(i+1), u.Username, u.Email, u.PasswordHash, u.ImageURL, u.HeaderImageURL, u.Bio, u.Location))
		if err != nil {
			return fmt.Errorf("seed user %q: %w", u.Username, err)
		}
	}

	for i, m := range data.Messages {
		err := run(s.sb.Insert("messages").
			Columns("id", "text", "timestamp", "user_id", "flagged").
			Values(int64(i+1), m.Text, m.Timestamp.Unix(), m.UserID, 0))
		if err != nil {
			return fmt.Errorf("seed message %d: %w", i+1, err)
		}
	}

	for _, f := range data.Follows {
		err := run(s.sb.Insert("follows").
			Columns("user_being_followed_id", "user_following_id").
			Values(f.FollowedID, f.FollowerID).
			Suffix("ON CONFLICT DO NOTHING"))
		if err != nil {
			return fmt.Errorf("seed follow %d->%d: %w", f.FollowerID, f.FollowedID, err)
		}
	}

	if s.driver == "postgres" {
		if err := resetSequences(ctx, tx); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func resetSequences(ctx context.Context, tx *sql.Tx) error {
	for _, table := range []string{"users", "messages"} {
		_, err := tx.ExecContext(ctx, fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM %[1]s", table))
		if err != nil {
			return fmt.Errorf("reset %s sequence: %w", table, err)
		}
	}
	return nil
}

// LoadSeedDir reads users.csv, messages.csv and follows.csv from dir. Each
// file starts with a header row naming its columns.
func LoadSeedDir(dir string) (SeedData, error) {
	var data SeedData

	users, err := readCSV(filepath.Join(dir, "users.csv"))
	if err != nil {
		return data, err
	}
	for _, r := range users {
		data.Users = append(data.Users, model.User{
			Email:          r["email"],
			Username:       r["username"],
			ImageURL:       r["image_url"],
			PasswordHash:   r["password"],
			Bio:            r["bio"],
			HeaderImageURL: r["header_image_url"],
			Location:       r["location"],
		})
	}

	messages, err := readCSV(filepath.Join(dir, "messages.csv"))
	if err != nil {
		return data, err
	}
	for i, r := range messages {
		userID, err := strconv.ParseInt(r["user_id"], 10, 64)
		if err != nil {
			return data, fmt.Errorf("messages.csv row %d: user_id: %w", i+2, err)
		}
		ts, err := parseTimestamp(r["timestamp"])
		if err != nil {
			return data, fmt.Errorf("messages.csv row %d: %w", i+2, err)
		}
		data.Messages = append(data.Messages, model.Message{Text: r["text"], Timestamp: ts, UserID: userID})
	}

	follows, err := readCSV(filepath.Join(dir, "follows.csv"))
	if err != nil {
		return data, err
	}
	for i, r := range follows {
		followed, err1 := strconv.ParseInt(r["user_being_followed_id"], 10, 64)
		follower, err2 := strconv.ParseInt(r["user_following_id"], 10, 64)
		if err1 != nil || err2 != nil {
			return data, fmt.Errorf("follows.csv row %d: invalid user id", i+2)
		}
		data.Follows = append(data.Follows, model.Follow{FollowedID: followed, FollowerID: follower})
	}

	return data, nil
}

func readCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []map[string]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		records = append(records, row)
	}
	return records, nil
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// parseTimestamp accepts the layouts above or unix seconds.
func parseTimestamp(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Now().UTC(), nil
	}
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", v)
}
