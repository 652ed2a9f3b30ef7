package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"golang.org/x/crypto/bcrypt"

	"warbler/internal/model"
)

var userColumns = []string{
	"users.id", "users.username", "users.email", "users.password",
	"users.image_url", "users.header_image_url", "users.bio", "users.location",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.ImageURL, &u.HeaderImageURL, &u.Bio, &u.Location)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) getUser(ctx context.Context, where sq.Sqlizer) (*model.User, error) {
	row, err := s.queryRow(ctx, s.sb.Select(userColumns...).From("users").Where(where))
	if err != nil {
		return nil, err
	}
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func (s *Store) listUsers(ctx context.Context, b sq.SelectBuilder) ([]model.User, error) {
	rows, err := s.query(ctx, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *Store) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Signup creates a user with a bcrypt-hashed password. An empty imageURL
// falls back to the default avatar.
func (s *Store) Signup(ctx context.Context, username, email, password, imageURL string) (*model.User, error) {
	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}
	if imageURL == "" {
		imageURL = model.DefaultImageURL
	}

	u := &model.User{
		Username:       username,
		Email:          email,
		PasswordHash:   hash,
		ImageURL:       imageURL,
		HeaderImageURL: model.DefaultHeaderImageURL,
	}

	row, err := s.queryRow(ctx, s.sb.Insert("users").
		Columns("username", "email", "password", "image_url", "header_image_url").
		Values(u.Username, u.Email, u.PasswordHash, u.ImageURL, u.HeaderImageURL).
		Suffix("RETURNING id"))
	if err != nil {
		return nil, err
	}
	if err := row.Scan(&u.ID); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// Authenticate returns the user whose username and password match.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.UserByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Store) User(ctx context.Context, id int64) (*model.User, error) {
	return s.getUser(ctx, sq.Eq{"users.id": id})
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.getUser(ctx, sq.Eq{"users.username": username})
}

// SearchUsers matches q case-insensitively anywhere in the username. An empty
// q lists every user.
func (s *Store) SearchUsers(ctx context.Context, q string) ([]model.User, error) {
	b := s.sb.Select(userColumns...).From("users").OrderBy("users.username")
	if q = strings.TrimSpace(q); q != "" {
		b = b.Where("LOWER(users.username) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	return s.listUsers(ctx, b)
}

// UpdateProfile saves the editable profile fields of u.
func (s *Store) UpdateProfile(ctx context.Context, u *model.User) error {
	if u.ImageURL == "" {
		u.ImageURL = model.DefaultImageURL
	}
	if u.HeaderImageURL == "" {
		u.HeaderImageURL = model.DefaultHeaderImageURL
	}

	res, err := s.exec(ctx, s.sb.Update("users").
		Set("username", u.Username).
		Set("email", u.Email).
		Set("image_url", u.ImageURL).
		Set("header_image_url", u.HeaderImageURL).
		Set("bio", u.Bio).
		Set("location", u.Location).
		Where(sq.Eq{"id": u.ID}))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("update user: %w", err)
	}
	return expectAffected(res)
}

// DeleteUser removes the user along with their messages, follows and likes.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, s.sb.Delete("users").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
