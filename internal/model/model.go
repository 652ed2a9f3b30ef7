package model

import "time"

const (
	DefaultImageURL       = "/static/images/default-pic.png"
	DefaultHeaderImageURL = "/static/images/warbler-hero.png"

	// MaxMessageLength is the longest warble a user may post.
	MaxMessageLength = 140
)

// User represents a registered user.
type User struct {
	ID             int64
	Username       string
	Email          string
	PasswordHash   string
	ImageURL       string
	HeaderImageURL string
	Bio            string
	Location       string
}

// Message represents a warble, optionally joined with its author.
type Message struct {
	ID        int64
	Text      string
	Timestamp time.Time
	UserID    int64
	Flagged   bool
	Author    *User
}

// Follow is a directed edge: FollowerID follows FollowedID.
type Follow struct {
	FollowedID int64
	FollowerID int64
}

type Like struct {
	UserID    int64
	MessageID int64
}

// Stats holds the counters shown on a profile page.
type Stats struct {
	Messages  int64
	Following int64
	Followers int64
	Likes     int64
}
