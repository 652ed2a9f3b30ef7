package store

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		username TEXT NOT NULL UNIQUE,
		image_url TEXT NOT NULL DEFAULT '/static/images/default-pic.png',
		header_image_url TEXT NOT NULL DEFAULT '/static/images/warbler-hero.png',
		bio TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		password TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		text VARCHAR(140) NOT NULL,
		timestamp INTEGER NOT NULL,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		flagged INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS messages_user_id ON messages(user_id)`,
	`CREATE TABLE IF NOT EXISTS follows (
		user_being_followed_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		user_following_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		PRIMARY KEY (user_being_followed_id, user_following_id)
	)`,
	`CREATE TABLE IF NOT EXISTS likes (
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		message_id INTEGER NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
		PRIMARY KEY (user_id, message_id)
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		username TEXT NOT NULL UNIQUE,
		image_url TEXT NOT NULL DEFAULT '/static/images/default-pic.png',
		header_image_url TEXT NOT NULL DEFAULT '/static/images/warbler-hero.png',
		bio TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		password TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		text VARCHAR(140) NOT NULL,
		timestamp BIGINT NOT NULL,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		flagged INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS messages_user_id ON messages(user_id)`,
	`CREATE TABLE IF NOT EXISTS follows (
		user_being_followed_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		user_following_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		PRIMARY KEY (user_being_followed_id, user_following_id)
	)`,
	`CREATE TABLE IF NOT EXISTS likes (
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		message_id BIGINT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
		PRIMARY KEY (user_id, message_id)
	)`,
}

// tables lists tables child-first so deletes respect foreign keys.
var tables = []string{"likes", "follows", "messages", "users"}
