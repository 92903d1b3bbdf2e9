package database

import (
	"database/sql"
	"fmt"
)

// CreateTables creates all required tables and indexes. Every statement is
// idempotent, so running it on every startup is safe.
func CreateTables(db *sql.DB) error {
	if err := createUsersTable(db); err != nil {
		return err
	}
	if err := createPostsTable(db); err != nil {
		return err
	}
	if err := createPostLikesTable(db); err != nil {
		return err
	}
	return createCommentsTable(db)
}

func createUsersTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		username VARCHAR(255) UNIQUE NOT NULL,
		password VARCHAR(255) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func createPostsTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS posts (
		id SERIAL PRIMARY KEY,
		owner_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		image_key VARCHAR(500) NOT NULL,
		image_url VARCHAR(1000) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("create posts table: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS posts_owner_idx ON posts(owner_id)`); err != nil {
		return fmt.Errorf("ensure posts owner index: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS posts_created_at_idx ON posts(created_at DESC)`); err != nil {
		return fmt.Errorf("ensure posts created_at index: %w", err)
	}
	return nil
}

func createPostLikesTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS post_likes (
		id SERIAL PRIMARY KEY,
		post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(post_id, user_id)
	);
	`

	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("create post_likes table: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS post_likes_post_idx ON post_likes(post_id)`); err != nil {
		return fmt.Errorf("ensure post_likes post index: %w", err)
	}
	return nil
}

func createCommentsTable(db *sql.DB) error {
	// Comment rows are ordered by id: insertion order is the chronological
	// order the feed exposes.
	query := `
	CREATE TABLE IF NOT EXISTS comments (
		id SERIAL PRIMARY KEY,
		post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		username VARCHAR(255) NOT NULL,
		content VARCHAR(250) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("create comments table: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS comments_post_idx ON comments(post_id, id)`); err != nil {
		return fmt.Errorf("ensure comments post index: %w", err)
	}
	return nil
}
