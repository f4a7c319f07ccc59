// Package cache keeps the last-known-good message and gallery snapshots in a
// local SQLite database, so the room can render before the first poll
// completes. Snapshots are stored per user and always replaced wholesale.
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/saravenpi/milkyway/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	owner     TEXT NOT NULL,
	seq       INTEGER NOT NULL,
	sender    TEXT NOT NULL,
	content   TEXT NOT NULL,
	media_url TEXT,
	timestamp INTEGER NOT NULL,
	PRIMARY KEY (owner, seq)
);
CREATE TABLE IF NOT EXISTS gallery (
	owner TEXT NOT NULL,
	seq   INTEGER NOT NULL,
	url   TEXT NOT NULL,
	PRIMARY KEY (owner, seq)
);
`

type Cache struct {
	db *sql.DB
}

func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// SaveMessages replaces owner's message snapshot.
func (c *Cache) SaveMessages(owner string, messages []models.ChatMessage) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages WHERE owner = ?`, owner); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO messages (owner, seq, sender, content, media_url, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range messages {
		var mediaURL sql.NullString
		if m.Media != nil {
			mediaURL = sql.NullString{String: m.Media.URL, Valid: true}
		}
		if _, err := stmt.Exec(owner, i, string(m.Sender), m.Content, mediaURL, m.Timestamp); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}
	return tx.Commit()
}

// LoadMessages returns owner's snapshot in its original order.
func (c *Cache) LoadMessages(owner string) ([]models.ChatMessage, error) {
	rows, err := c.db.Query(`
		SELECT sender, content, media_url, timestamp
		FROM messages
		WHERE owner = ?
		ORDER BY seq`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var (
			m        models.ChatMessage
			sender   string
			mediaURL sql.NullString
		)
		if err := rows.Scan(&sender, &m.Content, &mediaURL, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Sender = models.Identity(sender)
		if mediaURL.Valid {
			m.Media = models.MediaFromURL(mediaURL.String)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// SaveGallery replaces owner's gallery snapshot.
func (c *Cache) SaveGallery(owner string, items []models.MediaReference) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM gallery WHERE owner = ?`, owner); err != nil {
		return fmt.Errorf("failed to clear gallery: %w", err)
	}
	for i, item := range items {
		if _, err := tx.Exec(`INSERT INTO gallery (owner, seq, url) VALUES (?, ?, ?)`, owner, i, item.URL); err != nil {
			return fmt.Errorf("failed to insert gallery item: %w", err)
		}
	}
	return tx.Commit()
}

func (c *Cache) LoadGallery(owner string) ([]models.MediaReference, error) {
	rows, err := c.db.Query(`SELECT url FROM gallery WHERE owner = ? ORDER BY seq`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query gallery: %w", err)
	}
	defer rows.Close()

	var items []models.MediaReference
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan gallery item: %w", err)
		}
		items = append(items, models.MediaReference{URL: url})
	}
	return items, rows.Err()
}

// Clear drops every snapshot of every user.
func (c *Cache) Clear() error {
	if _, err := c.db.Exec(`DELETE FROM messages; DELETE FROM gallery;`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
