// Package profile persists per-user state: preferred language, the event
// (colonoscopy) date driving day-specific answers, the consecutive-miss
// counter owned by the caller of the resolution engine, and the reminders
// opt-in. Records are sealed with XChaCha20-Poly1305 before they touch
// SQLite, so the database file never holds plaintext patient data.
package profile

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/chacha20poly1305"
)

// ErrNotFound is returned when a user has no stored profile.
var ErrNotFound = errors.New("profile: user not found")

// Profile is one user's record. Misses counts consecutive unanswered
// queries; the resolution engine reads and the caller writes it back.
type Profile struct {
	UserID      string    `json:"user_id"`
	Language    string    `json:"language"`
	EventDate   time.Time `json:"event_date"`
	Misses      int       `json:"misses"`
	RemindersOn bool      `json:"reminders_on"`
}

// Store wraps the SQLite database holding sealed profiles.
type Store struct {
	db   *sql.DB
	aead cipher.AEAD
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS profiles (
	user_id    TEXT PRIMARY KEY,
	sealed     BLOB NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// Open opens (or creates) the profile database. key must be 32 bytes.
func Open(dbPath string, key []byte) (*Store, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("profile: key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("profile: building cipher: %w", err)
	}

	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &Store{db: db, aead: aead}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put seals and stores a profile, replacing any previous record.
func (s *Store) Put(ctx context.Context, p *Profile) error {
	if p.UserID == "" {
		return errors.New("profile: empty user id")
	}
	plain, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("profile: encoding: %w", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("profile: nonce: %w", err)
	}
	// The user id binds the ciphertext to its row as associated data.
	sealed := s.aead.Seal(nonce, nonce, plain, []byte(p.UserID))

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, sealed) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			sealed = excluded.sealed,
			updated_at = CURRENT_TIMESTAMP
	`, p.UserID, sealed)
	if err != nil {
		return fmt.Errorf("profile: storing: %w", err)
	}
	return nil
}

// Get loads and unseals a profile.
func (s *Store) Get(ctx context.Context, userID string) (*Profile, error) {
	var sealed []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT sealed FROM profiles WHERE user_id = ?`, userID).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("profile: loading: %w", err)
	}

	if len(sealed) < chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("profile: record for %s too short", userID)
	}
	nonce, ciphertext := sealed[:chacha20poly1305.NonceSizeX], sealed[chacha20poly1305.NonceSizeX:]
	plain, err := s.aead.Open(nil, nonce, ciphertext, []byte(userID))
	if err != nil {
		return nil, fmt.Errorf("profile: unsealing %s: %w", userID, err)
	}

	var p Profile
	if err := json.Unmarshal(plain, &p); err != nil {
		return nil, fmt.Errorf("profile: decoding %s: %w", userID, err)
	}
	return &p, nil
}

// Delete removes a user's profile. Deleting an absent profile is a no-op.
func (s *Store) Delete(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("profile: deleting %s: %w", userID, err)
	}
	return nil
}
