// Package cache stores compiled bytecode images between runs, keyed by
// compilation unit and source digest.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"
)

var log = commonlog.GetLogger("lobster.cache")

// ErrMiss indicates no cached image matches the requested unit and source.
var ErrMiss = errors.New("cache miss")

// Store is an on-disk cache of bytecode images. A hit requires both the unit
// name and the source digest to match; a stale image for a changed source is
// treated as a miss and overwritten by the next Put. Build-version checking
// is not the store's concern: a cached image from another compiler build
// fails fast when it is loaded.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Entry describes one cached image.
type Entry struct {
	Unit      string
	Digest    [32]byte
	Size      int
	CreatedAt time.Time
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	// Busy timeout for concurrent compiler invocations sharing one cache.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS images (
		unit TEXT PRIMARY KEY,
		digest BLOB NOT NULL,
		image BLOB NOT NULL,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating images table: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SourceDigest returns the digest under which a compilation unit's source is
// keyed.
func SourceDigest(source []byte) [32]byte {
	return sha256.Sum256(source)
}

// Put stores the image for a unit, replacing any previous one.
func (s *Store) Put(unit string, source, image []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	digest := SourceDigest(source)
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO images (unit, digest, image, created_at) VALUES (?, ?, ?, ?)",
		unit, digest[:], image, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("storing image for %s: %w", unit, err)
	}
	log.Debugf("cached %s (%d bytes)", unit, len(image))
	return nil
}

// Get returns the cached image for a unit, or ErrMiss if there is none or
// the unit's source has changed since it was cached.
func (s *Store) Get(unit string, source []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var digest, image []byte
	err := s.db.QueryRow("SELECT digest, image FROM images WHERE unit = ?", unit).
		Scan(&digest, &image)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrMiss, unit)
	}
	if err != nil {
		return nil, fmt.Errorf("querying image for %s: %w", unit, err)
	}

	want := SourceDigest(source)
	if len(digest) != len(want) || [32]byte(digest) != want {
		log.Debugf("stale image for %s, source changed", unit)
		return nil, fmt.Errorf("%w: %s (source changed)", ErrMiss, unit)
	}
	return image, nil
}

// Delete removes the cached image for a unit. Removing an absent unit is a
// no-op.
func (s *Store) Delete(unit string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM images WHERE unit = ?", unit); err != nil {
		return fmt.Errorf("deleting image for %s: %w", unit, err)
	}
	return nil
}

// List returns every cached entry, newest first.
func (s *Store) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		"SELECT unit, digest, length(image), created_at FROM images ORDER BY created_at DESC, unit")
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var digest []byte
		var created int64
		if err := rows.Scan(&e.Unit, &digest, &e.Size, &created); err != nil {
			return nil, fmt.Errorf("scanning image row: %w", err)
		}
		copy(e.Digest[:], digest)
		e.CreatedAt = time.Unix(created, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
