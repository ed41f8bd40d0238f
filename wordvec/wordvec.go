// Package wordvec persists per-language word embedding tables in SQLite
// using the sqlite-vec extension. Tables are imported from fastText-style
// text files and loaded whole into memory at engine start; the vec0 virtual
// table additionally supports KNN lookups for diagnostics.
package wordvec

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// Store wraps the SQLite database holding word vectors.
type Store struct {
	db  *sql.DB
	dim int
}

// Neighbor is one KNN result: a word with its distance from the probe.
type Neighbor struct {
	Word     string
	Distance float64
}

// Open opens (or creates) a word-vector database with the given embedding
// dimension.
func Open(dbPath string, dim int) (*Store, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("wordvec: dimension must be positive, got %d", dim)
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

	schema := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS words (
	id   INTEGER PRIMARY KEY,
	lang TEXT NOT NULL,
	word TEXT NOT NULL,
	UNIQUE(lang, word)
);
CREATE VIRTUAL TABLE IF NOT EXISTS word_vectors USING vec0(
	lang      text partition key,
	embedding float[%d]
);
`, dim)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &Store{db: db, dim: dim}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dim returns the configured embedding dimension.
func (s *Store) Dim() int {
	return s.dim
}

// Import reads a fastText-style text file ("word v1 v2 ... vN" per line; an
// optional "count dim" header is skipped) and stores the vectors for lang.
// Re-importing a word keeps its id so the vector row is replaced in place.
// Returns the number of words imported.
func (s *Store) Import(ctx context.Context, lang string, r io.Reader) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("wordvec: begin import: %w", err)
	}
	defer tx.Rollback()

	wordStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO words (lang, word) VALUES (?, ?)
		ON CONFLICT(lang, word) DO UPDATE SET word = excluded.word
		RETURNING id`)
	if err != nil {
		return 0, err
	}
	defer wordStmt.Close()
	// vec0 has no upsert, so replacement is delete-then-insert.
	vecDelStmt, err := tx.PrepareContext(ctx,
		`DELETE FROM word_vectors WHERE rowid = ?`)
	if err != nil {
		return 0, err
	}
	defer vecDelStmt.Close()
	vecStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO word_vectors (rowid, lang, embedding) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer vecStmt.Close()

	count := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if lineNo == 1 && len(fields) == 2 {
			continue // "count dim" header
		}
		if len(fields) != s.dim+1 {
			return 0, fmt.Errorf("wordvec: line %d: expected %d values, got %d", lineNo, s.dim, len(fields)-1)
		}

		vec := make([]float32, s.dim)
		for i, f := range fields[1:] {
			x, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return 0, fmt.Errorf("wordvec: line %d: %w", lineNo, err)
			}
			vec[i] = float32(x)
		}

		var id int64
		if err := wordStmt.QueryRowContext(ctx, lang, fields[0]).Scan(&id); err != nil {
			return 0, fmt.Errorf("wordvec: line %d: %w", lineNo, err)
		}
		if _, err := vecDelStmt.ExecContext(ctx, id); err != nil {
			return 0, fmt.Errorf("wordvec: line %d: %w", lineNo, err)
		}
		if _, err := vecStmt.ExecContext(ctx, id, lang, serializeFloat32(vec)); err != nil {
			return 0, fmt.Errorf("wordvec: line %d: %w", lineNo, err)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("wordvec: reading vectors: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("wordvec: commit import: %w", err)
	}
	return count, nil
}

// Load returns the full embedding table for lang. An empty map means the
// language has no vectors; callers treat that as "strategy unavailable".
func (s *Store) Load(ctx context.Context, lang string) (map[string][]float32, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT w.word, v.embedding
		FROM words w
		JOIN word_vectors v ON v.rowid = w.id
		WHERE w.lang = ?
	`, lang)
	if err != nil {
		return nil, fmt.Errorf("wordvec: loading %s: %w", lang, err)
	}
	defer rows.Close()

	table := make(map[string][]float32)
	for rows.Next() {
		var word string
		var blob []byte
		if err := rows.Scan(&word, &blob); err != nil {
			return nil, fmt.Errorf("wordvec: scanning %s: %w", lang, err)
		}
		table[word] = deserializeFloat32(blob)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("wordvec: iterating %s: %w", lang, err)
	}
	return table, nil
}

// Languages returns the language codes that have at least one vector.
func (s *Store) Languages(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT lang FROM words ORDER BY lang`)
	if err != nil {
		return nil, fmt.Errorf("wordvec: listing languages: %w", err)
	}
	defer rows.Close()

	var langs []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		langs = append(langs, l)
	}
	return langs, rows.Err()
}

// Nearest returns the k words of lang closest to the probe vector, nearest
// first. The lang partition scopes the KNN itself, so other languages never
// eat into the k slots. Used by the eval tooling to explain vector-strategy
// decisions.
func (s *Store) Nearest(ctx context.Context, lang string, probe []float32, k int) ([]Neighbor, error) {
	if len(probe) != s.dim {
		return nil, fmt.Errorf("wordvec: probe has dimension %d, table uses %d", len(probe), s.dim)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT w.word, v.distance
		FROM word_vectors v
		JOIN words w ON w.id = v.rowid
		WHERE v.lang = ? AND v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`, lang, serializeFloat32(probe), k)
	if err != nil {
		return nil, fmt.Errorf("wordvec: knn: %w", err)
	}
	defer rows.Close()

	var out []Neighbor
	for rows.Next() {
		var n Neighbor
		if err := rows.Scan(&n.Word, &n.Distance); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// serializeFloat32 converts a float32 slice to little-endian bytes for
// sqlite-vec.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func deserializeFloat32(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
