package sitegen

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a SQLite index of the article corpus used by serve mode. It holds
// no state of its own: every reload replaces its contents wholesale.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed while a reload rewrites the table; the busy
	// timeout makes a second writer wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS articles (
    slug TEXT PRIMARY KEY,
    position INTEGER NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    image TEXT NOT NULL,
    tags TEXT NOT NULL,
    published TEXT NOT NULL,
    body TEXT NOT NULL,
    source TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS articles_published ON articles (published DESC, position);
`)
	return err
}

// ReplaceAll swaps the indexed corpus for articles in one transaction.
// The slice order is stored as discovery order.
func (s *Store) ReplaceAll(ctx context.Context, articles []Article) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM articles`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO articles (slug, position, title, description, image, tags, published, body, source) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, a := range articles {
		if _, err := stmt.ExecContext(ctx, a.Slug, i, a.Title, a.Description, a.Image,
			FormatTags(a.Tags), a.Published.UTC().Format(time.RFC3339), a.Body, a.Source); err != nil {
			return fmt.Errorf("sitegen: index %s: %w", a.Slug, err)
		}
	}
	return tx.Commit()
}

const articleColumns = `slug, title, description, image, tags, published, body, source`

// ListArticles returns indexed articles in discovery order. If tag is
// non-empty, results are filtered to articles carrying that tag.
func (s *Store) ListArticles(ctx context.Context, tag string) ([]Article, error) {
	var rows *sql.Rows
	var err error
	if tag == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+articleColumns+` FROM articles ORDER BY position`)
	} else if key := normalizeTag(tag); key != "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE instr(tags, ',' || ? || ',') > 0 ORDER BY position`, key)
	} else {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// GetArticle returns a single article by slug, or ErrNotFound.
func (s *Store) GetArticle(ctx context.Context, slug string) (Article, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE slug = ?`, slug)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return Article{}, ErrNotFound
	}
	return a, err
}

// ListTags returns a sorted, deduplicated slice of all indexed tags.
func (s *Store) ListTags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tags FROM articles`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return nil, err
		}
		for _, t := range ParseTags(tags) {
			set[t] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	result := make([]string, 0, len(set))
	for t := range set {
		result = append(result, t)
	}
	sort.Strings(result)
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(r rowScanner) (Article, error) {
	var a Article
	var tags, published string
	if err := r.Scan(&a.Slug, &a.Title, &a.Description, &a.Image, &tags, &published, &a.Body, &a.Source); err != nil {
		return Article{}, err
	}
	t, err := time.Parse(time.RFC3339, published)
	if err != nil {
		return Article{}, fmt.Errorf("sitegen: index %s: published: %w", a.Slug, err)
	}
	a.Published = t.UTC()
	a.Tags = ParseTags(tags)
	return a, nil
}

// FormatTags encodes tags as a comma-delimited string with leading and
// trailing commas (e.g. ",go,web,") so single tags can be matched with instr.
func FormatTags(tags []string) string {
	normalized := make([]string, 0, len(tags))
	for _, t := range tags {
		if n := normalizeTag(t); n != "" {
			normalized = append(normalized, n)
		}
	}
	return "," + strings.Join(normalized, ",") + ","
}

// ParseTags splits a comma-delimited tag string (e.g. ",go,web,") into a slice.
func ParseTags(tagString string) []string {
	tagString = strings.Trim(tagString, ",")
	if tagString == "" {
		return nil
	}
	parts := strings.Split(tagString, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
