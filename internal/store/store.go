package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	-- translation_jobs logs every translate run and its outcome
	CREATE TABLE IF NOT EXISTS translation_jobs (
		id TEXT PRIMARY KEY,
		backend TEXT NOT NULL,
		model TEXT,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		file_count INTEGER NOT NULL,
		string_count INTEGER NOT NULL,
		status TEXT DEFAULT 'running',
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		finished_at TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS translation_memory (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		backend TEXT,
		usage_count INTEGER DEFAULT 1,
		invalidated BOOLEAN DEFAULT FALSE,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_text, source_lang, target_lang)
	);

	-- glossary keeps terminology per language pair; seq preserves insertion order
	CREATE TABLE IF NOT EXISTS glossary (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		source_term TEXT NOT NULL,
		target_term TEXT NOT NULL,
		note TEXT DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_lang, target_lang, source_term)
	);

	CREATE INDEX IF NOT EXISTS idx_memory_lookup ON translation_memory(source_text, source_lang, target_lang);
	CREATE INDEX IF NOT EXISTS idx_glossary_lookup ON glossary(source_lang, target_lang);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Job is a row from the translation_jobs table.
type Job struct {
	ID          string
	Backend     string
	Model       string
	SourceLang  string
	TargetLang  string
	FileCount   int
	StringCount int
	Status      string
	Error       string
	CreatedAt   time.Time
}

// StartJob records a running job and returns its id.
func (s *Store) StartJob(ctx context.Context, backend, model, sourceLang, targetLang string, fileCount, stringCount int) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO translation_jobs (id, backend, model, source_lang, target_lang, file_count, string_count, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, backend, model, sourceLang, targetLang, fileCount, stringCount, time.Now())
	return id, err
}

// FinishJob marks a job completed, or failed when jobErr is non-nil.
func (s *Store) FinishJob(ctx context.Context, id string, jobErr error) error {
	status, msg := "completed", ""
	if jobErr != nil {
		status, msg = "failed", jobErr.Error()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE translation_jobs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		status, msg, time.Now(), id)
	return err
}

// GetJob returns a job by id.
func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	var j Job
	var model, errMsg sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, backend, model, source_lang, target_lang, file_count, string_count, status, error, created_at FROM translation_jobs WHERE id = ?`,
		id).Scan(&j.ID, &j.Backend, &model, &j.SourceLang, &j.TargetLang, &j.FileCount, &j.StringCount, &j.Status, &errMsg, &j.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	j.Model, j.Error = model.String, errMsg.String
	return &j, nil
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent cache key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
