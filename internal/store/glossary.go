package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/valpere/rpgtl/internal"
)

// GlossaryEntry represents a row in the glossary table.
type GlossaryEntry struct {
	ID         string
	SourceLang string
	TargetLang string
	SourceTerm string
	TargetTerm string
	Note       string
	CreatedAt  time.Time
}

const upsertGlossary = `INSERT INTO glossary (id, seq, source_lang, target_lang, source_term, target_term, note)
	VALUES (?, COALESCE((SELECT MAX(seq) FROM glossary), 0) + 1, ?, ?, ?, ?, ?)
	ON CONFLICT(source_lang, target_lang, source_term)
	DO UPDATE SET target_term = excluded.target_term, note = excluded.note`

// AddGlossaryTerm inserts a glossary entry or updates the translation and
// note of an existing term, keeping its position.
func (s *Store) AddGlossaryTerm(ctx context.Context, sourceLang, targetLang, sourceTerm, targetTerm, note string) error {
	_, err := s.db.ExecContext(ctx, upsertGlossary,
		uuid.NewString(), sourceLang, targetLang, normalizeText(sourceTerm), targetTerm, note)
	return err
}

// ImportGlossary upserts entries for a language pair in one transaction.
func (s *Store) ImportGlossary(ctx context.Context, sourceLang, targetLang string, entries []internal.GlossaryEntry) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	n := 0
	for _, e := range entries {
		if normalizeText(e.Term) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, upsertGlossary,
			uuid.NewString(), sourceLang, targetLang, normalizeText(e.Term), e.Translation, e.Note); err != nil {
			return 0, err
		}
		n++
	}
	return n, tx.Commit()
}

// Glossary returns the terms of a language pair in insertion order, ready to
// attach to a translation request.
func (s *Store) Glossary(ctx context.Context, sourceLang, targetLang string) ([]internal.GlossaryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_term, target_term, COALESCE(note, '') FROM glossary WHERE source_lang = ? AND target_lang = ? ORDER BY seq`,
		sourceLang, targetLang)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var terms []internal.GlossaryEntry
	for rows.Next() {
		var e internal.GlossaryEntry
		if err := rows.Scan(&e.Term, &e.Translation, &e.Note); err != nil {
			return nil, err
		}
		terms = append(terms, e)
	}
	return terms, rows.Err()
}

// ListGlossaryTerms returns all glossary entries, optionally filtered by language
// pair (pass empty strings to return everything).
func (s *Store) ListGlossaryTerms(ctx context.Context, sourceLang, targetLang string) ([]GlossaryEntry, error) {
	query := `SELECT id, source_lang, target_lang, source_term, target_term, COALESCE(note, ''), created_at FROM glossary`
	var args []any

	switch {
	case sourceLang != "" && targetLang != "":
		query += ` WHERE source_lang = ? AND target_lang = ?`
		args = append(args, sourceLang, targetLang)
	case sourceLang != "":
		query += ` WHERE source_lang = ?`
		args = append(args, sourceLang)
	case targetLang != "":
		query += ` WHERE target_lang = ?`
		args = append(args, targetLang)
	}
	query += ` ORDER BY source_lang, target_lang, seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []GlossaryEntry
	for rows.Next() {
		var e GlossaryEntry
		if err := rows.Scan(&e.ID, &e.SourceLang, &e.TargetLang, &e.SourceTerm, &e.TargetTerm, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteGlossaryTerm removes a glossary entry by ID. It reports whether a row
// was deleted.
func (s *Store) DeleteGlossaryTerm(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM glossary WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
