package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/valpere/rpgtl/internal"
	"github.com/valpere/rpgtl/internal/match"
)

// MemoryEntry is a row from the translation_memory table.
type MemoryEntry struct {
	ID             string
	SourceText     string
	SourceLang     string
	TargetLang     string
	TranslatedText string
	Backend        string
	UsageCount     int
	Invalidated    bool
	LastUsed       time.Time
}

// CacheStats summarises translation memory usage.
type CacheStats struct {
	TotalEntries   int
	ActiveEntries  int
	InvalidEntries int
	TotalUsage     int
}

func (s *Store) GetCachedTranslation(ctx context.Context, sourceText, sourceLang, targetLang string) (string, bool, error) {
	var translated string
	var invalidated bool

	err := s.db.QueryRowContext(ctx,
		`SELECT translated_text, invalidated FROM translation_memory WHERE source_text = ? AND source_lang = ? AND target_lang = ?`,
		normalizeText(sourceText), sourceLang, targetLang).Scan(&translated, &invalidated)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	if invalidated {
		return "", false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE translation_memory SET usage_count = usage_count + 1, last_used = ? WHERE source_text = ? AND source_lang = ? AND target_lang = ?`,
		time.Now(), normalizeText(sourceText), sourceLang, targetLang)

	return repad(sourceText, translated), true, err
}

// SaveToMemory stores one string pair, replacing any entry for the same
// normalised source text and language pair.
func (s *Store) SaveToMemory(ctx context.Context, sourceText, sourceLang, targetLang, translatedText, backend string) error {
	return saveMemory(ctx, s.db, sourceText, sourceLang, targetLang, translatedText, backend)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// saveMemory stores translations raw: line break markers are turned back into
// line breaks and surrounding whitespace is dropped, since the key is trimmed
// too. Callers re-apply both on the way out.
func saveMemory(ctx context.Context, db execer, sourceText, sourceLang, targetLang, translatedText, backend string) error {
	now := time.Now()
	_, err := db.ExecContext(ctx,
		`INSERT OR REPLACE INTO translation_memory (id, source_text, source_lang, target_lang, translated_text, backend, usage_count, invalidated, last_used, created_at) VALUES (?, ?, ?, ?, ?, ?, 1, FALSE, ?, ?)`,
		uuid.NewString(), normalizeText(sourceText), sourceLang, targetLang,
		strings.TrimSpace(internal.RestoreNewlines(translatedText)), backend, now, now)
	return err
}

// repad gives translated the leading and trailing whitespace of source.
func repad(source, translated string) string {
	trimmed := strings.TrimLeftFunc(source, unicode.IsSpace)
	lead := source[:len(source)-len(trimmed)]
	trail := trimmed[len(strings.TrimRightFunc(trimmed, unicode.IsSpace)):]
	return lead + strings.TrimSpace(translated) + trail
}

// SaveResponse stores every string pair of a completed translation in one
// transaction. resp must be aligned with bundle; empty source strings are
// skipped. Normalized line break markers are stored as line breaks.
func (s *Store) SaveResponse(ctx context.Context, bundle internal.TextBundle, resp internal.TranslationResponse, sourceLang, targetLang, backend string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	saved := 0
	for _, f := range bundle.Files {
		for _, blk := range f.Blocks {
			tb, ok := resp.Lookup(f.ID, blk.ID)
			if !ok || len(tb.Strings) != len(blk.Strings) {
				return 0, fmt.Errorf("response not aligned at %s/%s", f.ID, blk.ID)
			}
			for i, src := range blk.Strings {
				if normalizeText(src) == "" {
					continue
				}
				if err := saveMemory(ctx, tx, src, sourceLang, targetLang, tb.Strings[i], backend); err != nil {
					return 0, err
				}
				saved++
			}
		}
	}
	return saved, tx.Commit()
}

func (s *Store) InvalidateMemory(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE translation_memory SET invalidated = TRUE WHERE id = ?`, id)
	return err
}

// DeleteMemory permanently removes a translation memory entry by ID.
func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory WHERE id = ?`, id)
	return err
}

// ClearMemory removes all translation memory entries.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListMemory returns all translation memory entries ordered by most recently used.
func (s *Store) ListMemory(ctx context.Context) ([]MemoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_text, source_lang, target_lang, translated_text, COALESCE(backend, ''), usage_count, invalidated, last_used FROM translation_memory ORDER BY last_used DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MemoryEntry
	for rows.Next() {
		var e MemoryEntry
		if err := rows.Scan(&e.ID, &e.SourceText, &e.SourceLang, &e.TargetLang, &e.TranslatedText, &e.Backend, &e.UsageCount, &e.Invalidated, &e.LastUsed); err != nil {
			return nil, err
		}
		results = append(results, e)
	}

	return results, rows.Err()
}

// Stats returns summary statistics for the translation memory.
func (s *Store) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN NOT invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(usage_count), 0)
		FROM translation_memory`).Scan(
		&stats.TotalEntries,
		&stats.ActiveEntries,
		&stats.InvalidEntries,
		&stats.TotalUsage,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// FuzzyGetCachedTranslation returns a cached translation whose normalised source
// text has at least threshold similarity (0–1) to sourceText. Pass threshold ≤ 0
// to disable. Texts longer than 1 000 runes are not fuzzy-matched.
func (s *Store) FuzzyGetCachedTranslation(ctx context.Context, sourceText, sourceLang, targetLang string, threshold float64) (string, float64, bool, error) {
	if threshold <= 0 {
		return "", 0, false, nil
	}

	normalized := normalizeText(sourceText)
	const maxFuzzyRunes = 1000
	if len([]rune(normalized)) > maxFuzzyRunes {
		return "", 0, false, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source_text, translated_text FROM translation_memory
		 WHERE source_lang = ? AND target_lang = ? AND NOT invalidated`,
		sourceLang, targetLang)
	if err != nil {
		return "", 0, false, err
	}
	defer rows.Close()

	var best string
	bestScore := 0.0

	for rows.Next() {
		var srcText, translated string
		if err := rows.Scan(&srcText, &translated); err != nil {
			return "", 0, false, err
		}

		// Length alone can rule a candidate out before the edit distance.
		ls, lr := len([]rune(normalized)), len([]rune(srcText))
		maxL := max(ls, lr)
		diff := ls - lr
		if diff < 0 {
			diff = -diff
		}
		if maxL > 0 && 1.0-float64(diff)/float64(maxL) < threshold {
			continue
		}

		score := match.Similarity(normalized, srcText)
		if score >= threshold && score > bestScore {
			bestScore = score
			best = translated
		}
	}
	if err := rows.Err(); err != nil {
		return "", 0, false, err
	}

	if bestScore > 0 {
		return repad(sourceText, best), bestScore, true, nil
	}
	return "", 0, false, nil
}

func (s *Store) peekMemory(ctx context.Context, sourceText, sourceLang, targetLang string) (string, bool, error) {
	var translated string
	err := s.db.QueryRowContext(ctx,
		`SELECT translated_text FROM translation_memory WHERE source_text = ? AND source_lang = ? AND target_lang = ? AND NOT invalidated`,
		normalizeText(sourceText), sourceLang, targetLang).Scan(&translated)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return translated, true, nil
}

// SplitCached separates the blocks of bundle that translation memory can
// answer completely from those that still need a backend. A block is served
// from memory only when every non-blank string hits; blank strings pass
// through unchanged. Usage counters are bumped for served strings only.
func (s *Store) SplitCached(ctx context.Context, bundle internal.TextBundle, sourceLang, targetLang string) (internal.TranslationResponse, internal.TextBundle, error) {
	var cached internal.TranslationResponse
	var pending internal.TextBundle

	for _, f := range bundle.Files {
		var hitBlocks []internal.TranslatedBlock
		var missBlocks []internal.Block

		for _, blk := range f.Blocks {
			out := make([]string, len(blk.Strings))
			var hits []string
			complete := true
			for i, src := range blk.Strings {
				if normalizeText(src) == "" {
					out[i] = src
					continue
				}
				translated, ok, err := s.peekMemory(ctx, src, sourceLang, targetLang)
				if err != nil {
					return internal.TranslationResponse{}, internal.TextBundle{}, err
				}
				if !ok {
					complete = false
					break
				}
				out[i] = repad(src, translated)
				hits = append(hits, src)
			}
			if !complete {
				missBlocks = append(missBlocks, blk)
				continue
			}
			for _, src := range hits {
				if _, err := s.db.ExecContext(ctx,
					`UPDATE translation_memory SET usage_count = usage_count + 1, last_used = ? WHERE source_text = ? AND source_lang = ? AND target_lang = ?`,
					time.Now(), normalizeText(src), sourceLang, targetLang); err != nil {
					return internal.TranslationResponse{}, internal.TextBundle{}, err
				}
			}
			hitBlocks = append(hitBlocks, internal.TranslatedBlock{ID: blk.ID, Strings: out})
		}

		if len(hitBlocks) > 0 {
			cached.Files = append(cached.Files, internal.TranslatedFile{ID: f.ID, Blocks: hitBlocks})
		}
		if len(missBlocks) > 0 {
			pending.Files = append(pending.Files, internal.File{ID: f.ID, Blocks: missBlocks})
		}
	}
	return cached, pending, nil
}
