package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/valpere/rpgtl/internal"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_New(t *testing.T) {
	s := newTestStore(t)
	if s == nil {
		t.Fatal("expected non-nil store")
	}
}

func TestStore_New_InvalidPath(t *testing.T) {
	_, err := New("/nonexistent/path/test.db")
	if err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestStore_Jobs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.StartJob(ctx, "openai", "gpt-4o-mini", "ja", "en", 2, 10)
	if err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}

	job, err := s.GetJob(ctx, id)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if job.Status != "running" || job.FileCount != 2 || job.StringCount != 10 {
		t.Errorf("unexpected job: %+v", job)
	}

	if err := s.FinishJob(ctx, id, errors.New("provider rejected request")); err != nil {
		t.Fatalf("FinishJob failed: %v", err)
	}
	job, _ = s.GetJob(ctx, id)
	if job.Status != "failed" || job.Error != "provider rejected request" {
		t.Errorf("expected failed job with error, got %+v", job)
	}

	if _, err := s.GetJob(ctx, "missing"); err == nil {
		t.Error("expected error for missing job")
	}
}

func TestStore_GetCachedTranslation_Miss(t *testing.T) {
	s := newTestStore(t)

	text, found, err := s.GetCachedTranslation(context.Background(), "Hello", "en", "uk")
	if err != nil {
		t.Errorf("GetCachedTranslation failed: %v", err)
	}
	if found {
		t.Error("expected not found for uncached translation")
	}
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}
}

func TestStore_GetCachedTranslation_Hit(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveToMemory(context.Background(), "  Hello ", "en", "uk", "Привіт", "google"); err != nil {
		t.Fatalf("SaveToMemory failed: %v", err)
	}

	text, found, err := s.GetCachedTranslation(context.Background(), "Hello", "en", "uk")
	if err != nil {
		t.Errorf("GetCachedTranslation failed: %v", err)
	}
	if !found {
		t.Error("expected to find cached translation")
	}
	if text != "Привіт" {
		t.Errorf("expected 'Привіт', got %q", text)
	}
}

func TestStore_GetCachedTranslation_Invalidated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveToMemory(ctx, "Hello", "en", "uk", "Привіт", "google")
	entries, err := s.ListMemory(ctx)
	if err != nil || len(entries) != 1 {
		t.Fatalf("ListMemory: %v, %d entries", err, len(entries))
	}
	if err := s.InvalidateMemory(ctx, entries[0].ID); err != nil {
		t.Fatalf("InvalidateMemory failed: %v", err)
	}

	if _, found, _ := s.GetCachedTranslation(ctx, "Hello", "en", "uk"); found {
		t.Error("invalidated entry should not be returned")
	}

	stats, _ := s.Stats(ctx)
	if stats.InvalidEntries != 1 || stats.ActiveEntries != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestStore_SaveResponse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	bundle := internal.TextBundle{Files: []internal.File{{
		ID: "map1",
		Blocks: []internal.Block{
			{ID: "b1", Name: "b1", Strings: []string{"Hello", "", "World"}},
		},
	}}}
	resp := internal.TranslationResponse{Files: []internal.TranslatedFile{{
		ID:     "map1",
		Blocks: []internal.TranslatedBlock{{ID: "b1", Strings: []string{"Bonjour", "", "Monde"}}},
	}}}

	n, err := s.SaveResponse(ctx, bundle, resp, "en", "fr", "deepl")
	if err != nil {
		t.Fatalf("SaveResponse failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 saved pairs, got %d", n)
	}
	if text, found, _ := s.GetCachedTranslation(ctx, "World", "en", "fr"); !found || text != "Monde" {
		t.Errorf("expected Monde, got %q (found=%v)", text, found)
	}

	resp.Files[0].Blocks[0].Strings = []string{"Bonjour"}
	if _, err := s.SaveResponse(ctx, bundle, resp, "en", "fr", "deepl"); err == nil {
		t.Error("expected error for misaligned response")
	}
}

func TestStore_Stats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Errorf("Stats failed: %v", err)
	}
	if stats.TotalEntries != 0 {
		t.Errorf("expected 0 total entries, got %d", stats.TotalEntries)
	}

	s.SaveToMemory(ctx, "Hello", "en", "uk", "Привіт", "google")
	s.SaveToMemory(ctx, "World", "en", "uk", "Світ", "google")
	s.GetCachedTranslation(ctx, "Hello", "en", "uk")

	stats, err = s.Stats(ctx)
	if err != nil {
		t.Errorf("Stats failed: %v", err)
	}
	if stats.TotalEntries != 2 || stats.ActiveEntries != 2 {
		t.Errorf("expected 2 total/active entries, got %+v", stats)
	}
	if stats.TotalUsage != 3 {
		t.Errorf("expected usage 3, got %d", stats.TotalUsage)
	}
}

func TestStore_DeleteAndClearMemory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveToMemory(ctx, "Hello", "en", "uk", "Привіт", "google")
	s.SaveToMemory(ctx, "World", "en", "uk", "Світ", "google")
	s.SaveToMemory(ctx, "Sword", "en", "uk", "Меч", "google")

	entries, err := s.ListMemory(ctx)
	if err != nil || len(entries) != 3 {
		t.Fatalf("ListMemory: %v, %d entries", err, len(entries))
	}
	if err := s.DeleteMemory(ctx, entries[0].ID); err != nil {
		t.Errorf("DeleteMemory failed: %v", err)
	}

	count, err := s.ClearMemory(ctx)
	if err != nil {
		t.Errorf("ClearMemory failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 cleared, got %d", count)
	}
}

func TestStore_FuzzyGetCachedTranslation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveToMemory(ctx, "The hero draws his sword.", "en", "fr", "Le héros tire son épée.", "openai")
	s.SaveToMemory(ctx, "Completely different text", "en", "fr", "Autre chose", "openai")

	text, score, found, err := s.FuzzyGetCachedTranslation(ctx, "The hero draws her sword.", "en", "fr", 0.85)
	if err != nil {
		t.Fatalf("FuzzyGetCachedTranslation failed: %v", err)
	}
	if !found || text != "Le héros tire son épée." {
		t.Errorf("expected fuzzy hit, got %q (found=%v)", text, found)
	}
	if score < 0.85 || score >= 1 {
		t.Errorf("unexpected score %v", score)
	}

	if _, _, found, _ := s.FuzzyGetCachedTranslation(ctx, "Nothing alike at all here", "en", "fr", 0.85); found {
		t.Error("expected miss for dissimilar text")
	}
	if _, _, found, _ := s.FuzzyGetCachedTranslation(ctx, "The hero draws his sword.", "en", "fr", 0); found {
		t.Error("threshold 0 disables fuzzy lookup")
	}
}

func TestStore_Glossary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AddGlossaryTerm(ctx, "ja", "en", "勇者", "Hero", "protagonist title"); err != nil {
		t.Fatalf("AddGlossaryTerm failed: %v", err)
	}
	if err := s.AddGlossaryTerm(ctx, "ja", "en", "魔王", "Demon King", ""); err != nil {
		t.Fatalf("AddGlossaryTerm failed: %v", err)
	}
	if err := s.AddGlossaryTerm(ctx, "ja", "fr", "勇者", "Héros", ""); err != nil {
		t.Fatalf("AddGlossaryTerm failed: %v", err)
	}
	// Updating an existing term keeps its position.
	if err := s.AddGlossaryTerm(ctx, "ja", "en", "勇者", "Brave", "updated"); err != nil {
		t.Fatalf("AddGlossaryTerm update failed: %v", err)
	}

	terms, err := s.Glossary(ctx, "ja", "en")
	if err != nil {
		t.Fatalf("Glossary failed: %v", err)
	}
	want := []internal.GlossaryEntry{
		{Term: "勇者", Translation: "Brave", Note: "updated"},
		{Term: "魔王", Translation: "Demon King"},
	}
	if len(terms) != len(want) {
		t.Fatalf("expected %d terms, got %d: %+v", len(want), len(terms), terms)
	}
	for i := range want {
		if terms[i] != want[i] {
			t.Errorf("term %d = %+v, want %+v", i, terms[i], want[i])
		}
	}

	all, err := s.ListGlossaryTerms(ctx, "", "")
	if err != nil || len(all) != 3 {
		t.Fatalf("ListGlossaryTerms: %v, %d entries", err, len(all))
	}
	fr, _ := s.ListGlossaryTerms(ctx, "", "fr")
	if len(fr) != 1 {
		t.Errorf("expected 1 fr entry, got %d", len(fr))
	}

	deleted, err := s.DeleteGlossaryTerm(ctx, fr[0].ID)
	if err != nil || !deleted {
		t.Errorf("DeleteGlossaryTerm = %v, %v", deleted, err)
	}
	deleted, _ = s.DeleteGlossaryTerm(ctx, fr[0].ID)
	if deleted {
		t.Error("second delete should report nothing deleted")
	}
}

func TestStore_ImportGlossary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.ImportGlossary(ctx, "en", "de", []internal.GlossaryEntry{
		{Term: "Potion", Translation: "Trank"},
		{Term: "  ", Translation: "skipped"},
		{Term: "Ether", Translation: "Äther", Note: "MP item"},
	})
	if err != nil {
		t.Fatalf("ImportGlossary failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 imported, got %d", n)
	}

	terms, _ := s.Glossary(ctx, "en", "de")
	if len(terms) != 2 || terms[0].Term != "Potion" || terms[1].Note != "MP item" {
		t.Errorf("unexpected glossary: %+v", terms)
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  Hello  ", "Hello"},
		{"épée", "épée"},
		{"\t\nHello\t\n", "Hello"},
		{"", ""},
	}

	for _, tt := range tests {
		result := normalizeText(tt.input)
		if result != tt.expected {
			t.Errorf("normalizeText(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestStore_MultipleLanguagePairs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveToMemory(ctx, "Hello", "en", "uk", "Привіт", "google")
	s.SaveToMemory(ctx, "Hello", "en", "de", "Hallo", "google")
	s.SaveToMemory(ctx, "Hello", "en", "fr", "Bonjour", "google")

	for lang, want := range map[string]string{"uk": "Привіт", "de": "Hallo", "fr": "Bonjour"} {
		text, found, _ := s.GetCachedTranslation(ctx, "Hello", "en", lang)
		if !found || text != want {
			t.Errorf("en->%s: expected %q, got %q (found=%v)", lang, want, text, found)
		}
	}

	if _, found, _ := s.GetCachedTranslation(ctx, "Hello", "en", "es"); found {
		t.Error("en->es: expected not found")
	}
}

func TestStore_SplitCached(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveToMemory(ctx, "Hello", "en", "fr", "Bonjour", "deepl"); err != nil {
		t.Fatalf("SaveToMemory failed: %v", err)
	}
	if err := s.SaveToMemory(ctx, "World", "en", "fr", "Monde", "deepl"); err != nil {
		t.Fatalf("SaveToMemory failed: %v", err)
	}

	bundle := internal.TextBundle{Files: []internal.File{
		{ID: "map1", Blocks: []internal.Block{
			{ID: "hit", Strings: []string{"Hello", "", "World"}},
			{ID: "partial", Strings: []string{"Hello", "Sword"}},
		}},
		{ID: "map2", Blocks: []internal.Block{
			{ID: "miss", Strings: []string{"Shield"}},
		}},
	}}

	cached, pending, err := s.SplitCached(ctx, bundle, "en", "fr")
	if err != nil {
		t.Fatalf("SplitCached failed: %v", err)
	}

	hit, ok := cached.Lookup("map1", "hit")
	if !ok {
		t.Fatal("fully cached block should be served")
	}
	if hit.Strings[0] != "Bonjour" || hit.Strings[1] != "" || hit.Strings[2] != "Monde" {
		t.Errorf("unexpected cached strings: %q", hit.Strings)
	}
	if _, ok := cached.Lookup("map1", "partial"); ok {
		t.Error("partially cached block should not be served")
	}

	if len(pending.Files) != 2 {
		t.Fatalf("expected 2 pending files, got %d", len(pending.Files))
	}
	if len(pending.Files[0].Blocks) != 1 || pending.Files[0].Blocks[0].ID != "partial" {
		t.Errorf("unexpected pending blocks: %+v", pending.Files[0].Blocks)
	}

	merged := cached
	merged.Merge(internal.TranslationResponse{Files: []internal.TranslatedFile{
		{ID: "map1", Blocks: []internal.TranslatedBlock{{ID: "partial", Strings: []string{"Bonjour", "Épée"}}}},
		{ID: "map2", Blocks: []internal.TranslatedBlock{{ID: "miss", Strings: []string{"Bouclier"}}}},
	}})
	if _, err := internal.CheckAlignment(bundle, merged); err != nil {
		t.Errorf("cached and fresh parts should align with the bundle: %v", err)
	}
}

func TestStore_SaveResponse_StoresRawLineBreaks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	bundle := internal.TextBundle{Files: []internal.File{{
		ID:     "map1",
		Blocks: []internal.Block{{ID: "b1", Strings: []string{"Hello\nWorld"}}},
	}}}
	normalized := internal.TranslationResponse{Files: []internal.TranslatedFile{{
		ID:     "map1",
		Blocks: []internal.TranslatedBlock{{ID: "b1", Strings: []string{`Bonjour\#Monde`}}},
	}}}
	if _, err := s.SaveResponse(ctx, bundle, normalized, "en", "fr", "google"); err != nil {
		t.Fatalf("SaveResponse failed: %v", err)
	}

	cached, pending, err := s.SplitCached(ctx, bundle, "en", "fr")
	if err != nil {
		t.Fatalf("SplitCached failed: %v", err)
	}
	if len(pending.Files) != 0 {
		t.Fatalf("expected everything cached, pending = %+v", pending.Files)
	}
	got, _ := cached.Lookup("map1", "b1")
	if got.Strings[0] != "Bonjour\nMonde" {
		t.Errorf("cached string = %q, want literal line break", got.Strings[0])
	}
}

func TestStore_SplitCached_KeepsSourcePadding(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveToMemory(ctx, "Hello", "en", "fr", "Bonjour", "deepl"); err != nil {
		t.Fatalf("SaveToMemory failed: %v", err)
	}
	if err := s.SaveToMemory(ctx, "  Potion ", "en", "fr", " Potion\t", "deepl"); err != nil {
		t.Fatalf("SaveToMemory failed: %v", err)
	}

	bundle := internal.TextBundle{Files: []internal.File{{
		ID:     "map1",
		Blocks: []internal.Block{{ID: "b1", Strings: []string{"  Hello", "Hello\n", "Potion"}}},
	}}}
	cached, _, err := s.SplitCached(ctx, bundle, "en", "fr")
	if err != nil {
		t.Fatalf("SplitCached failed: %v", err)
	}
	got, ok := cached.Lookup("map1", "b1")
	if !ok {
		t.Fatal("block should be served from memory")
	}
	want := []string{"  Bonjour", "Bonjour\n", "Potion"}
	for i := range want {
		if got.Strings[i] != want[i] {
			t.Errorf("string %d = %q, want %q", i, got.Strings[i], want[i])
		}
	}

	if text, _, _ := s.GetCachedTranslation(ctx, "\tHello", "en", "fr"); text != "\tBonjour" {
		t.Errorf("GetCachedTranslation = %q, want %q", text, "\tBonjour")
	}
}
