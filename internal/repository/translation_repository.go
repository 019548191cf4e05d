package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// TranslationRow mirrors the 'translation_cache' table. A row is uniquely
// identified by (source_text, target_lang); the source text is stored
// byte-exact with no trimming or case folding.
type TranslationRow struct {
	ID             uint64
	SourceText     string
	TargetLang     string
	TranslatedText string
	LastUsed       time.Time
	UpdatedAt      time.Time
}

var ErrTranslationNotFound = errors.New("translation not found")

// TranslationRepo is the database tier of the translation cache.
type TranslationRepo struct {
	db *sql.DB
}

func NewTranslationRepo(db *sql.DB) *TranslationRepo {
	return &TranslationRepo{db: db}
}

// GetBatch returns the cached translations for the given source texts as a
// map keyed by source text. Missing texts are simply absent from the map.
// last_used is bumped for every hit in a second statement; that update is
// best-effort usage metadata, not part of the read contract.
func (r *TranslationRepo) GetBatch(ctx context.Context, texts []string, targetLang string) (map[string]string, error) {
	if len(texts) == 0 {
		return map[string]string{}, nil
	}
	placeholders := make([]string, len(texts))
	args := make([]any, 0, len(texts)+1)
	args = append(args, targetLang)
	for i, t := range texts {
		placeholders[i] = "?"
		args = append(args, t)
	}
	q := `SELECT source_text, translated_text FROM translation_cache
	      WHERE target_lang = ? AND source_text IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string, len(texts))
	for rows.Next() {
		var src, dst string
		if err := rows.Scan(&src, &dst); err != nil {
			return nil, err
		}
		out[src] = dst
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) > 0 {
		touchArgs := make([]any, 0, len(out)+1)
		touchArgs = append(touchArgs, targetLang)
		touchPh := make([]string, 0, len(out))
		for src := range out {
			touchPh = append(touchPh, "?")
			touchArgs = append(touchArgs, src)
		}
		_, _ = r.db.ExecContext(ctx,
			`UPDATE translation_cache SET last_used = CURRENT_TIMESTAMP
			 WHERE target_lang = ? AND source_text IN (`+strings.Join(touchPh, ",")+`)`,
			touchArgs...)
	}
	return out, nil
}

// Upsert writes one translation, replacing any previous text for the same
// (source_text, target_lang) pair.
func (r *TranslationRepo) Upsert(ctx context.Context, sourceText, targetLang, translatedText string) error {
	const q = `INSERT INTO translation_cache (source_text, target_lang, translated_text, last_used)
	           VALUES (?,?,?,CURRENT_TIMESTAMP)
	           ON DUPLICATE KEY UPDATE translated_text = VALUES(translated_text),
	                                   last_used = CURRENT_TIMESTAMP,
	                                   updated_at = CURRENT_TIMESTAMP`
	_, err := r.db.ExecContext(ctx, q, sourceText, targetLang, translatedText)
	return err
}

// Preload returns up to limit rows for a language, most recently used first.
// Used by the client-side hydration endpoint.
func (r *TranslationRepo) Preload(ctx context.Context, targetLang string, limit int) ([]*TranslationRow, error) {
	const q = `SELECT id, source_text, target_lang, translated_text, last_used, updated_at
	           FROM translation_cache WHERE target_lang = ?
	           ORDER BY last_used DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, targetLang, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*TranslationRow
	for rows.Next() {
		t := new(TranslationRow)
		if err := rows.Scan(&t.ID, &t.SourceText, &t.TargetLang, &t.TranslatedText, &t.LastUsed, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountExisting reports how many of the given source texts already have a
// cached translation for the language. The seed endpoint uses it for its
// completion percentage.
func (r *TranslationRepo) CountExisting(ctx context.Context, texts []string, targetLang string) (int, error) {
	if len(texts) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(texts))
	args := make([]any, 0, len(texts)+1)
	args = append(args, targetLang)
	for i, t := range texts {
		placeholders[i] = "?"
		args = append(args, t)
	}
	q := `SELECT COUNT(*) FROM translation_cache
	      WHERE target_lang = ? AND source_text IN (` + strings.Join(placeholders, ",") + `)`
	var n int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Update replaces the translated text of one row. Administrative edits go
// through here; the caller is responsible for clearing the memory tier.
func (r *TranslationRepo) Update(ctx context.Context, id uint64, translatedText string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE translation_cache SET translated_text = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		translatedText, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTranslationNotFound
	}
	return nil
}

// Delete removes one row by id.
func (r *TranslationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM translation_cache WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTranslationNotFound
	}
	return nil
}

// DeleteByLang removes every cached row for a language and returns the
// number of rows dropped. This is the bulk refresh path: stale entries are
// never aged out automatically.
func (r *TranslationRepo) DeleteByLang(ctx context.Context, targetLang string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM translation_cache WHERE target_lang = ?`, targetLang)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
