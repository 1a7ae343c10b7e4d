package repository

import (
	"context"
	"fmt"
	"strings"

	"postfarm/internal/kv"
	"postfarm/internal/models"
	"postfarm/internal/observability"
)

// PreferenceRepository stores the UI language in its own slot, independent
// of the application state.
type PreferenceRepository struct {
	store kv.Store
	key   string
	log   *observability.RepoLogger
}

// NewPreferenceRepository creates a repository bound to the given slot key.
func NewPreferenceRepository(store kv.Store, key string) *PreferenceRepository {
	return &PreferenceRepository{
		store: store,
		key:   key,
		log:   observability.NewRepoLogger(key),
	}
}

// Language returns the stored language, or the default when the slot is
// empty, unreadable, or holds an unknown value.
func (r *PreferenceRepository) Language(ctx context.Context) models.Language {
	raw, err := r.store.Get(ctx, r.key)
	if err != nil {
		if !kv.IsNotFound(err) {
			observability.PersistenceFailures.WithLabelValues("load").Inc()
			r.log.LogError(ctx, err, "load")
		}
		return models.DefaultLanguage
	}
	lang := models.Language(strings.TrimSpace(raw))
	if !lang.Valid() {
		r.log.LogRead(ctx, map[string]interface{}{"ignored": raw})
		return models.DefaultLanguage
	}
	return lang
}

// SetLanguage validates and stores lang. Only validation failures are
// returned; a failed write is logged like any other best-effort save.
func (r *PreferenceRepository) SetLanguage(ctx context.Context, lang models.Language) error {
	if !lang.Valid() {
		return models.NewValidationError(fmt.Sprintf("unsupported language %q", lang))
	}
	if err := r.store.Set(ctx, r.key, string(lang)); err != nil {
		observability.PersistenceFailures.WithLabelValues("save").Inc()
		r.log.LogError(ctx, err, "save")
		return nil
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"language": string(lang)})
	return nil
}
