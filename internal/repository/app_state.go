// Package repository persists the application state and the language
// preference in a kv.Store slot.
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"postfarm/internal/kv"
	"postfarm/internal/models"
	"postfarm/internal/observability"
)

// AppStateRepository reads and writes the whole AppState as one JSON blob.
// Storage failures are logged and counted, never returned: persistence is
// best-effort and the in-memory state stays authoritative.
type AppStateRepository struct {
	store kv.Store
	key   string
	log   *observability.RepoLogger
}

// NewAppStateRepository creates a repository bound to the given slot key.
func NewAppStateRepository(store kv.Store, key string) *AppStateRepository {
	return &AppStateRepository{
		store: store,
		key:   key,
		log:   observability.NewRepoLogger(key),
	}
}

// WithLogger returns a copy that logs to l.
func (r *AppStateRepository) WithLogger(l *observability.Logger) *AppStateRepository {
	cp := *r
	cp.log = r.log.WithLogger(l)
	return &cp
}

// Key returns the storage slot this repository writes to.
func (r *AppStateRepository) Key() string { return r.key }

// Save serializes state into the slot, replacing any previous payload.
// Errors are swallowed after being logged.
func (r *AppStateRepository) Save(ctx context.Context, state *models.AppState) {
	if state == nil {
		return
	}
	span, ctx := observability.NewSpan(ctx, "repository.SaveState", observability.AttrSlot.String(r.key))
	defer span.End()
	defer observability.TrackPersistence("save")()

	data, err := Encode(state)
	if err == nil {
		err = r.store.Set(ctx, r.key, string(data))
	}
	if err != nil {
		span.SetError(err)
		observability.PersistenceFailures.WithLabelValues("save").Inc()
		r.log.LogError(ctx, fmt.Errorf("error saving to storage: %w", err), "save")
		return
	}

	span.AddAttributes(observability.AttrBytes.Int(len(data)))
	r.log.LogUpdate(ctx, map[string]interface{}{
		"bytes":   len(data),
		"clients": len(state.Clients),
		"posts":   len(state.Posts),
	})
}

// Load returns the persisted state with every date revived. The second
// return value is false when the slot is empty, unreadable, or holds a
// payload that is not a well-formed state; those cases are logged and
// otherwise indistinguishable.
func (r *AppStateRepository) Load(ctx context.Context) (*models.AppState, bool) {
	span, ctx := observability.NewSpan(ctx, "repository.LoadState", observability.AttrSlot.String(r.key))
	defer span.End()
	defer observability.TrackPersistence("load")()

	raw, err := r.store.Get(ctx, r.key)
	if kv.IsNotFound(err) {
		span.AddAttributes(observability.AttrFound.Bool(false))
		r.log.LogRead(ctx, map[string]interface{}{"found": false})
		return nil, false
	}
	if err != nil {
		r.fail(ctx, span, fmt.Errorf("error loading from storage: %w", err))
		return nil, false
	}

	state, err := decodeState([]byte(raw))
	if err != nil {
		r.fail(ctx, span, fmt.Errorf("error loading from storage: %w", err))
		return nil, false
	}

	span.AddAttributes(observability.AttrFound.Bool(true))
	r.log.LogRead(ctx, map[string]interface{}{
		"found":   true,
		"clients": len(state.Clients),
		"posts":   len(state.Posts),
	})
	return state, true
}

// Clear removes the slot.
func (r *AppStateRepository) Clear(ctx context.Context) error {
	if err := r.store.Delete(ctx, r.key); err != nil {
		r.log.LogError(ctx, err, "clear")
		return err
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"cleared": true})
	return nil
}

func (r *AppStateRepository) fail(ctx context.Context, span *observability.Span, err error) {
	span.SetError(err)
	observability.PersistenceFailures.WithLabelValues("load").Inc()
	r.log.LogError(ctx, err, "load")
}

// Encode serializes state in the persisted layout.
func Encode(state *models.AppState) ([]byte, error) {
	return json.Marshal(normalize(state))
}

// decodeState parses a persisted payload and revives its dates.
func decodeState(data []byte) (*models.AppState, error) {
	var doc stateDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	return doc.revive()
}
