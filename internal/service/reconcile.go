package service

import (
	"context"
	"fmt"

	"postfarm/internal/featureflags"
	"postfarm/internal/models"
	"postfarm/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// StateRepository is the persistence the store depends on. Both calls are
// best-effort: Load reports absence instead of failing and Save never fails.
type StateRepository interface {
	Load(ctx context.Context) (*models.AppState, bool)
	Save(ctx context.Context, state *models.AppState)
}

// SeedFunc produces the factory-default state. It must return fresh memory
// with identical content on every call.
type SeedFunc func() *models.AppState

// MergePolicy decides which side of a reconciliation a collection comes from.
type MergePolicy int

const (
	// Reseed takes the collection from the fresh seed, discarding persisted edits.
	Reseed MergePolicy = iota
	// Preserve keeps the persisted collection as is.
	Preserve
)

func (p MergePolicy) String() string {
	if p == Preserve {
		return "preserve"
	}
	return "reseed"
}

type collectionMerge struct {
	name   string
	policy MergePolicy
	take   func(dst, src *models.AppState)
}

var mergeTable = []collectionMerge{
	{"clients", Reseed, func(dst, src *models.AppState) { dst.Clients = src.Clients }},
	{"clientHealth", Reseed, func(dst, src *models.AppState) { dst.ClientHealth = src.ClientHealth }},
	{"posts", Preserve, func(dst, src *models.AppState) { dst.Posts = src.Posts }},
	{"comments", Preserve, func(dst, src *models.AppState) { dst.Comments = src.Comments }},
	{"securityEvents", Preserve, func(dst, src *models.AppState) { dst.SecurityEvents = src.SecurityEvents }},
	{"analytics", Preserve, func(dst, src *models.AppState) { dst.Analytics = src.Analytics }},
}

// MergePolicies returns the per-collection policy applied on every load.
func MergePolicies() map[string]MergePolicy {
	out := make(map[string]MergePolicy, len(mergeTable))
	for _, m := range mergeTable {
		out[m.name] = m.policy
	}
	return out
}

// Reconcile merges a persisted state with a freshly seeded one and repairs
// the current-client pointer: the persisted selection survives only if it
// still names one of the resulting clients, otherwise the seed's selection
// is used. Neither input is modified.
func Reconcile(persisted, fresh *models.AppState) *models.AppState {
	p, f := persisted.Clone(), fresh.Clone()

	out := &models.AppState{}
	for _, m := range mergeTable {
		src := f
		if m.policy == Preserve {
			src = p
		}
		m.take(out, src)
	}

	out.CurrentClientID = f.CurrentClientID
	if p.CurrentClientID != nil && out.HasClient(*p.CurrentClientID) {
		out.CurrentClientID = models.StringPtr(*p.CurrentClientID)
	}
	return out
}

func safeReconcile(persisted, fresh *models.AppState) (state *models.AppState, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reconcile: %v", r)
		}
	}()
	return Reconcile(persisted, fresh), nil
}

// LoadState builds the startup state. With nothing persisted the seed is
// used verbatim; otherwise the persisted state is reconciled against a
// fresh seed. A reconciliation failure degrades to the seed. The result is
// written back right away so the store starts from a persisted baseline;
// on the seeded paths this is governed by the first_load_writeback flag.
// The returned outcome is one of the observability.LoadOutcome* values.
func LoadState(ctx context.Context, repo StateRepository, seedFn SeedFunc, flags *featureflags.Manager) (*models.AppState, string) {
	span, ctx := observability.NewSpan(ctx, "service.LoadState")
	defer span.End()

	var (
		state   *models.AppState
		outcome string
	)
	persisted, ok := repo.Load(ctx)
	if ok {
		var err error
		state, err = safeReconcile(persisted, seedFn())
		outcome = observability.LoadOutcomeReconciled
		if err != nil {
			span.SetError(err)
			observability.NewStateLogger().LogDegraded(ctx, err)
			state, outcome = seedFn(), observability.LoadOutcomeDegraded
		}
	} else {
		state, outcome = seedFn(), observability.LoadOutcomeSeeded
	}

	if outcome == observability.LoadOutcomeReconciled || flags.EnabledOr(featureflags.FirstLoadWriteback, "", true) {
		repo.Save(ctx, state)
	}

	span.AddAttributes(
		observability.AttrOutcome.String(outcome),
		attribute.Int("clients", len(state.Clients)),
		attribute.Int("posts", len(state.Posts)),
	)
	observability.StateLoads.WithLabelValues(outcome).Inc()
	observability.NewStateLogger().LogLoad(ctx, outcome, map[string]interface{}{
		"clients": len(state.Clients),
		"posts":   len(state.Posts),
	})
	return state, outcome
}
