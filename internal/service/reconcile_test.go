package service

import (
	"context"
	"testing"
	"time"

	"postfarm/internal/featureflags"
	"postfarm/internal/kv"
	"postfarm/internal/models"
	"postfarm/internal/observability"
	"postfarm/internal/repository"
	"postfarm/internal/seed"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergePolicies(t *testing.T) {
	assert.Equal(t, map[string]MergePolicy{
		"clients":        Reseed,
		"clientHealth":   Reseed,
		"posts":          Preserve,
		"comments":       Preserve,
		"securityEvents": Preserve,
		"analytics":      Preserve,
	}, MergePolicies())
	assert.Equal(t, "preserve", Preserve.String())
	assert.Equal(t, "reseed", Reseed.String())
}

// editedState returns a seed with user edits in every collection.
func editedState() *models.AppState {
	st := seed.Generate()
	st.Clients[0].Name = "Tesla (renamed)"
	st.Clients = append(st.Clients, models.Client{ID: "99", Name: "Local only", ConnectedAccounts: []models.ConnectedAccount{}})
	st.ClientHealth[0].OverallScore = 10
	st.Posts = append(st.Posts, models.Post{ID: "p-1", ClientID: "99", Content: "mine", Platforms: []models.Platform{models.PlatformTikTok}})
	st.Comments[0].Replies = append(st.Comments[0].Replies, models.Reply{ID: "r", Content: "hi"})
	st.SecurityEvents = st.SecurityEvents[:1]
	st.Analytics.TotalViews = 1234
	return st
}

func TestReconcile_OverwritesAndPreserves(t *testing.T) {
	persisted := editedState()
	fresh := seed.Generate()

	got := Reconcile(persisted, fresh)

	assert.Equal(t, fresh.Clients, got.Clients, "clients always come from the seed")
	assert.Equal(t, fresh.ClientHealth, got.ClientHealth, "health always comes from the seed")
	assert.Equal(t, persisted.Posts, got.Posts)
	assert.Equal(t, persisted.Comments, got.Comments)
	assert.Equal(t, persisted.SecurityEvents, got.SecurityEvents)
	assert.Equal(t, persisted.Analytics, got.Analytics)
}

func TestReconcile_DoesNotAliasInputs(t *testing.T) {
	persisted := editedState()
	fresh := seed.Generate()

	got := Reconcile(persisted, fresh)
	got.Posts[0].Platforms[0] = models.PlatformTikTok
	got.Clients[0].ConnectedAccounts[0].Username = "changed"

	assert.Equal(t, models.PlatformFacebook, persisted.Posts[0].Platforms[0])
	assert.Equal(t, seed.Generate().Clients, fresh.Clients)
}

func TestReconcile_CurrentClientRepair(t *testing.T) {
	tests := []struct {
		name      string
		persisted *string
		want      string
	}{
		{"kept when still seeded", models.StringPtr("3"), "3"},
		{"stale id falls back to seed", models.StringPtr("nonexistent-id"), seed.DefaultClientID},
		{"locally added client is gone after reseed", models.StringPtr("99"), seed.DefaultClientID},
		{"null falls back to seed", nil, seed.DefaultClientID},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			persisted := editedState()
			persisted.CurrentClientID = tc.persisted

			got := Reconcile(persisted, seed.Generate())
			require.NotNil(t, got.CurrentClientID)
			assert.Equal(t, tc.want, *got.CurrentClientID)
			assert.True(t, got.HasClient(*got.CurrentClientID))
		})
	}
}

func TestLoadState_FirstRun(t *testing.T) {
	repo := &stateRepoStub{}
	before := testutil.ToFloat64(observability.StateLoads.WithLabelValues(observability.LoadOutcomeSeeded))

	st, outcome := LoadState(context.Background(), repo, seed.Generate, nil)

	assert.Equal(t, observability.LoadOutcomeSeeded, outcome)
	assert.Len(t, st.Clients, 3)
	require.NotNil(t, st.CurrentClientID)
	assert.Equal(t, "1", *st.CurrentClientID)
	require.Len(t, repo.saves, 1, "first load writes the seed back")
	assert.Equal(t, st, repo.last())
	assert.Equal(t, before+1, testutil.ToFloat64(observability.StateLoads.WithLabelValues(observability.LoadOutcomeSeeded)))
}

func TestLoadState_FirstRunWritebackDisabled(t *testing.T) {
	repo := &stateRepoStub{}
	flags := featureflags.NewManager("first_load_writeback=off")

	_, outcome := LoadState(context.Background(), repo, seed.Generate, flags)
	assert.Equal(t, observability.LoadOutcomeSeeded, outcome)
	assert.Empty(t, repo.saves)
}

func TestLoadState_Reconciles(t *testing.T) {
	persisted := editedState()
	persisted.CurrentClientID = models.StringPtr("2")
	repo := &stateRepoStub{loaded: persisted, found: true}

	st, outcome := LoadState(context.Background(), repo, seed.Generate, featureflags.NewManager("first_load_writeback=off"))

	assert.Equal(t, observability.LoadOutcomeReconciled, outcome)
	assert.Equal(t, "2", *st.CurrentClientID)
	assert.Len(t, st.Clients, 3)
	assert.Len(t, st.Posts, 3)
	require.Len(t, repo.saves, 1, "reconciled state is always written back")
	assert.Equal(t, st, repo.last())
}

func TestLoadState_DegradesOnReconcileFailure(t *testing.T) {
	// a repository reporting presence without a state makes reconciliation panic
	repo := &stateRepoStub{loaded: nil, found: true}
	before := testutil.ToFloat64(observability.StateLoads.WithLabelValues(observability.LoadOutcomeDegraded))

	var st *models.AppState
	var outcome string
	require.NotPanics(t, func() {
		st, outcome = LoadState(context.Background(), repo, seed.Generate, nil)
	})

	assert.Equal(t, observability.LoadOutcomeDegraded, outcome)
	assert.Equal(t, seed.Generate(), st)
	assert.Len(t, repo.saves, 1)
	assert.Equal(t, before+1, testutil.ToFloat64(observability.StateLoads.WithLabelValues(observability.LoadOutcomeDegraded)))
}

// The scenarios below run against the real JSON repository.

func memoryRepo() (*repository.AppStateRepository, kv.Store) {
	store := kv.NewMemory()
	return repository.NewAppStateRepository(store, "post-farming-data"), store
}

func TestScenario_StaleClientID(t *testing.T) {
	repo, _ := memoryRepo()
	ctx := context.Background()

	stale := seed.Generate()
	stale.CurrentClientID = models.StringPtr("nonexistent-id")
	repo.Save(ctx, stale)

	st, outcome := LoadState(ctx, repo, seed.Generate, nil)
	assert.Equal(t, observability.LoadOutcomeReconciled, outcome)
	assert.Equal(t, seed.DefaultClientID, *st.CurrentClientID)

	persisted, ok := repo.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, seed.DefaultClientID, *persisted.CurrentClientID, "the repair is persisted")
}

func TestScenario_PostSurvivesReseed(t *testing.T) {
	repo, _ := memoryRepo()
	ctx := context.Background()

	s, _ := OpenStore(ctx, repo, seed.Generate, nil)
	s.AddClient(ctx, models.Client{ID: "local", Name: "Local", ConnectedAccounts: []models.ConnectedAccount{}})
	post := models.Post{
		ID:            "p-1",
		ClientID:      "1",
		Platforms:     []models.Platform{models.PlatformInstagram},
		Content:       "Model Y giveaway",
		ScheduledDate: time.Date(2025, time.December, 1, 9, 0, 0, 0, time.UTC),
		Status:        models.PostStatusScheduled,
		CreatedAt:     time.Date(2025, time.November, 18, 9, 0, 0, 0, time.UTC),
	}
	s.AddPost(ctx, post)

	reloaded, outcome := OpenStore(ctx, repo, seed.Generate, nil)
	assert.Equal(t, observability.LoadOutcomeReconciled, outcome)

	st := reloaded.State()
	assert.False(t, st.HasClient("local"), "clients are reseeded")
	var found *models.Post
	for i := range st.Posts {
		if st.Posts[i].ID == "p-1" {
			found = &st.Posts[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, post, *found)
}

func TestScenario_RepliesAndAnalyticsSurviveReload(t *testing.T) {
	repo, _ := memoryRepo()
	ctx := context.Background()

	s, _ := OpenStore(ctx, repo, seed.Generate, nil)
	s.AddReplyToComment(ctx, "2", ReplyInput{Content: "Next month!"})
	refreshed := s.RefreshAnalytics(ctx).Analytics

	reloaded, _ := OpenStore(ctx, repo, seed.Generate, nil)
	st := reloaded.State()
	require.Len(t, st.Comments[1].Replies, 1)
	assert.Equal(t, "Next month!", st.Comments[1].Replies[0].Content)
	assert.Equal(t, refreshed, st.Analytics)
}

func TestScenario_CorruptSlotReseeds(t *testing.T) {
	repo, store := memoryRepo()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "post-farming-data", `{"clients":"oops"}`))

	st, outcome := LoadState(ctx, repo, seed.Generate, nil)
	assert.Equal(t, observability.LoadOutcomeSeeded, outcome)
	assert.Equal(t, seed.Generate(), st)

	persisted, ok := repo.Load(ctx)
	require.True(t, ok, "the corrupt payload is replaced by the seed")
	assert.Equal(t, seed.Generate(), persisted)
}

func TestScenario_PostsSurviveIncompleteClients(t *testing.T) {
	repo, store := memoryRepo()
	ctx := context.Background()
	payload := `{"clients":[{"id":"1"}],"clientHealth":[],"comments":[],"securityEvents":[],
		"posts":[{"id":"p-1","clientId":"1","platforms":["instagram"],"content":"Model Y giveaway","scheduledDate":"2025-12-01T09:00:00Z","createdAt":"2025-11-18T09:00:00Z","status":"scheduled"}]}`
	require.NoError(t, store.Set(ctx, "post-farming-data", payload))

	st, outcome := LoadState(ctx, repo, seed.Generate, nil)
	assert.Equal(t, observability.LoadOutcomeReconciled, outcome)
	assert.Equal(t, seed.Generate().Clients, st.Clients)
	require.Len(t, st.Posts, 1)
	assert.Equal(t, "p-1", st.Posts[0].ID)

	persisted, ok := repo.Load(ctx)
	require.True(t, ok)
	require.Len(t, persisted.Posts, 1, "the write-back keeps the user's post")
	assert.Equal(t, "p-1", persisted.Posts[0].ID)
}
