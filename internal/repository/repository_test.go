package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"postfarm/internal/kv"
	"postfarm/internal/models"
	"postfarm/internal/observability"
	"postfarm/internal/seed"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "post-farming-data"

// brokenStore fails every call.
type brokenStore struct{}

var errBroken = errors.New("quota exceeded")

func (brokenStore) Get(context.Context, string) (string, error) { return "", errBroken }
func (brokenStore) Set(context.Context, string, string) error   { return errBroken }
func (brokenStore) Delete(context.Context, string) error        { return errBroken }
func (brokenStore) Close() error                                { return nil }

func quietRepo(store kv.Store) (*AppStateRepository, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewAppStateRepository(store, testKey).WithLogger(observability.NewLogger(&buf, "debug")), &buf
}

func TestSaveLoad_RoundTripDefaults(t *testing.T) {
	repo, _ := quietRepo(kv.NewMemory())
	ctx := context.Background()

	want := seed.Generate()
	repo.Save(ctx, want)

	got, ok := repo.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestSaveLoad_RoundTripGenerated(t *testing.T) {
	ctx := context.Background()
	for _, s := range []int64{1, 7, 42, 1234} {
		f := seed.NewFactory(seed.Options{Seed: s})
		want := f.BuildState(3, 4)

		repo, _ := quietRepo(kv.NewMemory())
		repo.Save(ctx, want)
		got, ok := repo.Load(ctx)
		require.True(t, ok)
		assert.Equal(t, want, got, "seed %d", s)
	}
}

func TestSave_NilCollectionsStillLoad(t *testing.T) {
	repo, _ := quietRepo(kv.NewMemory())
	ctx := context.Background()

	repo.Save(ctx, &models.AppState{
		Clients:  []models.Client{{ID: "9", Name: "Bare"}},
		Comments: []models.Comment{{ID: "c", CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}},
	})

	got, ok := repo.Load(ctx)
	require.True(t, ok)
	assert.Empty(t, got.Posts)
	assert.NotNil(t, got.Posts)
	assert.NotNil(t, got.Clients[0].ConnectedAccounts)
	assert.NotNil(t, got.Comments[0].Replies)
	assert.Nil(t, got.CurrentClientID)
}

func TestSave_OverwritesWholeSlot(t *testing.T) {
	store := kv.NewMemory()
	repo, _ := quietRepo(store)
	ctx := context.Background()

	repo.Save(ctx, seed.Generate())
	small := seed.Generate()
	small.Posts = small.Posts[:1]
	repo.Save(ctx, small)

	got, ok := repo.Load(ctx)
	require.True(t, ok)
	assert.Len(t, got.Posts, 1)
}

func TestLoad_Absent(t *testing.T) {
	repo, _ := quietRepo(kv.NewMemory())
	before := testutil.ToFloat64(observability.PersistenceFailures.WithLabelValues("load"))

	got, ok := repo.Load(context.Background())
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.Equal(t, before, testutil.ToFloat64(observability.PersistenceFailures.WithLabelValues("load")),
		"an empty slot is not a failure")
}

func TestLoad_MalformedIsAbsent(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "{not json"},
		{"json array", "[]"},
		{"missing posts", `{"clients":[],"comments":[],"securityEvents":[],"clientHealth":[]}`},
		{"bad date", `{"clients":[],"posts":[{"id":"1","scheduledDate":"tomorrow","createdAt":"2025-01-01"}],"comments":[],"securityEvents":[],"clientHealth":[]}`},
		{"missing replies", `{"clients":[],"posts":[],"comments":[{"id":"1","createdAt":"2025-01-01"}],"securityEvents":[],"clientHealth":[]}`},
		{"clients of the wrong type", `{"clients":"oops","posts":[],"comments":[],"securityEvents":[]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := kv.NewMemory()
			require.NoError(t, store.Set(context.Background(), testKey, tc.payload))
			repo, logs := quietRepo(store)
			before := testutil.ToFloat64(observability.PersistenceFailures.WithLabelValues("load"))

			got, ok := repo.Load(context.Background())
			assert.False(t, ok)
			assert.Nil(t, got)
			assert.Equal(t, before+1, testutil.ToFloat64(observability.PersistenceFailures.WithLabelValues("load")))
			assert.Contains(t, logs.String(), "error loading from storage")
		})
	}
}

func TestLoad_IncompleteClientsKeepUserData(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"client without accounts", `{"clients":[{"id":"1"}],"clientHealth":[],
			"posts":[{"id":"p-1","clientId":"1","platforms":["tiktok"],"content":"Model Y giveaway","scheduledDate":"2025-12-01T09:00:00Z","createdAt":"2025-11-18T09:00:00Z","status":"scheduled"}],
			"comments":[],"securityEvents":[]}`},
		{"no clients at all", `{"clientHealth":null,
			"posts":[{"id":"p-1","clientId":"1","platforms":["tiktok"],"content":"Model Y giveaway","scheduledDate":"2025-12-01T09:00:00Z","createdAt":"2025-11-18T09:00:00Z","status":"scheduled"}],
			"comments":[],"securityEvents":[]}`},
		{"health without warnings", `{"clients":[],"clientHealth":[{"clientId":"1","lastScan":"2025-01-01"},{"clientId":"2","lastScan":"never","warnings":[]}],
			"posts":[{"id":"p-1","clientId":"1","platforms":["tiktok"],"content":"Model Y giveaway","scheduledDate":"2025-12-01T09:00:00Z","createdAt":"2025-11-18T09:00:00Z","status":"scheduled"}],
			"comments":[],"securityEvents":[]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := kv.NewMemory()
			require.NoError(t, store.Set(context.Background(), testKey, tc.payload))
			repo, _ := quietRepo(store)

			got, ok := repo.Load(context.Background())
			require.True(t, ok)
			require.Len(t, got.Posts, 1)
			assert.Equal(t, "p-1", got.Posts[0].ID)
			assert.Equal(t, "Model Y giveaway", got.Posts[0].Content)
			assert.Equal(t, time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC), got.Posts[0].ScheduledDate)

			assert.NotNil(t, got.Clients)
			for _, c := range got.Clients {
				assert.NotNil(t, c.ConnectedAccounts)
			}
			assert.NotNil(t, got.ClientHealth)
			for _, h := range got.ClientHealth {
				assert.NotNil(t, h.Warnings)
				assert.Equal(t, "1", h.ClientID, "health with an unreadable scan date is dropped")
			}
		})
	}
}

func TestLoad_AcceptsISODateForms(t *testing.T) {
	payload := `{
		"clients":[{"id":"1","name":"Tesla","connectedAccounts":[
			{"id":"a","platform":"facebook","isConnected":true,"connectedAt":"2024-11-01"},
			{"id":"b","platform":"tiktok","isConnected":false,"connectedAt":"garbage"}
		]}],
		"posts":[{"id":"p","clientId":"1","platforms":["instagram"],"scheduledDate":"2025-11-20T14:00:00.000Z","createdAt":"2025-11-15T10:00:00+03:00","status":"scheduled"}],
		"analytics":{"totalViews":5},
		"comments":[{"id":"c","postId":"p","createdAt":"2025-11-16T09:30:00","replies":[{"id":"r","content":"hi","createdAt":"2025-11-16T09:45","isAI":true}]}],
		"securityEvents":[{"id":"s","clientId":"1","severity":"high","timestamp":"2025-11-17T08:00:00Z"}],
		"clientHealth":[{"clientId":"1","overallScore":92,"status":"healthy","lastScan":"2025-11-17","warnings":[]}],
		"currentClientId":"1"
	}`
	store := kv.NewMemory()
	require.NoError(t, store.Set(context.Background(), testKey, payload))
	repo, _ := quietRepo(store)

	got, ok := repo.Load(context.Background())
	require.True(t, ok)

	require.NotNil(t, got.Clients[0].ConnectedAccounts[0].ConnectedAt)
	assert.Equal(t, time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC), *got.Clients[0].ConnectedAccounts[0].ConnectedAt)
	assert.Nil(t, got.Clients[0].ConnectedAccounts[1].ConnectedAt, "unreadable optional date is dropped")

	assert.Equal(t, time.Date(2025, 11, 20, 14, 0, 0, 0, time.UTC), got.Posts[0].ScheduledDate)
	assert.Equal(t, time.Date(2025, 11, 15, 7, 0, 0, 0, time.UTC), got.Posts[0].CreatedAt)
	assert.Equal(t, time.Date(2025, 11, 16, 9, 30, 0, 0, time.UTC), got.Comments[0].CreatedAt)
	assert.Equal(t, time.Date(2025, 11, 16, 9, 45, 0, 0, time.UTC), got.Comments[0].Replies[0].CreatedAt)
	assert.True(t, got.Comments[0].Replies[0].IsAI)
	assert.Equal(t, models.SeverityHigh, got.SecurityEvents[0].Severity)
	assert.Equal(t, 5, got.Analytics.TotalViews)
	require.NotNil(t, got.CurrentClientID)
	assert.Equal(t, "1", *got.CurrentClientID)
}

func TestEncode_WireNames(t *testing.T) {
	state := seed.Generate()
	state.Comments[0].Replies = append(state.Comments[0].Replies, models.Reply{ID: "r1", Content: "Thanks!", IsAI: true, CreatedAt: time.Date(2025, 11, 17, 9, 0, 0, 0, time.UTC)})
	data, err := Encode(state)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, k := range []string{"clients", "posts", "analytics", "comments", "securityEvents", "clientHealth", "currentClientId"} {
		assert.Contains(t, raw, k)
	}
	assert.Contains(t, string(data), `"isAI":true`)
	assert.Contains(t, string(data), `"scheduledDate":"2025-11-20T10:00:00Z"`)
}

func TestSave_StorageFailureIsSwallowed(t *testing.T) {
	repo, logs := quietRepo(brokenStore{})
	before := testutil.ToFloat64(observability.PersistenceFailures.WithLabelValues("save"))

	assert.NotPanics(t, func() { repo.Save(context.Background(), seed.Generate()) })
	assert.Equal(t, before+1, testutil.ToFloat64(observability.PersistenceFailures.WithLabelValues("save")))
	assert.Contains(t, logs.String(), "error saving to storage")
	assert.Contains(t, logs.String(), "quota exceeded")

	_, ok := repo.Load(context.Background())
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	repo, _ := quietRepo(kv.NewMemory())
	ctx := context.Background()
	repo.Save(ctx, seed.Generate())
	require.NoError(t, repo.Clear(ctx))
	_, ok := repo.Load(ctx)
	assert.False(t, ok)
}

func TestPreferences(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	prefs := NewPreferenceRepository(store, "app-language")

	assert.Equal(t, models.LanguageEnglish, prefs.Language(ctx))

	require.NoError(t, prefs.SetLanguage(ctx, models.LanguageKurdish))
	assert.Equal(t, models.LanguageKurdish, prefs.Language(ctx))

	raw, err := store.Get(ctx, "app-language")
	require.NoError(t, err)
	assert.Equal(t, "ku", raw)

	err = prefs.SetLanguage(ctx, models.Language("fr"))
	assert.True(t, models.HasCode(err, models.CodeValidation))
	assert.Equal(t, models.LanguageKurdish, prefs.Language(ctx))

	require.NoError(t, store.Set(ctx, "app-language", "klingon"))
	assert.Equal(t, models.DefaultLanguage, prefs.Language(ctx))
}

func TestPreferences_BrokenStore(t *testing.T) {
	prefs := NewPreferenceRepository(brokenStore{}, "app-language")
	assert.Equal(t, models.DefaultLanguage, prefs.Language(context.Background()))
	assert.NoError(t, prefs.SetLanguage(context.Background(), models.LanguageArabic))
}
