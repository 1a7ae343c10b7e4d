package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"postfarm/internal/featureflags"
	"postfarm/internal/models"
	"postfarm/internal/seed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stateRepoStub records every save and serves a fixed load result.
type stateRepoStub struct {
	loaded *models.AppState
	found  bool
	saves  []*models.AppState
}

func (s *stateRepoStub) Load(context.Context) (*models.AppState, bool) {
	return s.loaded, s.found
}

func (s *stateRepoStub) Save(_ context.Context, state *models.AppState) {
	s.saves = append(s.saves, state.Clone())
}

func (s *stateRepoStub) last() *models.AppState {
	if len(s.saves) == 0 {
		return nil
	}
	return s.saves[len(s.saves)-1]
}

var fixedNow = time.Date(2025, time.November, 18, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *stateRepoStub) {
	t.Helper()
	repo := &stateRepoStub{}
	ids := 0
	s := NewStore(repo, seed.Generate(),
		WithClock(func() time.Time { return fixedNow }),
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("reply-%d", ids)
		}),
	)
	return s, repo
}

func TestStore_StateIsACopy(t *testing.T) {
	s, _ := newTestStore(t)

	snap := s.State()
	snap.Clients[0].Name = "mutated"
	snap.Posts = nil

	again := s.State()
	assert.Equal(t, "Tesla", again.Clients[0].Name)
	assert.Len(t, again.Posts, 2)
}

func TestStore_CurrentClient(t *testing.T) {
	s, _ := newTestStore(t)

	c := s.CurrentClient()
	require.NotNil(t, c)
	assert.Equal(t, "1", c.ID)

	empty := NewStore(&stateRepoStub{}, nil)
	assert.Nil(t, empty.CurrentClient())
}

func TestStore_SwitchCurrentClient(t *testing.T) {
	s, repo := newTestStore(t)
	ctx := context.Background()

	st, err := s.SwitchCurrentClient(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "2", *st.CurrentClientID)
	assert.Equal(t, "Asiacell", s.CurrentClient().Name)
	require.Len(t, repo.saves, 1)
	assert.Equal(t, "2", *repo.last().CurrentClientID)
}

// Switching used to accept any id, leaving a dangling selection until the
// next reload repaired it.
func TestStore_SwitchCurrentClient_UnknownIDRejected(t *testing.T) {
	s, repo := newTestStore(t)

	st, err := s.SwitchCurrentClient(context.Background(), "nonexistent-id")
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	assert.Nil(t, st)
	assert.Equal(t, "1", *s.State().CurrentClientID)
	assert.Empty(t, repo.saves)
}

func TestStore_ClientCRUD(t *testing.T) {
	s, repo := newTestStore(t)
	ctx := context.Background()

	st := s.AddClient(ctx, models.Client{ID: "4", Name: "Nokia", ConnectedAccounts: []models.ConnectedAccount{}})
	require.Len(t, st.Clients, 4)
	assert.Equal(t, "Nokia", st.Clients[3].Name)

	updated := st.Clients[1]
	updated.Name = "Asiacell Ltd"
	st = s.UpdateClient(ctx, updated)
	assert.Equal(t, "Asiacell Ltd", st.Clients[1].Name, "update keeps position")
	assert.Len(t, st.Clients, 4)

	st = s.DeleteClient(ctx, "3")
	assert.Len(t, st.Clients, 3)
	assert.False(t, st.HasClient("3"))
	assert.Equal(t, "1", *st.CurrentClientID, "deleting a non-current client keeps the selection")

	assert.Len(t, repo.saves, 3)
}

func TestStore_ClientMissesAreSilent(t *testing.T) {
	s, repo := newTestStore(t)
	ctx := context.Background()
	before := s.State()

	st := s.UpdateClient(ctx, models.Client{ID: "ghost", Name: "Ghost"})
	assert.Equal(t, before, st)
	st = s.DeleteClient(ctx, "ghost")
	assert.Equal(t, before, st)

	assert.Empty(t, repo.saves, "misses do not persist")
}

func TestStore_DeleteActiveClientRepoints(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.SwitchCurrentClient(ctx, "2")
	require.NoError(t, err)

	st := s.DeleteClient(ctx, "2")
	require.NotNil(t, st.CurrentClientID)
	assert.Equal(t, "1", *st.CurrentClientID, "first remaining client becomes current")

	st = s.DeleteClient(ctx, "1")
	assert.Equal(t, "3", *st.CurrentClientID)

	st = s.DeleteClient(ctx, "3")
	assert.Empty(t, st.Clients)
	assert.Nil(t, st.CurrentClientID)
	assert.Nil(t, s.CurrentClient())
}

func TestStore_PostCRUD(t *testing.T) {
	s, repo := newTestStore(t)
	ctx := context.Background()

	post := models.Post{
		ID:            "p-1",
		ClientID:      "1",
		Platforms:     []models.Platform{models.PlatformTikTok},
		Content:       "Cybertruck reveal",
		ScheduledDate: fixedNow.Add(48 * time.Hour),
		Status:        models.PostStatusScheduled,
		CreatedAt:     fixedNow,
	}
	st := s.AddPost(ctx, post)
	require.Len(t, st.Posts, 3)
	assert.Equal(t, post, st.Posts[2])

	post.Content = "Cybertruck reveal, take two"
	post.Platforms[0] = models.PlatformFacebook
	st = s.UpdatePost(ctx, post)
	assert.Equal(t, "Cybertruck reveal, take two", st.Posts[2].Content)
	assert.Equal(t, models.PlatformFacebook, st.Posts[2].Platforms[0])

	st = s.UpdatePost(ctx, models.Post{ID: "nope"})
	assert.Len(t, st.Posts, 3)

	st = s.DeletePost(ctx, "1")
	require.Len(t, st.Posts, 2)
	assert.Equal(t, "2", st.Posts[0].ID)

	st = s.DeletePost(ctx, "1")
	assert.Len(t, st.Posts, 2)

	assert.Len(t, repo.saves, 3)
}

func TestStore_AddPostCopiesInput(t *testing.T) {
	s, _ := newTestStore(t)
	platforms := []models.Platform{models.PlatformInstagram}
	s.AddPost(context.Background(), models.Post{ID: "p", ClientID: "1", Platforms: platforms})

	platforms[0] = models.PlatformTikTok
	assert.Equal(t, models.PlatformInstagram, s.State().Posts[2].Platforms[0])
}

func TestStore_AddReplyToComment(t *testing.T) {
	s, repo := newTestStore(t)
	ctx := context.Background()
	before := s.State()

	st := s.AddReplyToComment(ctx, "1", ReplyInput{Content: "Thanks John!"})
	require.Len(t, st.Comments[0].Replies, 1)
	reply := st.Comments[0].Replies[0]
	assert.Equal(t, "reply-1", reply.ID)
	assert.Equal(t, "Thanks John!", reply.Content)
	assert.Equal(t, fixedNow, reply.CreatedAt)
	assert.False(t, reply.IsAI, "isAI defaults to false")
	assert.Equal(t, before.Comments[1], st.Comments[1], "other comments are untouched")

	st = s.AddReplyToComment(ctx, "1", ReplyInput{Content: "Auto reply", IsAI: true})
	require.Len(t, st.Comments[0].Replies, 2)
	assert.Equal(t, reply, st.Comments[0].Replies[0], "existing replies are kept as is")
	assert.True(t, st.Comments[0].Replies[1].IsAI)
	assert.NotEqual(t, reply.ID, st.Comments[0].Replies[1].ID)

	st = s.AddReplyToComment(ctx, "missing", ReplyInput{Content: "x"})
	assert.Len(t, st.Comments[0].Replies, 2)
	assert.Len(t, repo.saves, 2)
}

func TestStore_AddComment(t *testing.T) {
	s, _ := newTestStore(t)
	st := s.AddComment(context.Background(), models.Comment{ID: "3", PostID: "2", Platform: models.PlatformTikTok, Author: "elon"})
	require.Len(t, st.Comments, 3)
	assert.NotNil(t, st.Comments[2].Replies)
}

func TestStore_RefreshAnalytics(t *testing.T) {
	s, repo := newTestStore(t)
	ctx := context.Background()
	breakdown := s.State().Analytics.ByPlatform

	views, likes := 570, 9
	for i := 0; i < 500; i++ {
		st := s.RefreshAnalytics(ctx)
		a := st.Analytics
		assert.GreaterOrEqual(t, a.TotalViews, 0)
		assert.GreaterOrEqual(t, a.TotalLikes, 0)
		assert.LessOrEqual(t, a.TotalViews-views, 9)
		assert.GreaterOrEqual(t, a.TotalViews-views, -10)
		assert.LessOrEqual(t, a.TotalLikes-likes, 1)
		assert.GreaterOrEqual(t, a.TotalLikes-likes, -2)
		assert.Equal(t, breakdown, a.ByPlatform)
		views, likes = a.TotalViews, a.TotalLikes
	}
	assert.Len(t, repo.saves, 500)
}

func TestStore_RefreshAnalyticsClampsAtZero(t *testing.T) {
	state := seed.Generate()
	state.Analytics.TotalViews, state.Analytics.TotalLikes = 0, 0
	s := NewStore(&stateRepoStub{}, state, WithRand(rand.New(rand.NewPCG(9, 9))))

	for i := 0; i < 200; i++ {
		a := s.RefreshAnalytics(context.Background()).Analytics
		require.GreaterOrEqual(t, a.TotalViews, 0)
		require.GreaterOrEqual(t, a.TotalLikes, 0)
	}
}

func TestFloorDiv(t *testing.T) {
	tests := []struct{ a, want int }{
		{-10, -2}, {-9, -2}, {-6, -2}, {-5, -1}, {-1, -1}, {0, 0}, {4, 0}, {5, 1}, {9, 1},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, floorDiv(tc.a, 5), "%d/5", tc.a)
	}
}

func TestStore_ConnectAccount(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	st, err := s.ConnectAccount(ctx, "2", models.PlatformInstagram, "asiacell_iq")
	require.NoError(t, err)
	client := st.FindClient("2")
	require.Len(t, client.ConnectedAccounts, 1)
	acc := client.ConnectedAccounts[0]
	assert.Equal(t, models.PlatformInstagram, acc.Platform)
	assert.Equal(t, "asiacell_iq", acc.Username)
	assert.True(t, acc.IsConnected)
	require.NotNil(t, acc.ConnectedAt)
	assert.Equal(t, fixedNow, *acc.ConnectedAt)
	assert.Contains(t, acc.ID, "2-instagram-")

	st = s.DisconnectAccount(ctx, "2", acc.ID)
	assert.False(t, st.FindClient("2").ConnectedAccounts[0].IsConnected)

	// reconnecting reuses the existing account
	st, err = s.ConnectAccount(ctx, "2", models.PlatformInstagram, "")
	require.NoError(t, err)
	require.Len(t, st.FindClient("2").ConnectedAccounts, 1)
	assert.True(t, st.FindClient("2").ConnectedAccounts[0].IsConnected)
	assert.Equal(t, "asiacell_iq", st.FindClient("2").ConnectedAccounts[0].Username)

	st, err = s.ConnectAccount(ctx, "3", models.PlatformTikTok, "")
	require.NoError(t, err)
	assert.Contains(t, st.FindClient("3").ConnectedAccounts[0].Username, "tiktok_user_")
}

func TestStore_ConnectAccount_Misses(t *testing.T) {
	s, repo := newTestStore(t)
	ctx := context.Background()

	_, err := s.ConnectAccount(ctx, "1", models.Platform("myspace"), "tom")
	assert.True(t, models.HasCode(err, models.CodeValidation))

	_, err = s.ConnectAccount(ctx, "ghost", models.PlatformFacebook, "x")
	assert.NoError(t, err)
	s.DisconnectAccount(ctx, "1", "ghost-account")
	s.DisconnectAccount(ctx, "ghost", "1-fb")

	assert.Empty(t, repo.saves)
}

func TestStore_Replace(t *testing.T) {
	s, repo := newTestStore(t)
	ctx := context.Background()

	s.DeleteClient(ctx, "1")
	st := s.Replace(ctx, seed.Generate())
	assert.Equal(t, seed.Generate(), st)
	assert.Equal(t, seed.Generate(), repo.last())

	st = s.Replace(ctx, nil)
	assert.Empty(t, st.Clients)
}

func TestOpenStore(t *testing.T) {
	repo := &stateRepoStub{}
	s, outcome := OpenStore(context.Background(), repo, seed.Generate, featureflags.NewManager(""))
	assert.Equal(t, "seeded", outcome)
	assert.Equal(t, seed.Generate(), s.State())
	assert.Len(t, repo.saves, 1)
}
