// Package service holds the application state store, the load procedure
// and the read-side queries over the state.
package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"postfarm/internal/featureflags"
	"postfarm/internal/models"
	"postfarm/internal/observability"

	"github.com/google/uuid"
)

// Store owns the active AppState. Every change goes through one of its
// methods, which builds a new state from a copy, persists it and swaps it
// in. Callers only ever see deep copies.
type Store struct {
	mu    sync.Mutex
	repo  StateRepository
	state *models.AppState

	now   func() time.Time
	rng   *rand.Rand
	newID func() string
	log   *observability.StateLogger
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for createdAt and connectedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRand sets the random source used by RefreshAnalytics and ConnectAccount.
func WithRand(r *rand.Rand) Option {
	return func(s *Store) { s.rng = r }
}

// WithIDGenerator sets the generator for reply ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// NewStore creates a store starting from initial. The store keeps its own
// copy; a nil initial state starts empty.
func NewStore(repo StateRepository, initial *models.AppState, opts ...Option) *Store {
	if initial == nil {
		initial = &models.AppState{}
	}
	s := &Store{
		repo:  repo,
		state: initial.Clone(),
		now:   func() time.Time { return time.Now().UTC() },
		rng:   rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		newID: uuid.NewString,
		log:   observability.NewStateLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenStore loads the startup state and wraps it in a Store.
func OpenStore(ctx context.Context, repo StateRepository, seedFn SeedFunc, flags *featureflags.Manager, opts ...Option) (*Store, string) {
	state, outcome := LoadState(ctx, repo, seedFn, flags)
	return NewStore(repo, state, opts...), outcome
}

// State returns a snapshot of the current state.
func (s *Store) State() *models.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// CurrentClient returns a copy of the selected client, or nil when none is selected.
func (s *Store) CurrentClient() *models.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.state.CurrentClient()
	if c == nil {
		return nil
	}
	out := c.Clone()
	return &out
}

// mutate applies fn to a copy of the current state. fn reports whether it
// changed anything; on a miss the state is left alone and nothing is saved.
func (s *Store) mutate(ctx context.Context, op string, fields map[string]interface{}, fn func(next *models.AppState) bool) *models.AppState {
	span, ctx := observability.NewSpan(ctx, "store."+op, observability.AttrOperation.String(op))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	if !fn(next) {
		span.AddAttributes(observability.AttrApplied.Bool(false))
		return s.state.Clone()
	}

	s.repo.Save(ctx, next)
	s.state = next

	span.AddAttributes(observability.AttrApplied.Bool(true))
	observability.Mutations.WithLabelValues(op).Inc()
	s.log.LogMutation(ctx, op, fields)
	return next.Clone()
}

// SwitchCurrentClient selects the client with the given id. An unknown id
// is rejected with a not-found error and leaves the state untouched.
func (s *Store) SwitchCurrentClient(ctx context.Context, id string) (*models.AppState, error) {
	var err error
	state := s.mutate(ctx, "SwitchCurrentClient", map[string]interface{}{"client_id": id}, func(next *models.AppState) bool {
		if !next.HasClient(id) {
			err = models.NewNotFoundError("Client", id)
			return false
		}
		next.CurrentClientID = models.StringPtr(id)
		return true
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// AddClient appends client. The caller supplies the id; uniqueness is not checked.
func (s *Store) AddClient(ctx context.Context, client models.Client) *models.AppState {
	return s.mutate(ctx, "AddClient", map[string]interface{}{"client_id": client.ID}, func(next *models.AppState) bool {
		next.Clients = append(next.Clients, client.Clone())
		return true
	})
}

// UpdateClient replaces the client with the same id in place. Unknown ids are ignored.
func (s *Store) UpdateClient(ctx context.Context, client models.Client) *models.AppState {
	return s.mutate(ctx, "UpdateClient", map[string]interface{}{"client_id": client.ID}, func(next *models.AppState) bool {
		for i := range next.Clients {
			if next.Clients[i].ID == client.ID {
				next.Clients[i] = client.Clone()
				return true
			}
		}
		return false
	})
}

// DeleteClient removes the client with the given id. If it was selected,
// the first remaining client becomes current, or none if the list is empty.
func (s *Store) DeleteClient(ctx context.Context, id string) *models.AppState {
	return s.mutate(ctx, "DeleteClient", map[string]interface{}{"client_id": id}, func(next *models.AppState) bool {
		idx := -1
		for i := range next.Clients {
			if next.Clients[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return false
		}
		next.Clients = append(next.Clients[:idx], next.Clients[idx+1:]...)

		if next.CurrentClientID != nil && *next.CurrentClientID == id {
			next.CurrentClientID = nil
			if len(next.Clients) > 0 {
				next.CurrentClientID = models.StringPtr(next.Clients[0].ID)
			}
		}
		return true
	})
}

// AddPost appends post. The caller supplies the id.
func (s *Store) AddPost(ctx context.Context, post models.Post) *models.AppState {
	return s.mutate(ctx, "AddPost", map[string]interface{}{"post_id": post.ID, "client_id": post.ClientID}, func(next *models.AppState) bool {
		next.Posts = append(next.Posts, post.Clone())
		return true
	})
}

// UpdatePost replaces the post with the same id in place. Unknown ids are ignored.
func (s *Store) UpdatePost(ctx context.Context, post models.Post) *models.AppState {
	return s.mutate(ctx, "UpdatePost", map[string]interface{}{"post_id": post.ID}, func(next *models.AppState) bool {
		for i := range next.Posts {
			if next.Posts[i].ID == post.ID {
				next.Posts[i] = post.Clone()
				return true
			}
		}
		return false
	})
}

// DeletePost removes the post with the given id. Unknown ids are ignored.
func (s *Store) DeletePost(ctx context.Context, id string) *models.AppState {
	return s.mutate(ctx, "DeletePost", map[string]interface{}{"post_id": id}, func(next *models.AppState) bool {
		for i := range next.Posts {
			if next.Posts[i].ID == id {
				next.Posts = append(next.Posts[:i], next.Posts[i+1:]...)
				return true
			}
		}
		return false
	})
}

// AddComment appends an inbound comment.
func (s *Store) AddComment(ctx context.Context, comment models.Comment) *models.AppState {
	return s.mutate(ctx, "AddComment", map[string]interface{}{"comment_id": comment.ID, "post_id": comment.PostID}, func(next *models.AppState) bool {
		c := comment.Clone()
		if c.Replies == nil {
			c.Replies = []models.Reply{}
		}
		next.Comments = append(next.Comments, c)
		return true
	})
}

// ReplyInput is the payload for AddReplyToComment. IsAI defaults to false.
type ReplyInput struct {
	Content string
	IsAI    bool
}

// AddReplyToComment appends a reply with a fresh id and the current time to
// the comment with the given id. Unknown ids are ignored.
func (s *Store) AddReplyToComment(ctx context.Context, commentID string, in ReplyInput) *models.AppState {
	return s.mutate(ctx, "AddReplyToComment", map[string]interface{}{"comment_id": commentID, "is_ai": in.IsAI}, func(next *models.AppState) bool {
		for i := range next.Comments {
			if next.Comments[i].ID != commentID {
				continue
			}
			next.Comments[i].Replies = append(next.Comments[i].Replies, models.Reply{
				ID:        s.newID(),
				Content:   in.Content,
				CreatedAt: s.now(),
				IsAI:      in.IsAI,
			})
			return true
		}
		return false
	})
}

// variation returns a value in [-10, 9].
func (s *Store) variation() int {
	return s.rng.IntN(20) - 10
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// RefreshAnalytics nudges the view and like totals by a small random amount,
// never below zero. The per-platform breakdown is left untouched.
func (s *Store) RefreshAnalytics(ctx context.Context) *models.AppState {
	return s.mutate(ctx, "RefreshAnalytics", nil, func(next *models.AppState) bool {
		a := &next.Analytics
		a.TotalViews = max(0, a.TotalViews+s.variation())
		a.TotalLikes = max(0, a.TotalLikes+floorDiv(s.variation(), 5))
		return true
	})
}

// ConnectAccount marks the client's account for platform as connected,
// creating one when the client has none for that platform. An empty
// username gets a generated placeholder. Unknown clients are ignored.
func (s *Store) ConnectAccount(ctx context.Context, clientID string, platform models.Platform, username string) (*models.AppState, error) {
	if !platform.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("unsupported platform %q", platform))
	}
	fields := map[string]interface{}{"client_id": clientID, "platform": string(platform)}
	return s.mutate(ctx, "ConnectAccount", fields, func(next *models.AppState) bool {
		client := next.FindClient(clientID)
		if client == nil {
			return false
		}
		now := s.now()
		if acc := client.AccountFor(platform); acc != nil {
			acc.IsConnected = true
			acc.ConnectedAt = &now
			if username != "" {
				acc.Username = username
			}
			return true
		}
		if username == "" {
			username = fmt.Sprintf("%s_user_%d", platform, s.rng.IntN(10000))
		}
		stamp := now.UnixMilli()
		client.ConnectedAccounts = append(client.ConnectedAccounts, models.ConnectedAccount{
			ID:          fmt.Sprintf("%s-%s-%d", clientID, platform, stamp),
			Platform:    platform,
			Username:    username,
			Avatar:      fmt.Sprintf("https://api.dicebear.com/7.x/shapes/svg?seed=%s%d", platform, stamp),
			IsConnected: true,
			ConnectedAt: &now,
		})
		return true
	}), nil
}

// DisconnectAccount marks one of the client's accounts as not connected.
// The account is kept. Unknown clients or accounts are ignored.
func (s *Store) DisconnectAccount(ctx context.Context, clientID, accountID string) *models.AppState {
	fields := map[string]interface{}{"client_id": clientID, "account_id": accountID}
	return s.mutate(ctx, "DisconnectAccount", fields, func(next *models.AppState) bool {
		client := next.FindClient(clientID)
		if client == nil {
			return false
		}
		for i := range client.ConnectedAccounts {
			if client.ConnectedAccounts[i].ID == accountID {
				client.ConnectedAccounts[i].IsConnected = false
				return true
			}
		}
		return false
	})
}

// Replace swaps in a whole new state, e.g. a reset to factory defaults.
func (s *Store) Replace(ctx context.Context, state *models.AppState) *models.AppState {
	if state == nil {
		state = &models.AppState{}
	}
	return s.mutate(ctx, "Replace", map[string]interface{}{"clients": len(state.Clients)}, func(next *models.AppState) bool {
		*next = *state.Clone()
		return true
	})
}
