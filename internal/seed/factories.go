package seed

import (
	"fmt"
	"time"

	"postfarm/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

// Options configures a Factory.
type Options struct {
	// Seed makes the generated data reproducible. Zero picks a time-based seed.
	Seed int64
	// MaxDays bounds how far timestamps spread around Anchor.
	MaxDays int
	// Anchor is the reference time for generated timestamps.
	Anchor time.Time
}

// Factory builds random but well-formed entities for demo population and tests.
type Factory struct {
	faker *gofakeit.Faker
	opts  Options
}

// NewFactory creates a new Factory.
func NewFactory(opts Options) *Factory {
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 30
	}
	if opts.Anchor.IsZero() {
		opts.Anchor = at(2025, time.November, 17, 12, 0)
	}
	return &Factory{faker: gofakeit.New(opts.Seed), opts: opts}
}

// timestamp returns a time within MaxDays of the anchor, at second precision.
func (f *Factory) timestamp(future bool) time.Time {
	offset := time.Duration(f.faker.Number(0, f.opts.MaxDays*24*60)) * time.Minute
	if !future {
		offset = -offset
	}
	return f.opts.Anchor.Add(offset).UTC().Truncate(time.Second)
}

func (f *Factory) platform() models.Platform {
	return models.Platforms[f.faker.Number(0, len(models.Platforms)-1)]
}

// platforms returns a non-empty subset of the platforms, in display order.
func (f *Factory) platforms() []models.Platform {
	var out []models.Platform
	for _, p := range models.Platforms {
		if f.faker.Bool() {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		out = append(out, f.platform())
	}
	return out
}

func (f *Factory) severity() models.SeverityLevel {
	levels := []models.SeverityLevel{models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityCritical}
	return levels[f.faker.Number(0, len(levels)-1)]
}

// BuildClient constructs a client with between zero and three connected accounts.
func (f *Factory) BuildClient(overrides ...func(*models.Client)) models.Client {
	id := f.faker.UUID()
	client := models.Client{
		ID:                id,
		Name:              f.faker.Company(),
		Logo:              fmt.Sprintf("https://api.dicebear.com/7.x/initials/svg?seed=%s", id),
		Email:             f.faker.Email(),
		Phone:             f.faker.Phone(),
		Description:       f.faker.Sentence(8),
		ConnectedAccounts: []models.ConnectedAccount{},
	}
	for _, p := range models.Platforms {
		if !f.faker.Bool() {
			continue
		}
		connectedAt := f.timestamp(false)
		client.ConnectedAccounts = append(client.ConnectedAccounts, models.ConnectedAccount{
			ID:          fmt.Sprintf("%s-%s", id, p),
			Platform:    p,
			Username:    f.faker.Username(),
			Avatar:      fmt.Sprintf("https://api.dicebear.com/7.x/shapes/svg?seed=%s", f.faker.UUID()),
			IsConnected: f.faker.Bool(),
			ConnectedAt: &connectedAt,
		})
	}

	for _, override := range overrides {
		override(&client)
	}
	return client
}

// BuildPost constructs a scheduled post for the given client.
func (f *Factory) BuildPost(clientID string, overrides ...func(*models.Post)) models.Post {
	post := models.Post{
		ID:            f.faker.UUID(),
		ClientID:      clientID,
		Platforms:     f.platforms(),
		Content:       f.faker.Paragraph(1, 2, 8, " "),
		ScheduledDate: f.timestamp(true),
		Status:        models.PostStatusScheduled,
		CreatedAt:     f.timestamp(false),
	}
	if f.faker.Bool() {
		post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID())
	}

	for _, override := range overrides {
		override(&post)
	}
	return post
}

// BuildComment constructs a comment on the given post with up to two replies.
func (f *Factory) BuildComment(postID string, overrides ...func(*models.Comment)) models.Comment {
	author := f.faker.Username()
	comment := models.Comment{
		ID:           f.faker.UUID(),
		Platform:     f.platform(),
		PostID:       postID,
		Author:       author,
		AuthorAvatar: fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%s", author),
		Content:      f.faker.Sentence(10),
		CreatedAt:    f.timestamp(false),
		Replies:      []models.Reply{},
	}
	for i := f.faker.Number(0, 2); i > 0; i-- {
		comment.Replies = append(comment.Replies, models.Reply{
			ID:        f.faker.UUID(),
			Content:   f.faker.Sentence(6),
			CreatedAt: f.timestamp(false),
			IsAI:      f.faker.Bool(),
		})
	}

	for _, override := range overrides {
		override(&comment)
	}
	return comment
}

// BuildSecurityEvent constructs a rule hit for the given client.
func (f *Factory) BuildSecurityEvent(clientID string) models.SecurityEvent {
	rule := fmt.Sprintf("%s_%s", f.faker.Word(), f.faker.Word())
	return models.SecurityEvent{
		ID:          f.faker.UUID(),
		ClientID:    clientID,
		Platform:    f.platform(),
		Severity:    f.severity(),
		Title:       f.faker.Sentence(8),
		Description: rule,
		Rule:        rule,
		Timestamp:   f.timestamp(false),
	}
}

// BuildHealth constructs a health entry whose status matches its score band.
func (f *Factory) BuildHealth(clientID string) models.ClientHealth {
	score := f.faker.Number(40, 100)
	health := models.ClientHealth{
		ClientID:     clientID,
		OverallScore: score,
		Status:       models.HealthStatusForScore(score),
		LastScan:     f.timestamp(false),
		Warnings:     []models.SecurityWarning{},
		RecentIssues: f.faker.Sentence(12),
	}
	for i := f.faker.Number(0, 3); i > 0; i-- {
		health.Warnings = append(health.Warnings, models.SecurityWarning{
			ID:          f.faker.UUID(),
			Platform:    f.platform(),
			Category:    f.faker.RandomString([]string{"Account", "Content", "Environment"}),
			Severity:    f.severity(),
			Title:       f.faker.Sentence(3),
			Description: f.faker.Sentence(12),
			Timestamp:   f.timestamp(false),
		})
	}
	return health
}

// BuildState constructs a complete state with numClients clients, each
// with postsPerClient posts, one comment per post, one security event and
// one health entry. The first client is selected.
func (f *Factory) BuildState(numClients, postsPerClient int) *models.AppState {
	state := &models.AppState{
		Clients:        []models.Client{},
		Posts:          []models.Post{},
		Comments:       []models.Comment{},
		SecurityEvents: []models.SecurityEvent{},
		ClientHealth:   []models.ClientHealth{},
		Analytics:      f.BuildAnalytics(),
	}
	for i := 0; i < numClients; i++ {
		client := f.BuildClient()
		state.Clients = append(state.Clients, client)
		state.ClientHealth = append(state.ClientHealth, f.BuildHealth(client.ID))
		state.SecurityEvents = append(state.SecurityEvents, f.BuildSecurityEvent(client.ID))
		for j := 0; j < postsPerClient; j++ {
			post := f.BuildPost(client.ID)
			state.Posts = append(state.Posts, post)
			state.Comments = append(state.Comments, f.BuildComment(post.ID))
		}
	}
	if len(state.Clients) > 0 {
		state.CurrentClientID = models.StringPtr(state.Clients[0].ID)
	}
	return state
}

// BuildAnalytics constructs an aggregate whose totals equal the sum of the breakdown.
func (f *Factory) BuildAnalytics() models.Analytics {
	metrics := func() models.PlatformMetrics {
		return models.PlatformMetrics{
			Views:    f.faker.Number(0, 5000),
			Likes:    f.faker.Number(0, 500),
			Comments: f.faker.Number(0, 100),
			Shares:   f.faker.Number(0, 50),
		}
	}
	a := models.Analytics{
		ByPlatform: models.PlatformBreakdown{
			Facebook:  metrics(),
			Instagram: metrics(),
			TikTok:    metrics(),
		},
	}
	reach := a.ByPlatform.Instagram.Views
	a.ByPlatform.Instagram.Reach = &reach
	for _, p := range models.Platforms {
		m := a.ByPlatform.For(p)
		a.TotalViews += m.Views
		a.TotalLikes += m.Likes
		a.TotalComments += m.Comments
		a.TotalShares += m.Shares
	}
	return a
}

// Populate returns a copy of state with n extra posts (and one comment each)
// spread across the existing clients. State without clients is returned unchanged.
func (f *Factory) Populate(state *models.AppState, n int) *models.AppState {
	out := state.Clone()
	if len(out.Clients) == 0 {
		return out
	}
	for i := 0; i < n; i++ {
		client := out.Clients[i%len(out.Clients)]
		post := f.BuildPost(client.ID)
		out.Posts = append(out.Posts, post)
		out.Comments = append(out.Comments, f.BuildComment(post.ID))
	}
	return out
}
