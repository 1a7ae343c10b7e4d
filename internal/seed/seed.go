// Package seed provides the factory-default application state and helpers
// to create demo data for development and testing.
package seed

import (
	"time"

	"postfarm/internal/models"
)

// DefaultClientID is the client selected in the factory defaults.
const DefaultClientID = "1"

var clientLogos = []string{
	"https://api.dicebear.com/7.x/initials/svg?seed=T&backgroundColor=ef4444",
	"https://api.dicebear.com/7.x/initials/svg?seed=A&backgroundColor=3b82f6",
	"https://api.dicebear.com/7.x/initials/svg?seed=AP&backgroundColor=06b6d4",
}

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

// Generate returns the factory-default state. Every call returns freshly
// allocated, identical data: ids must stay stable across calls because the
// load procedure re-links the persisted current client against them.
func Generate() *models.AppState {
	return &models.AppState{
		Clients:         clients(),
		Posts:           posts(),
		Analytics:       analytics(),
		Comments:        comments(),
		SecurityEvents:  securityEvents(),
		ClientHealth:    clientHealth(),
		CurrentClientID: models.StringPtr(DefaultClientID),
	}
}

func clients() []models.Client {
	connected := at(2024, time.November, 1, 0, 0)
	account := func(id string, p models.Platform, username, avatarSeed string) models.ConnectedAccount {
		ts := connected
		return models.ConnectedAccount{
			ID:          id,
			Platform:    p,
			Username:    username,
			Avatar:      "https://api.dicebear.com/7.x/shapes/svg?seed=" + avatarSeed,
			IsConnected: true,
			ConnectedAt: &ts,
		}
	}

	return []models.Client{
		{
			ID:          "1",
			Name:        "Tesla",
			Logo:        clientLogos[0],
			Email:       "marketing@tesla.co",
			Phone:       "07450245053",
			Description: "Tesla Test",
			ConnectedAccounts: []models.ConnectedAccount{
				account("1-fb", models.PlatformFacebook, "TriSof Test Page", "fb"),
				account("1-ig", models.PlatformInstagram, "uhakdt2025", "ig"),
				account("1-tt", models.PlatformTikTok, "uhakdt", "tt"),
			},
		},
		{
			ID:                "2",
			Name:              "Asiacell",
			Logo:              clientLogos[1],
			Email:             "contact@asiacell.com",
			Phone:             "1212312313",
			Description:       "Asiacell Test",
			ConnectedAccounts: []models.ConnectedAccount{},
		},
		{
			ID:                "3",
			Name:              "Apple",
			Logo:              clientLogos[2],
			Email:             "test@gmail.com",
			Phone:             "1212312313",
			Description:       "this is a test test loadn..",
			ConnectedAccounts: []models.ConnectedAccount{},
		},
	}
}

func posts() []models.Post {
	created := at(2025, time.November, 17, 0, 0)
	return []models.Post{
		{
			ID:            "1",
			ClientID:      "1",
			Platforms:     []models.Platform{models.PlatformFacebook, models.PlatformInstagram},
			Content:       "Exciting new product launch coming soon! Stay tuned for updates.",
			ImageURL:      "https://images.unsplash.com/photo-1531297484001-80022131f5a1?w=800",
			ScheduledDate: at(2025, time.November, 20, 10, 0),
			Status:        models.PostStatusScheduled,
			CreatedAt:     created,
		},
		{
			ID:            "2",
			ClientID:      "1",
			Platforms:     []models.Platform{models.PlatformInstagram, models.PlatformTikTok},
			Content:       "Behind the scenes of our latest campaign",
			ScheduledDate: at(2025, time.November, 22, 14, 30),
			Status:        models.PostStatusScheduled,
			CreatedAt:     created,
		},
	}
}

func analytics() models.Analytics {
	return models.Analytics{
		TotalViews: 570,
		TotalLikes: 9,
		ByPlatform: models.PlatformBreakdown{
			Facebook:  models.PlatformMetrics{Views: 51, Likes: 1},
			Instagram: models.PlatformMetrics{Views: 519, Likes: 8, Reach: intPtr(519)},
			TikTok:    models.PlatformMetrics{},
		},
	}
}

func comments() []models.Comment {
	return []models.Comment{
		{
			ID:           "1",
			Platform:     models.PlatformInstagram,
			PostID:       "1",
			Author:       "john_doe",
			AuthorAvatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=john",
			Content:      "This looks amazing! Can't wait to see more!",
			CreatedAt:    at(2025, time.November, 17, 9, 30),
			Replies:      []models.Reply{},
		},
		{
			ID:           "2",
			Platform:     models.PlatformFacebook,
			PostID:       "1",
			Author:       "jane_smith",
			AuthorAvatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=jane",
			Content:      "Love this! When will it be available?",
			CreatedAt:    at(2025, time.November, 17, 10, 15),
			Replies:      []models.Reply{},
		},
	}
}

func securityEvents() []models.SecurityEvent {
	return []models.SecurityEvent{
		{
			ID:          "1",
			ClientID:    "1",
			Platform:    models.PlatformTikTok,
			Severity:    models.SeverityCritical,
			Title:       "New ad account created with card linked to 2 suspended advertisers.",
			Description: "New TikTok ad account shares a billing card with 2 suspended advertisers. High risk of instant suspension on first spend.",
			Rule:        "tiktok_bad_actor_link",
			Timestamp:   at(2025, time.November, 17, 14, 22),
		},
		{
			ID:          "2",
			ClientID:    "1",
			Platform:    models.PlatformFacebook,
			Severity:    models.SeverityHigh,
			Title:       `BF "Weekend Sale" ad disapproved for misleading claims.`,
			Description: "Meta Ad Review",
			Rule:        "Meta Ad Review",
			Timestamp:   at(2025, time.November, 17, 8, 5),
		},
		{
			ID:          "3",
			ClientID:    "1",
			Platform:    models.PlatformInstagram,
			Severity:    models.SeverityHigh,
			Title:       "Detected hashtag block with spam-style tags (#giveaway, #followfollow).",
			Description: "ig_hashtag_spam_block",
			Rule:        "ig_hashtag_spam_block",
			Timestamp:   at(2025, time.November, 16, 17, 41),
		},
		{
			ID:          "4",
			ClientID:    "1",
			Platform:    models.PlatformInstagram,
			Severity:    models.SeverityLow,
			Title:       "Non-follower reach down 62% vs previous 30 days; no strikes found.",
			Description: "reach_anomaly_ig",
			Rule:        "reach_anomaly_ig",
			Timestamp:   at(2025, time.November, 15, 11, 12),
		},
	}
}

func clientHealth() []models.ClientHealth {
	return []models.ClientHealth{
		{
			ClientID:     "1",
			OverallScore: 72,
			Status:       models.HealthStatusAttention,
			LastScan:     at(2025, time.November, 17, 16, 0),
			Warnings: []models.SecurityWarning{
				{
					ID:          "w1",
					Platform:    models.PlatformTikTok,
					Category:    "Environment",
					Severity:    models.SeverityCritical,
					Title:       "bad actor proximity",
					Description: "New TikTok ad account shares a billing card with 2 suspended advertisers. High risk of instant suspension on first spend.",
					Timestamp:   at(2025, time.November, 17, 14, 0),
				},
				{
					ID:          "w2",
					Platform:    models.PlatformFacebook,
					Category:    "Account",
					Severity:    models.SeverityHigh,
					Title:       "cold ad account",
					Description: `New ad account, no organic history, weak legal pages and strong "last chance / guaranteed" copy.`,
					Timestamp:   at(2025, time.November, 16, 10, 0),
				},
				{
					ID:          "w3",
					Platform:    models.PlatformInstagram,
					Category:    "Content",
					Severity:    models.SeverityMedium,
					Title:       "follower quality",
					Description: "Spike in low-quality followers and spammy hashtag blocks; reach down vs last month.",
					Timestamp:   at(2025, time.November, 12, 8, 0),
				},
			},
			RecentIssues: "IG: 7 posts in 45 min. TikTok: repeated IG Reels.",
		},
		{
			ClientID:     "2",
			OverallScore: 95,
			Status:       models.HealthStatusHealthy,
			LastScan:     at(2025, time.November, 17, 15, 30),
			Warnings:     []models.SecurityWarning{},
			RecentIssues: `No active violations. Ad copy occasionally reviewed for "guaranteed comfort".`,
		},
		{
			ClientID:     "3",
			OverallScore: 68,
			Status:       models.HealthStatusHighRisk,
			LastScan:     at(2025, time.November, 17, 14, 45),
			Warnings: []models.SecurityWarning{
				{
					ID:          "w4",
					Platform:    models.PlatformFacebook,
					Category:    "Account",
					Severity:    models.SeverityHigh,
					Title:       "disapproved ads",
					Description: "Meta: 2 disapproved ads. TikTok Ads: shared card with suspended account.",
					Timestamp:   at(2025, time.November, 17, 6, 0),
				},
			},
			RecentIssues: "Meta: 2 disapproved ads. TikTok Ads: shared card with suspended account.",
		},
	}
}
