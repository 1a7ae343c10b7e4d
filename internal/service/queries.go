package service

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"postfarm/internal/models"
)

// PostsForDay returns the scheduled posts whose scheduled date falls on the
// calendar day of day, in day's location, ordered by time. An empty
// clientID matches every client.
func PostsForDay(state *models.AppState, clientID string, day time.Time) []models.Post {
	y, m, d := day.Date()
	loc := day.Location()
	var out []models.Post
	for _, p := range state.Posts {
		if p.Status != models.PostStatusScheduled {
			continue
		}
		if clientID != "" && p.ClientID != clientID {
			continue
		}
		py, pm, pd := p.ScheduledDate.In(loc).Date()
		if py == y && pm == m && pd == d {
			out = append(out, p.Clone())
		}
	}
	slices.SortStableFunc(out, func(a, b models.Post) int {
		return a.ScheduledDate.Compare(b.ScheduledDate)
	})
	return out
}

// Inbox tabs.
const (
	InboxAll     = "all"
	InboxUnread  = "unread"
	InboxReplied = "replied"
)

// InboxFilter narrows the comment inbox. Zero values match everything.
type InboxFilter struct {
	// ClientID keeps only comments on that client's posts.
	ClientID string
	Platform models.Platform
	// Query is matched case-insensitively against author and content.
	Query string
	// Tab is one of InboxAll, InboxUnread (no replies) or InboxReplied.
	Tab string
}

// FilterInbox returns the comments that pass every criterion in f, in state order.
func FilterInbox(state *models.AppState, f InboxFilter) []models.Comment {
	var owned map[string]bool
	if f.ClientID != "" {
		owned = make(map[string]bool)
		for _, p := range state.Posts {
			if p.ClientID == f.ClientID {
				owned[p.ID] = true
			}
		}
	}
	query := strings.ToLower(strings.TrimSpace(f.Query))

	out := []models.Comment{}
	for _, c := range state.Comments {
		if owned != nil && !owned[c.PostID] {
			continue
		}
		if f.Platform != "" && c.Platform != f.Platform {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(c.Author), query) &&
			!strings.Contains(strings.ToLower(c.Content), query) {
			continue
		}
		switch f.Tab {
		case InboxUnread:
			if len(c.Replies) > 0 {
				continue
			}
		case InboxReplied:
			if len(c.Replies) == 0 {
				continue
			}
		}
		out = append(out, c.Clone())
	}
	return out
}

// SecurityEventsForClient returns the client's events, most severe first
// and newest first within a severity.
func SecurityEventsForClient(state *models.AppState, clientID string) []models.SecurityEvent {
	out := []models.SecurityEvent{}
	for _, e := range state.SecurityEvents {
		if e.ClientID == clientID {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b models.SecurityEvent) int {
		if c := cmp.Compare(b.Severity.Rank(), a.Severity.Rank()); c != 0 {
			return c
		}
		return b.Timestamp.Compare(a.Timestamp)
	})
	return out
}

// HealthFor returns a copy of the client's health entry, or nil.
func HealthFor(state *models.AppState, clientID string) *models.ClientHealth {
	for _, h := range state.ClientHealth {
		if h.ClientID == clientID {
			out := h.Clone()
			return &out
		}
	}
	return nil
}

// ClientForComment returns the id of the client owning the post a comment
// was left on.
func ClientForComment(state *models.AppState, commentID string) (string, bool) {
	for _, c := range state.Comments {
		if c.ID != commentID {
			continue
		}
		for _, p := range state.Posts {
			if p.ID == c.PostID {
				return p.ClientID, true
			}
		}
		return "", false
	}
	return "", false
}
