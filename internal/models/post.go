package models

import "time"

// Post is a piece of content scheduled to one or more platforms for a client.
type Post struct {
	ID            string     `json:"id"`
	ClientID      string     `json:"clientId"`
	Platforms     []Platform `json:"platforms"`
	Content       string     `json:"content"`
	ImageURL      string     `json:"imageUrl,omitempty"`
	ScheduledDate time.Time  `json:"scheduledDate"`
	Status        PostStatus `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Clone returns a deep copy of the post.
func (p Post) Clone() Post {
	out := p
	if p.Platforms != nil {
		out.Platforms = append([]Platform(nil), p.Platforms...)
	}
	return out
}

// Comment is an inbound comment left on a published post.
type Comment struct {
	ID           string    `json:"id"`
	Platform     Platform  `json:"platform"`
	PostID       string    `json:"postId"`
	Author       string    `json:"author"`
	AuthorAvatar string    `json:"authorAvatar"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"createdAt"`
	Replies      []Reply   `json:"replies"`
}

// Reply is an append-only answer to a comment.
type Reply struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	IsAI      bool      `json:"isAI"`
}

// Clone returns a deep copy of the comment and its replies.
func (c Comment) Clone() Comment {
	out := c
	if c.Replies != nil {
		out.Replies = append([]Reply(nil), c.Replies...)
	}
	return out
}
