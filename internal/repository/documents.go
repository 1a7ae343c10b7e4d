package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"postfarm/internal/models"
)

// The persisted layout mirrors models.AppState, except that every date is a
// string until revived. Outer fields shadow the embedded model's fields with
// the same JSON name, so only the date-bearing fields need redeclaring.

type stateDoc struct {
	Clients         *[]clientDoc        `json:"clients"`
	Posts           *[]postDoc          `json:"posts"`
	Analytics       models.Analytics    `json:"analytics"`
	Comments        *[]commentDoc       `json:"comments"`
	SecurityEvents  *[]securityEventDoc `json:"securityEvents"`
	ClientHealth    *[]healthDoc        `json:"clientHealth"`
	CurrentClientID *string             `json:"currentClientId"`
}

type clientDoc struct {
	models.Client
	ConnectedAccounts *[]accountDoc `json:"connectedAccounts"`
}

type accountDoc struct {
	models.ConnectedAccount
	ConnectedAt *string `json:"connectedAt,omitempty"`
}

type postDoc struct {
	models.Post
	ScheduledDate string `json:"scheduledDate"`
	CreatedAt     string `json:"createdAt"`
}

type commentDoc struct {
	models.Comment
	CreatedAt string      `json:"createdAt"`
	Replies   *[]replyDoc `json:"replies"`
}

type replyDoc struct {
	models.Reply
	CreatedAt string `json:"createdAt"`
}

type securityEventDoc struct {
	models.SecurityEvent
	Timestamp string `json:"timestamp"`
}

type healthDoc struct {
	models.ClientHealth
	LastScan string        `json:"lastScan"`
	Warnings *[]warningDoc `json:"warnings"`
}

type warningDoc struct {
	models.SecurityWarning
	Timestamp string `json:"timestamp"`
}

// errMalformed marks a payload that parsed as JSON but has the wrong shape.
var errMalformed = errors.New("malformed state payload")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errMalformed, fmt.Sprintf(format, args...))
}

// dateLayouts are the ISO-8601 forms accepted when reviving dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseDate revives a serialized date. Values without a zone are read as UTC.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

func reviveDate(field, s string) (time.Time, error) {
	t, err := parseDate(s)
	if err != nil {
		return time.Time{}, malformed("%s: %v", field, err)
	}
	return t, nil
}

// revive converts a decoded document into a state with real dates.
// Clients and client health are replaced by the seed on every load, so they
// are revived best-effort: a missing list is empty and an unreadable entry is
// dropped. For the user-owned collections a missing list or an unparseable
// required date is malformed.
func (d *stateDoc) revive() (*models.AppState, error) {
	if d.Posts == nil || d.Comments == nil || d.SecurityEvents == nil {
		return nil, malformed("missing collection")
	}

	state := &models.AppState{
		Clients:         reviveClients(d.Clients),
		Posts:           make([]models.Post, 0, len(*d.Posts)),
		Analytics:       d.Analytics,
		Comments:        make([]models.Comment, 0, len(*d.Comments)),
		SecurityEvents:  make([]models.SecurityEvent, 0, len(*d.SecurityEvents)),
		ClientHealth:    reviveHealth(d.ClientHealth),
		CurrentClientID: d.CurrentClientID,
	}

	for _, pd := range *d.Posts {
		p := pd.Post
		var err error
		if p.ScheduledDate, err = reviveDate("post "+p.ID+" scheduledDate", pd.ScheduledDate); err != nil {
			return nil, err
		}
		if p.CreatedAt, err = reviveDate("post "+p.ID+" createdAt", pd.CreatedAt); err != nil {
			return nil, err
		}
		if p.Platforms == nil {
			p.Platforms = []models.Platform{}
		}
		state.Posts = append(state.Posts, p)
	}

	for _, cd := range *d.Comments {
		c := cd.Comment
		var err error
		if c.CreatedAt, err = reviveDate("comment "+c.ID+" createdAt", cd.CreatedAt); err != nil {
			return nil, err
		}
		if cd.Replies == nil {
			return nil, malformed("comment %s: missing replies", c.ID)
		}
		c.Replies = make([]models.Reply, 0, len(*cd.Replies))
		for _, rd := range *cd.Replies {
			r := rd.Reply
			if r.CreatedAt, err = reviveDate("reply "+r.ID+" createdAt", rd.CreatedAt); err != nil {
				return nil, err
			}
			c.Replies = append(c.Replies, r)
		}
		state.Comments = append(state.Comments, c)
	}

	for _, ed := range *d.SecurityEvents {
		e := ed.SecurityEvent
		var err error
		if e.Timestamp, err = reviveDate("security event "+e.ID+" timestamp", ed.Timestamp); err != nil {
			return nil, err
		}
		state.SecurityEvents = append(state.SecurityEvents, e)
	}

	return state, nil
}

func reviveClients(docs *[]clientDoc) []models.Client {
	if docs == nil {
		return []models.Client{}
	}
	out := make([]models.Client, 0, len(*docs))
	for _, cd := range *docs {
		c := cd.Client
		c.ConnectedAccounts = []models.ConnectedAccount{}
		if cd.ConnectedAccounts != nil {
			for _, ad := range *cd.ConnectedAccounts {
				acc := ad.ConnectedAccount
				acc.ConnectedAt = nil
				if ad.ConnectedAt != nil {
					if t, err := parseDate(*ad.ConnectedAt); err == nil {
						acc.ConnectedAt = &t
					}
				}
				c.ConnectedAccounts = append(c.ConnectedAccounts, acc)
			}
		}
		out = append(out, c)
	}
	return out
}

func reviveHealth(docs *[]healthDoc) []models.ClientHealth {
	if docs == nil {
		return []models.ClientHealth{}
	}
	out := make([]models.ClientHealth, 0, len(*docs))
	for _, hd := range *docs {
		h := hd.ClientHealth
		var err error
		if h.LastScan, err = reviveDate("health "+h.ClientID+" lastScan", hd.LastScan); err != nil {
			continue
		}
		h.Warnings = []models.SecurityWarning{}
		if hd.Warnings != nil {
			for _, wd := range *hd.Warnings {
				w := wd.SecurityWarning
				if w.Timestamp, err = reviveDate("warning "+w.ID+" timestamp", wd.Timestamp); err != nil {
					continue
				}
				h.Warnings = append(h.Warnings, w)
			}
		}
		out = append(out, h)
	}
	return out
}

// normalize returns a copy with every nil slice replaced by an empty one so
// that the encoded payload always carries the collections revive requires.
func normalize(s *models.AppState) *models.AppState {
	out := s.Clone()
	for i := range out.Clients {
		if out.Clients[i].ConnectedAccounts == nil {
			out.Clients[i].ConnectedAccounts = []models.ConnectedAccount{}
		}
	}
	for i := range out.Posts {
		if out.Posts[i].Platforms == nil {
			out.Posts[i].Platforms = []models.Platform{}
		}
	}
	for i := range out.Comments {
		if out.Comments[i].Replies == nil {
			out.Comments[i].Replies = []models.Reply{}
		}
	}
	for i := range out.ClientHealth {
		if out.ClientHealth[i].Warnings == nil {
			out.ClientHealth[i].Warnings = []models.SecurityWarning{}
		}
	}
	return out
}
