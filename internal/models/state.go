package models

// AppState is the root aggregate owned by the store.
// CurrentClientID, when non-nil, must name a client in Clients.
type AppState struct {
	Clients         []Client        `json:"clients"`
	Posts           []Post          `json:"posts"`
	Analytics       Analytics       `json:"analytics"`
	Comments        []Comment       `json:"comments"`
	SecurityEvents  []SecurityEvent `json:"securityEvents"`
	ClientHealth    []ClientHealth  `json:"clientHealth"`
	CurrentClientID *string         `json:"currentClientId"`
}

// Clone returns a deep copy that shares no slices or pointers with s.
// Top-level collections are always non-nil in the copy.
func (s *AppState) Clone() *AppState {
	if s == nil {
		return nil
	}
	out := &AppState{
		Clients:        make([]Client, len(s.Clients)),
		Posts:          make([]Post, len(s.Posts)),
		Analytics:      s.Analytics.Clone(),
		Comments:       make([]Comment, len(s.Comments)),
		SecurityEvents: append(make([]SecurityEvent, 0, len(s.SecurityEvents)), s.SecurityEvents...),
		ClientHealth:   make([]ClientHealth, len(s.ClientHealth)),
	}
	for i, c := range s.Clients {
		out.Clients[i] = c.Clone()
	}
	for i, p := range s.Posts {
		out.Posts[i] = p.Clone()
	}
	for i, c := range s.Comments {
		out.Comments[i] = c.Clone()
	}
	for i, h := range s.ClientHealth {
		out.ClientHealth[i] = h.Clone()
	}
	if s.CurrentClientID != nil {
		id := *s.CurrentClientID
		out.CurrentClientID = &id
	}
	return out
}

// FindClient returns the client with the given id, or nil.
func (s *AppState) FindClient(id string) *Client {
	for i := range s.Clients {
		if s.Clients[i].ID == id {
			return &s.Clients[i]
		}
	}
	return nil
}

// HasClient reports whether a client with the given id exists.
func (s *AppState) HasClient(id string) bool {
	return s.FindClient(id) != nil
}

// CurrentClient returns the client selected by CurrentClientID, or nil.
func (s *AppState) CurrentClient() *Client {
	if s == nil || s.CurrentClientID == nil {
		return nil
	}
	return s.FindClient(*s.CurrentClientID)
}

// StringPtr returns a pointer to a copy of v.
func StringPtr(v string) *string {
	return &v
}
