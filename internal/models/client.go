package models

import "time"

// Client is a brand whose social accounts are managed from the dashboard.
type Client struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Logo              string             `json:"logo"`
	Email             string             `json:"email"`
	Phone             string             `json:"phone"`
	Description       string             `json:"description"`
	ConnectedAccounts []ConnectedAccount `json:"connectedAccounts"`
}

// ConnectedAccount is a platform account owned by a single client.
type ConnectedAccount struct {
	ID          string     `json:"id"`
	Platform    Platform   `json:"platform"`
	Username    string     `json:"username"`
	Avatar      string     `json:"avatar"`
	IsConnected bool       `json:"isConnected"`
	ConnectedAt *time.Time `json:"connectedAt,omitempty"`
}

// AccountFor returns the first account for the given platform, or nil.
func (c *Client) AccountFor(p Platform) *ConnectedAccount {
	for i := range c.ConnectedAccounts {
		if c.ConnectedAccounts[i].Platform == p {
			return &c.ConnectedAccounts[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the client.
func (c Client) Clone() Client {
	out := c
	if c.ConnectedAccounts != nil {
		out.ConnectedAccounts = make([]ConnectedAccount, len(c.ConnectedAccounts))
		for i, acc := range c.ConnectedAccounts {
			out.ConnectedAccounts[i] = acc.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the account.
func (a ConnectedAccount) Clone() ConnectedAccount {
	out := a
	if a.ConnectedAt != nil {
		t := *a.ConnectedAt
		out.ConnectedAt = &t
	}
	return out
}
