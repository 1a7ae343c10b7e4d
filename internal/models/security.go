package models

import "time"

// SecurityEvent is a rule hit recorded against one of a client's accounts.
type SecurityEvent struct {
	ID          string        `json:"id"`
	ClientID    string        `json:"clientId"`
	Platform    Platform      `json:"platform"`
	Severity    SeverityLevel `json:"severity"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Rule        string        `json:"rule"`
	Timestamp   time.Time     `json:"timestamp"`
}

// ClientHealth is the latest account-health scan for a client.
// Status is stored alongside the score rather than derived on read.
type ClientHealth struct {
	ClientID     string            `json:"clientId"`
	OverallScore int               `json:"overallScore"`
	Status       HealthStatus      `json:"status"`
	LastScan     time.Time         `json:"lastScan"`
	Warnings     []SecurityWarning `json:"warnings"`
	RecentIssues string            `json:"recentIssues"`
}

// SecurityWarning is an open finding inside a health scan.
type SecurityWarning struct {
	ID          string        `json:"id"`
	Platform    Platform      `json:"platform"`
	Category    string        `json:"category"`
	Severity    SeverityLevel `json:"severity"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Timestamp   time.Time     `json:"timestamp"`
}

// Clone returns a deep copy of the health entry.
func (h ClientHealth) Clone() ClientHealth {
	out := h
	if h.Warnings != nil {
		out.Warnings = append([]SecurityWarning(nil), h.Warnings...)
	}
	return out
}
