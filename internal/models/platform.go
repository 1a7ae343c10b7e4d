// Package models contains data structures for the application's domain models.
package models

// Platform identifies one of the supported social networks.
type Platform string

const (
	// PlatformFacebook is a Facebook page.
	PlatformFacebook Platform = "facebook"
	// PlatformInstagram is an Instagram business account.
	PlatformInstagram Platform = "instagram"
	// PlatformTikTok is a TikTok account.
	PlatformTikTok Platform = "tiktok"
)

// Platforms lists every supported platform in display order.
var Platforms = []Platform{PlatformFacebook, PlatformInstagram, PlatformTikTok}

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformFacebook, PlatformInstagram, PlatformTikTok:
		return true
	}
	return false
}

// PostStatus defines the publishing state of a post.
type PostStatus string

const (
	// PostStatusScheduled is waiting for its scheduled date.
	PostStatusScheduled PostStatus = "scheduled"
	// PostStatusPublished has been sent to every target platform.
	PostStatusPublished PostStatus = "published"
	// PostStatusDraft is not scheduled yet.
	PostStatusDraft PostStatus = "draft"
	// PostStatusFailed could not be published.
	PostStatusFailed PostStatus = "failed"
)

// HealthStatus summarizes a client's account health score.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusAttention HealthStatus = "attention"
	HealthStatusHighRisk  HealthStatus = "high-risk"
)

// HealthStatusForScore maps an overall score (0-100) to its status band.
func HealthStatusForScore(score int) HealthStatus {
	switch {
	case score >= 90:
		return HealthStatusHealthy
	case score >= 70:
		return HealthStatusAttention
	default:
		return HealthStatusHighRisk
	}
}

// SeverityLevel grades security findings.
type SeverityLevel string

const (
	SeverityLow      SeverityLevel = "low"
	SeverityMedium   SeverityLevel = "medium"
	SeverityHigh     SeverityLevel = "high"
	SeverityCritical SeverityLevel = "critical"
)

// Rank orders severities from low (0) to critical (3). Unknown values rank below low.
func (s SeverityLevel) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	}
	return -1
}

// Language is the UI language preference.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageKurdish Language = "ku"
	LanguageArabic  Language = "ar"
)

// DefaultLanguage is used when no valid preference is stored.
const DefaultLanguage = LanguageEnglish

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	switch l {
	case LanguageEnglish, LanguageKurdish, LanguageArabic:
		return true
	}
	return false
}
