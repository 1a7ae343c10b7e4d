package models

// Analytics holds the dashboard-wide engagement aggregate.
type Analytics struct {
	TotalViews    int               `json:"totalViews"`
	TotalLikes    int               `json:"totalLikes"`
	TotalComments int               `json:"totalComments"`
	TotalShares   int               `json:"totalShares"`
	ByPlatform    PlatformBreakdown `json:"byPlatform"`
}

// PlatformBreakdown is keyed by the fixed platform set.
type PlatformBreakdown struct {
	Facebook  PlatformMetrics `json:"facebook"`
	Instagram PlatformMetrics `json:"instagram"`
	TikTok    PlatformMetrics `json:"tiktok"`
}

// PlatformMetrics are the per-platform counters. Reach is only reported for instagram.
type PlatformMetrics struct {
	Views    int  `json:"views"`
	Likes    int  `json:"likes"`
	Comments int  `json:"comments"`
	Shares   int  `json:"shares"`
	Reach    *int `json:"reach,omitempty"`
}

// For returns the metrics for p.
func (b PlatformBreakdown) For(p Platform) PlatformMetrics {
	switch p {
	case PlatformFacebook:
		return b.Facebook
	case PlatformInstagram:
		return b.Instagram
	default:
		return b.TikTok
	}
}

// Clone returns a deep copy of the aggregate.
func (a Analytics) Clone() Analytics {
	out := a
	out.ByPlatform.Facebook = a.ByPlatform.Facebook.clone()
	out.ByPlatform.Instagram = a.ByPlatform.Instagram.clone()
	out.ByPlatform.TikTok = a.ByPlatform.TikTok.clone()
	return out
}

func (m PlatformMetrics) clone() PlatformMetrics {
	out := m
	if m.Reach != nil {
		r := *m.Reach
		out.Reach = &r
	}
	return out
}
