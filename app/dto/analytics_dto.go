package dto

// DailyClicksDTO is one day of click counts
type DailyClicksDTO struct {
	Date   string `json:"date"`
	Clicks int64  `json:"clicks"`
}

// StatRowDTO is one bucket of a grouped breakdown
type StatRowDTO struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// AnalyticsOverviewResponse summarizes a customer's links
type AnalyticsOverviewResponse struct {
	TotalLinks      int64            `json:"total_links"`
	ActiveLinks     int64            `json:"active_links"`
	TotalClicks     int64            `json:"total_clicks"`
	ClicksToday     int64            `json:"clicks_today"`
	ClicksThisMonth int64            `json:"clicks_this_month"`
	DailyClicks     []DailyClicksDTO `json:"daily_clicks"`
	TopLinks        []ShortLinkDTO   `json:"top_links"`
}

// LinkAnalyticsResponse is the per-link breakdown over a day window
type LinkAnalyticsResponse struct {
	Link        ShortLinkDTO     `json:"link"`
	WindowDays  int              `json:"window_days"`
	TotalVisits int64            `json:"total_visits"`
	DailyClicks []DailyClicksDTO `json:"daily_clicks"`
	Devices     []StatRowDTO     `json:"devices"`
	Browsers    []StatRowDTO     `json:"browsers"`
	Platforms   []StatRowDTO     `json:"platforms"`
	Countries   []StatRowDTO     `json:"countries"`
	Referers    []StatRowDTO     `json:"referers"`
}
