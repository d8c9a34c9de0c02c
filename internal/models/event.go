package models

type Event struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Value     any    `json:"value"`
	Timestamp string `json:"timestamp"`
}

type EventStats struct {
	TotalEvents int `json:"totalEvents"`
	ActiveUsers int `json:"activeUsers"`
	PageViews   int `json:"pageViews"`
}
