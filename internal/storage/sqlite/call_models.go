package sqlite

import "time"

// CallRecord is one persisted crisis-line call. Records are insert-only; the
// only later mutation is the summarizer filling an empty call_summary.
type CallRecord struct {
	ID                  string    `json:"id"`
	CallID              string    `json:"call_id"`
	AgentID             string    `json:"agent_id"`
	AgentName           string    `json:"agent_name"`
	CallStatus          string    `json:"call_status"`
	DurationMs          int64     `json:"duration_ms"`
	Transcript          string    `json:"transcript"`
	PhoneNumber         string    `json:"phone_number,omitempty"`
	RecordingURL        string    `json:"recording_url,omitempty"`
	DisconnectionReason string    `json:"disconnection_reason"`
	CallSummary         string    `json:"call_summary"`
	UserSentiment       string    `json:"user_sentiment,omitempty"`
	CallSuccessful      *bool     `json:"call_successful"`
	FromNumber          string    `json:"from_number"`
	ToNumber            string    `json:"to_number"`
	Direction           string    `json:"direction,omitempty"`
	ProviderName        string    `json:"provider_name"`
	Niche               string    `json:"niche"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// CallFilter describes the store-level portion of a dashboard query. The
// free-text search is applied by the query service after the fetch.
type CallFilter struct {
	// Since keeps only records created at or after the given time.
	// Zero means no time window.
	Since time.Time
	// Sentiment filters on an exact user_sentiment value when non-empty.
	Sentiment string
	// CallSuccessful filters on the call_successful flag when non-nil.
	CallSuccessful *bool
	// ProviderKeywords is an OR-group of case-insensitive substrings matched
	// against provider_name or niche.
	ProviderKeywords []string
	// SortBy is the dashboard sort key; unknown keys fall back to createdAt.
	SortBy string
	// SortOrder is "asc" or "desc"; anything else means desc.
	SortOrder string
}

// SentimentCount is one row of the sentiment breakdown.
type SentimentCount struct {
	Sentiment string `json:"sentiment"`
	Count     int    `json:"count"`
}

// ProviderCount is one row of the per-provider breakdown.
type ProviderCount struct {
	ProviderName string `json:"provider_name"`
	Count        int    `json:"count"`
}

// CallStats aggregates dashboard statistics over a time window.
type CallStats struct {
	TotalCalls      int              `json:"totalCalls"`
	SuccessfulCalls int              `json:"successfulCalls"`
	SentimentStats  []SentimentCount `json:"sentimentStats"`
	ProviderStats   []ProviderCount  `json:"providerStats"`
}
