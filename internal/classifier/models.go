package classifier

// EventCallAnalyzed is the only webhook event type the ingestion pipeline
// processes. Other event types are acknowledged and dropped.
const EventCallAnalyzed = "call_analyzed"

// Call holds the fields extracted from a call_analyzed webhook delivery.
// Every field defaults to an empty or neutral value when absent from the
// payload; the upstream platform omits fields freely.
type Call struct {
	CallID              string
	AgentID             string
	AgentName           string
	CallStatus          string
	DurationMs          int64
	Transcript          string
	PhoneNumber         string // transfer destination, may be empty
	RecordingURL        string
	DisconnectionReason string
	CallSummary         string
	UserSentiment       string // Positive, Neutral, Negative or empty
	CallSuccessful      *bool  // nil when the analysis did not decide
	FromNumber          string
	ToNumber            string
	Direction           string
}

// Defaults applied when the upstream payload omits the caller endpoints.
// Web-originated calls carry no phone numbers.
const (
	DefaultFromNumber = "web_call_user"
	DefaultToNumber   = "web_call_agent"
)
