package classifier

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"

	"github.com/triagelab/crisisline/pkg/logger"
)

// ErrMissingCall signals a webhook delivery without a call object. The whole
// delivery is rejected in that case.
var ErrMissingCall = errors.New("classifier: event has no call object")

// Decoder extracts call data from raw webhook payloads. The upstream payload
// is loosely shaped, so fields are pulled out individually rather than
// unmarshalled into a rigid struct.
type Decoder struct {
	logger *logger.Logger
}

// NewDecoder creates a new webhook payload decoder.
func NewDecoder(logger *logger.Logger) *Decoder {
	return &Decoder{logger: logger.Named("classifier")}
}

// EventType returns the event field of a webhook payload.
func (d *Decoder) EventType(body []byte) string {
	return gjson.GetBytes(body, "event").String()
}

// DecodeCall extracts the call object from a webhook payload. Analysis fields
// are read from call_analysis with a fallback to the top level, matching how
// the upstream platform has shipped them over time.
func (d *Decoder) DecodeCall(body []byte) (*Call, error) {
	call := gjson.GetBytes(body, "call")
	if !call.Exists() {
		return nil, ErrMissingCall
	}

	c := &Call{
		CallID:              call.Get("call_id").String(),
		AgentID:             call.Get("agent_id").String(),
		AgentName:           call.Get("agent_name").String(),
		CallStatus:          call.Get("call_status").String(),
		DurationMs:          call.Get("duration_ms").Int(),
		Transcript:          call.Get("transcript").String(),
		RecordingURL:        call.Get("recording_url").String(),
		DisconnectionReason: call.Get("disconnection_reason").String(),
		Direction:           call.Get("direction").String(),
		FromNumber:          call.Get("from_number").String(),
		ToNumber:            call.Get("to_number").String(),
	}

	if c.DurationMs < 0 {
		c.DurationMs = 0
	}
	if c.FromNumber == "" {
		c.FromNumber = DefaultFromNumber
	}
	if c.ToNumber == "" {
		c.ToNumber = DefaultToNumber
	}

	c.CallSummary = firstString(call, "call_analysis.call_summary", "call_summary")
	c.UserSentiment = firstString(call, "call_analysis.user_sentiment", "user_sentiment")
	if successful := firstResult(call, "call_analysis.call_successful", "call_successful"); successful.Exists() {
		v := successful.Bool()
		c.CallSuccessful = &v
	}

	c.PhoneNumber = d.extractPhoneNumber(call)

	return c, nil
}

// extractPhoneNumber finds the transfer destination for a call. Explicit
// fields win; otherwise the tool-call log is scanned in order and the first
// transfer_call invocation with a parseable number is used.
func (d *Decoder) extractPhoneNumber(call gjson.Result) string {
	if number := call.Get("phone_number").String(); number != "" {
		return number
	}
	if number := call.Get("collected_dynamic_variables.phone_number").String(); number != "" {
		return number
	}

	var number string
	call.Get("transcript_with_tool_calls").ForEach(func(_, item gjson.Result) bool {
		if item.Get("role").String() != "tool_call_invocation" {
			return true
		}
		if item.Get("type").String() != "transfer_call" {
			return true
		}

		var args struct {
			Number string `json:"number"`
		}
		raw := item.Get("arguments").String()
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			d.logger.Warn("Failed to parse tool call arguments",
				logger.String("call_id", call.Get("call_id").String()),
				logger.Error(err))
			return true // skip this entry, keep scanning
		}
		if args.Number != "" {
			number = args.Number
			return false // first match wins
		}
		return true
	})

	return number
}

func firstString(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

func firstResult(r gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}
