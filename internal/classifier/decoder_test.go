package classifier

import (
	"errors"
	"testing"

	"github.com/triagelab/crisisline/pkg/logger"
)

func newTestDecoder() *Decoder {
	return NewDecoder(logger.NewNop())
}

func TestDecodeCall_MissingCall(t *testing.T) {
	d := newTestDecoder()

	_, err := d.DecodeCall([]byte(`{"event":"call_analyzed"}`))
	if !errors.Is(err, ErrMissingCall) {
		t.Fatalf("expected ErrMissingCall, got %v", err)
	}
}

func TestDecodeCall_Defaults(t *testing.T) {
	d := newTestDecoder()

	call, err := d.DecodeCall([]byte(`{"event":"call_analyzed","call":{"call_id":"c1"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if call.FromNumber != DefaultFromNumber {
		t.Fatalf("expected from_number default %q got %q", DefaultFromNumber, call.FromNumber)
	}
	if call.ToNumber != DefaultToNumber {
		t.Fatalf("expected to_number default %q got %q", DefaultToNumber, call.ToNumber)
	}
	if call.CallSuccessful != nil {
		t.Fatalf("expected nil call_successful, got %v", *call.CallSuccessful)
	}
	if call.DurationMs != 0 {
		t.Fatalf("expected zero duration, got %d", call.DurationMs)
	}
}

func TestDecodeCall_AnalysisFallbacks(t *testing.T) {
	d := newTestDecoder()

	payload := `{"call":{
		"call_id": "c2",
		"call_analysis": {
			"call_summary": "nested summary",
			"user_sentiment": "Positive",
			"call_successful": true
		},
		"call_summary": "flat summary",
		"user_sentiment": "Negative"
	}}`

	call, err := d.DecodeCall([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if call.CallSummary != "nested summary" {
		t.Fatalf("call_analysis.call_summary must win, got %q", call.CallSummary)
	}
	if call.UserSentiment != "Positive" {
		t.Fatalf("call_analysis.user_sentiment must win, got %q", call.UserSentiment)
	}
	if call.CallSuccessful == nil || !*call.CallSuccessful {
		t.Fatal("expected call_successful true")
	}

	// Without the nested analysis the flat fields apply.
	call, err = d.DecodeCall([]byte(`{"call":{"call_summary":"flat","call_successful":false}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if call.CallSummary != "flat" {
		t.Fatalf("expected flat summary fallback, got %q", call.CallSummary)
	}
	if call.CallSuccessful == nil || *call.CallSuccessful {
		t.Fatal("expected call_successful false")
	}
}

func TestExtractPhoneNumber_ExplicitFieldWins(t *testing.T) {
	d := newTestDecoder()

	payload := `{"call":{
		"phone_number": "+15551112222",
		"collected_dynamic_variables": {"phone_number": "+15553334444"},
		"transcript_with_tool_calls": [
			{"role": "tool_call_invocation", "type": "transfer_call", "arguments": "{\"number\":\"+15555556666\"}"}
		]
	}}`

	call, err := d.DecodeCall([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if call.PhoneNumber != "+15551112222" {
		t.Fatalf("explicit phone_number must win, got %q", call.PhoneNumber)
	}
}

func TestExtractPhoneNumber_DynamicVariables(t *testing.T) {
	d := newTestDecoder()

	payload := `{"call":{"collected_dynamic_variables": {"phone_number": "+15553334444"}}}`
	call, err := d.DecodeCall([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if call.PhoneNumber != "+15553334444" {
		t.Fatalf("expected dynamic variable number, got %q", call.PhoneNumber)
	}
}

func TestExtractPhoneNumber_FirstTransferCallWins(t *testing.T) {
	d := newTestDecoder()

	payload := `{"call":{
		"transcript_with_tool_calls": [
			{"role": "agent", "content": "transferring"},
			{"role": "tool_call_invocation", "type": "end_call", "arguments": "{}"},
			{"role": "tool_call_invocation", "type": "transfer_call", "arguments": "{\"number\":\"+19889882222\"}"},
			{"role": "tool_call_invocation", "type": "transfer_call", "arguments": "{\"number\":\"+15052773013\"}"}
		]
	}}`

	call, err := d.DecodeCall([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if call.PhoneNumber != "+19889882222" {
		t.Fatalf("first transfer_call must win, got %q", call.PhoneNumber)
	}
}

func TestExtractPhoneNumber_MalformedArgumentsSkipped(t *testing.T) {
	d := newTestDecoder()

	payload := `{"call":{
		"transcript_with_tool_calls": [
			{"role": "tool_call_invocation", "type": "transfer_call", "arguments": "not json"},
			{"role": "tool_call_invocation", "type": "transfer_call", "arguments": "{\"number\":\"+18335454357\"}"}
		]
	}}`

	call, err := d.DecodeCall([]byte(payload))
	if err != nil {
		t.Fatalf("malformed tool-call arguments must not fail the delivery: %v", err)
	}
	if call.PhoneNumber != "+18335454357" {
		t.Fatalf("expected the scan to continue past the bad entry, got %q", call.PhoneNumber)
	}
}

func TestExtractPhoneNumber_NoSource(t *testing.T) {
	d := newTestDecoder()

	call, err := d.DecodeCall([]byte(`{"call":{"transcript":"User: hi"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if call.PhoneNumber != "" {
		t.Fatalf("expected empty phone number, got %q", call.PhoneNumber)
	}
}
