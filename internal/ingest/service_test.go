package ingest

import (
	"errors"
	"testing"
	"time"

	"github.com/triagelab/crisisline/internal/classifier"
	"github.com/triagelab/crisisline/internal/storage/sqlite"
	"github.com/triagelab/crisisline/pkg/logger"
)

type fakeStore struct {
	stored []*sqlite.CallRecord
	err    error
}

func (f *fakeStore) StoreCall(record *sqlite.CallRecord) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, record)
	return nil
}

func TestProcessEvent_IgnoresOtherEvents(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil, logger.NewNop())

	record, err := svc.ProcessEvent([]byte(`{"event":"call_started","call":{"call_id":"c1"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record != nil {
		t.Fatal("non-analyzed events must be ignored")
	}
	if len(store.stored) != 0 {
		t.Fatal("ignored event must not insert a record")
	}
}

func TestProcessEvent_MissingCall(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil, logger.NewNop())

	_, err := svc.ProcessEvent([]byte(`{"event":"call_analyzed"}`))
	if !errors.Is(err, classifier.ErrMissingCall) {
		t.Fatalf("expected ErrMissingCall, got %v", err)
	}
	if len(store.stored) != 0 {
		t.Fatal("failed delivery must not insert a record")
	}
}

func TestProcessEvent_AgentAllowList(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, []string{"agent_allowed"}, logger.NewNop())

	payload := []byte(`{"event":"call_analyzed","call":{"call_id":"c1","agent_id":"agent_other"}}`)
	record, err := svc.ProcessEvent(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record != nil || len(store.stored) != 0 {
		t.Fatal("unlisted agent must be ignored")
	}

	payload = []byte(`{"event":"call_analyzed","call":{"call_id":"c2","agent_id":"agent_allowed"}}`)
	record, err = svc.ProcessEvent(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record == nil || len(store.stored) != 1 {
		t.Fatal("listed agent must be stored")
	}
}

func TestProcessEvent_StoresClassifiedRecord(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil, logger.NewNop())
	fixed := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	payload := []byte(`{"event":"call_analyzed","call":{
		"call_id": "c3",
		"agent_id": "agent_1",
		"agent_name": "Triage Agent",
		"duration_ms": 61000,
		"phone_number": "+19889882222",
		"transcript": "User: I feel alone\nAgent: connecting you now",
		"call_analysis": {"user_sentiment": "Negative", "call_successful": true}
	}}`)

	record, err := svc.ProcessEvent(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record == nil {
		t.Fatal("expected a stored record")
	}

	if record.ID == "" {
		t.Fatal("record must get an ID")
	}
	if record.ProviderName != "988 Suicide & Crisis Lifeline" {
		t.Fatalf("unexpected provider %q", record.ProviderName)
	}
	if record.Niche != "Mental Health / Suicide / Emotional Distress" {
		t.Fatalf("unexpected niche %q", record.Niche)
	}
	if record.UserSentiment != "Negative" {
		t.Fatalf("unexpected sentiment %q", record.UserSentiment)
	}
	if record.CallSuccessful == nil || !*record.CallSuccessful {
		t.Fatal("expected call_successful true")
	}
	if record.FromNumber != classifier.DefaultFromNumber {
		t.Fatalf("unexpected from_number %q", record.FromNumber)
	}
	if !record.CreatedAt.Equal(fixed) || !record.UpdatedAt.Equal(fixed) {
		t.Fatalf("unexpected timestamps: %v / %v", record.CreatedAt, record.UpdatedAt)
	}
	if len(store.stored) != 1 || store.stored[0] != record {
		t.Fatal("record must be handed to the store")
	}
}

func TestProcessEvent_EmergencyEscalation(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil, logger.NewNop())

	payload := []byte(`{"event":"call_analyzed","call":{
		"call_id": "c4",
		"phone_number": "+19889882222",
		"transcript": "User: I have an emergency\nAgent: I will call 911 now"
	}}`)

	record, err := svc.ProcessEvent(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.ProviderName != "Escalated to Emergency" || record.Niche != "Emergency" {
		t.Fatalf("expected escalation labels, got %q / %q", record.ProviderName, record.Niche)
	}
}

func TestProcessEvent_StoreFailurePropagates(t *testing.T) {
	storeErr := errors.New("disk full")
	store := &fakeStore{err: storeErr}
	svc := NewService(store, nil, logger.NewNop())

	_, err := svc.ProcessEvent([]byte(`{"event":"call_analyzed","call":{"call_id":"c5"}}`))
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
}

func TestProcessEvent_RedeliveryDuplicates(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil, logger.NewNop())

	payload := []byte(`{"event":"call_analyzed","call":{"call_id":"c6"}}`)
	first, err := svc.ProcessEvent(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.ProcessEvent(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// No idempotency key: a redelivery is a new record with the same call_id.
	if len(store.stored) != 2 {
		t.Fatalf("expected 2 records, got %d", len(store.stored))
	}
	if first.ID == second.ID {
		t.Fatal("redelivered record must get its own ID")
	}
	if first.CallID != second.CallID {
		t.Fatal("redelivered record must keep the upstream call_id")
	}
}
