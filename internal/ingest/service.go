// Package ingest turns webhook deliveries from the upstream voice-agent
// platform into persisted call records.
package ingest

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/triagelab/crisisline/internal/classifier"
	"github.com/triagelab/crisisline/internal/storage/sqlite"
	"github.com/triagelab/crisisline/pkg/logger"
)

// CallStore is the storage surface the ingestion service needs.
type CallStore interface {
	StoreCall(record *sqlite.CallRecord) error
}

// Service processes webhook deliveries. Each valid call_analyzed event
// produces exactly one inserted record; redeliveries are not deduplicated.
type Service struct {
	decoder       *classifier.Decoder
	store         CallStore
	allowedAgents map[string]struct{}
	logger        *logger.Logger
	now           func() time.Time
}

// NewService creates a new ingestion service. An empty allowedAgentIDs list
// admits every agent.
func NewService(store CallStore, allowedAgentIDs []string, log *logger.Logger) *Service {
	var allowed map[string]struct{}
	if len(allowedAgentIDs) > 0 {
		allowed = make(map[string]struct{}, len(allowedAgentIDs))
		for _, id := range allowedAgentIDs {
			allowed[id] = struct{}{}
		}
	}

	return &Service{
		decoder:       classifier.NewDecoder(log),
		store:         store,
		allowedAgents: allowed,
		logger:        log.Named("ingest"),
		now:           time.Now,
	}
}

// ProcessEvent handles one webhook delivery. It returns the stored record for
// a processed call_analyzed event, or (nil, nil) when the event is ignored
// (other event types, or an agent outside the allow-list).
func (s *Service) ProcessEvent(body []byte) (*sqlite.CallRecord, error) {
	eventType := s.decoder.EventType(body)
	if eventType != classifier.EventCallAnalyzed {
		s.logger.Debug("Ignoring webhook event", logger.String("event", eventType))
		return nil, nil
	}

	call, err := s.decoder.DecodeCall(body)
	if err != nil {
		return nil, err
	}

	if s.allowedAgents != nil {
		if _, ok := s.allowedAgents[call.AgentID]; !ok {
			s.logger.Info("Ignoring call from unlisted agent",
				logger.String("agent_id", call.AgentID),
				logger.String("call_id", call.CallID))
			return nil, nil
		}
	}

	entry := classifier.Classify(call)

	now := s.now().UTC()
	record := &sqlite.CallRecord{
		ID:                  uuid.NewString(),
		CallID:              call.CallID,
		AgentID:             call.AgentID,
		AgentName:           call.AgentName,
		CallStatus:          call.CallStatus,
		DurationMs:          call.DurationMs,
		Transcript:          call.Transcript,
		PhoneNumber:         call.PhoneNumber,
		RecordingURL:        call.RecordingURL,
		DisconnectionReason: call.DisconnectionReason,
		CallSummary:         call.CallSummary,
		UserSentiment:       call.UserSentiment,
		CallSuccessful:      call.CallSuccessful,
		FromNumber:          call.FromNumber,
		ToNumber:            call.ToNumber,
		Direction:           call.Direction,
		ProviderName:        entry.ProviderName,
		Niche:               entry.Niche,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.store.StoreCall(record); err != nil {
		return nil, fmt.Errorf("failed to store call %s: %w", call.CallID, err)
	}

	s.logger.Info("Call stored",
		logger.String("call_id", record.CallID),
		logger.String("provider", record.ProviderName),
		logger.String("niche", record.Niche))

	return record, nil
}
