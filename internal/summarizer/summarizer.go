// Package summarizer fills in missing call summaries in the background.
// Most records arrive with a summary from the upstream call analysis; this
// loop covers deliveries where the analysis came back empty.
package summarizer

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/triagelab/crisisline/internal/config"
	"github.com/triagelab/crisisline/internal/storage/sqlite"
	"github.com/triagelab/crisisline/pkg/logger"
)

// CallStore is the storage surface the summarizer needs.
type CallStore interface {
	GetCallsMissingSummary(limit int) ([]*sqlite.CallRecord, error)
	UpdateCallSummary(id, summary string) error
}

// Client produces a summary for one transcript.
type Client interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// Summarizer runs the periodic batch loop.
type Summarizer struct {
	ctx    context.Context
	cancel context.CancelFunc
	store  CallStore
	client Client
	config config.SummarizerConfig
	logger *logger.Logger
	wg     sync.WaitGroup
}

// New creates a new summarizer.
func New(ctx context.Context, store CallStore, client Client, cfg config.SummarizerConfig, log *logger.Logger) *Summarizer {
	sumCtx, sumCancel := context.WithCancel(ctx)
	return &Summarizer{
		ctx:    sumCtx,
		cancel: sumCancel,
		store:  store,
		client: client,
		config: cfg,
		logger: log.Named("summarizer"),
	}
}

// Start launches the batch loop. A disabled summarizer is a no-op.
func (s *Summarizer) Start() {
	if !s.config.Enabled {
		s.logger.Info("Summarizer is disabled, not starting")
		return
	}

	s.logger.Info("Starting summarizer loop",
		logger.Int("interval_seconds", s.config.IntervalSeconds),
		logger.Int("batch_size", s.config.BatchSize))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(time.Duration(s.config.IntervalSeconds) * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				s.logger.Info("Summarizer loop stopped")
				return
			case <-ticker.C:
				if err := s.ProcessNextBatch(); err != nil {
					s.logger.Error("Error processing summary batch", logger.Error(err))
				}
			}
		}
	}()
}

// Stop stops the batch loop and waits for it to exit.
func (s *Summarizer) Stop() {
	s.cancel()
	s.wg.Wait()
}

// ProcessNextBatch summarizes the next batch of records lacking a summary.
// Per-record failures are logged and skipped; the record stays eligible for
// the next batch.
func (s *Summarizer) ProcessNextBatch() error {
	records, err := s.store.GetCallsMissingSummary(s.config.BatchSize)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	s.logger.Debug("Summarizing batch", logger.Int("count", len(records)))

	for _, record := range records {
		summary, err := s.summarizeWithRetry(record.Transcript)
		if err != nil {
			s.logger.Error("Failed to summarize call",
				logger.String("call_id", record.CallID),
				logger.Error(err))
			continue
		}

		if err := s.store.UpdateCallSummary(record.ID, summary); err != nil {
			s.logger.Error("Failed to store call summary",
				logger.String("call_id", record.CallID),
				logger.Error(err))
		}
	}

	return nil
}

// summarizeWithRetry calls the summarization client with exponential backoff.
func (s *Summarizer) summarizeWithRetry(transcript string) (string, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Duration(s.config.RetryInitialBackoffMs) * time.Millisecond
	policy.MaxInterval = time.Duration(s.config.RetryMaxBackoffMs) * time.Millisecond

	maxRetries := uint64(0)
	if s.config.RetryMaxAttempts > 1 {
		maxRetries = uint64(s.config.RetryMaxAttempts - 1)
	}

	return backoff.RetryWithData(func() (string, error) {
		return s.client.Summarize(s.ctx, transcript)
	}, backoff.WithContext(backoff.WithMaxRetries(policy, maxRetries), s.ctx))
}
