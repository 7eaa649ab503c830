package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/triagelab/crisisline/pkg/logger"
)

// sortColumns whitelists dashboard sort keys against actual columns.
var sortColumns = map[string]string{
	"createdAt":      "created_at",
	"updatedAt":      "updated_at",
	"duration_ms":    "duration_ms",
	"agent_name":     "agent_name",
	"call_status":    "call_status",
	"provider_name":  "provider_name",
	"niche":          "niche",
	"user_sentiment": "user_sentiment",
}

const callColumns = `id, call_id, agent_id, agent_name, call_status, duration_ms, transcript,
	phone_number, recording_url, disconnection_reason, call_summary, user_sentiment,
	call_successful, from_number, to_number, direction, provider_name, niche,
	created_at, updated_at`

// CallStorage handles persistence of call records.
type CallStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewCallStorage creates a new SQLite call storage and initializes its schema.
func NewCallStorage(db *sql.DB, logger *logger.Logger) (*CallStorage, error) {
	storage := &CallStorage{
		db:     db,
		logger: logger.Named("sqlite-calls"),
	}

	if err := storage.initDB(); err != nil {
		return nil, err
	}

	return storage, nil
}

// initDB initializes the database tables.
func (s *CallStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS calls (
			id TEXT PRIMARY KEY,
			call_id TEXT NOT NULL,
			agent_id TEXT NOT NULL DEFAULT '',
			agent_name TEXT NOT NULL DEFAULT '',
			call_status TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL DEFAULT 0,
			transcript TEXT NOT NULL DEFAULT '',
			phone_number TEXT,
			recording_url TEXT NOT NULL DEFAULT '',
			disconnection_reason TEXT NOT NULL DEFAULT '',
			call_summary TEXT NOT NULL DEFAULT '',
			user_sentiment TEXT,
			call_successful INTEGER,
			from_number TEXT NOT NULL,
			to_number TEXT NOT NULL,
			direction TEXT NOT NULL DEFAULT '',
			provider_name TEXT NOT NULL,
			niche TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create calls table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_calls_created_at ON calls(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_calls_provider_name ON calls(provider_name)`,
		`CREATE INDEX IF NOT EXISTS idx_calls_niche ON calls(niche)`,
		`CREATE INDEX IF NOT EXISTS idx_calls_user_sentiment ON calls(user_sentiment)`,
	}
	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create calls index: %w", err)
		}
	}

	return nil
}

// StoreCall inserts a call record. The caller assigns the ID and timestamps.
func (s *CallStorage) StoreCall(record *CallRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO calls (`+callColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.CallID,
		record.AgentID,
		record.AgentName,
		record.CallStatus,
		record.DurationMs,
		record.Transcript,
		nullString(record.PhoneNumber),
		record.RecordingURL,
		record.DisconnectionReason,
		record.CallSummary,
		nullString(record.UserSentiment),
		nullBool(record.CallSuccessful),
		record.FromNumber,
		record.ToNumber,
		record.Direction,
		record.ProviderName,
		record.Niche,
		record.CreatedAt.UTC().Format(time.RFC3339),
		record.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert call: %w", err)
	}

	return nil
}

// QueryCalls returns all records matching the filter, sorted as requested.
// Pagination and free-text search happen in the query service.
func (s *CallStorage) QueryCalls(filter CallFilter) ([]*CallRecord, error) {
	var (
		conditions []string
		args       []any
	)

	if !filter.Since.IsZero() {
		conditions = append(conditions, `created_at >= ?`)
		args = append(args, filter.Since.UTC().Format(time.RFC3339))
	}
	if filter.Sentiment != "" {
		conditions = append(conditions, `user_sentiment = ?`)
		args = append(args, filter.Sentiment)
	}
	if filter.CallSuccessful != nil {
		conditions = append(conditions, `call_successful = ?`)
		args = append(args, boolToInt(*filter.CallSuccessful))
	}
	if len(filter.ProviderKeywords) > 0 {
		var terms []string
		for _, keyword := range filter.ProviderKeywords {
			terms = append(terms,
				`(lower(provider_name) LIKE '%' || ? || '%' OR lower(niche) LIKE '%' || ? || '%')`)
			lowered := strings.ToLower(keyword)
			args = append(args, lowered, lowered)
		}
		conditions = append(conditions, `(`+strings.Join(terms, ` OR `)+`)`)
	}

	query := `SELECT ` + callColumns + ` FROM calls`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, ` AND `)
	}
	query += ` ORDER BY ` + sortColumn(filter.SortBy) + ` ` + sortDirection(filter.SortOrder)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query calls: %w", err)
	}
	defer rows.Close()

	return s.scanCallRows(rows)
}

// UpdateCallSummary sets the call summary for a record, used by the background
// summarizer. updated_at moves forward; everything else stays put.
func (s *CallStorage) UpdateCallSummary(id, summary string) error {
	_, err := s.db.Exec(
		`UPDATE calls SET call_summary = ?, updated_at = ? WHERE id = ?`,
		summary,
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update call summary: %w", err)
	}

	return nil
}

// GetCallsMissingSummary returns the oldest records that have a transcript but
// no summary yet.
func (s *CallStorage) GetCallsMissingSummary(limit int) ([]*CallRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+callColumns+` FROM calls
		WHERE call_summary = '' AND transcript != ''
		ORDER BY created_at ASC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query calls missing summary: %w", err)
	}
	defer rows.Close()

	return s.scanCallRows(rows)
}

// GetCallStats computes dashboard statistics over records created at or after
// since.
func (s *CallStorage) GetCallStats(since time.Time) (*CallStats, error) {
	cutoff := since.UTC().Format(time.RFC3339)
	stats := &CallStats{
		SentimentStats: []SentimentCount{},
		ProviderStats:  []ProviderCount{},
	}

	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM calls WHERE created_at >= ?`, cutoff,
	).Scan(&stats.TotalCalls)
	if err != nil {
		return nil, fmt.Errorf("failed to count calls: %w", err)
	}

	err = s.db.QueryRow(
		`SELECT COUNT(*) FROM calls WHERE created_at >= ? AND call_successful = 1`, cutoff,
	).Scan(&stats.SuccessfulCalls)
	if err != nil {
		return nil, fmt.Errorf("failed to count successful calls: %w", err)
	}

	sentimentRows, err := s.db.Query(
		`SELECT COALESCE(user_sentiment, ''), COUNT(*) FROM calls
		WHERE created_at >= ?
		GROUP BY user_sentiment`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sentiment stats: %w", err)
	}
	defer sentimentRows.Close()

	for sentimentRows.Next() {
		var row SentimentCount
		if err := sentimentRows.Scan(&row.Sentiment, &row.Count); err != nil {
			return nil, fmt.Errorf("failed to scan sentiment stats: %w", err)
		}
		stats.SentimentStats = append(stats.SentimentStats, row)
	}

	providerRows, err := s.db.Query(
		`SELECT provider_name, COUNT(*) AS n FROM calls
		WHERE created_at >= ?
		GROUP BY provider_name
		ORDER BY n DESC
		LIMIT 10`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query provider stats: %w", err)
	}
	defer providerRows.Close()

	for providerRows.Next() {
		var row ProviderCount
		if err := providerRows.Scan(&row.ProviderName, &row.Count); err != nil {
			return nil, fmt.Errorf("failed to scan provider stats: %w", err)
		}
		stats.ProviderStats = append(stats.ProviderStats, row)
	}

	return stats, nil
}

// scanCallRows scans database rows into CallRecord structs.
func (s *CallStorage) scanCallRows(rows *sql.Rows) ([]*CallRecord, error) {
	var records []*CallRecord
	for rows.Next() {
		var (
			record         CallRecord
			phoneNumber    sql.NullString
			userSentiment  sql.NullString
			callSuccessful sql.NullBool
			createdAt      string
			updatedAt      string
		)

		if err := rows.Scan(
			&record.ID,
			&record.CallID,
			&record.AgentID,
			&record.AgentName,
			&record.CallStatus,
			&record.DurationMs,
			&record.Transcript,
			&phoneNumber,
			&record.RecordingURL,
			&record.DisconnectionReason,
			&record.CallSummary,
			&userSentiment,
			&callSuccessful,
			&record.FromNumber,
			&record.ToNumber,
			&record.Direction,
			&record.ProviderName,
			&record.Niche,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}

		var err error
		record.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		record.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}

		if phoneNumber.Valid {
			record.PhoneNumber = phoneNumber.String
		}
		if userSentiment.Valid {
			record.UserSentiment = userSentiment.String
		}
		if callSuccessful.Valid {
			v := callSuccessful.Bool
			record.CallSuccessful = &v
		}

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate calls: %w", err)
	}

	return records, nil
}

func sortColumn(key string) string {
	if column, ok := sortColumns[key]; ok {
		return column
	}
	return "created_at"
}

func sortDirection(order string) string {
	if strings.EqualFold(order, "asc") {
		return "ASC"
	}
	return "DESC"
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullBool(b *bool) any {
	if b == nil {
		return nil
	}
	return boolToInt(*b)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
