// Package query serves the dashboard's filtered, paginated call views and
// aggregate counts.
package query

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/triagelab/crisisline/internal/providers"
	"github.com/triagelab/crisisline/internal/storage/sqlite"
	"github.com/triagelab/crisisline/pkg/logger"
)

// Defaults for pagination and the stats time window.
const (
	DefaultPage      = 1
	DefaultLimit     = 10
	DefaultStatsDays = 7
)

// CallStore is the storage surface the query service needs.
type CallStore interface {
	QueryCalls(filter sqlite.CallFilter) ([]*sqlite.CallRecord, error)
	GetCallStats(since time.Time) (*sqlite.CallStats, error)
}

// Params enumerates every recognized query parameter for the calls listing.
type Params struct {
	Page           int
	Limit          int
	Search         string
	Sentiment      string
	CallSuccessful string // "", "true" or "false"
	SortBy         string
	SortOrder      string
	Days           int
	Provider       string // coarse category key, e.g. "mental"
}

// ParseParams reads listing parameters from a URL query, applying defaults.
// Unparseable numeric values fall back to their defaults.
func ParseParams(values url.Values) Params {
	p := Params{
		Page:           DefaultPage,
		Limit:          DefaultLimit,
		Search:         values.Get("search"),
		Sentiment:      values.Get("sentiment"),
		CallSuccessful: values.Get("call_successful"),
		SortBy:         values.Get("sortBy"),
		SortOrder:      values.Get("sortOrder"),
		Provider:       values.Get("provider"),
	}

	if page, err := strconv.Atoi(values.Get("page")); err == nil && page >= 1 {
		p.Page = page
	}
	if limit, err := strconv.Atoi(values.Get("limit")); err == nil && limit > 0 {
		p.Limit = limit
	}
	if days, err := strconv.Atoi(values.Get("days")); err == nil && days > 0 {
		p.Days = days
	}
	if p.SortBy == "" {
		p.SortBy = "createdAt"
	}
	if p.SortOrder == "" {
		p.SortOrder = "desc"
	}

	return p
}

// Pagination describes the returned page.
type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// Result is the full calls-listing response body.
type Result struct {
	Calls             []*sqlite.CallRecord `json:"calls"`
	Pagination        Pagination           `json:"pagination"`
	CountsPerProvider map[string]int       `json:"countsPerProvider"`
	CountsPerNiche    map[string]int       `json:"countsPerNiche"`
}

// Stats is the dashboard statistics response body.
type Stats struct {
	TotalCalls      int                     `json:"totalCalls"`
	SuccessfulCalls int                     `json:"successfulCalls"`
	SuccessRate     float64                 `json:"successRate"`
	SentimentStats  []sqlite.SentimentCount `json:"sentimentStats"`
	ProviderStats   []sqlite.ProviderCount  `json:"providerStats"`
}

// Service answers dashboard queries over the call store.
type Service struct {
	store  CallStore
	logger *logger.Logger
	now    func() time.Time
}

// NewService creates a new query service.
func NewService(store CallStore, log *logger.Logger) *Service {
	return &Service{
		store:  store,
		logger: log.Named("query"),
		now:    time.Now,
	}
}

// GetCalls returns one page of calls matching the parameters, plus aggregate
// counts per provider and per niche.
//
// The structured filters and sort run in the store; free-text search narrows
// the fetched set in memory afterwards. The aggregate counts deliberately
// cover the pre-search set so the dashboard charts keep their totals while the
// operator types into the search box.
func (s *Service) GetCalls(p Params) (*Result, error) {
	filter := sqlite.CallFilter{
		Sentiment: p.Sentiment,
		SortBy:    p.SortBy,
		SortOrder: p.SortOrder,
	}
	if p.Days > 0 {
		filter.Since = s.now().AddDate(0, 0, -p.Days)
	}
	if p.CallSuccessful != "" {
		successful := p.CallSuccessful == "true"
		filter.CallSuccessful = &successful
	}
	if p.Provider != "" {
		filter.ProviderKeywords = providers.CategoryKeywords(p.Provider)
	}

	records, err := s.store.QueryCalls(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calls: %w", err)
	}

	countsPerProvider := make(map[string]int)
	countsPerNiche := make(map[string]int)
	for _, record := range records {
		countsPerProvider[record.ProviderName]++
		countsPerNiche[record.Niche]++
	}

	if p.Search != "" {
		records = searchCalls(records, p.Search)
	}

	page, limit := p.Page, p.Limit
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	totalItems := len(records)
	totalPages := int(math.Ceil(float64(totalItems) / float64(limit)))

	start := (page - 1) * limit
	if start > totalItems {
		start = totalItems
	}
	end := start + limit
	if end > totalItems {
		end = totalItems
	}

	pageRecords := records[start:end]
	if pageRecords == nil {
		pageRecords = []*sqlite.CallRecord{}
	}

	return &Result{
		Calls: pageRecords,
		Pagination: Pagination{
			CurrentPage:  page,
			TotalPages:   totalPages,
			TotalItems:   totalItems,
			ItemsPerPage: limit,
		},
		CountsPerProvider: countsPerProvider,
		CountsPerNiche:    countsPerNiche,
	}, nil
}

// GetStats returns dashboard statistics for the last timeRangeDays days.
func (s *Service) GetStats(timeRangeDays int) (*Stats, error) {
	if timeRangeDays <= 0 {
		timeRangeDays = DefaultStatsDays
	}

	stats, err := s.store.GetCallStats(s.now().AddDate(0, 0, -timeRangeDays))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch call stats: %w", err)
	}

	var successRate float64
	if stats.TotalCalls > 0 {
		rate := float64(stats.SuccessfulCalls) / float64(stats.TotalCalls) * 100
		successRate = math.Round(rate*10) / 10
	}

	return &Stats{
		TotalCalls:      stats.TotalCalls,
		SuccessfulCalls: stats.SuccessfulCalls,
		SuccessRate:     successRate,
		SentimentStats:  stats.SentimentStats,
		ProviderStats:   stats.ProviderStats,
	}, nil
}

// searchCalls keeps records where any of the searchable fields contains the
// term, case-insensitively.
func searchCalls(records []*sqlite.CallRecord, term string) []*sqlite.CallRecord {
	term = strings.ToLower(term)
	matched := make([]*sqlite.CallRecord, 0, len(records))
	for _, record := range records {
		if matchesSearch(record, term) {
			matched = append(matched, record)
		}
	}
	return matched
}

func matchesSearch(record *sqlite.CallRecord, term string) bool {
	fields := []string{
		record.CallID,
		record.AgentName,
		record.Transcript,
		record.CallSummary,
		record.ProviderName,
		record.Niche,
		record.PhoneNumber,
	}
	for _, field := range fields {
		if field != "" && strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
