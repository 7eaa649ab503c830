package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/triagelab/crisisline/internal/auth"
	"github.com/triagelab/crisisline/internal/classifier"
	"github.com/triagelab/crisisline/internal/config"
	"github.com/triagelab/crisisline/internal/ingest"
	"github.com/triagelab/crisisline/internal/providers"
	"github.com/triagelab/crisisline/internal/query"
	"github.com/triagelab/crisisline/pkg/logger"
)

// maxWebhookBody caps webhook payload reads. Transcripts are large but not
// unbounded.
const maxWebhookBody = 10 << 20 // 10 MiB

// Handler holds the HTTP handlers for all endpoints.
type Handler struct {
	ingest *ingest.Service
	query  *query.Service
	auth   *auth.Service
	config *config.Config
	logger *logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(ingestService *ingest.Service, queryService *query.Service, authService *auth.Service, cfg *config.Config, logger *logger.Logger) *Handler {
	return &Handler{
		ingest: ingestService,
		query:  queryService,
		auth:   authService,
		config: cfg,
		logger: logger.Named("api-handler"),
	}
}

// HandleWebhook processes a webhook delivery from the voice-agent platform.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	record, err := h.ingest.ProcessEvent(body)
	if err != nil {
		if errors.Is(err, classifier.ErrMissingCall) {
			respondError(w, http.StatusBadRequest, "Invalid data: Missing 'call' object")
			return
		}
		h.logger.Error("Failed to store call data", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	// Ignored events get an empty 200 so the platform doesn't redeliver.
	if record == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	respondOK(w, record, "Call data stored successfully")
}

// GetCalls serves the filtered, paginated calls listing with aggregate counts.
func (h *Handler) GetCalls(w http.ResponseWriter, r *http.Request) {
	params := query.ParseParams(r.URL.Query())

	result, err := h.query.GetCalls(params)
	if err != nil {
		h.logger.Error("Failed to fetch calls", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch calls")
		return
	}

	respondOK(w, result, "Calls fetched successfully")
}

// GetCallStats serves dashboard statistics for a trailing time window.
func (h *Handler) GetCallStats(w http.ResponseWriter, r *http.Request) {
	days := query.DefaultStatsDays
	if v, err := strconv.Atoi(r.URL.Query().Get("timeRange")); err == nil && v > 0 {
		days = v
	}

	stats, err := h.query.GetStats(days)
	if err != nil {
		h.logger.Error("Failed to fetch call statistics", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch call statistics")
		return
	}

	respondOK(w, stats, "Call statistics fetched successfully")
}

// GetProviders serves the provider directory grouped by niche.
func (h *Handler) GetProviders(w http.ResponseWriter, r *http.Request) {
	respondOK(w, providers.Directory(), "Providers fetched successfully")
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login checks the admin credentials and sets the session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		h.logger.Error("Login failed", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.config.Auth.SecureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(h.auth.TokenTTL() / time.Second),
	})

	respondOK(w, map[string]any{
		"user":        map[string]string{"username": req.Username},
		"accessToken": token,
	}, "User logged in successfully")
}

// Logout clears the session cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.config.Auth.SecureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})

	respondOK(w, map[string]any{}, "User logged out successfully")
}

// GetHealth is a liveness check.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, map[string]string{"status": "ok"}, "OK")
}
