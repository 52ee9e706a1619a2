package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mangalakulal105/benchtrack/internal/application/dto"
	"github.com/mangalakulal105/benchtrack/internal/application/usecase"
	"github.com/mangalakulal105/benchtrack/internal/interfaces/http/middleware"
	"github.com/mangalakulal105/benchtrack/pkg/logger"
)

// RunsAPIHandler serves run ingestion and run listing
type RunsAPIHandler struct {
	ingestRunUC     *usecase.IngestRunUseCase
	listRunsUC      *usecase.ListRunsUseCase
	authConfig      middleware.AuthConfig
	logger          *logger.Logger
	maxPayloadBytes int64
	allowBackfill   bool
	rateLimiter     *fixedWindowRateLimiter
}

type ingestRunRequest struct {
	Suite    string               `json:"suite"`
	Tool     string               `json:"tool"`
	Date     int64                `json:"date"`
	Commit   dto.CommitDTO        `json:"commit"`
	Benches  []dto.MeasurementDTO `json:"benches"`
	Backfill bool                 `json:"backfill,omitempty"`
}

type ingestRunResponse struct {
	ID         string `json:"id"`
	Suite      string `json:"suite"`
	CommitID   string `json:"commit_id"`
	RecordedAt int64  `json:"recorded_at"`
	Benches    int    `json:"benches"`
}

func NewRunsAPIHandler(
	ingestRunUC *usecase.IngestRunUseCase,
	listRunsUC *usecase.ListRunsUseCase,
	authConfig middleware.AuthConfig,
	maxPayloadBytes int64,
	rateLimitPerMinute int,
	allowBackfill bool,
	log *logger.Logger,
) *RunsAPIHandler {
	if maxPayloadBytes <= 0 {
		maxPayloadBytes = 5 * 1024 * 1024
	}
	if rateLimitPerMinute <= 0 {
		rateLimitPerMinute = 60
	}

	return &RunsAPIHandler{
		ingestRunUC:     ingestRunUC,
		listRunsUC:      listRunsUC,
		authConfig:      authConfig,
		logger:          log,
		maxPayloadBytes: maxPayloadBytes,
		allowBackfill:   allowBackfill,
		rateLimiter:     newFixedWindowRateLimiter(rateLimitPerMinute, time.Minute),
	}
}

// HandleRuns dispatches on method: POST ingests a run, GET lists runs
func (h *RunsAPIHandler) HandleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.ingestRun(w, r)
	case http.MethodGet:
		h.listRuns(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *RunsAPIHandler) ingestRun(w http.ResponseWriter, r *http.Request) {
	if err := middleware.ValidateRequestAuth(r, h.authConfig); err != nil {
		w.Header().Set("WWW-Authenticate", `Bearer realm="benchtrack"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	clientIP := extractClientIP(r)
	if !h.rateLimiter.Allow(clientIP) {
		http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxPayloadBytes)
	defer r.Body.Close()

	var req ingestRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if strings.Contains(err.Error(), "http: request body too large") {
			http.Error(w, "Payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Date <= 0 {
		http.Error(w, "Missing or invalid capture date", http.StatusBadRequest)
		return
	}

	run, err := h.ingestRunUC.Execute(r.Context(), usecase.IngestRunCommand{
		Suite:    req.Suite,
		Tool:     req.Tool,
		Date:     time.UnixMilli(req.Date).UTC(),
		Commit:   req.Commit,
		Benches:  req.Benches,
		Backfill: req.Backfill && h.allowBackfill,
	})
	if err != nil {
		h.writeIngestError(w, r, req, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, ingestRunResponse{
		ID:         run.ID(),
		Suite:      run.Suite().String(),
		CommitID:   run.Commit().ID(),
		RecordedAt: run.DateMillis(),
		Benches:    len(run.Measurements()),
	})
}

func (h *RunsAPIHandler) writeIngestError(w http.ResponseWriter, r *http.Request, req ingestRunRequest, err error) {
	if errors.Is(err, usecase.ErrDuplicateRun) || errors.Is(err, usecase.ErrOutOfOrder) {
		h.logger.Warn("Run rejected",
			"suite", req.Suite,
			"commit", req.Commit.ID,
			"reason", err.Error(),
		)
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	h.logger.Error("Failed to ingest run", err,
		"suite", req.Suite,
		"commit", req.Commit.ID,
		"benches", len(req.Benches),
	)

	statusCode := http.StatusBadRequest
	if strings.Contains(err.Error(), "failed to save") ||
		strings.Contains(err.Error(), "failed to check") ||
		strings.Contains(err.Error(), "failed to load") {
		statusCode = http.StatusInternalServerError
	}
	http.Error(w, err.Error(), statusCode)
}

func (h *RunsAPIHandler) listRuns(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	suite := strings.TrimSpace(query.Get("suite"))
	if suite == "" {
		http.Error(w, "Missing required parameter: suite", http.StatusBadRequest)
		return
	}

	limit := 0
	if rawLimit := query.Get("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	from, err := parseEpochMillis(query.Get("from"))
	if err != nil {
		http.Error(w, "Invalid from timestamp", http.StatusBadRequest)
		return
	}
	to, err := parseEpochMillis(query.Get("to"))
	if err != nil {
		http.Error(w, "Invalid to timestamp", http.StatusBadRequest)
		return
	}

	result, err := h.listRunsUC.Execute(r.Context(), usecase.ListRunsQuery{
		Suite:  suite,
		Limit:  limit,
		Cursor: strings.TrimSpace(query.Get("cursor")),
		From:   from,
		To:     to,
	})
	if err != nil {
		if strings.Contains(err.Error(), "invalid suite") || strings.Contains(err.Error(), "cursor") {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("Failed to list runs", err, "suite", suite)
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

func parseEpochMillis(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, nil
	}

	millis, err := strconv.ParseInt(value, 10, 64)
	if err != nil || millis < 0 {
		return time.Time{}, fmt.Errorf("invalid epoch milliseconds")
	}

	return time.UnixMilli(millis).UTC(), nil
}

func extractClientIP(r *http.Request) string {
	xForwardedFor := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if xForwardedFor != "" {
		parts := strings.Split(xForwardedFor, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

type fixedWindowRateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	entries map[string]*rateLimitEntry
}

type rateLimitEntry struct {
	windowStart time.Time
	count       int
}

func newFixedWindowRateLimiter(limit int, window time.Duration) *fixedWindowRateLimiter {
	return &fixedWindowRateLimiter{
		limit:   limit,
		window:  window,
		entries: make(map[string]*rateLimitEntry),
	}
}

func (rl *fixedWindowRateLimiter) Allow(key string) bool {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.entries[key]
	if !ok || now.Sub(entry.windowStart) >= rl.window {
		rl.entries[key] = &rateLimitEntry{windowStart: now, count: 1}
		return true
	}

	if entry.count >= rl.limit {
		return false
	}

	entry.count++
	return true
}
