package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/mangalakulal105/benchtrack/internal/application/usecase"
	"github.com/mangalakulal105/benchtrack/internal/domain/valueobject"
	"github.com/mangalakulal105/benchtrack/internal/interfaces/http/middleware"
	"github.com/mangalakulal105/benchtrack/pkg/logger"
)

// HistoryAPIHandler serves suite history queries for the dashboard charts
type HistoryAPIHandler struct {
	getSuiteHistoryUC *usecase.GetSuiteHistoryCachedUseCase
	getLatestRunsUC   *usecase.GetLatestRunsUseCase
	maxDuration       time.Duration
	logger            *logger.Logger
}

func NewHistoryAPIHandler(
	getSuiteHistoryUC *usecase.GetSuiteHistoryCachedUseCase,
	getLatestRunsUC *usecase.GetLatestRunsUseCase,
	maxDuration time.Duration,
	logger *logger.Logger,
) *HistoryAPIHandler {
	if maxDuration <= 0 {
		maxDuration = 90 * 24 * time.Hour
	}

	return &HistoryAPIHandler{
		getSuiteHistoryUC: getSuiteHistoryUC,
		getLatestRunsUC:   getLatestRunsUC,
		maxDuration:       maxDuration,
		logger:            logger,
	}
}

// GetSuiteHistory returns a suite's runs over a trailing window with
// per-measurement aggregates
func (h *HistoryAPIHandler) GetSuiteHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	suiteStr := strings.TrimSpace(r.URL.Query().Get("suite"))
	durationStr := strings.TrimSpace(r.URL.Query().Get("duration"))

	if suiteStr == "" || durationStr == "" {
		http.Error(w, "Missing required parameters: suite, duration", http.StatusBadRequest)
		return
	}

	suite, err := valueobject.NewSuiteName(suiteStr)
	if err != nil {
		http.Error(w, "Invalid suite name", http.StatusBadRequest)
		return
	}

	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		http.Error(w, "Invalid duration format", http.StatusBadRequest)
		return
	}
	if duration <= 0 || duration > h.maxDuration {
		http.Error(w, "Duration out of allowed range", http.StatusBadRequest)
		return
	}

	timeRange, err := valueobject.NewTimeRangeFromDuration(duration)
	if err != nil {
		http.Error(w, "Invalid time range", http.StatusBadRequest)
		return
	}

	history, err := h.getSuiteHistoryUC.Execute(r.Context(), suite, timeRange)
	if err != nil {
		h.logger.Error("Failed to get suite history", err, "suite", suite.String())
		http.Error(w, "Failed to fetch history", http.StatusInternalServerError)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, history)
}

// GetLatestRuns returns the newest run per suite
func (h *HistoryAPIHandler) GetLatestRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	latest, err := h.getLatestRunsUC.Execute(r.Context())
	if err != nil {
		h.logger.Error("Failed to get latest runs", err)
		http.Error(w, "Failed to fetch latest runs", http.StatusInternalServerError)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, latest)
}
