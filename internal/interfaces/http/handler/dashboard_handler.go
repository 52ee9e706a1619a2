package handler

import (
	"net/http"

	"github.com/mangalakulal105/benchtrack/internal/application/usecase"
	"github.com/mangalakulal105/benchtrack/internal/interfaces/view"
	"github.com/mangalakulal105/benchtrack/pkg/logger"
)

// DashboardHandler serves the benchmark dashboard page
type DashboardHandler struct {
	getLatestRunsUC *usecase.GetLatestRunsUseCase
	logger          *logger.Logger
}

func NewDashboardHandler(
	getLatestRunsUC *usecase.GetLatestRunsUseCase,
	logger *logger.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		getLatestRunsUC: getLatestRunsUC,
		logger:          logger,
	}
}

// ShowDashboard renders the dashboard landing page with the newest run
// of every suite
func (h *DashboardHandler) ShowDashboard(w http.ResponseWriter, r *http.Request) {
	latest, err := h.getLatestRunsUC.Execute(r.Context())
	if err != nil {
		h.logger.Error("Failed to get latest runs", err)
		http.Error(w, "Failed to load benchmark data", http.StatusInternalServerError)
		return
	}

	if err := view.Dashboard(latest).Render(r.Context(), w); err != nil {
		h.logger.Error("Failed to render dashboard", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
}
