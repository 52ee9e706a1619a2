package handler

import (
	"net/http"
	"strings"

	"github.com/mangalakulal105/benchtrack/internal/application/usecase"
	"github.com/mangalakulal105/benchtrack/internal/interfaces/http/middleware"
	"github.com/mangalakulal105/benchtrack/pkg/logger"
)

// DocumentAPIHandler serves the rendered history document and its
// publication to object storage
type DocumentAPIHandler struct {
	publishHistoryUC *usecase.PublishHistoryUseCase
	authConfig       middleware.AuthConfig
	logger           *logger.Logger
}

func NewDocumentAPIHandler(
	publishHistoryUC *usecase.PublishHistoryUseCase,
	authConfig middleware.AuthConfig,
	logger *logger.Logger,
) *DocumentAPIHandler {
	return &DocumentAPIHandler{
		publishHistoryUC: publishHistoryUC,
		authConfig:       authConfig,
		logger:           logger,
	}
}

// GetDocument returns the current history document as JSON
func (h *DocumentAPIHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	doc, err := h.publishHistoryUC.Render(r.Context())
	if err != nil {
		h.logger.Error("Failed to render history document", err)
		http.Error(w, "Failed to render document", http.StatusInternalServerError)
		return
	}

	payload, err := doc.MarshalStable()
	if err != nil {
		h.logger.Error("Failed to marshal history document", err)
		http.Error(w, "Failed to render document", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(payload)
}

// GetDocumentScript returns the script variant consumed by the static
// dashboard page (window.BENCHMARK_DATA assignment)
func (h *DocumentAPIHandler) GetDocumentScript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	doc, err := h.publishHistoryUC.Render(r.Context())
	if err != nil {
		h.logger.Error("Failed to render history document", err)
		http.Error(w, "Failed to render document", http.StatusInternalServerError)
		return
	}

	payload, err := doc.MarshalJS()
	if err != nil {
		h.logger.Error("Failed to marshal script document", err)
		http.Error(w, "Failed to render document", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/javascript")
	_, _ = w.Write(payload)
}

// PublishDocument renders and uploads the history document to object
// storage on demand
func (h *DocumentAPIHandler) PublishDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := middleware.ValidateRequestAuth(r, h.authConfig); err != nil {
		w.Header().Set("WWW-Authenticate", `Bearer realm="benchtrack"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	result, err := h.publishHistoryUC.Execute(r.Context())
	if err != nil {
		if strings.Contains(err.Error(), "not configured") {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		h.logger.Error("Failed to publish history document", err)
		http.Error(w, "Failed to publish document", http.StatusInternalServerError)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}
