package http

import (
	"io/fs"
	"net/http"

	"github.com/mangalakulal105/benchtrack/internal/interfaces/http/handler"
	"github.com/mangalakulal105/benchtrack/internal/interfaces/http/middleware"
	"github.com/mangalakulal105/benchtrack/pkg/config"
	"github.com/mangalakulal105/benchtrack/pkg/logger"
)

// Router wires the application routes
type Router struct {
	mux                *http.ServeMux
	dashboardHandler   *handler.DashboardHandler
	websocketHandler   *handler.WebSocketHandler
	runsAPIHandler     *handler.RunsAPIHandler
	historyAPIHandler  *handler.HistoryAPIHandler
	documentAPIHandler *handler.DocumentAPIHandler
	authAPIHandler     *handler.AuthAPIHandler
	security           config.SecurityConfig
	logger             *logger.Logger
}

func NewRouter(
	dashboardHandler *handler.DashboardHandler,
	websocketHandler *handler.WebSocketHandler,
	runsAPIHandler *handler.RunsAPIHandler,
	historyAPIHandler *handler.HistoryAPIHandler,
	documentAPIHandler *handler.DocumentAPIHandler,
	authAPIHandler *handler.AuthAPIHandler,
	security config.SecurityConfig,
	logger *logger.Logger,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		dashboardHandler:   dashboardHandler,
		websocketHandler:   websocketHandler,
		runsAPIHandler:     runsAPIHandler,
		historyAPIHandler:  historyAPIHandler,
		documentAPIHandler: documentAPIHandler,
		authAPIHandler:     authAPIHandler,
		security:           security,
		logger:             logger,
	}
}

// Setup registers all routes and returns the root handler
func (rt *Router) Setup() http.Handler {
	// Static assets are embedded into the binary.
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic("failed to initialize embedded static assets: " + err.Error())
	}
	rt.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	// Health endpoints are intentionally unauthenticated for probes.
	rt.mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	rt.mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	authMiddleware := middleware.Auth(middleware.AuthConfig{
		Enabled:     rt.security.AuthEnabled,
		BearerToken: rt.security.AuthToken,
	}, rt.logger)

	// Dashboard
	rt.mux.Handle("/", authMiddleware(http.HandlerFunc(rt.dashboardHandler.ShowDashboard)))

	// WebSocket
	rt.mux.Handle("/ws", authMiddleware(http.HandlerFunc(rt.websocketHandler.HandleConnection)))

	// API endpoints
	rt.mux.HandleFunc("/api/v1/auth/login", rt.authAPIHandler.Login)
	rt.mux.HandleFunc("/api/v1/auth/logout", rt.authAPIHandler.Logout)
	rt.mux.HandleFunc("/api/v1/auth/status", rt.authAPIHandler.Status)

	// Ingestion authenticates per-request inside the handler so CI
	// tokens and cookies are both accepted.
	rt.mux.HandleFunc("/api/v1/runs", rt.runsAPIHandler.HandleRuns)

	rt.mux.Handle("/api/v1/suites/history", authMiddleware(http.HandlerFunc(rt.historyAPIHandler.GetSuiteHistory)))
	rt.mux.Handle("/api/v1/suites/latest", authMiddleware(http.HandlerFunc(rt.historyAPIHandler.GetLatestRuns)))

	rt.mux.Handle("/api/v1/document", authMiddleware(http.HandlerFunc(rt.documentAPIHandler.GetDocument)))
	rt.mux.Handle("/api/v1/document.js", authMiddleware(http.HandlerFunc(rt.documentAPIHandler.GetDocumentScript)))
	rt.mux.HandleFunc("/api/v1/document/publish", rt.documentAPIHandler.PublishDocument)

	var root http.Handler = rt.mux
	if rt.security.RateLimitRPS > 0 {
		limiter := middleware.NewIPRateLimiter(rt.security.RateLimitRPS, rt.security.RateLimitBurst)
		root = middleware.RateLimit(limiter)(root)
	}
	root = middleware.Compression(root)
	root = middleware.Logger(rt.logger)(root)
	root = middleware.Recovery(rt.logger)(root)

	return root
}
