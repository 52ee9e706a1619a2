package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/mangalakulal105/benchtrack/pkg/logger"
)

// Recovery converts handler panics into 500 responses instead of killing
// the server
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recovered := recover(); recovered != nil {
					log.Error("Handler panic recovered", fmt.Errorf("%v", recovered),
						"path", r.URL.Path,
						"method", r.Method,
						"stack", string(debug.Stack()),
					)
					http.Error(w, "Internal server error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
