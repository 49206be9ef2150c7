package middleware

import (
	"net/http"

	"github.com/gorilla/handlers"
)

type CORSMiddleware struct {
	handle func(http.Handler) http.Handler
}

// NewCORSMiddleware allows the given origins; none means any origin
func NewCORSMiddleware(allowedOrigins ...string) *CORSMiddleware {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return &CORSMiddleware{
		handle: handlers.CORS(
			handlers.AllowedOrigins(allowedOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		),
	}
}

func (m *CORSMiddleware) Handle(next http.Handler) http.Handler {
	return m.handle(next)
}
