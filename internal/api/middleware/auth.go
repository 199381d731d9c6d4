package middleware

import (
	"context"
	"net/http"
	"strings"

	"jobpilot/internal/common"
	"jobpilot/internal/common/security"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const AgentCtxKey contextKey = "agentName"

// Authenticator enforces a valid bearer token when auth is enabled. With no
// JWT_SECRET configured it is a passthrough.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !security.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		token, claims, err := jwtauth.FromContext(r.Context()) // Extracts token from Authorization header

		if err != nil {
			if strings.Contains(err.Error(), "token not found") || token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
			} else {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
			}
			return
		}

		if token == nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		agentName, err := security.GetAgentFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), AgentCtxKey, agentName)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetAgentFromContext returns the authenticated agent name, if any.
func GetAgentFromContext(ctx context.Context) (string, bool) {
	agent, ok := ctx.Value(AgentCtxKey).(string)
	return agent, ok
}
