package handlers

import (
	"net/http"

	"github.com/mailsmithapp/mailsmith/internal/auth"
	"github.com/mailsmithapp/mailsmith/internal/logging"
	"github.com/mailsmithapp/mailsmith/internal/observability"
)

// RequireUser authenticates the bearer token and stores the user id in the
// request context. The request logger gains a user_id attribute.
func (h *Handlers) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.BearerToken(r)
		if !ok {
			observability.CountOutcome(r.Context(), "auth.bearer", "missing")
			writeJSON(w, r, http.StatusUnauthorized, errorResponse{Message: "Authentication required"})
			return
		}

		userID, err := h.verifier.Verify(token)
		if err != nil {
			observability.CountOutcome(r.Context(), "auth.bearer", "rejected")
			h.writeError(w, r, err)
			return
		}

		ctx := auth.WithUserID(r.Context(), userID)
		ctx = logging.With(ctx, "user_id", userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userID returns the authenticated user. Only valid behind RequireUser.
func userID(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}
