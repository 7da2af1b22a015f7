package handlers

import (
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/gorilla/mux"

	"github.com/mailsmithapp/mailsmith/internal/auth"
	"github.com/mailsmithapp/mailsmith/internal/observability"
)

// MetricsContext adds a request-scoped, pre-attributed meter to the context.
// Behind RequireUser it also tags the user and the shop path variable.
func (h *Handlers) MetricsContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		attrs := []attribute.Builder{
			attribute.String("http.request_id", requestID(r)),
			attribute.String("http.method", r.Method),
			attribute.String("network.client.ip", clientIP(r)),
		}
		if route := routeLabel(r); route != "" {
			attrs = append(attrs, attribute.String("http.route", route))
		}
		if userAgent := strings.TrimSpace(r.UserAgent()); userAgent != "" {
			attrs = append(attrs, attribute.String("http.user_agent", userAgent))
		}
		if userID, ok := auth.UserIDFromContext(ctx); ok {
			attrs = append(attrs, attribute.String("user.id", userID))
		}
		if shop := strings.TrimSpace(mux.Vars(r)["shop"]); shop != "" {
			attrs = append(attrs, attribute.String("shopify.shop", strings.ToLower(shop)))
		}

		meter := sentry.NewMeter(ctx).WithCtx(ctx)
		meter.SetAttributes(attrs...)

		ctx = observability.WithMeter(ctx, meter)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
