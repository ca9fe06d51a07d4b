package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/crewplane/crewplane/pkg/authz"
	"github.com/crewplane/crewplane/pkg/contextkeys"
	"github.com/crewplane/crewplane/pkg/httputil"
	"github.com/crewplane/crewplane/pkg/registry"
)

// RequireFeature creates middleware that checks the actor's effective
// permission for a module feature before the handler runs. Denials return
// 403 with the denial detail; unavailable authorization data returns 503.
func RequireFeature(engine *authz.Engine, m registry.Module, f registry.Feature) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := GetActor(r)
			if actor == nil {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}

			decision, err := engine.CheckFeature(r.Context(), actor, m, f)
			if err != nil {
				if errors.Is(err, authz.ErrDataUnavailable) {
					httputil.WriteServiceUnavailable(w, "authorization data unavailable")
					return
				}
				httputil.WriteInternalError(w, err)
				return
			}
			if !decision.Allowed {
				writeDenial(w, decision.Denial)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WithAccessFilter computes the actor's entity access filter for a module's
// list surface and stores it on the request context for the handler to apply
// to its queries.
func WithAccessFilter(engine *authz.Engine, m registry.Module, teamFeature, allFeature registry.Feature) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := GetActor(r)
			if actor == nil {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}

			filter, err := engine.BuildEntityAccessFilter(r.Context(), actor, m, teamFeature, allFeature)
			if err != nil {
				if errors.Is(err, authz.ErrDataUnavailable) {
					httputil.WriteServiceUnavailable(w, "authorization data unavailable")
					return
				}
				httputil.WriteInternalError(w, err)
				return
			}

			ctx := contextkeys.WithValue(r.Context(), contextkeys.AccessFilterKey, filter)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAccessFilter extracts the entity access filter from the request context.
func GetAccessFilter(r *http.Request) (authz.AccessFilter, bool) {
	filter, ok := r.Context().Value(contextkeys.AccessFilterKey).(authz.AccessFilter)
	return filter, ok
}

func writeDenial(w http.ResponseWriter, d *authz.Denial) {
	details := map[string]string{}
	if d != nil {
		details["module"] = string(d.Module)
		if d.Feature != "" {
			details["feature"] = string(d.Feature)
		}
		details["tier"] = string(d.Tier)
		if d.PlanExpired {
			details["plan_expired"] = strconv.FormatBool(true)
		}
	}
	httputil.WriteDetailedError(w, http.StatusForbidden, "insufficient permissions", details)
}
