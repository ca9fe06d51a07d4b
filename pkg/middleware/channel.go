package middleware

import (
	"errors"
	"net/http"

	"github.com/crewplane/crewplane/pkg/authz"
	"github.com/crewplane/crewplane/pkg/httputil"
	"github.com/crewplane/crewplane/pkg/roles"
	"github.com/crewplane/crewplane/pkg/users"
)

// ClientChannelHeader identifies which client surface made the request.
// Recognized values are "mobile" and "web"; anything else is treated as web.
const ClientChannelHeader = "X-Client-Channel"

// ChannelGate creates middleware that enforces per-channel access: a user's
// personal override wins, otherwise the defaults from their custom role
// apply, otherwise access is granted.
func ChannelGate(roleStore authz.RoleStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := GetActor(r)
			if actor == nil {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}

			defaults := users.ChannelDefaults{Mobile: true, Web: true}
			if actor.CustomRoleID != nil {
				role, err := roleStore.GetRole(r.Context(), *actor.CustomRoleID)
				switch {
				case errors.Is(err, roles.ErrNotFound):
					// Dangling role reference, keep the open defaults.
				case err != nil:
					httputil.WriteServiceUnavailable(w, "authorization data unavailable")
					return
				default:
					defaults = users.ChannelDefaults{Mobile: role.MobileAccess, Web: role.WebAccess}
				}
			}

			allowed := actor.WebAccess(defaults)
			if r.Header.Get(ClientChannelHeader) == "mobile" {
				allowed = actor.MobileAccess(defaults)
			}
			if !allowed {
				httputil.WriteForbidden(w, "channel access disabled")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
