package middleware

import (
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/rafiabim35-star/web-topup-robekcviip/models"
	"github.com/rafiabim35-star/web-topup-robekcviip/session"
	"github.com/rafiabim35-star/web-topup-robekcviip/utils"
)

// RequireAdminSession guards admin-only routes. The signed cookie is verified
// first, then the server-side store is consulted; the store is authoritative,
// so logout and expiry take effect immediately.
//
// In production an admin still carrying the seeded default password may only
// reach the password rotation endpoint (and logout) until it is changed.
func RequireAdminSession(store session.Store, codec *session.CookieCodec, db *gorm.DB, production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(session.CookieName)
			if err != nil || cookie.Value == "" {
				utils.WriteError(w, http.StatusUnauthorized, utils.ReasonUnauthorized)
				return
			}

			id, err := codec.Verify(cookie.Value)
			if err != nil {
				utils.WriteError(w, http.StatusUnauthorized, utils.ReasonUnauthorized)
				return
			}

			sess, err := store.Get(r.Context(), id)
			if err != nil {
				utils.WriteError(w, http.StatusUnauthorized, utils.ReasonUnauthorized)
				return
			}

			// The account must still exist; a deleted admin keeps no access.
			var admin models.Admin
			if err := db.First(&admin, sess.AdminID).Error; err != nil {
				utils.WriteError(w, http.StatusUnauthorized, utils.ReasonUnauthorized)
				return
			}

			if production && admin.MustRotate && !strings.HasSuffix(r.URL.Path, "/password") {
				utils.WriteError(w, http.StatusForbidden, utils.ReasonRotationRequired)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), sess)))
		})
	}
}
