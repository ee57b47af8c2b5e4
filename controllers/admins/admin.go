package admins

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/rafiabim35-star/web-topup-robekcviip/middleware"
	"github.com/rafiabim35-star/web-topup-robekcviip/models"
	"github.com/rafiabim35-star/web-topup-robekcviip/session"
	"github.com/rafiabim35-star/web-topup-robekcviip/utils"
)

// Controller bundles everything the admin surface needs. The session store is
// passed in explicitly rather than living in package state.
type Controller struct {
	db         *gorm.DB
	sessions   session.Store
	codec      *session.CookieCodec
	sessionTTL time.Duration
	bcryptCost int
	production bool
}

func New(db *gorm.DB, sessions session.Store, codec *session.CookieCodec, sessionTTL time.Duration, bcryptCost int, production bool) *Controller {
	return &Controller{
		db:         db,
		sessions:   sessions,
		codec:      codec,
		sessionTTL: sessionTTL,
		bcryptCost: bcryptCost,
		production: production,
	}
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /api/admin/login and sets the session cookie on success.
// Credential failures are indistinguishable to the client.
func (c *Controller) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		return
	}

	if locked, retry := middleware.IsLoginLocked(req.Username); locked {
		w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(retry)))
		utils.WriteError(w, http.StatusTooManyRequests, utils.ReasonTooManyRequests)
		return
	}

	admin, err := models.GetAdminByUsername(c.db, req.Username)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			middleware.RecordFailedLogin(req.Username)
			utils.WriteError(w, http.StatusUnauthorized, utils.ReasonBadCredentials)
			return
		}
		log.Printf("[admin] login lookup failed: %v", err)
		utils.WriteError(w, http.StatusInternalServerError, utils.ReasonStorage)
		return
	}

	if !admin.ValidatePassword(req.Password) {
		middleware.RecordFailedLogin(req.Username)
		utils.WriteError(w, http.StatusUnauthorized, utils.ReasonBadCredentials)
		return
	}
	middleware.ResetFailedLogin(req.Username)

	expiresAt := time.Now().Add(c.sessionTTL)
	id, err := c.sessions.Create(r.Context(), session.Session{
		AdminID:   admin.ID,
		Username:  admin.Username,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		log.Printf("[admin] session create failed: %v", err)
		utils.WriteError(w, http.StatusInternalServerError, utils.ReasonStorage)
		return
	}
	signed, err := c.codec.Sign(id, expiresAt)
	if err != nil {
		log.Printf("[admin] session sign failed: %v", err)
		utils.WriteError(w, http.StatusInternalServerError, utils.ReasonStorage)
		return
	}
	session.SetCookie(w, signed, expiresAt, c.production)

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ok":          true,
		"must_rotate": admin.MustRotate,
	})
}

// Logout handles POST /api/admin/logout. Idempotent: succeeds with or without
// a live session.
func (c *Controller) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		if id, err := c.codec.Verify(cookie.Value); err == nil {
			_ = c.sessions.Delete(r.Context(), id)
		}
	}
	session.ClearCookie(w, c.production)
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// Orders handles GET /api/admin/orders: newest orders, capped.
func (c *Controller) Orders(w http.ResponseWriter, r *http.Request) {
	orders, err := models.ListRecentOrders(c.db, models.ListOrdersLimit)
	if err != nil {
		log.Printf("[admin] list orders failed: %v", err)
		utils.WriteError(w, http.StatusInternalServerError, utils.ReasonStorage)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

type PasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// Password handles PUT /api/admin/password: rotates the password and clears
// the must_rotate flag set on the seeded account.
func (c *Controller) Password(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, utils.ReasonUnauthorized)
		return
	}

	var req PasswordRequest
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		return
	}
	if len(req.NewPassword) < 6 {
		utils.WriteError(w, http.StatusBadRequest, utils.ReasonWeakPassword)
		return
	}

	var admin models.Admin
	if err := c.db.First(&admin, sess.AdminID).Error; err != nil {
		utils.WriteError(w, http.StatusUnauthorized, utils.ReasonUnauthorized)
		return
	}
	if !admin.ValidatePassword(req.CurrentPassword) {
		utils.WriteError(w, http.StatusUnauthorized, utils.ReasonBadCredentials)
		return
	}

	if err := models.UpdateAdminPassword(c.db, admin.ID, req.NewPassword, c.bcryptCost); err != nil {
		log.Printf("[admin] password update failed: %v", err)
		utils.WriteError(w, http.StatusInternalServerError, utils.ReasonStorage)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

func retrySeconds(d time.Duration) int {
	s := int(d.Seconds())
	if s < 1 {
		s = 1
	}
	return s
}
