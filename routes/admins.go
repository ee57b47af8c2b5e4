package routes

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/rafiabim35-star/web-topup-robekcviip/controllers/admins"
	"github.com/rafiabim35-star/web-topup-robekcviip/middleware"
)

func SetAdminRoutes(api *mux.Router, d Deps) {
	adminController := admins.New(
		d.DB, d.Sessions, d.Codec,
		time.Duration(d.Cfg.SessionTTLMinutes)*time.Minute,
		d.Cfg.BcryptCost,
		d.Cfg.IsProduction(),
	)

	// Rate limiter for admin login: 5 attempts per IP per minute
	adminLoginLimiter := middleware.NewIPRateLimiter(5, time.Minute)

	// Public admin routes. Logout stays outside the session guard so it is
	// idempotent even without a live session.
	api.Handle("/admin/login", adminLoginLimiter.Middleware(http.HandlerFunc(adminController.Login))).Methods(http.MethodPost)
	api.Handle("/admin/logout", http.HandlerFunc(adminController.Logout)).Methods(http.MethodPost)

	// Protected admin routes
	adminRouter := api.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.RequireAdminSession(d.Sessions, d.Codec, d.DB, d.Cfg.IsProduction()))

	adminRouter.Handle("/orders", http.HandlerFunc(adminController.Orders)).Methods(http.MethodGet)
	adminRouter.Handle("/password", http.HandlerFunc(adminController.Password)).Methods(http.MethodPut)
}
