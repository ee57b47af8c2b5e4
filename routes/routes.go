package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/rafiabim35-star/web-topup-robekcviip/config"
	"github.com/rafiabim35-star/web-topup-robekcviip/controllers"
	"github.com/rafiabim35-star/web-topup-robekcviip/middleware"
	"github.com/rafiabim35-star/web-topup-robekcviip/session"
	"github.com/rafiabim35-star/web-topup-robekcviip/utils"
)

// Deps carries everything handlers need; nothing lives in package globals so
// tests can wire their own store and database.
type Deps struct {
	DB       *gorm.DB
	Sessions session.Store
	Codec    *session.CookieCodec
	Cfg      config.Config
}

func InitRouter(d Deps) *mux.Router {
	r := mux.NewRouter()

	// Health check endpoint for Docker health checks
	r.Handle("/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
			"service":   "web-topup",
		})
	})).Methods(http.MethodGet)

	// CORS - origins from CORS_ALLOWED_ORIGINS (comma-separated) or localhost defaults
	origins := []string{"http://localhost:3000", "http://localhost:8080", "http://127.0.0.1:3000", "http://127.0.0.1:8080"}
	if env := os.Getenv("CORS_ALLOWED_ORIGINS"); env != "" {
		for _, p := range strings.Split(env, ",") {
			if o := strings.TrimSpace(p); o != "" {
				origins = append(origins, o)
			}
		}
	}
	r.Use(func(next http.Handler) http.Handler {
		return handlers.CORS(
			handlers.AllowedOrigins(origins),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Content-Type", "X-Requested-With", "X-Request-ID"}),
			handlers.AllowCredentials(),
		)(next)
	})

	api := r.PathPrefix("/api").Subrouter()

	orderController := controllers.NewOrderController(d.DB)

	// Rate limiter for the mock webhook: 500/ip sliding window, whitelist via env
	webhookLimiter := middleware.NewWebhookLimiter(500, time.Hour, strings.Split(os.Getenv("WEBHOOK_IP_WHITELIST"), ","))

	api.Handle("/topup", http.HandlerFunc(orderController.Topup)).Methods(http.MethodPost)
	api.Handle("/webhook/mock-pay", webhookLimiter.Middleware(http.HandlerFunc(orderController.MockPay))).Methods(http.MethodPost)

	SetAdminRoutes(api, d)

	// Presentation pages. Out of the core's scope; served from web/ when present.
	webDir := getWebDir()
	r.HandleFunc("/", servePage(webDir, "index.html")).Methods(http.MethodGet)
	r.HandleFunc("/success", servePage(webDir, "success.html")).Methods(http.MethodGet)
	r.HandleFunc("/admin", servePage(webDir, "admin.html")).Methods(http.MethodGet)

	return r
}

func getWebDir() string {
	if v := os.Getenv("WEB_DIR"); v != "" {
		return v
	}
	return "web"
}

func servePage(dir, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, path)
	}
}
