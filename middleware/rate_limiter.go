package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/rafiabim35-star/web-topup-robekcviip/utils"
)

// In-memory rate limiting. Intentionally memory-efficient and designed to be
// replaced by Redis later; only the login lockout is Redis-backed today.

type timestamps []int64 // unix nanos

func nowUnix() int64 { return time.Now().UnixNano() }

func getEnvDuration(key string, def time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return time.Duration(v) * time.Second
		}
	}
	return def
}

// IPRateLimiter enforces a per-IP request ceiling over a window, with
// optional trusted-proxy parsing of X-Forwarded-For.
type IPRateLimiter struct {
	window      time.Duration
	maxReq      int
	mu          sync.Mutex
	state       map[string]timestamps
	cleanupTick time.Duration
	trustedCIDR []string
}

func NewIPRateLimiter(maxReq int, window time.Duration) *IPRateLimiter {
	l := &IPRateLimiter{
		window:      window,
		maxReq:      maxReq,
		state:       make(map[string]timestamps),
		cleanupTick: getEnvDuration("RATE_CLEANUP_SECONDS", 60*time.Second),
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		l.trustedCIDR = strings.Split(v, ",")
	}
	go l.cleanupLoop()
	return l
}

// clientIPGeneric returns the client IP string. If trustedCIDR is provided,
// X-Forwarded-For / X-Real-IP headers are honored when remote addr is inside
// one of the trusted CIDRs or IPs.
func clientIPGeneric(r *http.Request, trustedCIDR []string) string {
	remoteHost, _, _ := net.SplitHostPort(r.RemoteAddr)
	remoteIP := net.ParseIP(remoteHost)
	trusted := false
	for _, cidr := range trustedCIDR {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		if strings.Contains(cidr, "/") {
			if _, ipnet, err := net.ParseCIDR(cidr); err == nil {
				if remoteIP != nil && ipnet.Contains(remoteIP) {
					trusted = true
					break
				}
			}
			continue
		}
		if ip := net.ParseIP(cidr); ip != nil && remoteIP != nil && ip.Equal(remoteIP) {
			trusted = true
			break
		}
	}
	if trusted {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			if len(parts) > 0 {
				return strings.TrimSpace(parts[0])
			}
		}
		if xr := r.Header.Get("X-Real-IP"); xr != "" {
			return strings.TrimSpace(xr)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware applies the per-IP limit and sets rate-limit headers.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIPGeneric(r, l.trustedCIDR)
		now := nowUnix()
		windowNs := int64(l.window)

		l.mu.Lock()
		arr := l.state[ip]
		var filtered timestamps
		cutoff := now - windowNs
		for _, ts := range arr {
			if ts >= cutoff {
				filtered = append(filtered, ts)
			}
		}
		filtered = append(filtered, now)
		l.state[ip] = filtered
		count := len(filtered)
		l.mu.Unlock()

		remaining := l.maxReq - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", l.maxReq))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if count > l.maxReq {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfterSeconds(filtered, now, windowNs)))
			utils.WriteError(w, http.StatusTooManyRequests, utils.ReasonTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// retryAfterSeconds derives Retry-After from the oldest request in the window.
func retryAfterSeconds(filtered timestamps, now, windowNs int64) int {
	if len(filtered) == 0 {
		return int(time.Duration(windowNs).Seconds())
	}
	oldest := filtered[0]
	for _, ts := range filtered {
		if ts < oldest {
			oldest = ts
		}
	}
	retryAfterNs := oldest + windowNs - now
	if retryAfterNs <= 0 {
		return 1
	}
	return int(retryAfterNs / 1e9)
}

func (l *IPRateLimiter) cleanupLoop() {
	tick := time.NewTicker(l.cleanupTick)
	defer tick.Stop()
	for range tick.C {
		l.mu.Lock()
		now := nowUnix()
		for k, arr := range l.state {
			cutoff := now - int64(l.window)
			var filtered timestamps
			for _, ts := range arr {
				if ts >= cutoff {
					filtered = append(filtered, ts)
				}
			}
			if len(filtered) == 0 {
				delete(l.state, k)
			} else {
				l.state[k] = filtered
			}
		}
		l.mu.Unlock()
	}
}

// WebhookLimiter: sliding window + whitelist IP for the payment callback.
type WebhookLimiter struct {
	maxReq    int
	window    time.Duration
	whitelist map[string]bool
	mu        sync.Mutex
	state     map[string]timestamps // ip -> timestamps
}

func NewWebhookLimiter(maxReq int, window time.Duration, whitelist []string) *WebhookLimiter {
	wl := make(map[string]bool)
	for _, ip := range whitelist {
		if ip = strings.TrimSpace(ip); ip != "" {
			wl[ip] = true
		}
	}
	return &WebhookLimiter{
		maxReq:    maxReq,
		window:    window,
		whitelist: wl,
		state:     make(map[string]timestamps),
	}
}

func (l *WebhookLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIPGeneric(r, nil)
		if l.whitelist[ip] {
			next.ServeHTTP(w, r)
			return
		}
		now := nowUnix()
		l.mu.Lock()
		arr := l.state[ip]
		cutoff := now - int64(l.window)
		var filtered timestamps
		for _, ts := range arr {
			if ts >= cutoff {
				filtered = append(filtered, ts)
			}
		}
		filtered = append(filtered, now)
		l.state[ip] = filtered
		count := len(filtered)
		l.mu.Unlock()
		if count > l.maxReq {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfterSeconds(filtered, now, int64(l.window))))
			utils.WriteError(w, http.StatusTooManyRequests, utils.ReasonTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Account lockout tracker for failed admin logins. Prefers Redis when
// configured for cross-instance consistency, with an in-memory fallback.
var (
	// LockoutRedis is set from main when REDIS_ADDR is configured.
	LockoutRedis *redis.Client

	loginMu   sync.Mutex
	failedMap = make(map[string]int)   // key = username -> failures
	lockMap   = make(map[string]int64) // key -> lockUntil unix nanos
)

func lockoutDuration(failures int64) time.Duration {
	// progressive lockout: 3 -> 1min, 4 -> 5min, 5 -> 15min, >=6 -> 30min
	switch {
	case failures < 3:
		return 0
	case failures == 3:
		return time.Minute
	case failures == 4:
		return 5 * time.Minute
	case failures == 5:
		return 15 * time.Minute
	default:
		return 30 * time.Minute
	}
}

func IsLoginLocked(username string) (bool, time.Duration) {
	if LockoutRedis != nil {
		ctx := context.Background()
		ttl, err := LockoutRedis.TTL(ctx, "login:lock:"+username).Result()
		if err == nil && ttl > 0 {
			return true, ttl
		}
		return false, 0
	}
	loginMu.Lock()
	defer loginMu.Unlock()
	until := lockMap[username]
	if until == 0 {
		return false, 0
	}
	now := nowUnix()
	if until > now {
		return true, time.Duration(until - now)
	}
	delete(lockMap, username)
	failedMap[username] = 0
	return false, 0
}

func RecordFailedLogin(username string) {
	if LockoutRedis != nil {
		ctx := context.Background()
		failKey := "login:fail:" + username
		failures, err := LockoutRedis.Incr(ctx, failKey).Result()
		if err == nil {
			_ = LockoutRedis.Expire(ctx, failKey, 30*time.Minute).Err()
			if d := lockoutDuration(failures); d > 0 {
				_ = LockoutRedis.Set(ctx, "login:lock:"+username, "1", d).Err()
			}
			return
		}
		// fall through to in-memory on Redis error
	}
	loginMu.Lock()
	defer loginMu.Unlock()
	failedMap[username]++
	if d := lockoutDuration(int64(failedMap[username])); d > 0 {
		lockMap[username] = nowUnix() + int64(d)
	}
}

func ResetFailedLogin(username string) {
	if LockoutRedis != nil {
		ctx := context.Background()
		_ = LockoutRedis.Del(ctx, "login:fail:"+username, "login:lock:"+username).Err()
		return
	}
	loginMu.Lock()
	defer loginMu.Unlock()
	delete(lockMap, username)
	failedMap[username] = 0
}
