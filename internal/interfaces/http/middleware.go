package httpinterface

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/tdex-network/barter-daemon/internal/core/application/user"
	"github.com/tdex-network/barter-daemon/internal/core/domain"
	"github.com/tdex-network/barter-daemon/pkg/stats"
)

type contextKey string

const userKey contextKey = "user"

// RateLimit allows Requests every Window per client IP.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

func (l RateLimit) enabled() bool {
	return l.Requests > 0 && l.Window > 0
}

// ipRateLimiter keeps a token bucket per client IP. Buckets of clients not
// seen for a while are dropped on the next purge.
type ipRateLimiter struct {
	limit     RateLimit
	lock      *sync.Mutex
	limiters  map[string]*clientLimiter
	lastPurge time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPRateLimiter(limit RateLimit) *ipRateLimiter {
	return &ipRateLimiter{
		limit:     limit,
		lock:      &sync.Mutex{},
		limiters:  make(map[string]*clientLimiter),
		lastPurge: time.Now(),
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.lock.Lock()
	defer l.lock.Unlock()

	now := time.Now()
	if now.Sub(l.lastPurge) > l.limit.Window {
		for k, c := range l.limiters {
			if now.Sub(c.lastSeen) > l.limit.Window {
				delete(l.limiters, k)
			}
		}
		l.lastPurge = now
	}

	c, ok := l.limiters[ip]
	if !ok {
		every := l.limit.Window / time.Duration(l.limit.Requests)
		c = &clientLimiter{
			limiter: rate.NewLimiter(rate.Every(every), l.limit.Requests),
		}
		l.limiters[ip] = c
	}
	c.lastSeen = now
	return c.limiter.Allow()
}

func (l *ipRateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			writeError(w, errTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets websocket upgrades take over the connection of a recorded
// request.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	conn, rw, err := hijacker.Hijack()
	if err == nil {
		r.status = http.StatusSwitchingProtocols
	}
	return conn, rw, err
}

// loggerMiddleware logs every request at debug level and observes its
// latency.
func loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{w, http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		elapsed := time.Since(start)
		stats.HTTPRequests.WithLabelValues(
			r.Method, route, strconv.Itoa(rec.status),
		).Observe(elapsed.Seconds())

		log.Debugf("%s %s %d %s", r.Method, r.URL.Path, rec.status, elapsed)
	})
}

func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Errorf("recovered from panic in %s %s: %v", r.Method, r.URL.Path, rec)
				writeJSON(w, http.StatusInternalServerError, errorResponse{errInternal.Error()})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(origins []string) mux.MiddlewareFunc {
	allowed := make(map[string]bool)
	allowAll := len(origins) <= 0
	for _, origin := range origins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// authMiddleware rejects requests without a valid bearer token and stores
// the authenticated user in the request context.
func authMiddleware(userSvc *user.Service) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				writeError(w, errMissingToken)
				return
			}
			u, err := userSvc.Authenticate(r.Context(), token)
			if err != nil {
				writeError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), userKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken returns the token of the Authorization header, or of the
// token query parameter as fallback.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

func userFromContext(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userKey).(*domain.User)
	return u
}
