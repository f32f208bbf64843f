package devserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type contextKey string

const staffIDCtxKey contextKey = "staffID"

// callerID returns the authenticated staff ID
func callerID(ctx context.Context) int {
	id, _ := ctx.Value(staffIDCtxKey).(int)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		h.logger.Info("Handled request",
			zap.Int("status", rw.status),
			zap.String("ip", clientIP(r)),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("Recovered from panic",
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()))
				h.logInternalServerError(r, fmt.Errorf("panic: %v", rec))
				h.errorResponse(w, r, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// AuthClaims are the claims of an issued bearer token
type AuthClaims struct {
	Position string `json:"position"`
	jwt.RegisteredClaims
}

func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			h.unauthorized(w, r, "not logged in")
			return
		}

		claims := &AuthClaims{}
		_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			return []byte(h.opts.JWTSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			h.unauthorized(w, r, "invalid token")
			return
		}

		staffID, err := strconv.Atoi(claims.Subject)
		if err != nil {
			h.unauthorized(w, r, "invalid token subject")
			return
		}

		ctx := context.WithValue(r.Context(), staffIDCtxKey, staffID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// unauthorized answers in the GraphQL error shape
func (h *Handler) unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	h.writeJSON(w, r, http.StatusUnauthorized, gqlResponse{Errors: []gqlError{{Message: msg}}})
}

// rateLimiterStore holds one limiter per client IP
type rateLimiterStore struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newRateLimiterStore(limit rate.Limit, burst int) *rateLimiterStore {
	return &rateLimiterStore{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (s *rateLimiterStore) getLimiter(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, exists := s.limiters[ip]
	if !exists {
		limiter = rate.NewLimiter(s.limit, s.burst)
		s.limiters[ip] = limiter
	}
	return limiter
}

func (h *Handler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !h.limiter.getLimiter(ip).Allow() {
			h.logger.Warn("Rate limit exceeded", zap.String("ip", ip))
			h.errorResponse(w, r, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
