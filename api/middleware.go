package api

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/facturaIA/ocr-chat-service/internal/logging"
)

func withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logging.For("api").WithField("panic", err).Error("handler panicked")
				sendJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &wrapWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		logging.For("api").WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.status,
			"duration": time.Since(start).Round(time.Millisecond),
		}).Info("request")
	})
}

type wrapWriter struct {
	http.ResponseWriter
	status int
}

func (w *wrapWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// rateLimited rejects callers that exceed their per-IP budget
func (h *Handler) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.getRateLimiter(getClientIP(r)).Allow() {
			h.sendError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

func (h *Handler) getRateLimiter(ip string) *rate.Limiter {
	if v, ok := h.limiters.Load(ip); ok {
		return v.(*rate.Limiter)
	}

	perMinute := h.config.Limits.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 60
	}
	burst := h.config.Limits.Burst
	if burst <= 0 {
		burst = 10
	}

	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
	actual, _ := h.limiters.LoadOrStore(ip, limiter)
	return actual.(*rate.Limiter)
}

func getClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		if idx := strings.Index(ip, ","); idx > 0 {
			return strings.TrimSpace(ip[:idx])
		}
		return strings.TrimSpace(ip)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
