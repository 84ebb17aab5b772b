package server

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/juju/ratelimit"

	"github.com/medfinder/medfinder-api/config"
	"github.com/medfinder/medfinder-api/logging"
	"github.com/medfinder/medfinder-api/metrics"
)

const (
	bucketRate      = 3    // tokens per second
	bucketCapacity  = 1000 // burst
	cleanupInterval = 30 * time.Minute
)

// RealIPMiddleware extracts the real IP from X-Forwarded-For header
func RealIPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// Take the first IP from the comma-separated list
			if idx := strings.Index(xff, ","); idx != -1 {
				xff = xff[:idx]
			}
			r.RemoteAddr = strings.TrimSpace(xff)
		} else if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			r.RemoteAddr = strings.TrimSpace(realIP)
		}
		next.ServeHTTP(w, r)
	})
}

// RequestSizeMiddleware limits the size of request headers and body
func RequestSizeMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > cfg.MaxRequestBody {
				logging.Warn("Request body too large",
					"content_length", r.ContentLength,
					"max_allowed", cfg.MaxRequestBody,
					"remote_addr", r.RemoteAddr,
					"user_agent", r.UserAgent())

				respondWithError(w, http.StatusRequestEntityTooLarge,
					fmt.Sprintf("Request body too large. Maximum allowed size is %d bytes", cfg.MaxRequestBody))
				return
			}

			// Check header size (rough estimate)
			headerSize := int64(0)
			for key, values := range r.Header {
				headerSize += int64(len(key))
				for _, value := range values {
					headerSize += int64(len(value))
				}
			}

			if headerSize > cfg.MaxHeaderSize {
				logging.Warn("Request headers too large",
					"header_size", headerSize,
					"max_allowed", cfg.MaxHeaderSize,
					"remote_addr", r.RemoteAddr,
					"user_agent", r.UserAgent())

				respondWithError(w, http.StatusRequestHeaderFieldsTooLarge,
					fmt.Sprintf("Request headers too large. Maximum allowed size is %d bytes", cfg.MaxHeaderSize))
				return
			}

			// Chunked bodies carry no Content-Length
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxRequestBody)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimiter manages per-client rate limiting
type RateLimiter struct {
	clients  map[string]*ratelimit.Bucket
	mu       sync.RWMutex
	rate     float64
	capacity int64
	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a rate limiter handing each client a bucket of
// capacity tokens refilled at rate tokens per second
func NewRateLimiter(rate float64, capacity int64) *RateLimiter {
	return &RateLimiter{
		clients:  make(map[string]*ratelimit.Bucket),
		rate:     rate,
		capacity: capacity,
		stop:     make(chan struct{}),
	}
}

func (rl *RateLimiter) getBucket(clientIP string) *ratelimit.Bucket {
	rl.mu.RLock()
	bucket, exists := rl.clients[clientIP]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		if bucket, exists = rl.clients[clientIP]; !exists {
			bucket = ratelimit.NewBucketWithRate(rl.rate, rl.capacity)
			rl.clients[clientIP] = bucket
			metrics.RateLimiterBucketsTotal.Set(float64(len(rl.clients)))
		}
		rl.mu.Unlock()
	}

	return bucket
}

// removeIdle drops clients whose bucket refilled completely
func (rl *RateLimiter) removeIdle() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for ip, bucket := range rl.clients {
		if bucket.Available() == bucket.Capacity() {
			delete(rl.clients, ip)
			removed++
		}
	}
	metrics.RateLimiterBucketsTotal.Set(float64(len(rl.clients)))
	return removed
}

// StartCleanup removes idle clients every interval until Stop is called
func (rl *RateLimiter) StartCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := rl.removeIdle(); removed > 0 {
					logging.Debug("Rate limiter cleanup", "removed_clients", removed)
				}
			case <-rl.stop:
				return
			}
		}
	}()
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// getTokenCost prices a request by how much work its endpoint does
func getTokenCost(r *http.Request) int64 {
	path := r.URL.Path

	switch path {
	case "/health", "/metrics":
		return 5
	case "/api/medicines/search":
		return 50
	case "/api/medicines/popular":
		return 10
	case "/api/pharmacies/nearby":
		return 20
	}

	switch {
	case strings.HasPrefix(path, "/api/medicines/") && strings.Contains(path, "/substitutes"):
		return 50 // substitute matching walks the catalog
	case strings.HasPrefix(path, "/api/medicines/"):
		return 10
	case strings.HasPrefix(path, "/api/pharmacies/compare/"):
		return 30
	case strings.HasPrefix(path, "/api/pharmacies/") && r.Method == http.MethodPost:
		return 20
	case strings.HasPrefix(path, "/api/pharmacies/"):
		return 10
	case strings.HasPrefix(path, "/api/recommendations/price-trend/"):
		return 20
	case strings.HasPrefix(path, "/api/recommendations/"):
		return 40
	}

	return 5
}

func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Handler implements rate limiting using token bucket
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bucket := rl.getBucket(clientKey(r))

		tokenCost := getTokenCost(r)

		// Add rate limit headers before consuming tokens
		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(rl.capacity, 10))
		w.Header().Set("X-RateLimit-Rate", strconv.FormatFloat(rl.rate, 'f', -1, 64))

		if bucket.TakeAvailable(tokenCost) < tokenCost {
			logging.Warn("Rate limit exceeded", "client", clientKey(r), "path", r.URL.Path, "cost", tokenCost)
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "60")
			respondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(bucket.Available(), 10))

		next.ServeHTTP(w, r)
	})
}

// respondWithError writes the same error body as the API handlers
func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	payload := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error("Failed to encode JSON response", "error", err)
	}
}
