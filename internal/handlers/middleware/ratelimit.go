package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/g-but/fitfoot/internal/handlers/render"
)

const (
	RateLimitLimitHeader     = "X-RateLimit-Limit"
	RateLimitRemainingHeader = "X-RateLimit-Remaining"
	RateLimitResetHeader     = "X-RateLimit-Reset"
)

// Limiter keeps one token bucket per client: limit requests per window, refilled evenly over the window
type Limiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	clients   map[string]*rate.Limiter
	lastSweep time.Time
}

func NewLimiter(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*rate.Limiter),
	}
}

type decision struct {
	allowed   bool
	remaining int
	retry     time.Duration // until next request is allowed
	reset     time.Time     // when the bucket is full again
}

func (l *Limiter) take(client string) decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	lim, ok := l.clients[client]
	if !ok {
		lim = rate.NewLimiter(rate.Every(l.window/time.Duration(l.limit)), l.limit)
		l.clients[client] = lim
	}

	d := decision{allowed: lim.AllowN(now, 1)}

	tokens := lim.TokensAt(now)
	d.remaining = max(int(math.Floor(tokens)), 0)
	perToken := float64(time.Second) / float64(lim.Limit())
	d.reset = now.Add(time.Duration((float64(l.limit) - tokens) * perToken))
	if !d.allowed {
		d.retry = time.Duration((1 - tokens) * perToken)
	}
	return d
}

// Clients whose bucket refilled are forgotten, at most once per window
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now

	for client, lim := range l.clients {
		if lim.TokensAt(now) >= float64(l.limit) {
			delete(l.clients, client)
		}
	}
}

// RateLimit rejects clients going over the limiter budget with 429.
// Every response carries the X-RateLimit-* headers.
func RateLimit(l *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := l.take(ClientIP(r))

			w.Header().Set(RateLimitLimitHeader, strconv.Itoa(l.limit))
			w.Header().Set(RateLimitRemainingHeader, strconv.Itoa(d.remaining))
			w.Header().Set(RateLimitResetHeader, strconv.FormatInt(d.reset.Unix(), 10))

			if !d.allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(d.retry.Seconds()))))
				render.ServiceError(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP prefers proxy headers, the storefront runs behind one in production
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
