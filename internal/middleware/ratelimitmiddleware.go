package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/odiseo-io/email-service/internal/config"
	"github.com/odiseo-io/email-service/internal/errorx"
	"github.com/zeromicro/go-zero/rest/httpx"
)

// RateLimitMiddleware enforces sliding per-second and per-minute budgets
// keyed by a hash of the client address. Clients with no recent requests
// are evicted from the map once a minute.
type RateLimitMiddleware struct {
	perSecond int
	perMinute int

	mu        sync.Mutex
	clients   map[string][]time.Time
	lastSweep time.Time
}

func NewRateLimitMiddleware(conf config.RateLimitConf) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		perSecond: conf.PerSecond,
		perMinute: conf.PerMinute,
		clients:   make(map[string][]time.Time),
		lastSweep: time.Now(),
	}
}

func (m *RateLimitMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.allow(clientKey(r), time.Now()) {
			w.Header().Set("Retry-After", "60")
			httpx.ErrorCtx(r.Context(), w, errorx.ErrTooManyRequests(
				"Rate limit exceeded. Please try again later."))
			return
		}

		next(w, r)
	}
}

// allow records one request at ts and reports whether it fits both budgets.
// Denied requests are not recorded.
func (m *RateLimitMiddleware) allow(key string, ts time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep(ts)

	recent := prune(m.clients[key], ts)
	if len(recent) >= m.perMinute {
		m.clients[key] = recent
		return false
	}

	lastSecond := 0
	for i := len(recent) - 1; i >= 0; i-- {
		if ts.Sub(recent[i]) >= time.Second {
			break
		}
		lastSecond++
	}
	if lastSecond >= m.perSecond {
		m.clients[key] = recent
		return false
	}

	m.clients[key] = append(recent, ts)
	return true
}

// sweep evicts clients whose whole window has aged out. Runs at most once
// a minute.
func (m *RateLimitMiddleware) sweep(ts time.Time) {
	if ts.Sub(m.lastSweep) < time.Minute {
		return
	}
	m.lastSweep = ts

	for key, stamps := range m.clients {
		if live := prune(stamps, ts); len(live) == 0 {
			delete(m.clients, key)
		} else {
			m.clients[key] = live
		}
	}
}

// prune drops timestamps older than the minute window.
func prune(stamps []time.Time, ts time.Time) []time.Time {
	cut := 0
	for cut < len(stamps) && ts.Sub(stamps[cut]) >= time.Minute {
		cut++
	}
	return stamps[cut:]
}

// clientKey hashes the caller address: the first X-Forwarded-For entry when
// present, else the socket peer.
func clientKey(r *http.Request) string {
	addr := r.RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		addr = strings.TrimSpace(first)
	}

	sum := sha256.Sum256([]byte(addr))
	return hex.EncodeToString(sum[:8])
}
