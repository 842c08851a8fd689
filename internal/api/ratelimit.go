// internal/api/ratelimit.go
package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// minIdleTTL is the shortest time a client's bucket is kept after its last request.
const minIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter keeps one token bucket per client address. Buckets idle for
// longer than idleTTL are swept on a later request; idleTTL is never shorter
// than the time a drained bucket needs to refill.
type clientLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rps       float64
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	ttl := minIdleTTL
	if rps > 0 {
		if refill := time.Duration(float64(burst) / rps * float64(time.Second)); refill > ttl {
			ttl = refill
		}
	}
	return &clientLimiter{
		limiters:  make(map[string]*limiterEntry),
		rps:       rps,
		burst:     burst,
		idleTTL:   ttl,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *clientLimiter) Allow(client string) bool {
	l.mu.Lock()
	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}
	entry, exists := l.limiters[client]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(l.rps), l.burst)}
		l.limiters[client] = entry
	}
	entry.lastSeen = now
	l.mu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

func (l *clientLimiter) sweep(now time.Time) {
	for client, entry := range l.limiters {
		if now.Sub(entry.lastSeen) >= l.idleTTL {
			delete(l.limiters, client)
		}
	}
	l.lastSweep = now
}

func (l *clientLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// clientResolver picks the address a request is limited by. X-Forwarded-For
// is only read when the direct peer is a configured proxy.
type clientResolver struct {
	trusted []*net.IPNet
}

// newClientResolver accepts IPs and CIDRs. Entries that parse as neither are
// returned so the caller can report them.
func newClientResolver(proxies []string) (*clientResolver, []string) {
	r := &clientResolver{}
	var invalid []string
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.Contains(p, "/") {
			if ip := net.ParseIP(p); ip != nil {
				bits := 8 * net.IPv4len
				if ip.To4() == nil {
					bits = 8 * net.IPv6len
				}
				r.trusted = append(r.trusted, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
				continue
			}
		}
		_, network, err := net.ParseCIDR(p)
		if err != nil {
			invalid = append(invalid, p)
			continue
		}
		r.trusted = append(r.trusted, network)
	}
	return r, invalid
}

func (c *clientResolver) isTrusted(host string) bool {
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, n := range c.trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// key walks X-Forwarded-For from the nearest hop and returns the first
// address that is not a trusted proxy.
func (c *clientResolver) key(r *http.Request) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	if !c.isTrusted(peer) {
		return peer
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !c.isTrusted(hop) {
			return hop
		}
	}
	return peer
}
