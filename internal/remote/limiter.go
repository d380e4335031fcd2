package remote

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter rate limits requests per client IP.
type ipLimiter struct {
	limiters sync.Map // map[string]*limiterEntry
	rps      rate.Limit
	burst    int
	onReject func()

	stop     chan struct{}
	stopOnce sync.Once
}

func newIPLimiter(rps float64, burst int, onReject func()) *ipLimiter {
	return &ipLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		onReject: onReject,
		stop:     make(chan struct{}),
	}
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	now := time.Now()
	if v, ok := l.limiters.Load(ip); ok {
		e := v.(*limiterEntry)
		e.lastSeen = now
		return e.limiter
	}
	e := &limiterEntry{limiter: rate.NewLimiter(l.rps, l.burst), lastSeen: now}
	actual, _ := l.limiters.LoadOrStore(ip, e)
	return actual.(*limiterEntry).limiter
}

// cleanupLoop drops limiters idle for two intervals.
func (l *ipLimiter) cleanupLoop(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-t.C:
			cutoff := time.Now().Add(-2 * interval)
			l.limiters.Range(func(k, v any) bool {
				if v.(*limiterEntry).lastSeen.Before(cutoff) {
					l.limiters.Delete(k)
				}
				return true
			})
		}
	}
}

func (l *ipLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *ipLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.get(clientIP(r)).Allow() {
			l.onReject()
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP uses the socket address only; the API is never proxied.
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
