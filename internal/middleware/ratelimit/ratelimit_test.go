package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(perMinute int) (*Limiter, *time.Time) {
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestAllowWindow(t *testing.T) {
	rl, now := newTestLimiter(2)
	defer rl.Stop()

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Fatal("third request should be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("other clients are independent")
	}

	*now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatal("new window should reset the count")
	}
	if got := rl.GetMetrics().Rejected; got != 1 {
		t.Errorf("Rejected = %d, want 1", got)
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, now := newTestLimiter(5)
	defer rl.Stop()

	rl.Allow("a")
	*now = now.Add(11 * time.Minute)
	rl.Allow("b")
	rl.cleanupStaleEntries()
	if rl.ActiveClients() != 1 {
		t.Errorf("ActiveClients = %d, want 1", rl.ActiveClients())
	}
}

func TestMiddlewareWritesOnly(t *testing.T) {
	rl, _ := newTestLimiter(1)
	defer rl.Stop()
	h := rl.Middleware(func(*http.Request) string { return "ip" }, WritesOnly, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	codes := []int{}
	for _, method := range []string{http.MethodPost, http.MethodGet, http.MethodGet, http.MethodDelete} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/", nil))
		codes = append(codes, rec.Code)
	}
	want := []int{http.StatusNoContent, http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d: got %d, want %d", i, codes[i], want[i])
		}
	}
}
