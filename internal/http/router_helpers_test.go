package httpx

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/marqueehq/marquee/internal/validator"
)

func TestMovieIDParam(t *testing.T) {
	cases := []struct {
		path   string
		wantID int64
		wantOK bool
	}{
		{path: "/v1/movies/7", wantID: 7, wantOK: true},
		{path: "/v1/movies/", wantOK: false},
		{path: "/v1/movies/0", wantOK: false},
		{path: "/v1/movies/-3", wantOK: false},
		{path: "/v1/movies/abc", wantOK: false},
		{path: "/v1/movies/7/extra", wantOK: false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", tc.path, nil)
		id, ok := movieIDParam(req)
		if ok != tc.wantOK || id != tc.wantID {
			t.Fatalf("path %s: got (%d, %v), want (%d, %v)", tc.path, id, ok, tc.wantID, tc.wantOK)
		}
	}
}

func TestReadInt(t *testing.T) {
	v := validator.New()
	if got := readInt("", 20, "page_size", v); got != 20 {
		t.Fatalf("expected fallback, got %d", got)
	}
	if got := readInt("7", 20, "page_size", v); got != 7 {
		t.Fatalf("expected parsed value, got %d", got)
	}
	if !v.Valid() {
		t.Fatalf("unexpected errors: %v", v.Errors())
	}

	readInt("abc", 20, "page_size", v)
	if v.Errors()["page_size"] != "must be an integer value" {
		t.Fatalf("unexpected errors: %v", v.Errors())
	}
}

func TestMemoryRateLimiterWindow(t *testing.T) {
	rl := NewMemoryRateLimiter()
	defer rl.Close()

	for i := 0; i < 3; i++ {
		if d := rl.Allow("key", 3, time.Minute); !d.allowed {
			t.Fatalf("request %d unexpectedly denied", i)
		}
	}
	if d := rl.Allow("key", 3, time.Minute); d.allowed {
		t.Fatalf("expected denial past the limit")
	}
	if d := rl.Allow("other", 3, time.Minute); !d.allowed {
		t.Fatalf("distinct keys must not share a window")
	}
}

func TestMemoryRateLimiterWindowReset(t *testing.T) {
	rl := &memoryRateLimiter{entries: make(map[string]rateState), stopCh: make(chan struct{})}

	if d := rl.Allow("key", 1, 10*time.Millisecond); !d.allowed {
		t.Fatalf("first request denied")
	}
	if d := rl.Allow("key", 1, 10*time.Millisecond); d.allowed {
		t.Fatalf("expected denial inside window")
	}
	time.Sleep(15 * time.Millisecond)
	if d := rl.Allow("key", 1, 10*time.Millisecond); !d.allowed {
		t.Fatalf("expected fresh window after expiry")
	}
}
