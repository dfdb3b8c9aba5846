package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"milk": {RequestsPerMinute: 60, Burst: 1},
	}, nil)
	handler := limiter.Middleware("milk")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/milk", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", res.Code)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be rate limited, got %d", res.Code)
	}
}

func TestRateLimiterSeparatesModulesAndCallers(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"milk":    {RequestsPerMinute: 60, Burst: 1},
		"factory": {RequestsPerMinute: 60, Burst: 1},
	}, nil)
	milkHandler := limiter.Middleware("milk")(okHandler())
	factoryHandler := limiter.Middleware("factory")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/milk", nil)
	res := httptest.NewRecorder()
	milkHandler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected milk request to succeed, got %d", res.Code)
	}

	res = httptest.NewRecorder()
	factoryHandler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/factory/rolls", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("modules must not share a bucket, got %d", res.Code)
	}

	caller := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	authed := req.WithContext(context.WithValue(req.Context(), ContextKeyCaller, caller))
	res = httptest.NewRecorder()
	milkHandler.ServeHTTP(res, authed)
	if res.Code != http.StatusOK {
		t.Fatalf("authenticated caller must get its own bucket, got %d", res.Code)
	}
}

func TestRateLimiterSweepsIdleVisitors(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limiter := NewRateLimiter(map[string]RateLimit{"milk": {RequestsPerMinute: 1, Burst: 1}}, nil)
	limiter.clockNow = func() time.Time { return now }
	handler := limiter.Middleware("milk")(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/milk", nil))
	if len(limiter.visitors) != 1 {
		t.Fatalf("expected one visitor, got %d", len(limiter.visitors))
	}
	now = now.Add(visitorTTL + time.Second)
	limiter.sweep(now)
	if len(limiter.visitors) != 0 {
		t.Fatalf("expected idle visitor to be dropped, got %d", len(limiter.visitors))
	}
}

func TestUnlimitedModulePassesThrough(t *testing.T) {
	limiter := NewRateLimiter(nil, nil)
	handler := limiter.Middleware("roles")(okHandler())
	for i := 0; i < 5; i++ {
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/roles", nil))
		if res.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, res.Code)
		}
	}
}
