//go:build load

// Package load contains load tests that are excluded from regular CI runs.
// Run with: go test -tags load -count=1 -timeout 60s ./tests/load/
package load

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hgrguric/idgate/internal/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// TestRateLimitSustainedLoad hammers the limiter from one IP with 10
// goroutines x 100 requests against rate=10 burst=10. Fired near-instantly,
// almost everything past the initial burst should be rejected.
func TestRateLimitSustainedLoad(t *testing.T) {
	rl := middleware.NewRateLimiter(10, 10)
	handler := rl.Handler(okHandler())

	const goroutines = 10
	const reqsPerGoroutine = 100

	var ok, limited atomic.Int64
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for range goroutines {
		go func() {
			defer wg.Done()
			for range reqsPerGoroutine {
				req := httptest.NewRequest(http.MethodPost, "/auth/login", http.NoBody)
				req.RemoteAddr = "10.0.0.1"
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, req)
				switch rec.Code {
				case http.StatusOK:
					ok.Add(1)
				case http.StatusTooManyRequests:
					limited.Add(1)
				}
			}
		}()
	}

	wg.Wait()

	total := ok.Load() + limited.Load()
	limitedPct := float64(limited.Load()) / float64(total) * 100
	t.Logf("total=%d ok=%d limited=%d (%.1f%% rejected)", total, ok.Load(), limited.Load(), limitedPct)

	if limited.Load() == 0 {
		t.Error("expected some requests to be rate-limited")
	}
	if limitedPct < 80 {
		t.Errorf("expected >80%% rate-limited under sustained load, got %.1f%%", limitedPct)
	}
}

// TestRateLimitBurstAbsorption verifies that burst-size concurrent requests
// all succeed, and the next request is rejected.
func TestRateLimitBurstAbsorption(t *testing.T) {
	const burstSize = 50
	rl := middleware.NewRateLimiter(1, burstSize)
	handler := rl.Handler(okHandler())

	var ok, limited atomic.Int64
	var wg sync.WaitGroup
	wg.Add(burstSize)

	for range burstSize {
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/auth/login", http.NoBody)
			req.RemoteAddr = "10.0.0.1"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			switch rec.Code {
			case http.StatusOK:
				ok.Add(1)
			case http.StatusTooManyRequests:
				limited.Add(1)
			}
		}()
	}
	wg.Wait()

	t.Logf("burst phase: ok=%d limited=%d", ok.Load(), limited.Load())

	if ok.Load() != burstSize {
		t.Errorf("expected all %d burst requests to succeed, got ok=%d limited=%d",
			burstSize, ok.Load(), limited.Load())
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/login", http.NoBody)
	req.RemoteAddr = "10.0.0.1"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("burst+1 request: expected 429, got %d", rec.Code)
	}
}

// TestRateLimitConcurrentBucketCreation sends 1 request each from 100 unique
// IPs concurrently and verifies that all succeed and all buckets are created.
func TestRateLimitConcurrentBucketCreation(t *testing.T) {
	const numIPs = 100
	rl := middleware.NewRateLimiter(1, 1)
	handler := rl.Handler(okHandler())

	var wg sync.WaitGroup
	var ok atomic.Int64
	wg.Add(numIPs)

	for i := range numIPs {
		go func(idx int) {
			defer wg.Done()
			ip := fmt.Sprintf("10.%d.%d.%d", idx/65536, (idx/256)%256, idx%256)
			req := httptest.NewRequest(http.MethodPost, "/auth/login", http.NoBody)
			req.RemoteAddr = ip
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code == http.StatusOK {
				ok.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if ok.Load() != numIPs {
		t.Errorf("expected all %d first requests to succeed, got %d", numIPs, ok.Load())
	}
	if rl.Len() != numIPs {
		t.Errorf("expected %d buckets, got %d", numIPs, rl.Len())
	}
}

// TestRateLimitCleanupUnderLoad creates 1000 buckets, then triggers cleanup
// with a tiny maxIdle and verifies all buckets are removed.
func TestRateLimitCleanupUnderLoad(t *testing.T) {
	const numBuckets = 1000
	rl := middleware.NewRateLimiter(10, 10)
	handler := rl.Handler(okHandler())

	for i := range numBuckets {
		ip := fmt.Sprintf("10.%d.%d.%d", i/65536, (i/256)%256, i%256)
		req := httptest.NewRequest(http.MethodPost, "/auth/login", http.NoBody)
		req.RemoteAddr = ip
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}

	if rl.Len() != numBuckets {
		t.Fatalf("expected %d buckets, got %d", numBuckets, rl.Len())
	}

	time.Sleep(10 * time.Millisecond)

	cancel := rl.StartCleanup(5*time.Millisecond, 1*time.Millisecond)
	defer cancel()

	time.Sleep(50 * time.Millisecond)

	if rl.Len() != 0 {
		t.Errorf("expected 0 buckets after cleanup, got %d", rl.Len())
	}
}
