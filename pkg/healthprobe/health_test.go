package healthprobe

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

func fetch(t *testing.T, handler http.HandlerFunc, path string) (int, ProbeResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	handler(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	var resp ProbeResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return w.Code, resp
}

func TestNew_StartsNotReady(t *testing.T) {
	hc := New()

	if hc.ready.Load() {
		t.Error("expected checker to start not ready")
	}
	if time.Since(hc.startedAt) > time.Second {
		t.Errorf("start time too old: %v", hc.startedAt)
	}
}

func TestHealth_AlwaysOK(t *testing.T) {
	hc := New()

	for _, ready := range []bool{false, true} {
		hc.SetReady(ready)
		code, resp := fetch(t, hc.Health(), "/health")
		if code != http.StatusOK {
			t.Errorf("ready=%v: expected 200, got %d", ready, code)
		}
		if resp.Status != "healthy" {
			t.Errorf("expected healthy status, got %q", resp.Status)
		}
		if resp.Uptime == "" {
			t.Error("expected uptime in health response")
		}
	}
}

func TestReady_FollowsState(t *testing.T) {
	hc := New()

	code, resp := fetch(t, hc.Ready(), "/ready")
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before ready, got %d", code)
	}
	if resp.Status != "not_ready" || resp.Reason == "" {
		t.Errorf("expected not_ready with a reason, got %+v", resp)
	}

	hc.SetReady(true)
	code, resp = fetch(t, hc.Ready(), "/ready")
	if code != http.StatusOK {
		t.Fatalf("expected 200 once ready, got %d", code)
	}
	if resp.Status != "ready" || resp.Uptime == "" {
		t.Errorf("expected ready with uptime, got %+v", resp)
	}

	// Shutdown flips readiness back off while liveness stays green.
	hc.SetReady(false)
	code, _ = fetch(t, hc.Ready(), "/ready")
	if code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 after draining starts, got %d", code)
	}
}
