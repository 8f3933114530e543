package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brk3/habitbot/internal/storage"
	"github.com/brk3/habitbot/internal/storage/sqlite"
	"github.com/brk3/habitbot/pkg/habit"
	"github.com/brk3/habitbot/pkg/versioninfo"
)

// Wednesday 2024-01-10
var fixedNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "habits.db"), time.UTC)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func newTestServer(st storage.Store) http.Handler {
	s := New(st, time.UTC)
	s.now = func() time.Time { return fixedNow }
	return s.Router()
}

func mockRequest(h http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	rr := mockRequest(newTestServer(newTestStore(t)), http.MethodGet, "/healthz")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d want 200", rr.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil || resp.Status != "ok" {
		t.Fatalf("body = %s, err = %v", rr.Body.String(), err)
	}
}

func TestVersion(t *testing.T) {
	rr := mockRequest(newTestServer(newTestStore(t)), http.MethodGet, "/version")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d want 200", rr.Code)
	}
	var info versioninfo.VersionInfo
	if err := json.Unmarshal(rr.Body.Bytes(), &info); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if info.Version != versioninfo.Version {
		t.Fatalf("got %q want %q", info.Version, versioninfo.Version)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(newTestStore(t))
	mockRequest(h, http.MethodGet, "/healthz")
	rr := mockRequest(h, http.MethodGet, "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `habitbot_http_requests_total{endpoint="/healthz"`) {
		t.Fatal("request counter missing from /metrics")
	}
}

func TestUserReport(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	u, err := st.EnsureUser(ctx, 777, "paul")
	if err != nil {
		t.Fatal(err)
	}
	h, err := st.AddHabit(ctx, habit.Habit{UserID: u.ID, Name: "Read", Frequency: habit.Daily, CreatedAt: fixedNow.AddDate(0, 0, -20)})
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range []int{0, -1, -3} {
		if err := st.MarkDone(ctx, h.ID, fixedNow.AddDate(0, 0, d)); err != nil {
			t.Fatal(err)
		}
	}

	rr := mockRequest(newTestServer(st), http.MethodGet, "/users/777/report?period=week")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d want 200: %s", rr.Code, rr.Body.String())
	}
	var resp ReportResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if resp.ChatID != 777 || resp.Start != "2024-01-04" || resp.End != "2024-01-10" || len(resp.Habits) != 1 {
		t.Fatalf("report = %+v", resp)
	}
	p := resp.Habits[0]
	if p.Done != 3 || p.Expected != 7 || p.Percent != "43%" || p.CurrentStreak != 2 || p.LongestStreak != 2 {
		t.Fatalf("progress = %+v", p)
	}
}

func TestUserReport_Errors(t *testing.T) {
	h := newTestServer(newTestStore(t))
	tests := []struct {
		path string
		code int
	}{
		{"/users/abc/report", http.StatusBadRequest},
		{"/users/1/report?period=year", http.StatusBadRequest},
		{"/users/1/report", http.StatusNotFound},
	}
	for _, tt := range tests {
		if rr := mockRequest(h, http.MethodGet, tt.path); rr.Code != tt.code {
			t.Errorf("%s: got %d want %d", tt.path, rr.Code, tt.code)
		}
	}
}
