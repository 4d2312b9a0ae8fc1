package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/amaumene/reelwatch/internal/api/handlers"
	"github.com/amaumene/reelwatch/internal/config"
	"github.com/amaumene/reelwatch/internal/controllers"
	"github.com/amaumene/reelwatch/internal/metrics"
	"github.com/amaumene/reelwatch/internal/models"
	"github.com/amaumene/reelwatch/internal/scheduler"
	"github.com/rs/zerolog"
)

type fakeControl struct {
	running bool
}

func (f *fakeControl) Start() scheduler.Status {
	if f.running {
		return scheduler.StatusAlreadyRunning
	}
	f.running = true
	return scheduler.StatusStarted
}

func (f *fakeControl) Stop() scheduler.Status {
	f.running = false
	return scheduler.StatusStopped
}

func (f *fakeControl) Status() scheduler.State {
	return scheduler.State{Running: f.running, Platforms: []scheduler.PlatformState{}}
}

type testServer struct {
	server *Server
	db     *models.Database
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		ServerPort:       "0",
		AdminUsername:    "admin",
		AdminPassword:    "secret",
		PostsPerPage:     models.DefaultPerPage,
		MaxSearchResults: models.DefaultSearchLimit,
		CacheTimeout:     time.Minute,
	}
	logger := zerolog.New(io.Discard)
	query := controllers.NewQueryController(db, cfg, logger)

	server := NewServer(
		cfg,
		handlers.NewUpdatesHandler(query, logger),
		handlers.NewMonitoringHandler(&fakeControl{}),
		handlers.NewAccountsHandler(db, query.InvalidateStats, logger),
		handlers.NewRuntimeHandler(cfg, 0),
		metrics.New(),
		logger,
	)
	return &testServer{server: server, db: db}
}

func (ts *testServer) do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := ts.server.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", req.Method, req.URL, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	return resp, body
}

func withAuth(req *http.Request, user, pass string) *http.Request {
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(user+":"+pass)))
	return req
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"healthy"`) {
		t.Errorf("Unexpected body: %s", body)
	}
}

func TestListUpdatesFiltersAndPages(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	clock := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ts.db.SetClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})

	var matching []string
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("yt-%02d", i)
		matching = append(matching, id)
		u := &models.MovieUpdate{Platform: models.PlatformYouTube, ContentID: id, Language: models.LanguageTelugu}
		if _, err := ts.db.SaveUpdate(ctx, u); err != nil {
			t.Fatalf("SaveUpdate failed: %v", err)
		}
		noise := &models.MovieUpdate{Platform: models.PlatformYouTube, ContentID: "ta-" + id, Language: models.LanguageTamil}
		if _, err := ts.db.SaveUpdate(ctx, noise); err != nil {
			t.Fatalf("SaveUpdate failed: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/updates?platform=youtube&language=telugu&page=2&per_page=10", nil)
	resp, body := ts.do(t, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, body)
	}

	var page models.UpdatePage
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatalf("Failed to decode page: %v", err)
	}
	if page.Total != 25 || page.Page != 2 || page.PerPage != 10 || page.Pages != 3 {
		t.Errorf("Unexpected paging: total=%d page=%d per_page=%d pages=%d", page.Total, page.Page, page.PerPage, page.Pages)
	}
	if len(page.Updates) != 10 {
		t.Fatalf("Expected 10 updates, got %d", len(page.Updates))
	}
	for i, u := range page.Updates {
		want := matching[len(matching)-11-i]
		if u.ContentID != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, u.ContentID)
		}
	}
}

func TestListUpdatesRejectsUnknownPlatform(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/updates?platform=myspace", nil))

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"error"`) {
		t.Errorf("Expected error body, got %s", body)
	}
}

func TestListUpdatesRejectsUnknownLanguage(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/updates?language=klingon", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "unknown language") {
		t.Errorf("Expected language error body, got %s", body)
	}

	resp, _ = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/updates?language=unknown", nil))
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 for the unknown label, got %d", resp.StatusCode)
	}
}

func TestGetUpdateNotFound(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/updates/999", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}

	resp, _ = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/updates/abc", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad id, got %d", resp.StatusCode)
	}
}

func TestSearchAndStats(t *testing.T) {
	ts := newTestServer(t)
	u := &models.MovieUpdate{Platform: models.PlatformTwitter, ContentID: "1", Title: "Devara trailer", MovieName: "Devara", Language: models.LanguageTelugu}
	if _, err := ts.db.SaveUpdate(context.Background(), u); err != nil {
		t.Fatalf("SaveUpdate failed: %v", err)
	}

	resp, body := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/search?q=devra", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var result controllers.SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("Failed to decode search: %v", err)
	}
	if len(result.Results) != 0 || len(result.Suggestions) != 1 || result.Suggestions[0] != "Devara" {
		t.Errorf("Expected suggestion Devara, got %+v", result)
	}

	resp, body = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var stats models.Stats
	if err := json.Unmarshal(body, &stats); err != nil {
		t.Fatalf("Failed to decode stats: %v", err)
	}
	if stats.TotalUpdates != 1 || stats.ByLanguage["telugu"] != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, httptest.NewRequest(http.MethodPost, "/api/start-monitoring", nil))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 without credentials, got %d", resp.StatusCode)
	}

	resp, _ = ts.do(t, withAuth(httptest.NewRequest(http.MethodPost, "/api/start-monitoring", nil), "admin", "wrong"))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong password, got %d", resp.StatusCode)
	}
}

func TestMonitoringControl(t *testing.T) {
	ts := newTestServer(t)

	statuses := []struct {
		path string
		want string
	}{
		{"/api/start-monitoring", `"started"`},
		{"/api/start-monitoring", `"already_running"`},
		{"/api/stop-monitoring", `"stopped"`},
		{"/api/stop-monitoring", `"stopped"`},
	}
	for _, s := range statuses {
		resp, body := ts.do(t, withAuth(httptest.NewRequest(http.MethodPost, s.path, nil), "admin", "secret"))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", s.path, resp.StatusCode)
		}
		if !strings.Contains(string(body), s.want) {
			t.Errorf("%s: expected %s in %s", s.path, s.want, body)
		}
	}
}

func TestAccountLifecycle(t *testing.T) {
	ts := newTestServer(t)

	payload := `{"name":"Sithara Entertainments","platform":"twitter","username":"SitharaEnts","account_type":"production_house","language":"telugu"}`
	req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, body := ts.do(t, withAuth(req, "admin", "secret"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, body)
	}
	var saved models.SocialAccount
	if err := json.Unmarshal(body, &saved); err != nil {
		t.Fatalf("Failed to decode account: %v", err)
	}
	if saved.ID == 0 || !saved.Active {
		t.Fatalf("Expected active account with id, got %+v", saved)
	}

	toggle := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/accounts/%d/toggle", saved.ID), nil)
	resp, body = ts.do(t, withAuth(toggle, "admin", "secret"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var toggled models.SocialAccount
	if err := json.Unmarshal(body, &toggled); err != nil {
		t.Fatalf("Failed to decode account: %v", err)
	}
	if toggled.Active {
		t.Error("Expected account to be inactive after toggle")
	}

	del := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/accounts/%d", saved.ID), nil)
	resp, _ = ts.do(t, withAuth(del, "admin", "secret"))
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", resp.StatusCode)
	}

	resp, _ = ts.do(t, withAuth(httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/accounts/%d", saved.ID), nil), "admin", "secret"))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for deleted account, got %d", resp.StatusCode)
	}
}

func TestSaveAccountValidates(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(`{"name":"x","platform":"myspace","username":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, body := ts.do(t, withAuth(req, "admin", "secret"))

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "unknown platform") {
		t.Errorf("Unexpected body: %s", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "reelwatch_loops_running") {
		t.Errorf("Expected reelwatch metrics, got %s", body)
	}
}
