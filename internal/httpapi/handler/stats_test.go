package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/roundtable-games/avalon/internal/roles"
)

func TestParseStatsQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/stats?player=alice&role=merlin&alignment=good&since=2026-01-01&until=2026-06-30", nil)
	f, err := parseStatsQuery(req)
	if err != nil {
		t.Fatal(err)
	}
	if f.PlayerName != "alice" {
		t.Errorf("player = %q", f.PlayerName)
	}
	if f.Role == nil || *f.Role != roles.Merlin {
		t.Errorf("role = %v", f.Role)
	}
	if f.Alignment == nil || *f.Alignment != roles.Good {
		t.Errorf("alignment = %v", f.Alignment)
	}
	if f.Since == nil || f.Since.Format("2006-01-02") != "2026-01-01" {
		t.Errorf("since = %v", f.Since)
	}
	if f.Until == nil || f.Until.Format("2006-01-02") != "2026-06-30" {
		t.Errorf("until = %v", f.Until)
	}

	for _, target := range []string{
		"/api/stats?role=wizard",
		"/api/stats?alignment=neutral",
		"/api/stats?since=january",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		if _, err := parseStatsQuery(req); err == nil {
			t.Errorf("expected error for %s", target)
		}
	}
}

func TestStatsWithoutStoreReturns503(t *testing.T) {
	h := NewStatsHandler(nil)

	w := httptest.NewRecorder()
	h.Stats(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("stats: expected 503, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.Records(w, httptest.NewRequest(http.MethodGet, "/api/records", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("records: expected 503, got %d", w.Code)
	}
}
