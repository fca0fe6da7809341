package handler

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/roundtable-games/avalon/internal/roles"
	"github.com/roundtable-games/avalon/internal/store"
)

// DefaultRecordsLimit bounds GET /api/records when no limit is given.
const (
	DefaultRecordsLimit = 50
	MaxRecordsLimit     = 500
)

// StatsHandler serves aggregated standings and raw match records.
type StatsHandler struct {
	records *store.RecordStore
}

// NewStatsHandler creates a new StatsHandler. records may be nil when the
// server runs without a database; endpoints then respond 503.
func NewStatsHandler(records *store.RecordStore) *StatsHandler {
	return &StatsHandler{records: records}
}

func parseStatsQuery(r *http.Request) (store.StatsFilter, error) {
	var f store.StatsFilter
	q := r.URL.Query()
	f.PlayerName = q.Get("player")
	if v := q.Get("role"); v != "" {
		role, err := roles.Parse(v)
		if err != nil {
			return f, err
		}
		f.Role = &role
	}
	switch v := q.Get("alignment"); v {
	case "":
	case "good":
		good := roles.Good
		f.Alignment = &good
	case "evil":
		evil := roles.Evil
		f.Alignment = &evil
	default:
		return f, fmt.Errorf("alignment must be good or evil, got %q", v)
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, fmt.Errorf("bad since date %q, want yyyy-mm-dd", v)
		}
		f.Since = &t
	}
	if v := q.Get("until"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, fmt.Errorf("bad until date %q, want yyyy-mm-dd", v)
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		f.Until = &end
	}
	return f, nil
}

// Stats handles GET /api/stats
//
// @Summary      Player standings
// @Description  Aggregated per-player wins and games. Roles held as part of a merged composite count fractionally.
// @Tags         stats
// @Produce      json
// @Param        player     query     string  false  "Exact player name"
// @Param        role       query     string  false  "Role filter (merlin, morgana, servant, ...)"
// @Param        alignment  query     string  false  "good or evil"
// @Param        since      query     string  false  "Earliest game date (yyyy-mm-dd)"
// @Param        until      query     string  false  "Latest game date (yyyy-mm-dd)"
// @Success      200  {array}   store.StatsRow
// @Failure      400  {string}  string  "Bad filter"
// @Failure      503  {string}  string  "No record store configured"
// @Router       /api/stats [get]
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.records == nil {
		http.Error(w, "match records are not available", http.StatusServiceUnavailable)
		return
	}
	filter, err := parseStatsQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rows, err := h.records.Stats(r.Context(), filter)
	if err != nil {
		log.Printf("[%s] stats query error: %v", requestID(r), err)
		http.Error(w, "failed to load stats", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []store.StatsRow{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rows); err != nil {
		log.Printf("[%s] encode response error: %v", requestID(r), err)
	}
}

// Records handles GET /api/records
//
// @Summary      Match records
// @Description  Raw per-player match outcomes, newest first.
// @Tags         stats
// @Produce      json
// @Param        limit  query     int  false  "Maximum rows (default 50, max 500)"
// @Success      200  {array}   store.MatchRecord
// @Failure      400  {string}  string  "Bad limit"
// @Failure      503  {string}  string  "No record store configured"
// @Router       /api/records [get]
func (h *StatsHandler) Records(w http.ResponseWriter, r *http.Request) {
	if h.records == nil {
		http.Error(w, "match records are not available", http.StatusServiceUnavailable)
		return
	}
	limit := DefaultRecordsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if limit > MaxRecordsLimit {
		limit = MaxRecordsLimit
	}
	records, err := h.records.Records(r.Context(), limit)
	if err != nil {
		log.Printf("[%s] records query error: %v", requestID(r), err)
		http.Error(w, "failed to load records", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []store.MatchRecord{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		log.Printf("[%s] encode response error: %v", requestID(r), err)
	}
}
