// Package store persists per-player match records in Postgres and serves
// the stats queries and the shuffle history reads.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roundtable-games/avalon/internal/engine"
	"github.com/roundtable-games/avalon/internal/roles"
)

// MatchRecord is one persisted row: one player holding one role in one
// finished match. Composite roles produce one row per role, sharing the
// composite count so stats can hand out fractional credit.
type MatchRecord struct {
	ID             string    `json:"id"`
	PlayerID       string    `json:"player_id"`
	PlayerName     string    `json:"player_name"`
	RoleID         int       `json:"role_id"`
	Won            bool      `json:"won"`
	CompositeCount int       `json:"composite_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// RecordStore handles database operations for match records.
type RecordStore struct {
	pool *pgxpool.Pool
}

// NewRecordStore creates a new RecordStore.
func NewRecordStore(pool *pgxpool.Pool) *RecordStore {
	return &RecordStore{pool: pool}
}

// AppendResults persists the records of one finished match in a single
// transaction.
func (s *RecordStore) AppendResults(ctx context.Context, results []engine.PlayerResult) error {
	if len(results) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range results {
		_, err := tx.Exec(ctx, `
			INSERT INTO match_records (player_id, player_name, role_id, won, composite_count)
			VALUES ($1, $2, $3, $4, $5)`,
			string(r.PlayerID), r.Name, int(r.Role), r.Won, r.CompositeCount,
		)
		if err != nil {
			return fmt.Errorf("insert match record: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit match records: %w", err)
	}
	return nil
}

// RecentRecords returns the newest records first, bounded by limit. This
// is the engine.HistoryProvider feeding the anti-repetition shuffle.
func (s *RecordStore) RecentRecords(ctx context.Context, limit int) ([]engine.HistoryRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT player_id, role_id
		FROM match_records
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent records: %w", err)
	}
	defer rows.Close()

	var out []engine.HistoryRecord
	for rows.Next() {
		var playerID string
		var roleID int
		if err := rows.Scan(&playerID, &roleID); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, engine.HistoryRecord{
			PlayerID: engine.PlayerID(playerID),
			Role:     roles.Role(roleID),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return out, nil
}

// StatsFilter narrows a stats query. Zero fields do not filter.
type StatsFilter struct {
	PlayerName string
	Role       *roles.Role
	Alignment  *roles.Alignment
	Since      *time.Time
	Until      *time.Time
}

// StatsRow is one player's aggregated standing. Games and Wins are
// fractional: a role held as part of an n-role composite counts 1/n.
type StatsRow struct {
	PlayerName string  `json:"player_name"`
	Games      float64 `json:"games"`
	Wins       float64 `json:"wins"`
	Ratio      float64 `json:"ratio"`
}

// Stats aggregates match records per player, best win ratio first.
func (s *RecordStore) Stats(ctx context.Context, f StatsFilter) ([]StatsRow, error) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.PlayerName != "" {
		conds = append(conds, "LOWER(player_name) = LOWER("+arg(f.PlayerName)+")")
	}
	if f.Role != nil {
		conds = append(conds, "role_id = "+arg(int(*f.Role)))
	}
	if f.Alignment != nil {
		var ids []string
		for r := roles.Servant; r <= roles.Palm; r++ {
			if r.Alignment() == *f.Alignment {
				ids = append(ids, fmt.Sprintf("%d", int(r)))
			}
		}
		conds = append(conds, "role_id IN ("+strings.Join(ids, ", ")+")")
	}
	if f.Since != nil {
		conds = append(conds, "created_at >= "+arg(*f.Since))
	}
	if f.Until != nil {
		conds = append(conds, "created_at <= "+arg(*f.Until))
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT player_name,
		       SUM(1.0 / composite_count) AS games,
		       SUM(CASE WHEN won THEN 1.0 / composite_count ELSE 0 END) AS wins
		FROM match_records
		%s
		GROUP BY player_name
		ORDER BY wins / games DESC, player_name ASC`, where)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var out []StatsRow
	for rows.Next() {
		var row StatsRow
		if err := rows.Scan(&row.PlayerName, &row.Games, &row.Wins); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		if row.Games > 0 {
			row.Ratio = row.Wins / row.Games
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read stats: %w", err)
	}
	return out, nil
}

// Records lists raw rows newest first, for the records endpoint.
func (s *RecordStore) Records(ctx context.Context, limit int) ([]MatchRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, player_id, player_name, role_id, won, composite_count, created_at
		FROM match_records
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query match records: %w", err)
	}
	defer rows.Close()

	records, err := pgx.CollectRows(rows, pgx.RowToStructByPos[MatchRecord])
	if err != nil {
		return nil, fmt.Errorf("collect match records: %w", err)
	}
	return records, nil
}
