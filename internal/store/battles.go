package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"barfinder/internal/battles"
)

// LoadBattles reads every battle row and participation row for index
// construction. NULL player names are returned as empty strings.
func (s *Store) LoadBattles(ctx context.Context) ([]battles.Row, []battles.Participation, error) {
	ctx = ensureContext(ctx)

	rows, err := s.loadBattleRows(ctx)
	if err != nil {
		return nil, nil, err
	}
	participations, err := s.loadParticipations(ctx)
	if err != nil {
		return nil, nil, err
	}
	return rows, participations, nil
}

func (s *Store) loadBattleRows(ctx context.Context) ([]battles.Row, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT battle_id, timestamp FROM battles")
	if err != nil {
		return nil, fmt.Errorf("query battles: %w", err)
	}
	defer rows.Close()

	var out []battles.Row
	for rows.Next() {
		var (
			id        string
			timestamp sql.NullString
		)
		if err := rows.Scan(&id, &timestamp); err != nil {
			return nil, fmt.Errorf("scan battle: %w", err)
		}
		out = append(out, battles.Row{ID: id, Timestamp: timestamp.String})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate battles: %w", err)
	}
	return out, nil
}

func (s *Store) loadParticipations(ctx context.Context) ([]battles.Participation, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT battle_id, player_name FROM battle_participants")
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	var out []battles.Participation
	for rows.Next() {
		var battleID, name sql.NullString
		if err := rows.Scan(&battleID, &name); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, battles.Participation{BattleID: battleID.String, PlayerName: name.String})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return out, nil
}

// BattleImport is one battle as delivered by the replay collector.
type BattleImport struct {
	ID        string   `json:"battle_id"`
	Timestamp string   `json:"timestamp"`
	MapName   string   `json:"map_name"`
	Players   []string `json:"players"`
}

// ImportStats summarizes an ImportBattles call.
type ImportStats struct {
	Battles      int
	Participants int
	Skipped      int
}

// ImportBattles upserts battles with their participants in one transaction.
// Battles without an id or timestamp are skipped; empty player names are ignored.
func (s *Store) ImportBattles(ctx context.Context, items []BattleImport) (ImportStats, error) {
	ctx = ensureContext(ctx)
	var stats ImportStats

	var tx *sql.Tx
	if err := retryOnBusy(ctx, func() error {
		var err error
		tx, err = s.db.BeginTx(ctx, nil)
		return err
	}); err != nil {
		return stats, fmt.Errorf("begin import tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	battleStmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO battles (battle_id, timestamp, map_name) VALUES (?, ?, ?)
        ON CONFLICT(battle_id) DO UPDATE SET timestamp = excluded.timestamp, map_name = excluded.map_name`))
	if err != nil {
		return stats, fmt.Errorf("prepare battle upsert: %w", err)
	}
	defer battleStmt.Close()

	playerStmt, err := tx.PrepareContext(ctx, s.rebind("INSERT INTO players (player_name) VALUES (?) ON CONFLICT DO NOTHING"))
	if err != nil {
		return stats, fmt.Errorf("prepare player insert: %w", err)
	}
	defer playerStmt.Close()

	participantStmt, err := tx.PrepareContext(ctx, s.rebind("INSERT INTO battle_participants (battle_id, player_name) VALUES (?, ?) ON CONFLICT DO NOTHING"))
	if err != nil {
		return stats, fmt.Errorf("prepare participant insert: %w", err)
	}
	defer participantStmt.Close()

	for _, item := range items {
		id := strings.TrimSpace(item.ID)
		if id == "" || strings.TrimSpace(item.Timestamp) == "" {
			stats.Skipped++
			continue
		}
		if _, err := battleStmt.ExecContext(ctx, id, item.Timestamp, nullString(item.MapName)); err != nil {
			return stats, fmt.Errorf("upsert battle %s: %w", id, err)
		}
		stats.Battles++
		for _, player := range item.Players {
			if player == "" {
				continue
			}
			if _, err := playerStmt.ExecContext(ctx, player); err != nil {
				return stats, fmt.Errorf("insert player %q: %w", player, err)
			}
			if _, err := participantStmt.ExecContext(ctx, id, player); err != nil {
				return stats, fmt.Errorf("insert participant %q for %s: %w", player, id, err)
			}
			stats.Participants++
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("commit import: %w", err)
	}
	return stats, nil
}
