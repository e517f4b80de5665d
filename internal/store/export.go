package store

import (
	"context"
	"database/sql"
	"fmt"
)

// PlayerBattle pairs a participant with a battle that has at least one video match.
type PlayerBattle struct {
	PlayerName string
	BattleID   string
}

// VideoAppearance is a video in which a battle was matched, at its earliest offset.
type VideoAppearance struct {
	BattleID      string
	VideoID       string
	OffsetSeconds int
	Title         string
	UploadDate    string
	Uploader      string
	MapName       string
}

// MatchedPlayerBattles lists (player, battle) pairs restricted to battles with
// video matches, ordered by player then battle.
func (s *Store) MatchedPlayerBattles(ctx context.Context) ([]PlayerBattle, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT p.player_name, p.battle_id
        FROM battle_participants p
        INNER JOIN battle_videos bv ON p.battle_id = bv.battle_id
        WHERE p.player_name IS NOT NULL
        GROUP BY p.player_name, p.battle_id
        ORDER BY p.player_name, p.battle_id`)
	if err != nil {
		return nil, fmt.Errorf("query player battles: %w", err)
	}
	defer rows.Close()

	var out []PlayerBattle
	for rows.Next() {
		var pb PlayerBattle
		if err := rows.Scan(&pb.PlayerName, &pb.BattleID); err != nil {
			return nil, fmt.Errorf("scan player battle: %w", err)
		}
		out = append(out, pb)
	}
	return out, rows.Err()
}

// BattleAppearances lists every (battle, video) match with video metadata.
func (s *Store) BattleAppearances(ctx context.Context) ([]VideoAppearance, error) {
	return s.appearances(ctx, `SELECT bv.battle_id, bv.video_id, MIN(bv.video_timestamp_sec),
            v.title, v.upload_date, v.uploader, NULL
        FROM battle_videos bv
        JOIN videos v ON bv.video_id = v.video_id
        GROUP BY bv.battle_id, bv.video_id, v.title, v.upload_date, v.uploader
        ORDER BY bv.battle_id, bv.video_id`)
}

// MapAppearances lists matched videos per map, newest upload first within a map.
func (s *Store) MapAppearances(ctx context.Context) ([]VideoAppearance, error) {
	return s.appearances(ctx, `SELECT bv.battle_id, bv.video_id, MIN(bv.video_timestamp_sec),
            v.title, v.upload_date, v.uploader, b.map_name
        FROM battles b
        JOIN battle_videos bv ON b.battle_id = bv.battle_id
        JOIN videos v ON bv.video_id = v.video_id
        WHERE b.map_name IS NOT NULL
        GROUP BY b.map_name, bv.video_id, bv.battle_id, v.title, v.upload_date, v.uploader
        ORDER BY b.map_name, v.upload_date DESC, bv.video_id, bv.battle_id`)
}

func (s *Store) appearances(ctx context.Context, query string) ([]VideoAppearance, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query)
	if err != nil {
		return nil, fmt.Errorf("query appearances: %w", err)
	}
	defer rows.Close()

	var out []VideoAppearance
	for rows.Next() {
		var (
			a                                    VideoAppearance
			offset                               sql.NullInt64
			title, uploadDate, uploader, mapName sql.NullString
		)
		if err := rows.Scan(&a.BattleID, &a.VideoID, &offset, &title, &uploadDate, &uploader, &mapName); err != nil {
			return nil, fmt.Errorf("scan appearance: %w", err)
		}
		a.OffsetSeconds = int(offset.Int64)
		a.Title = title.String
		a.UploadDate = uploadDate.String
		a.Uploader = uploader.String
		a.MapName = mapName.String
		out = append(out, a)
	}
	return out, rows.Err()
}
