package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Stats summarizes the database contents.
type Stats struct {
	Battles        int
	Players        int
	Participations int
	Videos         int
	Matches        int
	MatchedBattles int
	Runs           int
	LastRun        *Run
}

// Stats counts rows across the battle and match tables.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	var stats Stats
	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM battles", &stats.Battles},
		{"SELECT COUNT(DISTINCT player_name) FROM battle_participants WHERE player_name IS NOT NULL", &stats.Players},
		{"SELECT COUNT(*) FROM battle_participants", &stats.Participations},
		{"SELECT COUNT(*) FROM videos", &stats.Videos},
		{"SELECT COUNT(*) FROM battle_videos", &stats.Matches},
		{"SELECT COUNT(DISTINCT battle_id) FROM battle_videos", &stats.MatchedBattles},
		{"SELECT COUNT(*) FROM match_runs", &stats.Runs},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return stats, fmt.Errorf("stats query %q: %w", c.query, err)
		}
	}

	runs, err := s.RecentRuns(ctx, 1)
	if err != nil {
		return stats, err
	}
	if len(runs) > 0 {
		stats.LastRun = &runs[0]
	}
	return stats, nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), s.rebind(`SELECT run_id, started_at, finished_at, videos, failed_videos, screenshots, matches
        FROM match_runs ORDER BY started_at DESC, run_id LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run               Run
			started, finished string
		)
		if err := rows.Scan(&run.ID, &started, &finished, &run.Videos, &run.FailedVideos, &run.Screenshots, &run.Matches); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// VideoMatch is one stored match joined with its battle.
type VideoMatch struct {
	MatchRow
	BattleTimestamp string
	MapName         string
}

// VideoDetail is a stored video with its matches in offset order.
type VideoDetail struct {
	Video   VideoRow
	Matches []VideoMatch
}

// VideoDetail loads one video and its matches. It returns ErrNotFound when the
// video has never been committed.
func (s *Store) VideoDetail(ctx context.Context, videoID string) (*VideoDetail, error) {
	ctx = ensureContext(ctx)

	var uploadDate, title, uploader sql.NullString
	err := s.db.QueryRowContext(ctx, s.rebind("SELECT upload_date, title, uploader FROM videos WHERE video_id = ?"), videoID).
		Scan(&uploadDate, &title, &uploader)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("video %s: %w", videoID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query video %s: %w", videoID, err)
	}
	detail := &VideoDetail{Video: VideoRow{
		VideoID:    videoID,
		UploadDate: uploadDate.String,
		Title:      title.String,
		Uploader:   uploader.String,
	}}

	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT bv.battle_id, bv.video_timestamp_sec, bv.match_score,
            bv.ocr_player_count, bv.battle_player_count, b.timestamp, b.map_name
        FROM battle_videos bv
        LEFT JOIN battles b ON b.battle_id = bv.battle_id
        WHERE bv.video_id = ?
        ORDER BY bv.video_timestamp_sec, bv.battle_id`), videoID)
	if err != nil {
		return nil, fmt.Errorf("query matches for %s: %w", videoID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m                  VideoMatch
			score              sql.NullFloat64
			ocrCount, btlCount sql.NullInt64
			timestamp, mapName sql.NullString
		)
		if err := rows.Scan(&m.BattleID, &m.OffsetSeconds, &score, &ocrCount, &btlCount, &timestamp, &mapName); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		m.VideoID = videoID
		m.Score = score.Float64
		m.OCRPlayerCount = int(ocrCount.Int64)
		m.BattlePlayerCount = int(btlCount.Int64)
		m.BattleTimestamp = timestamp.String
		m.MapName = mapName.String
		detail.Matches = append(detail.Matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return detail, nil
}
