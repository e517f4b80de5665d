package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// VideoRow is the metadata stored for every processed video.
type VideoRow struct {
	VideoID    string
	UploadDate string
	Title      string
	Uploader   string
}

// MatchRow links a battle to a screenshot offset within a video.
type MatchRow struct {
	BattleID          string
	VideoID           string
	OffsetSeconds     int
	Score             float64
	OCRPlayerCount    int
	BattlePlayerCount int
}

// Run is the audit record of one committed match run.
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	Videos       int
	FailedVideos int
	Screenshots  int
	Matches      int
}

// Batch is everything a match run persists.
type Batch struct {
	Run     Run
	Videos  []VideoRow
	Matches []MatchRow
}

// CommitResults writes the batch in a single transaction. Existing rows for
// the same video, or the same (battle, video, offset), are updated to the new
// values. On any error nothing from the batch is kept.
func (s *Store) CommitResults(ctx context.Context, batch Batch) error {
	ctx = ensureContext(ctx)

	var tx *sql.Tx
	if err := retryOnBusy(ctx, func() error {
		var err error
		tx, err = s.db.BeginTx(ctx, nil)
		return err
	}); err != nil {
		return fmt.Errorf("begin commit tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.upsertVideos(ctx, tx, batch.Videos); err != nil {
		return err
	}
	if err := s.upsertMatches(ctx, tx, batch.Matches); err != nil {
		return err
	}
	if batch.Run.ID != "" {
		if err := s.insertRun(ctx, tx, batch.Run); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit results: %w", err)
	}
	return nil
}

func (s *Store) upsertVideos(ctx context.Context, tx *sql.Tx, videos []VideoRow) error {
	if len(videos) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO videos (video_id, upload_date, title, uploader) VALUES (?, ?, ?, ?)
        ON CONFLICT(video_id) DO UPDATE SET
            upload_date = excluded.upload_date,
            title = excluded.title,
            uploader = excluded.uploader`))
	if err != nil {
		return fmt.Errorf("prepare video upsert: %w", err)
	}
	defer stmt.Close()

	for _, v := range videos {
		if _, err := stmt.ExecContext(ctx, v.VideoID, nullString(v.UploadDate), nullString(v.Title), nullString(v.Uploader)); err != nil {
			return fmt.Errorf("upsert video %s: %w", v.VideoID, err)
		}
	}
	return nil
}

func (s *Store) upsertMatches(ctx context.Context, tx *sql.Tx, matches []MatchRow) error {
	if len(matches) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO battle_videos (
            battle_id, video_id, video_timestamp_sec, match_score, ocr_player_count, battle_player_count
        ) VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(battle_id, video_id, video_timestamp_sec) DO UPDATE SET
            match_score = excluded.match_score,
            ocr_player_count = excluded.ocr_player_count,
            battle_player_count = excluded.battle_player_count`))
	if err != nil {
		return fmt.Errorf("prepare match upsert: %w", err)
	}
	defer stmt.Close()

	for _, m := range matches {
		if _, err := stmt.ExecContext(ctx, m.BattleID, m.VideoID, m.OffsetSeconds, m.Score, m.OCRPlayerCount, m.BattlePlayerCount); err != nil {
			return fmt.Errorf("upsert match %s/%s@%d: %w", m.BattleID, m.VideoID, m.OffsetSeconds, err)
		}
	}
	return nil
}

func (s *Store) insertRun(ctx context.Context, tx *sql.Tx, run Run) error {
	_, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO match_runs (
            run_id, started_at, finished_at, videos, failed_videos, screenshots, matches
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		run.ID,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.Videos,
		run.FailedVideos,
		run.Screenshots,
		run.Matches,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}
