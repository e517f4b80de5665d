package pipeline

import (
	"time"

	"barfinder/internal/annotate"
	"barfinder/internal/matching"
	"barfinder/internal/store"
)

// ScreenshotResult is the verdict for one screenshot.
type ScreenshotResult struct {
	VideoID       string
	Offset        string
	OffsetSeconds int
	// Names is the raw recognized list.
	Names                  []string
	BattleID               string
	Score                  float64
	OCRNameCount           int
	BattleParticipantCount int
	Outcome                matching.Outcome
}

// VideoResult is the output of one task. Err is set when the video failed;
// a failed video carries no screenshot results.
type VideoResult struct {
	VideoID     string
	Video       store.VideoRow
	Screenshots []ScreenshotResult
	Err         error
	Duration    time.Duration
}

// Failed reports whether the task failed.
func (r VideoResult) Failed() bool {
	return r.Err != nil
}

// MatchRows returns the persisted rows for matched screenshots.
func (r VideoResult) MatchRows() []store.MatchRow {
	var rows []store.MatchRow
	for _, s := range r.Screenshots {
		if s.BattleID == "" {
			continue
		}
		rows = append(rows, store.MatchRow{
			BattleID:          s.BattleID,
			VideoID:           r.VideoID,
			OffsetSeconds:     s.OffsetSeconds,
			Score:             s.Score,
			OCRPlayerCount:    s.OCRNameCount,
			BattlePlayerCount: s.BattleParticipantCount,
		})
	}
	return rows
}

// Annotated returns the document entries for every screenshot of the video.
func (r VideoResult) Annotated() []annotate.Screenshot {
	out := make([]annotate.Screenshot, 0, len(r.Screenshots))
	for _, s := range r.Screenshots {
		out = append(out, annotate.Screenshot{
			Offset:          s.Offset,
			PlayersOCR:      s.Names,
			MatchedBattleID: s.BattleID,
			MatchScore:      s.Score,
		})
	}
	return out
}

// Summary aggregates a run.
type Summary struct {
	Videos       int
	FailedVideos int
	Screenshots  int
	Matches      int
	Outcomes     map[matching.Outcome]int
	Duration     time.Duration
}

// Result is the ordered output of Coordinator.Run.
type Result struct {
	Videos  []VideoResult
	Summary Summary
}

// Batch converts the successful results into the store batch for a run.
func (r *Result) Batch(runID string, startedAt, finishedAt time.Time) store.Batch {
	batch := store.Batch{
		Run: store.Run{
			ID:           runID,
			StartedAt:    startedAt,
			FinishedAt:   finishedAt,
			Videos:       r.Summary.Videos,
			FailedVideos: r.Summary.FailedVideos,
			Screenshots:  r.Summary.Screenshots,
			Matches:      r.Summary.Matches,
		},
	}
	for _, v := range r.Videos {
		if v.Failed() {
			continue
		}
		batch.Videos = append(batch.Videos, v.Video)
		batch.Matches = append(batch.Matches, v.MatchRows()...)
	}
	return batch
}

// Annotations returns the annotated screenshots of every successful video,
// keyed by video id.
func (r *Result) Annotations() map[string][]annotate.Screenshot {
	out := make(map[string][]annotate.Screenshot, len(r.Videos))
	for _, v := range r.Videos {
		if v.Failed() {
			continue
		}
		out[v.VideoID] = v.Annotated()
	}
	return out
}

func summarize(results []VideoResult) Summary {
	summary := Summary{Outcomes: make(map[matching.Outcome]int)}
	for _, v := range results {
		summary.Videos++
		if v.Failed() {
			summary.FailedVideos++
			continue
		}
		for _, s := range v.Screenshots {
			summary.Screenshots++
			summary.Outcomes[s.Outcome]++
			if s.BattleID != "" {
				summary.Matches++
			}
		}
	}
	return summary
}
