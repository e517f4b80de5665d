package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"barfinder/internal/battles"
	"barfinder/internal/matching"
)

func TestRecorderWritesTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveScreenshot(matching.Match{BattleID: "B1", Score: 100, Outcome: matching.OutcomeMatched})
	r.ObserveScreenshot(matching.Match{Score: 12, Outcome: matching.OutcomeBelowThreshold})
	r.ObserveScreenshot(matching.Match{Outcome: matching.OutcomeTooFewNames})
	r.ObserveVideo(false, 3*time.Millisecond)
	r.ObserveVideo(true, time.Millisecond)
	r.ObserveIndex(battles.Stats{Battles: 12, Players: 40, OrphanParticipations: 2}, time.Second)
	r.ObserveCommit(time.Second, time.Unix(1718000000, 0))

	path := filepath.Join(t.TempDir(), "textfile", "barfinder.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{
		`barfinder_match_screenshots_total{outcome="matched"} 1`,
		`barfinder_match_screenshots_total{outcome="too_few_names"} 1`,
		`barfinder_match_screenshots_total{outcome="no_candidate"} 0`,
		`barfinder_match_best_score_count 2`,
		`barfinder_match_videos_total{status="failed"} 1`,
		`barfinder_index_battles 12`,
		`barfinder_index_orphan_participations 2`,
		`barfinder_run_last_success_timestamp_seconds 1.718e+09`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in textfile:\n%s", want, text)
		}
	}
}

func TestWriteTextfileDisabled(t *testing.T) {
	if err := NewRecorder().WriteTextfile(""); err != nil {
		t.Fatalf("expected empty path to be a no-op, got %v", err)
	}
}
