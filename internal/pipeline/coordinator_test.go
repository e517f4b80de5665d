package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"barfinder/internal/battles"
	"barfinder/internal/matching"
	"barfinder/internal/observations"
)

var participants = []string{"alice", "bob", "carol", "dave", "eve", "frank"}

func testIndex() *battles.Index {
	rows := []battles.Row{
		{ID: "B1", Timestamp: "2024-06-01T12:00:00.000Z"},
		{ID: "B2", Timestamp: "2024-06-10T12:00:00.000Z"},
	}
	var parts []battles.Participation
	for _, name := range participants {
		parts = append(parts, battles.Participation{BattleID: "B1", PlayerName: name})
	}
	for _, name := range []string{"bob", "carol", "zara", "yuri", "xena", "walt", "vera"} {
		parts = append(parts, battles.Participation{BattleID: "B2", PlayerName: name})
	}
	idx, _ := battles.Build(rows, parts)
	return idx
}

func decodeVideos(t *testing.T, doc string) []observations.Video {
	t.Helper()
	parsed, err := observations.Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return parsed.Videos
}

type countingObserver struct {
	mu          sync.Mutex
	screenshots int
	outcomes    map[matching.Outcome]int
	failed      int
	videos      int
}

func (o *countingObserver) ObserveScreenshot(m matching.Match) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = make(map[matching.Outcome]int)
	}
	o.screenshots++
	o.outcomes[m.Outcome]++
}

func (o *countingObserver) ObserveVideo(failed bool, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.videos++
	if failed {
		o.failed++
	}
}

func TestRunMatchesAndPreservesOrder(t *testing.T) {
	videos := decodeVideos(t, `{
  "v_match": {"upload_date": "20240615", "title": "Cast", "uploader": "caster", "screenshots": {
      "120": ["alice", "bob", "carol", "dave", "eve", "frank", "alice", ""],
      "30": ["alice", "bob"]
  }},
  "v_future": {"upload_date": "20240501", "screenshots": {"10": ["alice", "bob", "carol", "dave", "eve", "frank"]}},
  "v_bad_offset": {"upload_date": "20240615", "screenshots": {"1:00": ["alice"]}},
  "v_empty": {"upload_date": "20240615", "screenshots": {}}
}`)
	observer := &countingObserver{}
	coord := NewCoordinator(matching.NewEngine(matching.DefaultPolicy()), Options{Workers: 3, Observer: observer})
	result := coord.Run(testIndex(), videos)

	if len(result.Videos) != 4 {
		t.Fatalf("expected 4 results, got %d", len(result.Videos))
	}
	for i, want := range []string{"v_match", "v_future", "v_bad_offset", "v_empty"} {
		if result.Videos[i].VideoID != want {
			t.Fatalf("result %d: expected %s, got %s", i, want, result.Videos[i].VideoID)
		}
	}

	matched := result.Videos[0]
	if matched.Failed() || len(matched.Screenshots) != 2 {
		t.Fatalf("unexpected matched video result %+v", matched)
	}
	first := matched.Screenshots[0]
	if first.BattleID != "B1" || first.Score != 100 || first.OffsetSeconds != 120 {
		t.Fatalf("unexpected first screenshot %+v", first)
	}
	if first.OCRNameCount != 8 || first.BattleParticipantCount != 6 {
		t.Fatalf("expected raw OCR count 8 and 6 battle players, got %+v", first)
	}
	if matched.Screenshots[1].Outcome != matching.OutcomeTooFewNames {
		t.Fatalf("expected too_few_names for second screenshot, got %+v", matched.Screenshots[1])
	}

	if result.Videos[1].Screenshots[0].Outcome != matching.OutcomeOutsideWindow {
		t.Fatalf("expected battle after upload to be excluded, got %+v", result.Videos[1].Screenshots[0])
	}
	if !result.Videos[2].Failed() {
		t.Fatal("expected malformed offset to fail the video")
	}

	s := result.Summary
	if s.Videos != 4 || s.FailedVideos != 1 || s.Screenshots != 3 || s.Matches != 1 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.Outcomes[matching.OutcomeMatched] != 1 || s.Outcomes[matching.OutcomeOutsideWindow] != 1 {
		t.Fatalf("unexpected outcome counts %v", s.Outcomes)
	}
	if observer.videos != 4 || observer.failed != 1 || observer.screenshots != 3 {
		t.Fatalf("unexpected observer counts %+v", observer)
	}

	batch := result.Batch("run-1", time.Now(), time.Now())
	if len(batch.Videos) != 3 {
		t.Fatalf("expected failed video to be excluded from batch, got %d videos", len(batch.Videos))
	}
	if len(batch.Matches) != 1 || batch.Matches[0].VideoID != "v_match" || batch.Matches[0].BattleID != "B1" {
		t.Fatalf("unexpected batch matches %+v", batch.Matches)
	}
	if batch.Run.ID != "run-1" || batch.Run.FailedVideos != 1 {
		t.Fatalf("unexpected run row %+v", batch.Run)
	}

	annotations := result.Annotations()
	if _, ok := annotations["v_bad_offset"]; ok {
		t.Fatal("failed video must not be annotated")
	}
	if got := annotations["v_match"]; len(got) != 2 || got[0].MatchedBattleID != "B1" || got[1].MatchedBattleID != "" {
		t.Fatalf("unexpected annotations %+v", got)
	}
}

func TestRunIsolatesFailingAndPanickingTasks(t *testing.T) {
	var videos []observations.Video
	for i := range 40 {
		videos = append(videos, observations.Video{ID: fmt.Sprintf("v%02d", i)})
	}
	task := func(_ env, video observations.Video) ([]ScreenshotResult, error) {
		// Later videos finish first.
		var n int
		fmt.Sscanf(video.ID, "v%d", &n)
		time.Sleep(time.Duration(40-n) * 100 * time.Microsecond)
		switch {
		case n == 7:
			return nil, errors.New("boom")
		case n == 13:
			panic("unexpected nil")
		}
		return []ScreenshotResult{{VideoID: video.ID, Offset: "0"}}, nil
	}

	coord := NewCoordinator(matching.NewEngine(matching.DefaultPolicy()), Options{Workers: 8})
	result := coord.run(testIndex(), videos, task)

	for i, v := range result.Videos {
		if v.VideoID != videos[i].ID {
			t.Fatalf("position %d holds %s", i, v.VideoID)
		}
		switch i {
		case 7:
			if v.Err == nil || errors.Is(v.Err, ErrTaskPanic) {
				t.Fatalf("expected plain error for v07, got %v", v.Err)
			}
		case 13:
			if !errors.Is(v.Err, ErrTaskPanic) || len(v.Screenshots) != 0 {
				t.Fatalf("expected recovered panic for v13, got %+v", v)
			}
		default:
			if v.Err != nil || len(v.Screenshots) != 1 || v.Screenshots[0].VideoID != v.VideoID {
				t.Fatalf("unexpected result at %d: %+v", i, v)
			}
		}
	}
	if result.Summary.FailedVideos != 2 || result.Summary.Videos != 40 {
		t.Fatalf("unexpected summary %+v", result.Summary)
	}
}

func TestRunHandsEveryWorkerTheSameIndex(t *testing.T) {
	idx := testIndex()
	var (
		mu   sync.Mutex
		seen = map[*battles.Index]int{}
	)
	task := func(e env, _ observations.Video) ([]ScreenshotResult, error) {
		mu.Lock()
		seen[e.index]++
		mu.Unlock()
		return nil, nil
	}
	videos := make([]observations.Video, 25)
	for i := range videos {
		videos[i].ID = fmt.Sprint(i)
	}

	coord := NewCoordinator(matching.NewEngine(matching.DefaultPolicy()), Options{Workers: 4})
	coord.run(idx, videos, task)

	if len(seen) != 1 || seen[idx] != 25 {
		t.Fatalf("expected all tasks to see the shared index, got %v", seen)
	}
}

func TestRunWithNoVideos(t *testing.T) {
	coord := NewCoordinator(matching.NewEngine(matching.DefaultPolicy()), Options{})
	if coord.Workers() < 1 {
		t.Fatalf("expected at least one worker, got %d", coord.Workers())
	}
	result := coord.Run(testIndex(), nil)
	if len(result.Videos) != 0 || result.Summary.Videos != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestRunFailsVideoWithMalformedEntry(t *testing.T) {
	videos := decodeVideos(t, `{"broken": "not an object", "names": {"screenshots": {"5": [1]}}}`)
	coord := NewCoordinator(matching.NewEngine(matching.DefaultPolicy()), Options{Workers: 1})
	result := coord.Run(testIndex(), videos)
	if !result.Videos[0].Failed() || !result.Videos[1].Failed() {
		t.Fatalf("expected both videos to fail, got %+v", result.Videos)
	}
}
