package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"barfinder/internal/battles"
	"barfinder/internal/logging"
	"barfinder/internal/matching"
	"barfinder/internal/observations"
	"barfinder/internal/store"
)

// ErrTaskPanic marks a task that panicked and was recovered.
var ErrTaskPanic = errors.New("task panicked")

// Observer receives per-screenshot and per-video notifications from workers.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveScreenshot(match matching.Match)
	ObserveVideo(failed bool, duration time.Duration)
}

// Options configures a Coordinator.
type Options struct {
	Workers  int
	Logger   *slog.Logger
	Observer Observer
}

// Coordinator fans videos out to a fixed worker pool.
type Coordinator struct {
	engine   *matching.Engine
	workers  int
	logger   *slog.Logger
	observer Observer
}

// NewCoordinator constructs a coordinator around engine.
func NewCoordinator(engine *matching.Engine, opts Options) *Coordinator {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Coordinator{
		engine:   engine,
		workers:  max(workers, 1),
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		observer: opts.Observer,
	}
}

// Workers returns the pool size.
func (c *Coordinator) Workers() int {
	return c.workers
}

// env is the immutable state handed to every worker at spawn.
type env struct {
	index    *battles.Index
	engine   *matching.Engine
	logger   *slog.Logger
	observer Observer
}

// Run processes every video and blocks until all tasks finish. The returned
// results are in input order.
func (c *Coordinator) Run(idx *battles.Index, videos []observations.Video) *Result {
	return c.run(idx, videos, processVideo)
}

type taskFunc func(env env, video observations.Video) ([]ScreenshotResult, error)

func (c *Coordinator) run(idx *battles.Index, videos []observations.Video, task taskFunc) *Result {
	start := time.Now()
	results := make([]VideoResult, len(videos))

	shared := env{index: idx, engine: c.engine, logger: c.logger, observer: c.observer}
	positions := make(chan int)
	var wg sync.WaitGroup
	poolSize := min(c.workers, max(len(videos), 1))
	for id := range poolSize {
		wg.Add(1)
		go func(w worker) {
			defer wg.Done()
			for pos := range positions {
				results[pos] = w.execute(videos[pos], task)
			}
		}(worker{id: id, env: shared, logger: shared.logger.With(logging.Int(logging.FieldWorker, id))})
	}

	c.logger.Debug("dispatching videos", logging.Int("videos", len(videos)), logging.Int("workers", poolSize))
	for pos := range videos {
		positions <- pos
	}
	close(positions)
	wg.Wait()

	summary := summarize(results)
	summary.Duration = time.Since(start)
	return &Result{Videos: results, Summary: summary}
}

type worker struct {
	id     int
	env    env
	logger *slog.Logger
}

func (w worker) execute(video observations.Video, task taskFunc) VideoResult {
	start := time.Now()
	result := VideoResult{
		VideoID: video.ID,
		Video: store.VideoRow{
			VideoID:    video.ID,
			UploadDate: video.UploadDate,
			Title:      video.Title,
			Uploader:   video.Uploader,
		},
	}

	shots, err := w.safeExecute(video, task)
	result.Duration = time.Since(start)
	if err != nil {
		result.Err = err
		logging.ErrorWithContext(w.logger, "video task failed", "video_task_failed",
			logging.String(logging.FieldVideoID, video.ID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the video entry in the observation document"),
			logging.String(logging.FieldImpact, "video skipped; no rows written for it"),
		)
	} else {
		result.Screenshots = shots
		w.logger.Debug("video processed",
			logging.String(logging.FieldVideoID, video.ID),
			logging.Int("screenshots", len(shots)),
			logging.Duration("duration", result.Duration),
		)
	}
	if w.env.observer != nil {
		w.env.observer.ObserveVideo(err != nil, result.Duration)
	}
	return result
}

func (w worker) safeExecute(video observations.Video, task taskFunc) (shots []ScreenshotResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			shots = nil
			err = fmt.Errorf("%w: %v", ErrTaskPanic, r)
			w.logger.Debug("task panic stack",
				logging.String(logging.FieldVideoID, video.ID),
				logging.String("stack", string(debug.Stack())),
			)
		}
	}()
	return task(w.env, video)
}

func processVideo(env env, video observations.Video) ([]ScreenshotResult, error) {
	if video.Err != nil {
		return nil, video.Err
	}

	shots := make([]ScreenshotResult, 0, len(video.Screenshots))
	unparsableTimestamps := 0
	referenceSkipped := false
	for _, shot := range video.Screenshots {
		if shot.Err != nil {
			return nil, shot.Err
		}
		offset, err := shot.OffsetSeconds()
		if err != nil {
			return nil, err
		}

		match := env.engine.FindBestMatch(shot.Names, video.UploadDate, env.index)
		if env.observer != nil {
			env.observer.ObserveScreenshot(match)
		}
		unparsableTimestamps += match.UnparsableTimestamps
		if match.Candidates > 0 && !match.ReferenceDateValid {
			referenceSkipped = true
		}

		result := ScreenshotResult{
			VideoID:       video.ID,
			Offset:        shot.Offset,
			OffsetSeconds: offset,
			Names:         shot.Names,
			BattleID:      match.BattleID,
			Score:         match.Score,
			OCRNameCount:  len(shot.Names),
			Outcome:       match.Outcome,
		}
		if match.Matched() {
			if record, ok := env.index.Lookup(match.BattleID); ok {
				result.BattleParticipantCount = record.ParticipantCount()
			}
		}
		shots = append(shots, result)
	}

	if referenceSkipped {
		env.logger.Debug("upload date unparsable; date filter skipped",
			logging.String(logging.FieldVideoID, video.ID),
			logging.String("upload_date", video.UploadDate),
		)
	}
	if unparsableTimestamps > 0 {
		env.logger.Debug("candidate battles dropped for unparsable timestamps",
			logging.String(logging.FieldVideoID, video.ID),
			logging.Int("count", unparsableTimestamps),
		)
	}
	return shots, nil
}
