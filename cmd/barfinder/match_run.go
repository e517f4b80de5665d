package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"barfinder/internal/annotate"
	"barfinder/internal/battles"
	"barfinder/internal/config"
	"barfinder/internal/logging"
	"barfinder/internal/matching"
	"barfinder/internal/metrics"
	"barfinder/internal/observations"
	"barfinder/internal/pipeline"
	"barfinder/internal/preflight"
	"barfinder/internal/store"
)

// runMatch executes one full match run: index, match, commit, annotate.
// A commit failure aborts the run before the output document is written.
func runMatch(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts matchOptions) (matchReport, error) {
	if err := preflight.Err(preflight.RunAll(cfg)); err != nil {
		return matchReport{}, fmt.Errorf("preflight: %w", err)
	}

	runID := uuid.NewString()
	logger = logging.NewComponentLogger(logger, "match").With(logging.String(logging.FieldRunID, runID))
	recorder := metrics.NewRecorder()
	started := time.Now()

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return matchReport{}, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	idx, stats, err := loadIndex(ctx, st, logger, recorder)
	if err != nil {
		return matchReport{}, err
	}

	doc, err := observations.Load(cfg.Paths.ObservationsPath)
	if err != nil {
		return matchReport{}, err
	}
	logger.Info("observation document loaded",
		logging.String("path", cfg.Paths.ObservationsPath),
		logging.Int("videos", len(doc.Videos)),
		logging.Int("screenshots", doc.ScreenshotCount()),
	)

	engine := matching.NewEngine(matching.PolicyFromConfig(cfg.Matching))
	coordinator := pipeline.NewCoordinator(engine, pipeline.Options{
		Workers:  cfg.WorkerCount(),
		Logger:   logger,
		Observer: recorder,
	})
	result := coordinator.Run(idx, doc.Videos)
	logger.Info("matching complete",
		logging.Int("workers", coordinator.Workers()),
		logging.Int("videos", result.Summary.Videos),
		logging.Int("failed_videos", result.Summary.FailedVideos),
		logging.Int("screenshots", result.Summary.Screenshots),
		logging.Int("matches", result.Summary.Matches),
		logging.Duration("duration", result.Summary.Duration),
	)

	report := newMatchReport(runID, result)
	report.Battles = stats.Battles
	report.Players = stats.Players
	report.Orphans = stats.OrphanParticipations
	report.Workers = coordinator.Workers()
	report.DryRun = opts.dryRun

	if opts.dryRun {
		logger.Info("dry run; skipping commit and output document")
		return report, nil
	}

	commitStart := time.Now()
	batch := result.Batch(runID, started, commitStart)
	if err := st.CommitResults(ctx, batch); err != nil {
		logging.ErrorWithContext(logger, "commit failed", "commit_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check database connectivity and rerun; no matches were kept"),
			logging.String(logging.FieldImpact, "run aborted before the output document was written"),
		)
		return report, fmt.Errorf("commit results: %w", err)
	}
	committedAt := time.Now()
	recorder.ObserveCommit(committedAt.Sub(commitStart), committedAt)
	logger.Info("results committed",
		logging.Int("videos", len(batch.Videos)),
		logging.Int("matches", len(batch.Matches)),
	)

	if err := annotate.Write(cfg.Paths.MatchesOutputPath, doc, result.Annotations()); err != nil {
		return report, fmt.Errorf("write output document: %w", err)
	}
	report.OutputPath = cfg.Paths.MatchesOutputPath
	logger.Info("output document written", logging.String("path", cfg.Paths.MatchesOutputPath))

	recorder.ObserveRun(time.Since(started))
	if err := recorder.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
		logging.WarnWithContext(logger, "metrics textfile not written", "metrics_write_failed",
			logging.Error(err),
			logging.String("path", cfg.Metrics.TextfilePath),
		)
	}
	return report, nil
}

func loadIndex(ctx context.Context, st *store.Store, logger *slog.Logger, recorder *metrics.Recorder) (*battles.Index, battles.Stats, error) {
	start := time.Now()
	rows, participations, err := st.LoadBattles(ctx)
	if err != nil {
		return nil, battles.Stats{}, fmt.Errorf("load battles: %w", err)
	}
	idx, stats := battles.Build(rows, participations)
	elapsed := time.Since(start)
	recorder.ObserveIndex(stats, elapsed)

	if stats.OrphanParticipations > 0 {
		logging.WarnWithContext(logger, "participations reference unknown battles", "orphan_participations",
			logging.Int("count", stats.OrphanParticipations),
			logging.String(logging.FieldErrorHint, "re-import the affected battles from the replay collector"),
			logging.String(logging.FieldImpact, "orphaned names are not matched"),
		)
	}
	logger.Info("battle index built",
		logging.Int("battles", stats.Battles),
		logging.Int("players", stats.Players),
		logging.Int("participations", stats.Participations),
		logging.Duration("duration", elapsed),
	)
	return idx, stats, nil
}

func printMatchReport(cmd *cobra.Command, report matchReport) {
	out := cmd.OutOrStdout()
	writeSection(out, "Match Run")
	fmt.Fprintf(out, "Run ID:      %s\n", report.RunID)
	fmt.Fprintf(out, "Battles:     %s (%s players)\n", formatCount(report.Battles), formatCount(report.Players))
	fmt.Fprintf(out, "Videos:      %s (%s failed)\n", formatCount(report.Videos), formatCount(report.FailedVideos))
	fmt.Fprintf(out, "Screenshots: %s\n", formatCount(report.Screenshots))
	fmt.Fprintf(out, "Matches:     %s\n", formatCount(report.Matches))
	fmt.Fprintf(out, "Workers:     %d\n", report.Workers)
	fmt.Fprintf(out, "Duration:    %s\n", (time.Duration(report.DurationMS) * time.Millisecond).String())
	if report.DryRun {
		fmt.Fprintln(out, "Dry run:     nothing committed")
	} else if report.OutputPath != "" {
		fmt.Fprintf(out, "Output:      %s\n", report.OutputPath)
	}

	if len(report.Outcomes) > 0 {
		fmt.Fprintln(out)
		view := tableView{
			headers: []string{"Outcome", "Screenshots"},
			aligns:  []columnAlignment{alignLeft, alignRight},
			footer:  []string{"Total", formatCount(report.Screenshots)},
		}
		for _, outcome := range matching.Outcomes {
			count, ok := report.Outcomes[string(outcome)]
			if !ok {
				continue
			}
			view.rows = append(view.rows, []string{outcomeLabel(outcome), formatCount(count)})
		}
		fmt.Fprintln(out, view.render())
	}

	if len(report.Failures) > 0 {
		fmt.Fprintln(out)
		writeSection(out, "Failed Videos")
		rows := make([][]string, 0, len(report.Failures))
		for _, f := range report.Failures {
			rows = append(rows, []string{f.VideoID, f.Error})
		}
		fmt.Fprintln(out, renderTable([]string{"Video", "Error"}, rows, []columnAlignment{alignLeft, alignLeft}))
	}
}
