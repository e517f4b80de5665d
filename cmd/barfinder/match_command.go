package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"barfinder/internal/config"
	"barfinder/internal/pipeline"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var opts matchOptions

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match every screenshot in the observation document to a battle",
		Long: `Load the battle index, score every screenshot of every video against it,
commit the matches to the database and write the annotated output document.

Videos whose entries cannot be processed are reported and left out of the
commit; the rest of the run continues.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := opts.apply(cfg); err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another match run holds %s", cfg.LockPath())
			}
			defer func() { _ = lock.Unlock() }()

			report, err := runMatch(commandCtx(cmd), cfg, logger, opts)
			if err != nil {
				return err
			}
			if opts.json {
				return writeJSON(cmd, report)
			}
			printMatchReport(cmd, report)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.observations, "observations", "", "Observation document to read (overrides paths.observations_path)")
	cmd.Flags().StringVar(&opts.output, "output", "", "Annotated output document (overrides paths.matches_output_path)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Worker count (overrides workers.count)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Match without committing to the database or writing the output document")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output the run summary as JSON")
	return cmd
}

type matchOptions struct {
	observations string
	output       string
	workers      int
	dryRun       bool
	json         bool
}

func (o matchOptions) apply(cfg *config.Config) error {
	if o.workers < 0 {
		return errors.New("--workers must be zero or positive")
	}
	if o.workers > 0 {
		cfg.Workers.Count = o.workers
	}
	if path := strings.TrimSpace(o.observations); path != "" {
		expanded, err := config.ExpandPath(path)
		if err != nil {
			return fmt.Errorf("resolve --observations: %w", err)
		}
		cfg.Paths.ObservationsPath = expanded
	}
	if path := strings.TrimSpace(o.output); path != "" {
		expanded, err := config.ExpandPath(path)
		if err != nil {
			return fmt.Errorf("resolve --output: %w", err)
		}
		cfg.Paths.MatchesOutputPath = expanded
		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}
	}
	return nil
}

// matchReport is the user-facing summary of a run.
type matchReport struct {
	RunID        string         `json:"run_id"`
	DryRun       bool           `json:"dry_run"`
	Battles      int            `json:"battles"`
	Players      int            `json:"players"`
	Orphans      int            `json:"orphan_participations"`
	Workers      int            `json:"workers"`
	Videos       int            `json:"videos"`
	FailedVideos int            `json:"failed_videos"`
	Screenshots  int            `json:"screenshots"`
	Matches      int            `json:"matches"`
	Outcomes     map[string]int `json:"outcomes"`
	Failures     []videoFailure `json:"failures,omitempty"`
	DurationMS   int64          `json:"duration_ms"`
	OutputPath   string         `json:"output_path,omitempty"`
}

type videoFailure struct {
	VideoID string `json:"video_id"`
	Error   string `json:"error"`
}

func newMatchReport(runID string, result *pipeline.Result) matchReport {
	report := matchReport{
		RunID:        runID,
		Videos:       result.Summary.Videos,
		FailedVideos: result.Summary.FailedVideos,
		Screenshots:  result.Summary.Screenshots,
		Matches:      result.Summary.Matches,
		Outcomes:     make(map[string]int, len(result.Summary.Outcomes)),
		DurationMS:   result.Summary.Duration.Milliseconds(),
	}
	for outcome, count := range result.Summary.Outcomes {
		report.Outcomes[string(outcome)] = count
	}
	for _, video := range result.Videos {
		if video.Failed() {
			report.Failures = append(report.Failures, videoFailure{VideoID: video.VideoID, Error: video.Err.Error()})
		}
	}
	return report
}
