package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"barfinder/internal/preflight"
	"barfinder/internal/store"
)

func newDBCommand(ctx *commandContext) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Battle database utilities",
	}

	dbCmd.AddCommand(newDBInitCommand(ctx))
	dbCmd.AddCommand(newDBStatsCommand(ctx))
	dbCmd.AddCommand(newDBImportCommand(ctx))

	return dbCmd
}

func newDBInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create or upgrade the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(commandCtx(cmd), func(st *store.Store) error {
				version, err := st.SchemaVersion(commandCtx(cmd))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database ready (%s): %s\n", st.Driver(), st.Location())
				fmt.Fprintf(out, "Schema version: %d\n", version)
				return nil
			})
		},
	}
}

type dbStatsView struct {
	Driver         string    `json:"driver"`
	Location       string    `json:"location"`
	Reachable      bool      `json:"reachable"`
	Battles        int       `json:"battles"`
	Players        int       `json:"players"`
	Participations int       `json:"participations"`
	Videos         int       `json:"videos"`
	Matches        int       `json:"matches"`
	MatchedBattles int       `json:"matched_battles"`
	Runs           int       `json:"runs"`
	LastRun        *runView  `json:"last_run,omitempty"`
	RecentRuns     []runView `json:"recent_runs,omitempty"`
}

type runView struct {
	ID           string    `json:"run_id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Videos       int       `json:"videos"`
	FailedVideos int       `json:"failed_videos"`
	Screenshots  int       `json:"screenshots"`
	Matches      int       `json:"matches"`
}

func newRunView(run store.Run) runView {
	return runView{
		ID:           run.ID,
		StartedAt:    run.StartedAt,
		FinishedAt:   run.FinishedAt,
		Videos:       run.Videos,
		FailedVideos: run.FailedVideos,
		Screenshots:  run.Screenshots,
		Matches:      run.Matches,
	}
}

func newDBStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var runLimit int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show database row counts and recent match runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(commandCtx(cmd), func(st *store.Store) error {
				reach := preflight.CheckStore(commandCtx(cmd), "Database", st.Location(), st)
				if !reach.Passed {
					return fmt.Errorf("%s: %s", reach.Name, reach.Detail)
				}
				stats, err := st.Stats(commandCtx(cmd))
				if err != nil {
					return err
				}
				runs, err := st.RecentRuns(commandCtx(cmd), runLimit)
				if err != nil {
					return err
				}

				view := dbStatsView{
					Driver:         st.Driver(),
					Location:       st.Location(),
					Reachable:      reach.Passed,
					Battles:        stats.Battles,
					Players:        stats.Players,
					Participations: stats.Participations,
					Videos:         stats.Videos,
					Matches:        stats.Matches,
					MatchedBattles: stats.MatchedBattles,
					Runs:           stats.Runs,
				}
				if stats.LastRun != nil {
					last := newRunView(*stats.LastRun)
					view.LastRun = &last
				}
				for _, run := range runs {
					view.RecentRuns = append(view.RecentRuns, newRunView(run))
				}

				if jsonOutput {
					return writeJSON(cmd, view)
				}
				printDBStats(cmd, view)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().IntVar(&runLimit, "runs", 5, "Number of recent runs to list")
	return cmd
}

func printDBStats(cmd *cobra.Command, view dbStatsView) {
	out := cmd.OutOrStdout()
	writeSection(out, "Database")
	fmt.Fprintf(out, "Driver:   %s\n", view.Driver)
	fmt.Fprintf(out, "Location: %s\n", view.Location)
	fmt.Fprintln(out)

	rows := [][]string{
		{"Battles", formatCount(view.Battles)},
		{"Players", formatCount(view.Players)},
		{"Participations", formatCount(view.Participations)},
		{"Videos", formatCount(view.Videos)},
		{"Matches", formatCount(view.Matches)},
		{"Matched battles", formatCount(view.MatchedBattles)},
		{"Runs", formatCount(view.Runs)},
	}
	fmt.Fprintln(out, renderTable([]string{"Table", "Rows"}, rows, []columnAlignment{alignLeft, alignRight}))

	if len(view.RecentRuns) == 0 {
		fmt.Fprintln(out, "No match runs recorded")
		return
	}
	fmt.Fprintln(out)
	writeSection(out, "Recent Runs")
	runRows := make([][]string, 0, len(view.RecentRuns))
	for _, run := range view.RecentRuns {
		runRows = append(runRows, []string{
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String(),
			formatCount(run.Videos),
			formatCount(run.FailedVideos),
			formatCount(run.Matches),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Run", "Started", "Took", "Videos", "Failed", "Matches"},
		runRows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
	))
}

func newDBImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import battles from a JSON array of replay records",
		Long: `Import battles from a JSON array of objects with battle_id, timestamp,
map_name and players fields. Existing battles are updated in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			var items []store.BattleImport
			if err := json.Unmarshal(raw, &items); err != nil {
				return fmt.Errorf("decode import file: %w", err)
			}
			return ctx.withStore(commandCtx(cmd), func(st *store.Store) error {
				stats, err := st.ImportBattles(commandCtx(cmd), items)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %s battles (%s participants, %s skipped)\n",
					formatCount(stats.Battles), formatCount(stats.Participants), formatCount(stats.Skipped))
				return nil
			})
		},
	}
}
