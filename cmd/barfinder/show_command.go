package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"barfinder/internal/store"
)

type showMatchView struct {
	BattleID          string  `json:"battle_id"`
	OffsetSeconds     int     `json:"offset_seconds"`
	Score             float64 `json:"score"`
	OCRPlayerCount    int     `json:"ocr_player_count"`
	BattlePlayerCount int     `json:"battle_player_count"`
	BattleTimestamp   string  `json:"battle_timestamp,omitempty"`
	MapName           string  `json:"map_name,omitempty"`
}

type showView struct {
	VideoID    string          `json:"video_id"`
	Title      string          `json:"title,omitempty"`
	Uploader   string          `json:"uploader,omitempty"`
	UploadDate string          `json:"upload_date,omitempty"`
	Matches    []showMatchView `json:"matches"`
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <video_id>",
		Short: "Show the stored matches for a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID := args[0]
			return ctx.withStore(commandCtx(cmd), func(st *store.Store) error {
				detail, err := st.VideoDetail(commandCtx(cmd), videoID)
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("video %s has no stored results", videoID)
				}
				if err != nil {
					return err
				}

				view := showView{
					VideoID:    detail.Video.VideoID,
					Title:      detail.Video.Title,
					Uploader:   detail.Video.Uploader,
					UploadDate: detail.Video.UploadDate,
					Matches:    make([]showMatchView, 0, len(detail.Matches)),
				}
				for _, m := range detail.Matches {
					view.Matches = append(view.Matches, showMatchView{
						BattleID:          m.BattleID,
						OffsetSeconds:     m.OffsetSeconds,
						Score:             m.Score,
						OCRPlayerCount:    m.OCRPlayerCount,
						BattlePlayerCount: m.BattlePlayerCount,
						BattleTimestamp:   m.BattleTimestamp,
						MapName:           m.MapName,
					})
				}

				if jsonOutput {
					return writeJSON(cmd, view)
				}
				printShowView(cmd, view)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printShowView(cmd *cobra.Command, view showView) {
	out := cmd.OutOrStdout()
	writeSection(out, "Video "+view.VideoID)
	fmt.Fprintf(out, "Title:    %s\n", valueOr(view.Title, "Unknown"))
	fmt.Fprintf(out, "Uploader: %s\n", valueOr(view.Uploader, "Unknown"))
	fmt.Fprintf(out, "Uploaded: %s\n", valueOr(view.UploadDate, "Unknown"))
	fmt.Fprintln(out)

	if len(view.Matches) == 0 {
		fmt.Fprintln(out, "No matched screenshots")
		return
	}
	rows := make([][]string, 0, len(view.Matches))
	for _, m := range view.Matches {
		rows = append(rows, []string{
			formatOffset(m.OffsetSeconds),
			m.BattleID,
			strconv.FormatFloat(m.Score, 'f', 2, 64),
			fmt.Sprintf("%d/%d", m.OCRPlayerCount, m.BattlePlayerCount),
			valueOr(m.MapName, "-"),
			valueOr(m.BattleTimestamp, "-"),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Offset", "Battle", "Score", "Names", "Map", "Battle Time"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	))
}

func formatOffset(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
