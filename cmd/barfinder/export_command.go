package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"barfinder/internal/config"
	"barfinder/internal/export"
	"barfinder/internal/observations"
	"barfinder/internal/store"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var matchesPath string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Build the frontend data file from stored matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			source, err := resolvePathFlag(matchesPath, cfg.Paths.MatchesOutputPath)
			if err != nil {
				return fmt.Errorf("resolve --matches: %w", err)
			}
			target, err := resolvePathFlag(outputPath, cfg.Paths.FrontendOutputPath)
			if err != nil {
				return fmt.Errorf("resolve --output: %w", err)
			}

			doc, err := observations.Load(source)
			if err != nil {
				return err
			}

			var data *export.Data
			err = ctx.withStore(commandCtx(cmd), func(st *store.Store) error {
				var buildErr error
				data, buildErr = export.Build(commandCtx(cmd), st, doc)
				return buildErr
			})
			if err != nil {
				return err
			}
			if err := export.Write(target, data); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote frontend data to %s\n", target)
			fmt.Fprintf(out, "Players: %s  Battles: %s  Maps: %s  OCR entries: %s\n",
				formatCount(len(data.AllPlayerNames)),
				formatCount(len(data.BattleMatches)),
				formatCount(len(data.AllMapNames)),
				formatCount(len(data.OCRIndex)),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&matchesPath, "matches", "", "Annotated match document (defaults to paths.matches_output_path)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination (defaults to paths.frontend_output_path)")
	return cmd
}

func resolvePathFlag(value, fallback string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	return config.ExpandPath(value)
}
