// Package export builds the single JSON document consumed by the static
// search frontend: player, OCR-name and map lookups over matched battles.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"barfinder/internal/fileutil"
	"barfinder/internal/observations"
	"barfinder/internal/store"
)

const (
	unknownTitle = "Unknown Title"
	notAvailable = "N/A"
)

// Source supplies the relational half of the export.
type Source interface {
	MatchedPlayerBattles(ctx context.Context) ([]store.PlayerBattle, error)
	BattleAppearances(ctx context.Context) ([]store.VideoAppearance, error)
	MapAppearances(ctx context.Context) ([]store.VideoAppearance, error)
}

// VideoMatch is a video in which a battle appears.
type VideoMatch struct {
	VideoID    string `json:"video_id"`
	Timestamp  int    `json:"timestamp"`
	Title      string `json:"title"`
	UploadDate string `json:"upload_date"`
	Uploader   string `json:"uploader"`
	BattleID   string `json:"battle_id,omitempty"`
}

// OCREntry is one recognized name with its video context.
type OCREntry struct {
	OCRName    string `json:"ocr_name"`
	VideoID    string `json:"video_id"`
	Timestamp  int    `json:"timestamp"`
	Title      string `json:"title"`
	UploadDate string `json:"upload_date"`
	Uploader   string `json:"uploader"`
}

// Data is the frontend document.
type Data struct {
	PlayerIndex    map[string][]string     `json:"player_index"`
	AllPlayerNames []string                `json:"all_player_names"`
	BattleMatches  map[string][]VideoMatch `json:"battle_matches"`
	OCRIndex       []OCREntry              `json:"ocr_index"`
	MapIndex       map[string][]VideoMatch `json:"map_index"`
	AllMapNames    []string                `json:"all_map_names"`
	LastBattle     int                     `json:"last_battle"`
}

// Build assembles the export. matches may be nil when no annotated document
// exists yet; the OCR index is then empty.
func Build(ctx context.Context, src Source, matches *observations.Document) (*Data, error) {
	data := &Data{
		PlayerIndex:    make(map[string][]string),
		AllPlayerNames: []string{},
		BattleMatches:  make(map[string][]VideoMatch),
		OCRIndex:       []OCREntry{},
		MapIndex:       make(map[string][]VideoMatch),
		AllMapNames:    []string{},
	}

	players, err := src.MatchedPlayerBattles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load player index: %w", err)
	}
	for _, pb := range players {
		if _, seen := data.PlayerIndex[pb.PlayerName]; !seen {
			data.AllPlayerNames = append(data.AllPlayerNames, pb.PlayerName)
		}
		data.PlayerIndex[pb.PlayerName] = append(data.PlayerIndex[pb.PlayerName], pb.BattleID)
	}

	appearances, err := src.BattleAppearances(ctx)
	if err != nil {
		return nil, fmt.Errorf("load battle matches: %w", err)
	}
	for _, a := range appearances {
		data.BattleMatches[a.BattleID] = append(data.BattleMatches[a.BattleID], videoMatch(a, false))
	}

	maps, err := src.MapAppearances(ctx)
	if err != nil {
		return nil, fmt.Errorf("load map index: %w", err)
	}
	for _, a := range maps {
		if _, seen := data.MapIndex[a.MapName]; !seen {
			data.AllMapNames = append(data.AllMapNames, a.MapName)
		}
		data.MapIndex[a.MapName] = append(data.MapIndex[a.MapName], videoMatch(a, true))
	}
	slices.Sort(data.AllMapNames)

	if matches != nil {
		data.OCRIndex, data.LastBattle = ocrIndex(matches)
	}
	return data, nil
}

func videoMatch(a store.VideoAppearance, withBattle bool) VideoMatch {
	m := VideoMatch{
		VideoID:    a.VideoID,
		Timestamp:  a.OffsetSeconds,
		Title:      orDefault(a.Title, unknownTitle),
		UploadDate: orDefault(a.UploadDate, notAvailable),
		Uploader:   orDefault(a.Uploader, notAvailable),
	}
	if withBattle {
		m.BattleID = a.BattleID
	}
	return m
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// ocrIndex flattens every non-empty recognized name of the annotated
// document. Screenshots with a non-numeric offset are skipped.
func ocrIndex(doc *observations.Document) ([]OCREntry, int) {
	entries := []OCREntry{}
	lastBattle := 0
	for _, video := range doc.Videos {
		if video.Err != nil {
			continue
		}
		title := video.Title
		if !hasField(video, "title") {
			title = unknownTitle
		}
		uploader := video.Uploader
		if !hasField(video, "uploader") {
			uploader = notAvailable
		}
		if n, err := strconv.Atoi(strings.TrimSpace(video.UploadDate)); err == nil && n > lastBattle {
			lastBattle = n
		}
		for _, shot := range video.Screenshots {
			offset, err := shot.OffsetSeconds()
			if err != nil || shot.Err != nil {
				continue
			}
			for _, name := range shot.Names {
				if name == "" {
					continue
				}
				entries = append(entries, OCREntry{
					OCRName:    name,
					VideoID:    video.ID,
					Timestamp:  offset,
					Title:      title,
					UploadDate: video.UploadDate,
					Uploader:   uploader,
				})
			}
		}
	}
	return entries, lastBattle
}

func hasField(video observations.Video, key string) bool {
	for _, f := range video.Fields {
		if f.Key == key {
			return true
		}
	}
	return false
}

// Write stores the export as compact JSON, replacing path atomically.
func Write(path string, data *Data) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode frontend data: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, raw, 0o644); err != nil {
		return fmt.Errorf("write frontend data: %w", err)
	}
	return nil
}
