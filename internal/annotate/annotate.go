// Package annotate writes the observation document back out with each
// screenshot replaced by its match verdict.
package annotate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"barfinder/internal/fileutil"
	"barfinder/internal/observations"
)

const screenshotsKey = "screenshots"

// Screenshot is the annotated form of one observation.
type Screenshot struct {
	Offset          string
	PlayersOCR      []string
	MatchedBattleID string
	MatchScore      float64
}

type entry struct {
	PlayersOCR      []string `json:"players_ocr"`
	MatchedBattleID *string  `json:"matched_battle_id"`
	MatchScore      float64  `json:"match_score"`
}

// RoundScore rounds a score to two decimals.
func RoundScore(score float64) float64 {
	return math.Round(score*100) / 100
}

func (s Screenshot) entry() entry {
	e := entry{PlayersOCR: s.PlayersOCR, MatchScore: RoundScore(s.MatchScore)}
	if e.PlayersOCR == nil {
		e.PlayersOCR = []string{}
	}
	if s.MatchedBattleID != "" {
		id := s.MatchedBattleID
		e.MatchedBattleID = &id
	}
	return e
}

// Render builds the annotated document. Videos absent from annotated (failed
// or skipped) are copied through unchanged; every other field keeps its
// position.
func Render(doc *observations.Document, annotated map[string][]Screenshot) ([]byte, error) {
	top := make([]observations.Field, 0, len(doc.Videos))
	for _, video := range doc.Videos {
		shots, ok := annotated[video.ID]
		if !ok || video.Err != nil {
			top = append(top, observations.Field{Key: video.ID, Value: video.Raw})
			continue
		}
		value, err := renderVideo(video, shots)
		if err != nil {
			return nil, fmt.Errorf("render video %s: %w", video.ID, err)
		}
		top = append(top, observations.Field{Key: video.ID, Value: value})
	}
	return observations.EncodeObject(top)
}

func renderVideo(video observations.Video, shots []Screenshot) (json.RawMessage, error) {
	fields := make([]observations.Field, len(video.Fields))
	copy(fields, video.Fields)
	for i, field := range fields {
		if field.Key != screenshotsKey {
			continue
		}
		entries := make([]observations.Field, 0, len(shots))
		for _, shot := range shots {
			var buf bytes.Buffer
			enc := json.NewEncoder(&buf)
			enc.SetEscapeHTML(false)
			if err := enc.Encode(shot.entry()); err != nil {
				return nil, err
			}
			entries = append(entries, observations.Field{Key: shot.Offset, Value: bytes.TrimSpace(buf.Bytes())})
		}
		value, err := observations.EncodeObject(entries)
		if err != nil {
			return nil, err
		}
		fields[i].Value = value
	}
	return observations.EncodeObject(fields)
}

// Write renders the annotated document and replaces path atomically.
func Write(path string, doc *observations.Document, annotated map[string][]Screenshot) error {
	raw, err := Render(doc, annotated)
	if err != nil {
		return err
	}
	if err := fileutil.WriteJSONAtomic(path, raw); err != nil {
		return fmt.Errorf("write annotated document: %w", err)
	}
	return nil
}
