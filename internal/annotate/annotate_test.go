package annotate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"barfinder/internal/observations"
)

const input = `{
  "v2": {"title": "Second", "screenshots": {"90": ["x", "y"], "15": ["z"]}, "extra": [1, 2]},
  "v1": {"screenshots": {"5": ["a"]}, "title": "First"}
}`

func decode(t *testing.T) *observations.Document {
	t.Helper()
	doc, err := observations.Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return doc
}

func TestRenderReplacesScreenshotsInOrder(t *testing.T) {
	doc := decode(t)
	raw, err := Render(doc, map[string][]Screenshot{
		"v2": {
			{Offset: "90", PlayersOCR: []string{"x", "y"}, MatchedBattleID: "B7", MatchScore: 85.714285},
			{Offset: "15", PlayersOCR: []string{"z"}},
		},
	})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	want := `{"v2":{"title":"Second","screenshots":{"90":{"players_ocr":["x","y"],"matched_battle_id":"B7","match_score":85.71},"15":{"players_ocr":["z"],"matched_battle_id":null,"match_score":0}},"extra":[1, 2]},"v1":{"screenshots": {"5": ["a"]}, "title": "First"}}`
	if string(raw) != want {
		t.Fatalf("unexpected render:\n got %s\nwant %s", raw, want)
	}
}

func TestWriteProducesValidIndentedJSON(t *testing.T) {
	doc := decode(t)
	path := filepath.Join(t.TempDir(), "out", "matches_output.json")
	err := Write(path, doc, map[string][]Screenshot{
		"v1": {{Offset: "5", PlayersOCR: []string{"a"}, MatchedBattleID: "B1", MatchScore: 100}},
	})
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var parsed map[string]map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	shots := parsed["v1"]["screenshots"].(map[string]any)
	entry := shots["5"].(map[string]any)
	if entry["matched_battle_id"] != "B1" || entry["match_score"] != 100.0 {
		t.Fatalf("unexpected entry %v", entry)
	}
	if strings.Index(string(data), `"v2"`) > strings.Index(string(data), `"v1"`) {
		t.Fatal("expected input video order to be preserved")
	}
	if !strings.Contains(string(data), "\n    \"v2\": {") {
		t.Fatalf("expected four-space indentation, got:\n%s", data)
	}
}

func TestRoundScore(t *testing.T) {
	for in, want := range map[float64]float64{85.714285: 85.71, 66.666666: 66.67, 0: 0, 100: 100} {
		if got := RoundScore(in); got != want {
			t.Fatalf("RoundScore(%v) = %v want %v", in, got, want)
		}
	}
}
