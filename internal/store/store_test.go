package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"barfinder/internal/store"
	"barfinder/internal/testsupport"
)

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedBattles(t, st,
		testsupport.Battle("B1", "2024-06-01T12:00:00.000Z", "Supreme Isthmus", "alice", "bob", "carol"),
		testsupport.Battle("B2", "2024-06-10T12:00:00.000Z", "", "bob", "dave"),
	)
	return st
}

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	version, err := st.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected schema version 1, got %d", version)
	}
	if st.Driver() != "sqlite" || st.Location() != cfg.Paths.DatabasePath {
		t.Fatalf("unexpected driver/location %q %q", st.Driver(), st.Location())
	}
	st.Close()

	reopened := testsupport.MustOpenStore(t, cfg)
	if err := reopened.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	st.Close()

	db, err := sql.Open("sqlite", cfg.Paths.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	_, err = store.Open(context.Background(), cfg)
	if !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestOpenUpgradesCollectorDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, cfg.Paths.DatabasePath, "")

	db, err := sql.Open("sqlite", cfg.Paths.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	for _, stmt := range []string{
		"CREATE TABLE battles (battle_id TEXT PRIMARY KEY, timestamp TEXT NOT NULL, map_name TEXT)",
		"CREATE TABLE players (player_name TEXT PRIMARY KEY)",
		"CREATE TABLE battle_participants (battle_id TEXT, player_name TEXT, PRIMARY KEY (battle_id, player_name))",
		"INSERT INTO battles VALUES ('B1', '2024-06-01T12:00:00.000Z', 'Glitters')",
		"INSERT INTO battle_participants VALUES ('B1', 'alice')",
		"INSERT INTO battle_participants VALUES ('B1', NULL)",
		"INSERT INTO battle_participants VALUES ('GHOST', 'alice')",
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	db.Close()

	st := testsupport.MustOpenStore(t, cfg)
	rows, participations, err := st.LoadBattles(context.Background())
	if err != nil {
		t.Fatalf("LoadBattles failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "B1" || rows[0].Timestamp != "2024-06-01T12:00:00.000Z" {
		t.Fatalf("unexpected battle rows %+v", rows)
	}
	if len(participations) != 3 {
		t.Fatalf("expected 3 participations, got %+v", participations)
	}
	var empty, ghost int
	for _, p := range participations {
		if p.PlayerName == "" {
			empty++
		}
		if p.BattleID == "GHOST" {
			ghost++
		}
	}
	if empty != 1 || ghost != 1 {
		t.Fatalf("expected NULL name as empty and orphan row kept, got %+v", participations)
	}
}

func TestImportBattlesSkipsIncompleteRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	stats, err := st.ImportBattles(context.Background(), []store.BattleImport{
		{ID: "B1", Timestamp: "2024-06-01", Players: []string{"alice", "", "alice", "bob"}},
		{ID: "", Timestamp: "2024-06-01"},
		{ID: "B3"},
	})
	if err != nil {
		t.Fatalf("ImportBattles failed: %v", err)
	}
	if stats.Battles != 1 || stats.Skipped != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	_, participations, err := st.LoadBattles(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(participations) != 2 {
		t.Fatalf("expected duplicate participant to collapse, got %+v", participations)
	}
}

func TestCommitResultsUpsertsLatestValues(t *testing.T) {
	st := seededStore(t)
	ctx := context.Background()
	started := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)

	batch := store.Batch{
		Run:    store.Run{ID: "run-1", StartedAt: started, FinishedAt: started.Add(time.Minute), Videos: 1, Screenshots: 2, Matches: 1},
		Videos: []store.VideoRow{{VideoID: "vid1", UploadDate: "20240615", Title: "Cast", Uploader: "caster"}},
		Matches: []store.MatchRow{
			{BattleID: "B1", VideoID: "vid1", OffsetSeconds: 120, Score: 80, OCRPlayerCount: 8, BattlePlayerCount: 3},
		},
	}
	if err := st.CommitResults(ctx, batch); err != nil {
		t.Fatalf("first commit failed: %v", err)
	}

	batch.Run.ID = "run-2"
	batch.Run.StartedAt = started.Add(time.Hour)
	batch.Videos[0].Title = "Cast (remastered)"
	batch.Matches[0].Score = 95.5
	if err := st.CommitResults(ctx, batch); err != nil {
		t.Fatalf("second commit failed: %v", err)
	}

	detail, err := st.VideoDetail(ctx, "vid1")
	if err != nil {
		t.Fatalf("VideoDetail failed: %v", err)
	}
	if detail.Video.Title != "Cast (remastered)" {
		t.Fatalf("expected updated title, got %q", detail.Video.Title)
	}
	if len(detail.Matches) != 1 {
		t.Fatalf("expected a single match row, got %d", len(detail.Matches))
	}
	m := detail.Matches[0]
	if m.Score != 95.5 || m.OffsetSeconds != 120 || m.MapName != "Supreme Isthmus" || m.BattleTimestamp == "" {
		t.Fatalf("unexpected match %+v", m)
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Battles != 2 || stats.Players != 4 || stats.Participations != 5 {
		t.Fatalf("unexpected battle counts %+v", stats)
	}
	if stats.Videos != 1 || stats.Matches != 1 || stats.MatchedBattles != 1 || stats.Runs != 2 {
		t.Fatalf("unexpected match counts %+v", stats)
	}
	if stats.LastRun == nil || stats.LastRun.ID != "run-2" || !stats.LastRun.StartedAt.Equal(started.Add(time.Hour)) {
		t.Fatalf("unexpected last run %+v", stats.LastRun)
	}
}

func TestCommitResultsRollsBackOnFailure(t *testing.T) {
	st := seededStore(t)
	ctx := context.Background()

	err := st.CommitResults(ctx, store.Batch{
		Run:    store.Run{ID: "run-bad", StartedAt: time.Now(), FinishedAt: time.Now()},
		Videos: []store.VideoRow{{VideoID: "vid1"}},
		Matches: []store.MatchRow{
			{BattleID: "B1", VideoID: "vid1", OffsetSeconds: 1, Score: 90},
			{BattleID: "UNKNOWN", VideoID: "vid1", OffsetSeconds: 2, Score: 90},
		},
	})
	if err == nil {
		t.Fatal("expected foreign key failure")
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Videos != 0 || stats.Matches != 0 || stats.Runs != 0 {
		t.Fatalf("expected nothing persisted after rollback, got %+v", stats)
	}
}

func TestVideoDetailNotFound(t *testing.T) {
	st := seededStore(t)
	_, err := st.VideoDetail(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExportQueries(t *testing.T) {
	st := seededStore(t)
	ctx := context.Background()
	err := st.CommitResults(ctx, store.Batch{
		Videos: []store.VideoRow{
			{VideoID: "old", UploadDate: "20240601", Title: "Old"},
			{VideoID: "new", UploadDate: "20240620"},
		},
		Matches: []store.MatchRow{
			{BattleID: "B1", VideoID: "old", OffsetSeconds: 300, Score: 90},
			{BattleID: "B1", VideoID: "old", OffsetSeconds: 60, Score: 90},
			{BattleID: "B1", VideoID: "new", OffsetSeconds: 10, Score: 90},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	players, err := st.MatchedPlayerBattles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(players) != 3 || players[0].PlayerName != "alice" || players[0].BattleID != "B1" {
		t.Fatalf("expected only B1 participants, got %+v", players)
	}

	battles, err := st.BattleAppearances(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(battles) != 2 || battles[0].VideoID != "new" || battles[1].VideoID != "old" || battles[1].OffsetSeconds != 60 {
		t.Fatalf("unexpected battle appearances %+v", battles)
	}

	maps, err := st.MapAppearances(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(maps) != 2 || maps[0].VideoID != "new" || maps[0].MapName != "Supreme Isthmus" {
		t.Fatalf("expected newest upload first, got %+v", maps)
	}
}
