package battles

import (
	"slices"
	"testing"
)

func TestBuildIndexesParticipants(t *testing.T) {
	rows := []Row{
		{ID: "B1", Timestamp: "2024-06-01T10:00:00.000Z"},
		{ID: "B2", Timestamp: "2024-06-10T10:00:00.000Z"},
	}
	participations := []Participation{
		{BattleID: "B1", PlayerName: "alice"},
		{BattleID: "B1", PlayerName: "bob"},
		{BattleID: "B2", PlayerName: "bob"},
		{BattleID: "B2", PlayerName: "Bob"},
	}

	idx, stats := Build(rows, participations)

	if stats.Battles != 2 || idx.Len() != 2 {
		t.Fatalf("expected 2 battles, got stats=%d len=%d", stats.Battles, idx.Len())
	}
	if stats.Players != 3 || idx.PlayerCount() != 3 {
		t.Fatalf("expected case-sensitive player count of 3, got %d", stats.Players)
	}
	if got := idx.Postings("bob"); !slices.Equal(got, []string{"B1", "B2"}) {
		t.Fatalf("unexpected postings for bob: %v", got)
	}
	if got := idx.Postings("carol"); got != nil {
		t.Fatalf("expected no postings for unknown player, got %v", got)
	}

	record, ok := idx.Lookup("B2")
	if !ok {
		t.Fatal("expected B2 in lookup")
	}
	if record.ParticipantCount() != 2 {
		t.Fatalf("expected 2 participants in B2, got %d", record.ParticipantCount())
	}
	if _, ok := record.Participants()["Bob"]; !ok {
		t.Fatal("expected Bob in B2 participants")
	}
	if record.Timestamp != "2024-06-10T10:00:00.000Z" {
		t.Fatalf("unexpected timestamp %q", record.Timestamp)
	}
}

func TestBuildCountsOrphansAndEmptyNames(t *testing.T) {
	rows := []Row{{ID: "B1", Timestamp: "2024-06-01"}}
	participations := []Participation{
		{BattleID: "B1", PlayerName: "alice"},
		{BattleID: "B1", PlayerName: ""},
		{BattleID: "GHOST", PlayerName: "alice"},
		{BattleID: "GHOST", PlayerName: "zed"},
	}

	idx, stats := Build(rows, participations)

	if stats.OrphanParticipations != 2 {
		t.Fatalf("expected 2 orphan participations, got %d", stats.OrphanParticipations)
	}
	if stats.SkippedEmptyNames != 1 {
		t.Fatalf("expected 1 skipped empty name, got %d", stats.SkippedEmptyNames)
	}
	if stats.Participations != 3 {
		t.Fatalf("expected 3 indexed participations, got %d", stats.Participations)
	}
	// Orphan postings stay in the name index; the matcher skips ids missing from the lookup.
	if got := idx.Postings("zed"); !slices.Equal(got, []string{"GHOST"}) {
		t.Fatalf("unexpected postings for zed: %v", got)
	}
	if _, ok := idx.Lookup("GHOST"); ok {
		t.Fatal("orphan battle must not appear in lookup")
	}
	record, _ := idx.Lookup("B1")
	if record.ParticipantCount() != 1 {
		t.Fatalf("expected empty name to be skipped, got %d participants", record.ParticipantCount())
	}
}

func TestBattleWithoutParticipantsIsIndexed(t *testing.T) {
	idx, stats := Build([]Row{{ID: "B9", Timestamp: "2024-01-01"}}, nil)
	if stats.Battles != 1 || stats.Players != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	record, ok := idx.Lookup("B9")
	if !ok || record.ParticipantCount() != 0 {
		t.Fatalf("expected empty battle in lookup, got %+v ok=%v", record, ok)
	}
}

func TestNilIndexIsSafe(t *testing.T) {
	var idx *Index
	if idx.Len() != 0 || idx.PlayerCount() != 0 || idx.Postings("x") != nil {
		t.Fatal("nil index should behave as empty")
	}
	if _, ok := idx.Lookup("x"); ok {
		t.Fatal("nil index lookup should miss")
	}
}
