package testsupport

import (
	"context"
	"testing"

	"barfinder/internal/config"
	"barfinder/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedBattles imports battles into the store.
func SeedBattles(t testing.TB, st *store.Store, items ...store.BattleImport) {
	t.Helper()

	if _, err := st.ImportBattles(context.Background(), items); err != nil {
		t.Fatalf("store.ImportBattles: %v", err)
	}
}

// Battle builds a BattleImport fixture.
func Battle(id, timestamp, mapName string, players ...string) store.BattleImport {
	return store.BattleImport{ID: id, Timestamp: timestamp, MapName: mapName, Players: players}
}
