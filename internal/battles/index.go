package battles

// Row is one battle as stored in the battles table. Timestamp is kept raw
// because upstream data may be malformed; the matcher parses it on demand.
type Row struct {
	ID        string
	Timestamp string
}

// Participation links a player name to a battle.
type Participation struct {
	BattleID   string
	PlayerName string
}

// Record is the indexed view of one battle.
type Record struct {
	ID           string
	Timestamp    string
	participants map[string]struct{}
}

// Participants returns the battle's participant names as a set.
// Callers must treat the returned map as read-only.
func (r *Record) Participants() map[string]struct{} {
	return r.participants
}

// ParticipantCount returns the number of distinct participants.
func (r *Record) ParticipantCount() int {
	return len(r.participants)
}

// Stats summarizes an index build.
type Stats struct {
	Battles              int
	Players              int
	Participations       int
	SkippedEmptyNames    int
	OrphanParticipations int
}

// Index is an immutable snapshot of battle participation.
type Index struct {
	postings map[string][]string
	battles  map[string]*Record
}

// Build constructs an Index from battle and participation rows.
func Build(rows []Row, participations []Participation) (*Index, Stats) {
	idx := &Index{
		postings: make(map[string][]string),
		battles:  make(map[string]*Record, len(rows)),
	}
	var stats Stats

	for _, row := range rows {
		idx.battles[row.ID] = &Record{
			ID:           row.ID,
			Timestamp:    row.Timestamp,
			participants: make(map[string]struct{}),
		}
	}

	for _, p := range participations {
		if p.PlayerName == "" {
			stats.SkippedEmptyNames++
			continue
		}
		stats.Participations++
		idx.postings[p.PlayerName] = append(idx.postings[p.PlayerName], p.BattleID)
		if record, ok := idx.battles[p.BattleID]; ok {
			record.participants[p.PlayerName] = struct{}{}
		} else {
			stats.OrphanParticipations++
		}
	}

	stats.Battles = len(idx.battles)
	stats.Players = len(idx.postings)
	return idx, stats
}

// Postings returns the battle ids a player name appears in. The slice is
// shared with the index and must not be modified.
func (idx *Index) Postings(name string) []string {
	if idx == nil {
		return nil
	}
	return idx.postings[name]
}

// Lookup returns the battle record for id.
func (idx *Index) Lookup(id string) (*Record, bool) {
	if idx == nil {
		return nil, false
	}
	record, ok := idx.battles[id]
	return record, ok
}

// Len returns the number of battles in the index.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.battles)
}

// PlayerCount returns the number of distinct player names with postings.
func (idx *Index) PlayerCount() int {
	if idx == nil {
		return 0
	}
	return len(idx.postings)
}
