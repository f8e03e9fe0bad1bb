package matchstats

import "testing"

func TestPlayerID_NormalizesName(t *testing.T) {
	t.Parallel()

	a := PlayerID("Mikkel  Hansen")
	b := PlayerID(" mikkel hansen ")
	if a == "" || a != b {
		t.Fatalf("expected identical ids for equivalent names, got %q and %q", a, b)
	}
	if PlayerID("Mikkel Hansen") == PlayerID("Mikkel Hansén") {
		t.Fatalf("expected different ids for different names")
	}
	if PlayerID("   ") != "" {
		t.Fatalf("expected empty id for blank name")
	}
}

func TestFile_UpsertAndForget(t *testing.T) {
	t.Parallel()

	file := File{MatchesWithoutStats: []string{"2", "3"}}
	file.Upsert(MatchPlayerData{MatchID: "1", HomeScore: 20})
	file.Upsert(MatchPlayerData{MatchID: "1", HomeScore: 21})
	file.Upsert(MatchPlayerData{MatchID: "2"})
	file.MarkWithoutStats("3")

	if len(file.MatchStats) != 2 || file.MatchStats[0].HomeScore != 21 {
		t.Fatalf("unexpected match stats: %+v", file.MatchStats)
	}
	if len(file.MatchesWithoutStats) != 1 || file.MatchesWithoutStats[0] != "3" {
		t.Fatalf("unexpected without-stats list: %v", file.MatchesWithoutStats)
	}

	known := file.KnownIDs()
	for _, id := range []string{"1", "2", "3"} {
		if _, ok := known[id]; !ok {
			t.Fatalf("expected %s to be known", id)
		}
	}

	if removed := file.Forget([]string{"1", "3"}); removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if len(file.MatchStats) != 1 || file.MatchStats[0].MatchID != "2" || len(file.MatchesWithoutStats) != 0 {
		t.Fatalf("unexpected file after forget: %+v", file)
	}
}
