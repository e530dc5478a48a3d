package repos

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/amolab/amorate-backend/internal/types"
)

func TestArenaMatchRepoWritesHeaderAndRow(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "model_arena_matches.csv")

	repo := NewArenaMatchRepo(path, testLogger())
	err := repo.Append(context.Background(), types.ArenaMatch{
		Email:       "anna@example.com",
		PieceKey:    "composer::Bach|piece::Fugue",
		PieceLabel:  "Bach — Fugue",
		TrackA:      "a.ogg",
		TrackB:      "b.ogg",
		ModelA:      "m1",
		ModelB:      "m2",
		WinnerLabel: "B",
		WinnerTrack: "b.ogg",
		WinnerModel: "m2",
		IP:          "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("row count = %d, want header + 1", len(rows))
	}
	if rows[0][0] != "timestamp" || rows[0][8] != "winner_label" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[1][8] != "B" || rows[1][9] != "b.ogg" || rows[1][10] != "m2" {
		t.Fatalf("winner columns = %v, want B/b.ogg/m2", rows[1][8:11])
	}
}
