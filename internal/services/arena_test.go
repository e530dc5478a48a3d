package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/amolab/amorate-backend/internal/platform/apierr"
	"github.com/amolab/amorate-backend/internal/registry"
	"github.com/amolab/amorate-backend/internal/repos"
	"github.com/amolab/amorate-backend/internal/types"
)

// captureMatchRepo records appended matches in memory.
type captureMatchRepo struct {
	matches []types.ArenaMatch
}

func (c *captureMatchRepo) Append(ctx context.Context, m types.ArenaMatch) error {
	c.matches = append(c.matches, m)
	return nil
}

func newArenaFixture(t *testing.T, seed map[string]types.TrackMetadata) (ArenaService, *captureMatchRepo) {
	t.Helper()
	dir := t.TempDir()
	uploadDir := filepath.Join(dir, "uploads")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		t.Fatalf("mkdir uploads: %v", err)
	}
	metadataRepo, err := repos.NewMetadataRepo(filepath.Join(dir, "metadata.csv"), testLogger())
	if err != nil {
		t.Fatalf("NewMetadataRepo: %v", err)
	}
	ctx := context.Background()
	for filename, md := range seed {
		if err := os.WriteFile(filepath.Join(uploadDir, filename), []byte("x"), 0o644); err != nil {
			t.Fatalf("seed track %s: %v", filename, err)
		}
		md.Filename = filename
		if err := metadataRepo.Append(ctx, md); err != nil {
			t.Fatalf("Append metadata: %v", err)
		}
	}

	capture := &captureMatchRepo{}
	tracks := registry.New(uploadDir, testLogger())
	return NewArenaService(testLogger(), tracks, metadataRepo, capture), capture
}

func TestNextPairStaysWithinOnePieceGroup(t *testing.T) {
	t.Parallel()
	svc, _ := newArenaFixture(t, map[string]types.TrackMetadata{
		"f1.ogg":   {Composer: "Bach", PieceName: "Fugue", ModelName: "m1"},
		"f2.ogg":   {Composer: "Bach", PieceName: "Fugue", ModelName: "m2"},
		"f3.ogg":   {Composer: "Bach", PieceName: "Fugue", ModelName: "m3"},
		"solo.ogg": {Composer: "Liszt", PieceName: "Etude", ModelName: "m4"},
	})

	inGroup := map[string]bool{"f1.ogg": true, "f2.ogg": true, "f3.ogg": true}
	for i := 0; i < 50; i++ {
		pair, err := svc.NextPair(context.Background(), "")
		if err != nil {
			t.Fatalf("NextPair: %v", err)
		}
		if pair == nil {
			t.Fatal("NextPair = nil, want a matchup")
		}
		if pair.TrackA == pair.TrackB {
			t.Fatalf("pair has identical tracks: %s", pair.TrackA)
		}
		if !inGroup[pair.TrackA] || !inGroup[pair.TrackB] {
			t.Fatalf("pair %s vs %s crosses group boundaries", pair.TrackA, pair.TrackB)
		}
		if pair.PieceKey != "composer::Bach|piece::Fugue" {
			t.Fatalf("piece key = %q", pair.PieceKey)
		}
	}
}

func TestNextPairRandomizesSideAssignment(t *testing.T) {
	t.Parallel()
	svc, _ := newArenaFixture(t, map[string]types.TrackMetadata{
		"f1.ogg": {PieceName: "Fugue", ModelName: "m1"},
		"f2.ogg": {PieceName: "Fugue", ModelName: "m2"},
	})

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		pair, err := svc.NextPair(context.Background(), "")
		if err != nil {
			t.Fatalf("NextPair: %v", err)
		}
		seen[pair.TrackA] = true
	}
	if !seen["f1.ogg"] || !seen["f2.ogg"] {
		t.Fatalf("side A never varied across 100 draws: %v", seen)
	}
}

func TestNextPairHonorsPreferredPiece(t *testing.T) {
	t.Parallel()
	svc, _ := newArenaFixture(t, map[string]types.TrackMetadata{
		"f1.ogg": {PieceName: "Fugue", ModelName: "m1"},
		"f2.ogg": {PieceName: "Fugue", ModelName: "m2"},
		"e1.ogg": {PieceName: "Etude", ModelName: "m1"},
		"e2.ogg": {PieceName: "Etude", ModelName: "m2"},
	})

	for i := 0; i < 20; i++ {
		pair, err := svc.NextPair(context.Background(), "piece::Etude")
		if err != nil {
			t.Fatalf("NextPair: %v", err)
		}
		if pair.PieceKey != "piece::Etude" {
			t.Fatalf("piece key = %q, want preferred piece::Etude", pair.PieceKey)
		}
	}
}

func TestNextPairNilWhenNoGroupHasTwoTracks(t *testing.T) {
	t.Parallel()
	svc, _ := newArenaFixture(t, map[string]types.TrackMetadata{
		"f1.ogg": {PieceName: "Fugue", ModelName: "m1"},
		"e1.ogg": {PieceName: "Etude", ModelName: "m2"},
	})

	pair, err := svc.NextPair(context.Background(), "")
	if err != nil {
		t.Fatalf("NextPair: %v", err)
	}
	if pair != nil {
		t.Fatalf("NextPair = %+v, want nil with only singleton groups", pair)
	}
}

func TestRecordResolvesWinnerColumns(t *testing.T) {
	t.Parallel()
	svc, capture := newArenaFixture(t, nil)

	err := svc.Record(context.Background(), ArenaVerdict{
		Email:  "anna@example.com",
		TrackA: "f1.ogg",
		TrackB: "f2.ogg",
		ModelA: "m1",
		ModelB: "m2",
		Winner: "B",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(capture.matches) != 1 {
		t.Fatalf("recorded %d matches, want 1", len(capture.matches))
	}
	m := capture.matches[0]
	if m.WinnerLabel != "B" || m.WinnerTrack != "f2.ogg" || m.WinnerModel != "m2" {
		t.Fatalf("winner columns = %s/%s/%s, want B/f2.ogg/m2", m.WinnerLabel, m.WinnerTrack, m.WinnerModel)
	}
}

func TestRecordRejectsBadWinner(t *testing.T) {
	t.Parallel()
	svc, capture := newArenaFixture(t, nil)
	ctx := context.Background()

	badVerdicts := []ArenaVerdict{
		{TrackA: "f1.ogg", TrackB: "f2.ogg", Winner: "C"},
		{TrackA: "f1.ogg", TrackB: "f2.ogg", Winner: ""},
		{TrackA: "", TrackB: "f2.ogg", Winner: "A"},
	}
	for _, v := range badVerdicts {
		if apierr.Code(svc.Record(ctx, v)) != apierr.CodeValidation {
			t.Fatalf("Record(%+v) should fail validation", v)
		}
	}
	if len(capture.matches) != 0 {
		t.Fatalf("invalid verdicts were recorded: %v", capture.matches)
	}
}
