package repos

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/amolab/amorate-backend/internal/platform/logger"
	"github.com/amolab/amorate-backend/internal/types"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func TestRatingRepoAppendAndReplay(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "ratings.csv")
	ctx := context.Background()

	repo, err := NewRatingRepo(path, testLogger())
	if err != nil {
		t.Fatalf("NewRatingRepo: %v", err)
	}

	ratings := []types.Rating{
		{Filename: "a.ogg", Score: 7, Email: "anna@example.com", IP: "10.0.0.1"},
		{Filename: "b.ogg", Score: 3, Email: "anna@example.com", Remark: "muddy bass"},
		{Filename: "a.ogg", Score: 9, Email: "ben@example.com"},
	}
	for _, r := range ratings {
		if err := repo.Append(ctx, r); err != nil {
			t.Fatalf("Append(%s): %v", r.Filename, err)
		}
	}

	// A fresh repo on the same file must rebuild the same rated sets.
	replayed, err := NewRatingRepo(path, testLogger())
	if err != nil {
		t.Fatalf("NewRatingRepo replay: %v", err)
	}

	for _, repo := range []RatingRepo{repo, replayed} {
		got, err := repo.RatedFilenames(ctx, "anna@example.com")
		if err != nil {
			t.Fatalf("RatedFilenames: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("rated count = %d, want 2", len(got))
		}
		if _, ok := got["a.ogg"]; !ok {
			t.Fatalf("a.ogg missing from rated set %v", got)
		}
	}
}

func TestRatingRepoEmailMatchingIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "ratings.csv")
	ctx := context.Background()

	repo, err := NewRatingRepo(path, testLogger())
	if err != nil {
		t.Fatalf("NewRatingRepo: %v", err)
	}
	if err := repo.Append(ctx, types.Rating{Filename: "a.ogg", Score: 5, Email: "Anna@Example.COM"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := repo.RatedFilenames(ctx, "  anna@example.com ")
	if err != nil {
		t.Fatalf("RatedFilenames: %v", err)
	}
	if _, ok := got["a.ogg"]; !ok {
		t.Fatalf("case-insensitive lookup missed the rating, got %v", got)
	}
}

func TestRatingRepoSkipsLegacyRowsWithoutEmail(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "ratings.csv")

	// Log written before the email column existed.
	legacy := "timestamp,filename,score,ip\n2024-01-01T00:00:00Z,a.ogg,5,10.0.0.1\n"
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatalf("seed legacy log: %v", err)
	}

	repo, err := NewRatingRepo(path, testLogger())
	if err != nil {
		t.Fatalf("NewRatingRepo: %v", err)
	}
	got, err := repo.RatedFilenames(context.Background(), "anyone@example.com")
	if err != nil {
		t.Fatalf("RatedFilenames: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("legacy rows should not be attributed, got %v", got)
	}
}

func TestRatingRepoReturnsCopyOfRatedSet(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "ratings.csv")
	ctx := context.Background()

	repo, err := NewRatingRepo(path, testLogger())
	if err != nil {
		t.Fatalf("NewRatingRepo: %v", err)
	}
	if err := repo.Append(ctx, types.Rating{Filename: "a.ogg", Score: 5, Email: "anna@example.com"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	first, _ := repo.RatedFilenames(ctx, "anna@example.com")
	delete(first, "a.ogg")
	second, _ := repo.RatedFilenames(ctx, "anna@example.com")
	if _, ok := second["a.ogg"]; !ok {
		t.Fatal("mutating a returned set leaked into the index")
	}
}
