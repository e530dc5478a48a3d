package repos

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/amolab/amorate-backend/internal/platform/logger"
	"github.com/amolab/amorate-backend/internal/types"
)

var ratingHeader = []string{"timestamp", "filename", "score", "ip", "email", "remark"}

type RatingRepo interface {
	Append(ctx context.Context, r types.Rating) error
	// RatedFilenames returns the set of filenames the given email has
	// already rated. Matching is case-insensitive.
	RatedFilenames(ctx context.Context, email string) (map[string]struct{}, error)
}

type ratingRepo struct {
	log *logger.Logger
	csv *csvLog

	mu      sync.RWMutex
	byEmail map[string]map[string]struct{} // lowercased email -> filenames
}

func NewRatingRepo(path string, baseLog *logger.Logger) (RatingRepo, error) {
	r := &ratingRepo{
		log:     baseLog.With("repo", "RatingRepo"),
		csv:     newCSVLog(path, ratingHeader),
		byEmail: make(map[string]map[string]struct{}),
	}

	// Replay the existing log into the rated-set index. Legacy rows written
	// before the email column existed cannot be attributed to anyone and are
	// skipped, as are rows too short to carry both columns.
	skipped := 0
	err := r.csv.load(func(cols map[string]int, row []string) {
		fileIdx, okFile := cols["filename"]
		emailIdx, okEmail := cols["email"]
		if !okFile || !okEmail || len(row) <= fileIdx || len(row) <= emailIdx {
			skipped++
			return
		}
		email := strings.ToLower(strings.TrimSpace(row[emailIdx]))
		if email == "" {
			skipped++
			return
		}
		r.index(email, row[fileIdx])
	})
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		r.log.Debug("skipped unattributable rating rows during replay", "count", skipped)
	}
	return r, nil
}

func (r *ratingRepo) index(email, filename string) {
	set, ok := r.byEmail[email]
	if !ok {
		set = make(map[string]struct{})
		r.byEmail[email] = set
	}
	set[filename] = struct{}{}
}

func (r *ratingRepo) Append(ctx context.Context, rating types.Rating) error {
	ts := rating.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	row := []string{
		ts.UTC().Format(time.RFC3339),
		rating.Filename,
		strconv.Itoa(rating.Score),
		rating.IP,
		rating.Email,
		rating.Remark,
	}
	if err := r.csv.append(row); err != nil {
		return err
	}

	r.mu.Lock()
	r.index(strings.ToLower(strings.TrimSpace(rating.Email)), rating.Filename)
	r.mu.Unlock()

	r.log.Debug("rating appended", "filename", rating.Filename, "score", rating.Score, "email", rating.Email)
	return nil
}

func (r *ratingRepo) RatedFilenames(ctx context.Context, email string) (map[string]struct{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	out := make(map[string]struct{}, len(set))
	for filename := range set {
		out[filename] = struct{}{}
	}
	return out, nil
}
