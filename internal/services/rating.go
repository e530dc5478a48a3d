package services

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/amolab/amorate-backend/internal/platform/apierr"
	"github.com/amolab/amorate-backend/internal/platform/logger"
	"github.com/amolab/amorate-backend/internal/registry"
	"github.com/amolab/amorate-backend/internal/repos"
	"github.com/amolab/amorate-backend/internal/types"
)

const (
	MinScore = 1
	MaxScore = 10
)

// ListOptions narrows and orders the rating page's track list. Filters are
// exact string matches against metadata fields; Sort is one of filename
// (default), composer, piece, model. Filename is always the tiebreak.
type ListOptions struct {
	Sort     string
	Composer string
	Piece    string
	Model    string
}

// TrackListing is everything the rating page needs for one rater.
type TrackListing struct {
	Tracks      []types.Track
	TotalTracks int // all playable tracks, before unrated filtering
}

// BatchItem is one track's submission from the batch form. Score arrives
// as raw form text; items without a score are "left blank" and skipped.
type BatchItem struct {
	Filename string
	Score    string
	Remark   string
}

type RatingService interface {
	// ListForRater returns the tracks the given email has not rated yet,
	// filtered and sorted per opts.
	ListForRater(ctx context.Context, email string, opts ListOptions) (*TrackListing, error)
	// SubmitBatch persists every valid item and skips the rest. The
	// returned count is the number of rows written; zero valid items is an
	// apierr with code no_ratings and writes nothing.
	SubmitBatch(ctx context.Context, email, ip string, items []BatchItem) (int, error)
	// SubmitSingle is the legacy one-track form; any invalid input fails
	// the whole request.
	SubmitSingle(ctx context.Context, email, ip, filename, score, remark string) error
}

type ratingService struct {
	log          *logger.Logger
	tracks       registry.TrackRegistry
	ratingRepo   repos.RatingRepo
	metadataRepo repos.MetadataRepo
}

func NewRatingService(
	baseLog *logger.Logger,
	tracks registry.TrackRegistry,
	ratingRepo repos.RatingRepo,
	metadataRepo repos.MetadataRepo,
) RatingService {
	return &ratingService{
		log:          baseLog.With("service", "RatingService"),
		tracks:       tracks,
		ratingRepo:   ratingRepo,
		metadataRepo: metadataRepo,
	}
}

func (s *ratingService) ListForRater(ctx context.Context, email string, opts ListOptions) (*TrackListing, error) {
	all, err := s.tracks.List()
	if err != nil {
		return nil, err
	}
	listing := &TrackListing{TotalTracks: len(all)}
	if strings.TrimSpace(email) == "" {
		return listing, nil
	}

	rated, err := s.ratingRepo.RatedFilenames(ctx, email)
	if err != nil {
		return nil, err
	}
	metadata, err := s.metadataRepo.All(ctx)
	if err != nil {
		return nil, err
	}

	for _, filename := range all {
		if _, done := rated[filename]; done {
			continue
		}
		md := metadata[filename]
		if !matches(md, opts) {
			continue
		}
		listing.Tracks = append(listing.Tracks, types.Track{Filename: filename, Metadata: md})
	}

	sortTracks(listing.Tracks, opts.Sort)
	return listing, nil
}

func matches(md *types.TrackMetadata, opts ListOptions) bool {
	field := func(get func(*types.TrackMetadata) string) string {
		if md == nil {
			return ""
		}
		return get(md)
	}
	if opts.Composer != "" && field(func(m *types.TrackMetadata) string { return m.Composer }) != opts.Composer {
		return false
	}
	if opts.Piece != "" && field(func(m *types.TrackMetadata) string { return m.PieceName }) != opts.Piece {
		return false
	}
	if opts.Model != "" && field(func(m *types.TrackMetadata) string { return m.ModelName }) != opts.Model {
		return false
	}
	return true
}

func sortTracks(tracks []types.Track, by string) {
	key := func(t types.Track) string {
		if t.Metadata == nil {
			return ""
		}
		switch by {
		case "composer":
			return t.Metadata.Composer
		case "piece":
			return t.Metadata.PieceName
		case "model":
			return t.Metadata.ModelName
		default:
			return ""
		}
	}
	switch by {
	case "composer", "piece", "model":
		sort.SliceStable(tracks, func(i, j int) bool {
			ki, kj := key(tracks[i]), key(tracks[j])
			if ki != kj {
				return ki < kj
			}
			return tracks[i].Filename < tracks[j].Filename
		})
	default:
		sort.Slice(tracks, func(i, j int) bool {
			return tracks[i].Filename < tracks[j].Filename
		})
	}
}

// parseScore accepts only integers within [MinScore, MaxScore].
func parseScore(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < MinScore || n > MaxScore {
		return 0, false
	}
	return n, true
}

func (s *ratingService) SubmitBatch(ctx context.Context, email, ip string, items []BatchItem) (int, error) {
	submitted := 0
	for _, item := range items {
		if strings.TrimSpace(item.Score) == "" {
			continue // left blank, not an error
		}
		if !s.tracks.Exists(item.Filename) {
			s.log.Debug("skipping rating for unknown track", "filename", item.Filename)
			continue
		}
		n, ok := parseScore(item.Score)
		if !ok {
			s.log.Debug("skipping invalid batch score", "filename", item.Filename, "score", item.Score)
			continue
		}
		err := s.ratingRepo.Append(ctx, types.Rating{
			Filename: item.Filename,
			Score:    n,
			IP:       ip,
			Email:    email,
			Remark:   strings.TrimSpace(item.Remark),
		})
		if err != nil {
			return submitted, err
		}
		submitted++
	}
	if submitted == 0 {
		return 0, apierr.New(http.StatusSeeOther, apierr.CodeNoRatings, errors.New("no ratings submitted"))
	}
	return submitted, nil
}

func (s *ratingService) SubmitSingle(ctx context.Context, email, ip, filename, score, remark string) error {
	if filename == "" || strings.TrimSpace(score) == "" {
		return apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("filename and score are required"))
	}
	if !s.tracks.Exists(filename) {
		return apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("unknown track"))
	}
	n, ok := parseScore(score)
	if !ok {
		return apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("score must be an integer between 1 and 10"))
	}
	return s.ratingRepo.Append(ctx, types.Rating{
		Filename: filename,
		Score:    n,
		IP:       ip,
		Email:    email,
		Remark:   strings.TrimSpace(remark),
	})
}
