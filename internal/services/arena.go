package services

import (
	"context"
	"errors"
	"math/rand"
	"net/http"

	"github.com/amolab/amorate-backend/internal/grouping"
	"github.com/amolab/amorate-backend/internal/platform/apierr"
	"github.com/amolab/amorate-backend/internal/platform/logger"
	"github.com/amolab/amorate-backend/internal/registry"
	"github.com/amolab/amorate-backend/internal/repos"
	"github.com/amolab/amorate-backend/internal/types"
)

// ArenaPair is one blind matchup ready to present. Which track landed on
// side A is already randomized.
type ArenaPair struct {
	PieceKey   string
	PieceLabel string
	TrackA     string
	TrackB     string
	ModelA     string
	ModelB     string
}

type ArenaVerdict struct {
	Email      string
	PieceKey   string
	PieceLabel string
	TrackA     string
	TrackB     string
	ModelA     string
	ModelB     string
	Winner     string // "A" or "B"
	Feedback   string
	IP         string
}

type ArenaService interface {
	// NextPair picks a matchup. A non-empty preferredKey reuses that piece
	// group when it is still eligible; otherwise a random eligible group is
	// chosen. Returns nil when no group has two comparable tracks.
	NextPair(ctx context.Context, preferredKey string) (*ArenaPair, error)
	// Record persists the outcome of a comparison.
	Record(ctx context.Context, v ArenaVerdict) error
}

type arenaService struct {
	log          *logger.Logger
	tracks       registry.TrackRegistry
	metadataRepo repos.MetadataRepo
	matchRepo    repos.ArenaMatchRepo
}

func NewArenaService(
	baseLog *logger.Logger,
	tracks registry.TrackRegistry,
	metadataRepo repos.MetadataRepo,
	matchRepo repos.ArenaMatchRepo,
) ArenaService {
	return &arenaService{
		log:          baseLog.With("service", "ArenaService"),
		tracks:       tracks,
		metadataRepo: metadataRepo,
		matchRepo:    matchRepo,
	}
}

func (s *arenaService) NextPair(ctx context.Context, preferredKey string) (*ArenaPair, error) {
	all, err := s.tracks.List()
	if err != nil {
		return nil, err
	}
	metadata, err := s.metadataRepo.All(ctx)
	if err != nil {
		return nil, err
	}

	// Groups are recomputed from scratch per request. No caching: the
	// uploads directory and metadata log are the source of truth and stay
	// small at this system's scale.
	groups := grouping.Collect(all, metadata)
	if len(groups) == 0 {
		return nil, nil
	}

	group, ok := groups[preferredKey]
	if !ok {
		keys := make([]string, 0, len(groups))
		for key := range groups {
			keys = append(keys, key)
		}
		group = groups[keys[rand.Intn(len(keys))]]
	}

	first, second := samplePair(group.Tracks)
	if rand.Intn(2) == 0 {
		first, second = second, first
	}

	return &ArenaPair{
		PieceKey:   group.Key,
		PieceLabel: group.DisplayLabel,
		TrackA:     first.Filename,
		TrackB:     second.Filename,
		ModelA:     first.ModelName,
		ModelB:     second.ModelName,
	}, nil
}

// samplePair picks two distinct members uniformly at random.
func samplePair(tracks []types.GroupTrack) (types.GroupTrack, types.GroupTrack) {
	i := rand.Intn(len(tracks))
	j := rand.Intn(len(tracks) - 1)
	if j >= i {
		j++
	}
	return tracks[i], tracks[j]
}

func (s *arenaService) Record(ctx context.Context, v ArenaVerdict) error {
	if v.Winner != "A" && v.Winner != "B" {
		return apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("winner must be A or B"))
	}
	if v.TrackA == "" || v.TrackB == "" {
		return apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("both candidate tracks are required"))
	}

	winnerTrack, winnerModel := v.TrackA, v.ModelA
	if v.Winner == "B" {
		winnerTrack, winnerModel = v.TrackB, v.ModelB
	}

	return s.matchRepo.Append(ctx, types.ArenaMatch{
		Email:       v.Email,
		PieceKey:    v.PieceKey,
		PieceLabel:  v.PieceLabel,
		TrackA:      v.TrackA,
		TrackB:      v.TrackB,
		ModelA:      v.ModelA,
		ModelB:      v.ModelB,
		WinnerLabel: v.Winner,
		WinnerTrack: winnerTrack,
		WinnerModel: winnerModel,
		Feedback:    v.Feedback,
		IP:          v.IP,
	})
}
