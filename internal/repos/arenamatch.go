package repos

import (
	"context"
	"time"

	"github.com/amolab/amorate-backend/internal/platform/logger"
	"github.com/amolab/amorate-backend/internal/types"
)

var arenaMatchHeader = []string{
	"timestamp", "email", "piece_key", "piece_label",
	"track_a", "track_b", "model_a", "model_b",
	"winner_label", "winner_track", "winner_model",
	"feedback", "ip",
}

// ArenaMatchRepo is write-only: matches are recorded for offline analysis
// and never read back by the application.
type ArenaMatchRepo interface {
	Append(ctx context.Context, m types.ArenaMatch) error
}

type arenaMatchRepo struct {
	log *logger.Logger
	csv *csvLog
}

func NewArenaMatchRepo(path string, baseLog *logger.Logger) ArenaMatchRepo {
	return &arenaMatchRepo{
		log: baseLog.With("repo", "ArenaMatchRepo"),
		csv: newCSVLog(path, arenaMatchHeader),
	}
}

func (r *arenaMatchRepo) Append(ctx context.Context, m types.ArenaMatch) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	row := []string{
		ts.UTC().Format(time.RFC3339),
		m.Email,
		m.PieceKey,
		m.PieceLabel,
		m.TrackA,
		m.TrackB,
		m.ModelA,
		m.ModelB,
		m.WinnerLabel,
		m.WinnerTrack,
		m.WinnerModel,
		m.Feedback,
		m.IP,
	}
	if err := r.csv.append(row); err != nil {
		return err
	}
	r.log.Debug("arena match appended", "piece_key", m.PieceKey, "winner", m.WinnerLabel, "email", m.Email)
	return nil
}
