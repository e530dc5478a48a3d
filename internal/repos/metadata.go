package repos

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/amolab/amorate-backend/internal/platform/logger"
	"github.com/amolab/amorate-backend/internal/types"
)

var metadataHeader = []string{"filename", "model_name", "composer", "piece_name", "score_filename", "upload_timestamp"}

type MetadataRepo interface {
	Append(ctx context.Context, m types.TrackMetadata) error
	// Get returns the metadata record for a filename, or nil when none
	// exists. When the log holds duplicate rows for a filename the first
	// one wins; later appends stay in the file as history but are never
	// surfaced.
	Get(ctx context.Context, filename string) (*types.TrackMetadata, error)
	All(ctx context.Context) (map[string]*types.TrackMetadata, error)
}

type metadataRepo struct {
	log *logger.Logger
	csv *csvLog

	mu         sync.RWMutex
	byFilename map[string]*types.TrackMetadata
}

func NewMetadataRepo(path string, baseLog *logger.Logger) (MetadataRepo, error) {
	r := &metadataRepo{
		log:        baseLog.With("repo", "MetadataRepo"),
		csv:        newCSVLog(path, metadataHeader),
		byFilename: make(map[string]*types.TrackMetadata),
	}

	err := r.csv.load(func(cols map[string]int, row []string) {
		get := func(name string) string {
			idx, ok := cols[name]
			if !ok || len(row) <= idx {
				return ""
			}
			return row[idx]
		}
		filename := get("filename")
		if filename == "" {
			return
		}
		if _, exists := r.byFilename[filename]; exists {
			// Keep-first: the earliest row pins the record.
			return
		}
		uploaded, _ := time.Parse(time.RFC3339, get("upload_timestamp"))
		r.byFilename[filename] = &types.TrackMetadata{
			Filename:      filename,
			ModelName:     strings.TrimSpace(get("model_name")),
			Composer:      strings.TrimSpace(get("composer")),
			PieceName:     strings.TrimSpace(get("piece_name")),
			ScoreFilename: strings.TrimSpace(get("score_filename")),
			UploadedAt:    uploaded,
		}
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *metadataRepo) Append(ctx context.Context, m types.TrackMetadata) error {
	ts := m.UploadedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
		m.UploadedAt = ts
	}
	row := []string{
		m.Filename,
		m.ModelName,
		m.Composer,
		m.PieceName,
		m.ScoreFilename,
		ts.UTC().Format(time.RFC3339),
	}
	if err := r.csv.append(row); err != nil {
		return err
	}

	r.mu.Lock()
	if _, exists := r.byFilename[m.Filename]; !exists {
		record := m
		r.byFilename[m.Filename] = &record
	} else {
		r.log.Warn("duplicate metadata append ignored by index", "filename", m.Filename)
	}
	r.mu.Unlock()

	r.log.Debug("metadata appended", "filename", m.Filename, "model", m.ModelName)
	return nil
}

func (r *metadataRepo) Get(ctx context.Context, filename string) (*types.TrackMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byFilename[filename]
	if !ok {
		return nil, nil
	}
	record := *m
	return &record, nil
}

func (r *metadataRepo) All(ctx context.Context) (map[string]*types.TrackMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*types.TrackMetadata, len(r.byFilename))
	for filename, m := range r.byFilename {
		record := *m
		out[filename] = &record
	}
	return out, nil
}
