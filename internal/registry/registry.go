package registry

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/amolab/amorate-backend/internal/platform/logger"
)

// TrackRegistry answers "what tracks exist right now". The uploads
// directory is the source of truth; every call re-reads it, so a track is
// listable the moment its file lands on disk.
type TrackRegistry interface {
	// List returns the playable track filenames, sorted.
	List() ([]string, error)
	Exists(filename string) bool
}

type trackRegistry struct {
	log        *logger.Logger
	dir        string
	extensions map[string]struct{}
}

func New(dir string, baseLog *logger.Logger) TrackRegistry {
	return &trackRegistry{
		log: baseLog.With("registry", "TrackRegistry"),
		dir: dir,
		extensions: map[string]struct{}{
			".ogg": {},
			".mp3": {},
			".wav": {},
		},
	}
}

func (t *trackRegistry) List() ([]string, error) {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var tracks []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if _, ok := t.extensions[ext]; !ok {
			continue
		}
		tracks = append(tracks, e.Name())
	}
	sort.Strings(tracks)
	return tracks, nil
}

func (t *trackRegistry) Exists(filename string) bool {
	if filename == "" || filename != filepath.Base(filename) {
		return false
	}
	info, err := os.Stat(filepath.Join(t.dir, filename))
	return err == nil && !info.IsDir()
}
