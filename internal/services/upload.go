package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/amolab/amorate-backend/internal/platform/apierr"
	"github.com/amolab/amorate-backend/internal/platform/logger"
	"github.com/amolab/amorate-backend/internal/platform/musescore"
	"github.com/amolab/amorate-backend/internal/repos"
	"github.com/amolab/amorate-backend/internal/types"
)

// Extensions accepted on the upload form. MuseScore sources are converted
// to derived assets; audio files are served as-is; a PDF may ride along as
// the engraved score.
var (
	notationExtensions = map[string]struct{}{".mscz": {}}
	audioExtensions    = map[string]struct{}{".ogg": {}, ".mp3": {}, ".wav": {}}
	scoreExtensions    = map[string]struct{}{".pdf": {}}
)

type UploadInput struct {
	Password  string
	Filename  string
	File      io.Reader
	Composer  string
	PieceName string
	ModelName string

	// Optional engraved score asset (PDF).
	ScoreFilename string
	ScoreFile     io.Reader
}

// UploadResult reports what landed on disk.
type UploadResult struct {
	SavedFilename string // raw file as stored
	TrackFilename string // playable audio filename (derived for notation uploads)
}

type UploadService interface {
	Process(ctx context.Context, in UploadInput) (*UploadResult, error)
}

type uploadService struct {
	log          *logger.Logger
	converter    musescore.Converter
	metadataRepo repos.MetadataRepo

	password     string
	passwordHash string // bcrypt; takes precedence when set
	uploadDir    string
	scoresDir    string
}

func NewUploadService(
	baseLog *logger.Logger,
	converter musescore.Converter,
	metadataRepo repos.MetadataRepo,
	password, passwordHash, uploadDir, scoresDir string,
) UploadService {
	return &uploadService{
		log:          baseLog.With("service", "UploadService"),
		converter:    converter,
		metadataRepo: metadataRepo,
		password:     password,
		passwordHash: passwordHash,
		uploadDir:    uploadDir,
		scoresDir:    scoresDir,
	}
}

func (s *uploadService) Process(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if !s.passwordOK(in.Password) {
		return nil, apierr.New(http.StatusUnauthorized, apierr.CodeUnauthorized, errors.New("Incorrect password."))
	}

	filename := SanitizeFilename(in.Filename)
	if filename == "" || in.File == nil {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("No score selected."))
	}
	ext := strings.ToLower(filepath.Ext(filename))
	_, isNotation := notationExtensions[ext]
	_, isAudio := audioExtensions[ext]
	if !isNotation && !isAudio {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("File type not allowed."))
	}

	scoreFilename := ""
	if in.ScoreFile != nil && in.ScoreFilename != "" {
		scoreFilename = SanitizeFilename(in.ScoreFilename)
		if _, ok := scoreExtensions[strings.ToLower(filepath.Ext(scoreFilename))]; !ok {
			return nil, apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("Score file type not allowed."))
		}
	}

	rawPath := filepath.Join(s.uploadDir, filename)
	if err := saveStream(rawPath, in.File); err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	trackFilename := filename
	if isNotation {
		// One converter run per derived asset. The raw notation file is kept
		// even when conversion fails, so the admin can retry by re-uploading
		// after fixing the environment.
		base := strings.TrimSuffix(filename, ext)
		trackFilename = base + ".ogg"

		g, gctx := errgroup.WithContext(ctx)
		for _, out := range []string{base + ".ogg", base + ".musicxml"} {
			outPath := filepath.Join(s.uploadDir, out)
			g.Go(func() error {
				return s.converter.Convert(gctx, rawPath, outPath)
			})
		}
		if err := g.Wait(); err != nil {
			s.log.Warn("conversion failed", "filename", filename, "error", err)
			return nil, apierr.New(http.StatusOK, apierr.CodeConversionFailed,
				fmt.Errorf("Conversion failed: %v", err))
		}
	}

	if scoreFilename != "" {
		if err := saveStream(filepath.Join(s.scoresDir, scoreFilename), in.ScoreFile); err != nil {
			return nil, fmt.Errorf("save score asset: %w", err)
		}
	}

	model := strings.TrimSpace(in.ModelName)
	composer := strings.TrimSpace(in.Composer)
	piece := strings.TrimSpace(in.PieceName)
	if model != "" || composer != "" || piece != "" || scoreFilename != "" {
		err := s.metadataRepo.Append(ctx, types.TrackMetadata{
			Filename:      trackFilename,
			ModelName:     model,
			Composer:      composer,
			PieceName:     piece,
			ScoreFilename: scoreFilename,
		})
		if err != nil {
			return nil, fmt.Errorf("append metadata: %w", err)
		}
	}

	s.log.Info("upload stored", "filename", filename, "track", trackFilename, "converted", isNotation)
	return &UploadResult{SavedFilename: filename, TrackFilename: trackFilename}, nil
}

func (s *uploadService) passwordOK(candidate string) bool {
	if s.passwordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(candidate)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(s.password)) == 1
}

func saveStream(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return err
	}
	return f.Close()
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename reduces a client-supplied name to a safe basename:
// path components are dropped and anything outside [A-Za-z0-9._-] collapses
// to an underscore. Same-name uploads overwrite; that matches the
// append-only, admin-curated nature of the uploads directory.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" || name == "." || name == ".." {
		return ""
	}
	return name
}
