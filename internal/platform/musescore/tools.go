package musescore

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/amolab/amorate-backend/internal/platform/logger"
)

// Converter is the glue around the MuseScore binary. MuseScore infers the
// target format from the output file extension, so one Convert call per
// derived asset (`.ogg` audio, `.musicxml` notation).
//
// The call is synchronous and has no retry; a non-zero exit, a timeout, or
// a missing output file all surface as a conversion failure to the caller.
type Converter interface {
	AssertReady(ctx context.Context) error
	Convert(ctx context.Context, inputPath, outputPath string) error
}

type tools struct {
	log     *logger.Logger
	binPath string
	timeout time.Duration
}

func New(log *logger.Logger, binPath string, timeout time.Duration) Converter {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &tools{
		log:     log.With("platform", "MuseScore"),
		binPath: binPath,
		timeout: timeout,
	}
}

func (m *tools) AssertReady(ctx context.Context) error {
	if _, err := exec.LookPath(m.binPath); err != nil {
		return fmt.Errorf("missing required binary %q in PATH: %w", m.binPath, err)
	}
	return nil
}

func (m *tools) Convert(ctx context.Context, inputPath, outputPath string) error {
	if inputPath == "" {
		return fmt.Errorf("inputPath required")
	}
	if outputPath == "" {
		return fmt.Errorf("outputPath required")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("mkdir output dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, m.binPath, inputPath, "-o", outputPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s convert failed: %w; out=%s", m.binPath, err, strings.TrimSpace(string(out)))
	}

	// MuseScore exits 0 on some malformed inputs without writing anything.
	if _, statErr := os.Stat(outputPath); statErr != nil {
		return fmt.Errorf("conversion produced no output at %s; out=%s", outputPath, strings.TrimSpace(string(out)))
	}

	m.log.Debug("converted asset",
		"input", filepath.Base(inputPath),
		"output", filepath.Base(outputPath),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
