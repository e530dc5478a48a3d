package repos

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// csvLog is the shared mechanics behind the three append-only stores: a
// flat CSV file with a fixed header written on first use. The file is the
// durable format; each repo keeps its own in-memory index and replays the
// file through load() when it is constructed.
//
// The mutex serializes in-process writers. Writers in other processes are
// out of scope.
type csvLog struct {
	mu     sync.Mutex
	path   string
	header []string
}

func newCSVLog(path string, header []string) *csvLog {
	return &csvLog{path: path, header: header}
}

// load replays every data row through fn. The header row is located by
// name, not position: fn receives a column-name -> index map so callers
// tolerate legacy files with missing or reordered columns. A missing file
// is an empty log.
func (l *csvLog) load(fn func(cols map[string]int, row []string)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", l.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read header of %s: %w", l.path, err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read row of %s: %w", l.path, err)
		}
		fn(cols, row)
	}
}

// append writes one row, creating the file with its header first if needed.
func (l *csvLog) append(row []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", l.path, err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s for append: %w", l.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", l.path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(l.header); err != nil {
			return fmt.Errorf("write header of %s: %w", l.path, err)
		}
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("write row of %s: %w", l.path, err)
	}
	w.Flush()
	return w.Error()
}
