package lead

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileSink appends completed leads to a local CSV file.
type FileSink struct {
	mu   sync.Mutex
	path string
}

// NewFileSink creates the parent directory if needed.
func NewFileSink(path string) (*FileSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create lead directory: %w", err)
		}
	}
	return &FileSink{path: path}, nil
}

func (s *FileSink) Save(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("error opening lead file: %v", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(rec.Row()); err != nil {
		return fmt.Errorf("error writing lead row: %v", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("error writing lead row: %v", err)
	}
	return nil
}
