// Package source supplies fully materialized ticket snapshots per region.
package source

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/okian/tally/internal/domain/model"
)

// Sentinel errors for sources.
var (
	ErrUnknownRegion = errors.New("unknown region")
	ErrMalformedLine = errors.New("malformed ticket line")
)

// maxLineBytes bounds a single JSONL record.
const maxLineBytes = 1 << 20

// Source returns a finite, restartable snapshot of tickets for a region.
type Source interface {
	Fetch(ctx context.Context, region string) ([]model.RawTicket, error)
}

// FileSource reads <dir>/<region>.jsonl, one ticket per line.
type FileSource struct {
	dir string
}

// NewFileSource reads snapshots from dir.
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// Path returns the snapshot path for a region.
func (s *FileSource) Path(region string) string {
	return filepath.Join(s.dir, filepath.Base(region)+".jsonl")
}

func (s *FileSource) Fetch(ctx context.Context, region string) ([]model.RawTicket, error) {
	f, err := os.Open(s.Path(region))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", region, ErrUnknownRegion)
		}
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Decode(ctx, f)
}

// Decode reads JSONL tickets. Blank lines are skipped; a line that is not
// valid JSON fails the whole snapshot with its line number.
func Decode(ctx context.Context, r io.Reader) ([]model.RawTicket, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	var out []model.RawTicket
	line := 0
	for sc.Scan() {
		line++
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var t model.RawTicket
		if err := json.Unmarshal([]byte(text), &t); err != nil {
			return nil, fmt.Errorf("line %d: %w: %v", line, ErrMalformedLine, err)
		}
		out = append(out, t)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return out, nil
}

// MemorySource serves snapshots held in memory.
type MemorySource struct {
	mu      sync.RWMutex
	regions map[string][]model.RawTicket
}

// NewMemorySource returns an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{regions: make(map[string][]model.RawTicket)}
}

// Set replaces the snapshot of a region.
func (s *MemorySource) Set(region string, tickets []model.RawTicket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regions[region] = append([]model.RawTicket(nil), tickets...)
}

func (s *MemorySource) Fetch(ctx context.Context, region string) ([]model.RawTicket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.regions[region]
	if !ok {
		return nil, fmt.Errorf("%s: %w", region, ErrUnknownRegion)
	}
	return append([]model.RawTicket(nil), ts...), nil
}
