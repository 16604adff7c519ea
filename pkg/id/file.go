package id

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// DefaultCheckpointEvery is how many ids are issued between checkpoint
// writes when no explicit frequency is configured.
const DefaultCheckpointEvery = 100

// FileAllocator is a monotonic counter checkpointed to a flat file. It
// persists every checkpointEvery issues, so on restart it resumes at
// checkpoint + checkpointEvery: up to checkpointEvery-1 ids are skipped
// after a crash, but none are ever issued twice.
type FileAllocator struct {
	mu              sync.Mutex
	path            string
	next            int64
	checkpointEvery int64
	sinceCheckpoint int64
}

// NewFileAllocator opens (or creates) the checkpoint file at path.
func NewFileAllocator(path string, checkpointEvery int64) (*FileAllocator, error) {
	if checkpointEvery <= 0 {
		checkpointEvery = DefaultCheckpointEvery
	}

	a := &FileAllocator{
		path:            path,
		checkpointEvery: checkpointEvery,
	}

	saved, err := a.load()
	if err != nil {
		return nil, err
	}

	if saved == 0 {
		a.next = 1
	} else {
		// The checkpoint lags the counter by up to checkpointEvery-1
		// issues, so skip a full window to guarantee no reuse.
		a.next = saved + checkpointEvery
	}

	if err := a.save(); err != nil {
		return nil, err
	}

	return a, nil
}

// Next issues the next id, checkpointing periodically.
func (a *FileAllocator) Next() (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.next
	a.next++
	a.sinceCheckpoint++

	if a.sinceCheckpoint >= a.checkpointEvery {
		if err := a.save(); err != nil {
			return 0, err
		}
		a.sinceCheckpoint = 0
	}

	return id, nil
}

// Close forces a final checkpoint so a clean shutdown wastes no ids.
func (a *FileAllocator) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.save()
}

func (a *FileAllocator) load() (int64, error) {
	data, err := os.ReadFile(a.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read id checkpoint: %w", err)
	}

	saved, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt id checkpoint %q: %w", a.path, err)
	}
	return saved, nil
}

func (a *FileAllocator) save() error {
	data := []byte(strconv.FormatInt(a.next, 10))
	if err := os.WriteFile(a.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write id checkpoint: %w", err)
	}
	return nil
}

// Ensure FileAllocator implements Allocator
var _ Allocator = (*FileAllocator)(nil)
