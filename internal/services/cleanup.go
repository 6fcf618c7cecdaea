package services

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// PartialUploadSuffix marks a file that is still being written by the upload handler.
const PartialUploadSuffix = ".part"

// CleanupService removes partial uploads abandoned by interrupted requests.
// It runs as a background goroutine and periodically scans the upload directory.
type CleanupService struct {
	dir      string
	interval time.Duration
	timeout  time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewCleanupService creates a new cleanup service.
// - interval: how often to scan the directory (e.g., 1 minute)
// - timeout: how old a partial upload must be before it is deleted (e.g., 10 minutes)
func NewCleanupService(dir string, interval, timeout time.Duration) *CleanupService {
	return &CleanupService{
		dir:      dir,
		interval: interval,
		timeout:  timeout,
		stopChan: make(chan struct{}),
	}
}

// Start begins the background cleanup worker.
// This method blocks and should be called with 'go'.
func (s *CleanupService) Start() {
	log.Printf("[Cleanup] Started (dir: %s, interval: %v, timeout: %v)", s.dir, s.interval, s.timeout)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(time.Now())
		case <-s.stopChan:
			log.Println("[Cleanup] Stopped")
			return
		}
	}
}

// Stop shuts down the worker. Calling it more than once is safe.
func (s *CleanupService) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// Sweep deletes partial uploads last modified before now minus the timeout.
// It returns the number of files removed.
func (s *CleanupService) Sweep(now time.Time) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[Cleanup] Failed to read %s: %v", s.dir, err)
		}
		return 0
	}

	threshold := now.Add(-s.timeout)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), PartialUploadSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(threshold) {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Printf("[Cleanup] Failed to remove %s: %v", path, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Printf("[Cleanup] Removed %d abandoned uploads", removed)
	}
	return removed
}
