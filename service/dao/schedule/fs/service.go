// Package fs implements a filesystem-backed store for schedule entries so
// deferred work survives a restart. One JSON file per entry under a base
// path; any scheme supported by viant/afs works (file, mem, s3, ...).
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/priorq/service/dao"
	"github.com/viant/priorq/service/schedule"
)

// Service persists schedule entries as JSON files.
type Service struct {
	basePath string
	fs       afs.Service
	mu       sync.RWMutex
}

var _ dao.Service[string, schedule.Entry] = (*Service)(nil)

// Save persists an entry to the filesystem.
func (s *Service) Save(ctx context.Context, entry *schedule.Entry) error {
	if entry == nil {
		return dao.ErrNilEntity
	}
	if entry.ScheduleID == "" {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal schedule entry: %w", err)
	}
	filePath := s.entryPath(entry.ScheduleID)
	if err := s.fs.Upload(ctx, filePath, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save schedule entry to %s: %w", filePath, err)
	}
	return nil
}

// Load retrieves an entry by schedule id.
func (s *Service) Load(ctx context.Context, id string) (*schedule.Entry, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	filePath := s.entryPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to check schedule entry %s: %w", filePath, err)
	}
	if !exists {
		return nil, dao.ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule entry %s: %w", filePath, err)
	}
	var entry schedule.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schedule entry %s: %w", filePath, err)
	}
	return &entry, nil
}

// Delete removes an entry from the filesystem.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := s.entryPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return fmt.Errorf("failed to check schedule entry %s: %w", filePath, err)
	}
	if !exists {
		return dao.ErrNotFound
	}
	if err := s.fs.Delete(ctx, filePath); err != nil {
		return fmt.Errorf("failed to delete schedule entry %s: %w", filePath, err)
	}
	return nil
}

// List returns every stored entry. Unreadable files are skipped so one
// corrupt entry does not hide the rest.
func (s *Service) List(ctx context.Context) ([]*schedule.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.basePath, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule entries: %w", err)
	}
	var entries []*schedule.Entry
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			continue
		}
		var entry schedule.Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

func (s *Service) entryPath(id string) string {
	return url.Join(s.basePath, id+".json")
}

// New creates a filesystem schedule store rooted at basePath.
func New(basePath string) (*Service, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	fileService := afs.New()
	ctx := context.Background()
	exists, _ := fileService.Exists(ctx, basePath)
	if !exists {
		if err := fileService.Create(ctx, basePath, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
	}
	basePath = url.Normalize(basePath, file.Scheme)
	return &Service{basePath: basePath, fs: fileService}, nil
}
