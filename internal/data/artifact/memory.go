package artifact

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemorySink keeps artifacts in process. Used by dry runs and tests.
type MemorySink struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemorySink() *MemorySink {
	return &MemorySink{data: make(map[string][]byte)}
}

func (s *MemorySink) Name() string { return "memory" }

func (s *MemorySink) Put(_ context.Context, runID, path string, content []byte) error {
	if s == nil {
		return fmt.Errorf("sink is nil")
	}
	key, err := requireKey(runID, path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), content...)
	return nil
}

func (s *MemorySink) Get(_ context.Context, runID, path string) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("sink is nil")
	}
	key, err := requireKey(runID, path)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (s *MemorySink) List(_ context.Context, runID string) ([]string, error) {
	if s == nil {
		return nil, fmt.Errorf("sink is nil")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, fmt.Errorf("run_id is required")
	}
	prefix := runID + "/"
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.data))
	for key := range s.data {
		if strings.HasPrefix(key, prefix) {
			out = append(out, strings.TrimPrefix(key, prefix))
		}
	}
	sort.Strings(out)
	return out, nil
}

func requireKey(runID, path string) (string, error) {
	runID = strings.TrimSpace(runID)
	path = strings.TrimSpace(path)
	if runID == "" {
		return "", fmt.Errorf("run_id is required")
	}
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	return objectKey(runID, path), nil
}

func objectKey(runID, path string) string {
	normalized := strings.TrimLeft(strings.TrimSpace(path), "/")
	return strings.TrimSpace(runID) + "/" + normalized
}
