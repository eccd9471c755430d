package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codeshape/internal/core/errors"
	"codeshape/internal/shared/util"
)

// LocalSink writes artifacts below a directory. With PerRun set each run
// gets its own subdirectory named after the run id; otherwise later runs
// overwrite earlier ones, which keeps the familiar <dir>/<label>/ layout.
type LocalSink struct {
	Dir    string
	PerRun bool
}

func NewLocalSink(dir string, perRun bool) *LocalSink {
	return &LocalSink{Dir: dir, PerRun: perRun}
}

func (s *LocalSink) Name() string { return "local" }

func (s *LocalSink) Put(ctx context.Context, runID, path string, content []byte) error {
	target, err := s.resolve(runID, path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return util.WriteFileWithDirs(target, content, 0o644)
}

func (s *LocalSink) Get(_ context.Context, runID, path string) ([]byte, error) {
	target, err := s.resolve(runID, path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *LocalSink) resolve(runID, path string) (string, error) {
	if s == nil || strings.TrimSpace(s.Dir) == "" {
		return "", fmt.Errorf("local sink directory is required")
	}
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.AddContext(errors.New(errors.CodePermissionDenied, "artifact path escapes sink directory"), errors.CtxPath, path)
	}

	base := s.Dir
	if s.PerRun {
		runID = strings.TrimSpace(runID)
		if runID == "" {
			return "", fmt.Errorf("run_id is required")
		}
		base = filepath.Join(base, runID)
	}
	return filepath.Join(base, clean), nil
}
