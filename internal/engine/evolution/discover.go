package evolution

import (
	"os"
	"path/filepath"
	"strings"

	"codeshape/internal/core/errors"
)

// SnapshotDir is a snapshot found on disk.
type SnapshotDir struct {
	Label string
	Root  string
}

// Discover lists the immediate subdirectories of reposDir whose names start
// with prefix, in version order. Hidden directories are ignored.
func (c *Comparator) Discover(reposDir, prefix string) ([]SnapshotDir, error) {
	entries, err := os.ReadDir(reposDir)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "read snapshot directory"), errors.CtxPath, reposDir)
	}

	dirs := make([]SnapshotDir, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if prefix != "" && !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		dirs = append(dirs, SnapshotDir{Label: e.Name(), Root: filepath.Join(reposDir, e.Name())})
	}
	return orderByVersion(dirs, func(d SnapshotDir) string { return d.Label }, c.versionKey), nil
}

// DiscoverSnapshots is Discover with the default configuration.
func DiscoverSnapshots(reposDir, prefix string) ([]SnapshotDir, error) {
	return NewComparator(DefaultConfig()).Discover(reposDir, prefix)
}
