package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RunDirName names the directory for one run. The run timestamp keeps
// repeated exports of the same range apart.
func RunDirName(start, end, runAt time.Time) string {
	return fmt.Sprintf("logdna_export_for_%d_to_%d_ts%d", start.UnixMilli(), end.UnixMilli(), runAt.UnixMilli())
}

// CreateRunDir creates the run directory under baseDir and returns its path.
func CreateRunDir(baseDir string, start, end, runAt time.Time) (string, error) {
	dir := filepath.Join(baseDir, RunDirName(start, end, runAt))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return dir, nil
}
