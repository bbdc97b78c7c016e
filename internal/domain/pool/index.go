package pool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/forPelevin/notecut/internal/errs"
	"github.com/forPelevin/notecut/internal/ports"
	"github.com/forPelevin/notecut/internal/types"
)

// Index scans dir (not recursively) for media files and probes their durations.
// Files with other extensions are ignored.
func Index(ctx context.Context, dir string, probe ports.DurationProber) (*Pool, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, errs.Input("clips dir: %v", err)
	}
	if !st.IsDir() {
		return nil, errs.Input("clips dir %q is not a directory", dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read clips dir: %w", err)
	}

	var clips []types.ClipDescriptor
	for _, e := range entries {
		if e.IsDir() || !IsMedia(e.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, e.Name())
		d, err := probe.ProbeDuration(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("probe %s: %w", e.Name(), err)
		}
		clips = append(clips, types.ClipDescriptor{Path: path, Duration: d})
	}
	return New(clips), nil
}
