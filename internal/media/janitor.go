package media

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/m3rciful/grabbot/core/logger"
)

// Janitor removes stale files from the scratch directory.
type Janitor struct {
	Dir    string
	MaxAge time.Duration
	now    func() time.Time
}

// NewJanitor returns a janitor for dir that deletes files older than maxAge.
func NewJanitor(dir string, maxAge time.Duration) *Janitor {
	return &Janitor{Dir: dir, MaxAge: maxAge, now: time.Now}
}

// isJobFile reports whether name was written for a job: "<job id>.<ext>",
// including yt-dlp intermediates such as "<job id>.f137.mp4.part".
func isJobFile(name string) bool {
	id, _, ok := strings.Cut(name, ".")
	if !ok {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// Sweep deletes expired job files once and reports how many went.
// Files not named after a job are never touched.
func (j *Janitor) Sweep() (int, error) {
	entries, err := os.ReadDir(j.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	cutoff := j.now().Add(-j.MaxAge)
	var (
		removed int
		result  *multierror.Error
	)
	for _, e := range entries {
		if !e.Type().IsRegular() || !isJobFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(j.Dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			result = multierror.Append(result, err)
			continue
		}
		removed++
	}
	return removed, result.ErrorOrNil()
}

// Run sweeps every interval until ctx is done.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) {
	if j.MaxAge <= 0 {
		return
	}
	if interval <= 0 {
		interval = j.MaxAge / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := j.Sweep()
			if err != nil {
				logger.Media.LogAttrs(ctx, slog.LevelWarn, "janitor.sweep",
					slog.String("status", "fail"),
					slog.Int("removed", n),
					slog.String("err", err.Error()),
				)
				continue
			}
			if n > 0 {
				logger.Media.LogAttrs(ctx, slog.LevelInfo, "janitor.sweep",
					slog.Int("removed", n),
				)
			}
		}
	}
}
