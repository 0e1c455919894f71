package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/m3rciful/grabbot/core/logger"
)

// DefaultMaxBytes is Telegram's bot upload ceiling.
const DefaultMaxBytes int64 = 50 << 20

// ErrTooLarge means the fetched file exceeds the upload limit and was deleted.
var ErrTooLarge = errors.New("media: file too large")

// TooLargeError carries the measured size of a rejected file.
type TooLargeError struct {
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("media: file is %s, limit %s",
		humanize.IBytes(uint64(e.Size)), humanize.IBytes(uint64(e.Limit)))
}

func (e *TooLargeError) Is(target error) bool { return target == ErrTooLarge }

// Code is picked up by handler summary logs.
func (e *TooLargeError) Code() string { return "too_large" }

// Guard checks the size of a fetched file. Oversized files are removed and
// reported as ErrTooLarge; callers never see their path again.
func Guard(ctx context.Context, path string, limit int64) (int64, error) {
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("media: stat result: %w", err)
	}
	size := info.Size()
	if size <= limit {
		logger.Media.LogAttrs(ctx, slog.LevelDebug, "guard.pass",
			slog.String("path", path),
			slog.Int64("size_bytes", size),
			slog.String("size", humanize.IBytes(uint64(size))),
		)
		return size, nil
	}

	if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		logger.Media.LogAttrs(ctx, slog.LevelWarn, "guard.remove",
			slog.String("status", "fail"),
			slog.String("path", path),
			slog.String("err", rmErr.Error()),
		)
	}
	logger.Media.LogAttrs(ctx, slog.LevelInfo, "guard.reject",
		slog.String("status", "too_large"),
		slog.String("path", path),
		slog.Int64("size_bytes", size),
		slog.String("size", humanize.IBytes(uint64(size))),
	)
	return size, &TooLargeError{Size: size, Limit: limit}
}

// Remove deletes a delivered file, ignoring files that are already gone.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
