package media

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/m3rciful/grabbot/core/logger"
)

// ErrNoOutput means the tool exited cleanly but left no file behind.
var ErrNoOutput = errors.New("media: fetch produced no file")

// DefaultTimeout bounds a single fetch when Options.Timeout is zero.
const DefaultTimeout = 10 * time.Minute

const stderrTail = 512

// Fetcher turns a job into a local file path.
type Fetcher interface {
	Fetch(ctx context.Context, job Job) (string, error)
}

// Runner executes an external command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs the command with os/exec, folding stderr into the error.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > stderrTail {
			msg = msg[len(msg)-stderrTail:]
		}
		return stdout.Bytes(), fmt.Errorf("%s: %w | %s", filepath.Base(name), err, msg)
	}
	return stdout.Bytes(), nil
}

// Options configures a YtDlp fetcher.
type Options struct {
	Bin     string
	FFmpeg  string
	Dir     string
	Timeout time.Duration
	Runner  Runner
}

// YtDlp fetches media by shelling out to yt-dlp.
type YtDlp struct {
	bin     string
	ffmpeg  string
	dir     string
	timeout time.Duration
	run     Runner
}

// NewYtDlp returns a fetcher writing into opts.Dir.
func NewYtDlp(opts Options) *YtDlp {
	y := &YtDlp{
		bin:     opts.Bin,
		ffmpeg:  opts.FFmpeg,
		dir:     opts.Dir,
		timeout: opts.Timeout,
		run:     opts.Runner,
	}
	if y.bin == "" {
		y.bin = "yt-dlp"
	}
	if y.dir == "" {
		y.dir = "downloads"
	}
	if y.timeout <= 0 {
		y.timeout = DefaultTimeout
	}
	if y.run == nil {
		y.run = ExecRunner
	}
	return y
}

// Dir is the scratch directory the fetcher writes into.
func (y *YtDlp) Dir() string { return y.dir }

// Fetch downloads and converts the job, returning the final file path.
// On failure every file the job produced is removed.
func (y *YtDlp) Fetch(ctx context.Context, job Job) (string, error) {
	if err := os.MkdirAll(y.dir, 0o755); err != nil {
		return "", fmt.Errorf("media: scratch dir: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	start := time.Now()
	out, err := y.run(ctx, y.bin, job.Args(y.dir, y.ffmpeg)...)
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w (%v)", err, ctx.Err())
		}
		return "", y.fail(ctx, job, fmt.Errorf("media: fetch %s: %w", job.Quality, err))
	}

	path := resultPath(out, job)
	if path == "" {
		return "", y.fail(ctx, job, ErrNoOutput)
	}
	if _, err := os.Stat(path); err != nil {
		return "", y.fail(ctx, job, fmt.Errorf("%w: %s", ErrNoOutput, filepath.Base(path)))
	}

	logger.Media.LogAttrs(ctx, slog.LevelInfo, "fetch.done",
		slog.String("job_id", job.ID),
		slog.String("quality", string(job.Quality)),
		slog.String("path", path),
		slog.Duration("duration", time.Since(start)),
	)
	return path, nil
}

func (y *YtDlp) fail(ctx context.Context, job Job, err error) error {
	if cerr := Cleanup(job.Glob(y.dir)); cerr != nil {
		logger.Media.LogAttrs(ctx, slog.LevelWarn, "fetch.cleanup",
			slog.String("job_id", job.ID),
			slog.String("err", cerr.Error()),
		)
	}
	return err
}

// resultPath takes the last path yt-dlp printed. Audio jobs always end in .mp3.
func resultPath(stdout []byte, job Job) string {
	var last string
	sc := bufio.NewScanner(bytes.NewReader(stdout))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			last = line
		}
	}
	if last == "" {
		return ""
	}
	if job.Quality.IsAudio() {
		last = strings.TrimSuffix(last, filepath.Ext(last)) + job.Quality.Ext()
	}
	return last
}

// Cleanup removes every file matching pattern.
func Cleanup(pattern string) error {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}
	var result *multierror.Error
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
