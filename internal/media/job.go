package media

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const videoConvertorArgs = "VideoConvertor:-c:v libx264 -preset veryfast -crf 23 -c:a aac"

// Job is one fetch of one URL at one quality.
type Job struct {
	ID      string
	URL     string
	Quality Quality
}

// NewJob assigns a fresh id to a fetch request.
func NewJob(url string, q Quality) Job {
	return Job{ID: uuid.NewString(), URL: strings.TrimSpace(url), Quality: q}
}

// OutputTemplate is the yt-dlp -o template that keeps all job files under dir/<id>.*.
func (j Job) OutputTemplate(dir string) string {
	return filepath.Join(dir, j.ID+".%(ext)s")
}

// Glob matches every file the job may have left in dir.
func (j Job) Glob(dir string) string {
	return filepath.Join(dir, j.ID+".*")
}

// Args builds the yt-dlp argument list for the job.
func (j Job) Args(dir, ffmpegPath string) []string {
	args := []string{
		"--no-playlist",
		"--no-progress",
		"--no-warnings",
		"-o", j.OutputTemplate(dir),
		"--print", "after_move:filepath",
		"--no-simulate",
		"-f", j.Quality.formatSelector(),
	}
	if ffmpegPath != "" {
		args = append(args, "--ffmpeg-location", ffmpegPath)
	}
	if j.Quality.IsAudio() {
		args = append(args,
			"-x",
			"--audio-format", "mp3",
			"--audio-quality", "192K",
		)
	} else {
		args = append(args,
			"--merge-output-format", "mp4",
			"--recode-video", "mp4",
			"--postprocessor-args", videoConvertorArgs,
		)
	}
	return append(args, "--", j.URL)
}
