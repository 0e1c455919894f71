package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuality(t *testing.T) {
	for in, want := range map[string]Quality{"hd": QualityHD, " SD ": QualitySD, "audio-only": QualityAudio, "mp3": QualityAudio} {
		got, err := ParseQuality(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseQuality("4k")
	assert.ErrorIs(t, err, ErrUnknownQuality)
}

func TestJobArgs(t *testing.T) {
	job := Job{ID: "abc", URL: "https://youtu.be/dQw4w9WgXcQ", Quality: QualityHD}
	args := strings.Join(job.Args("/tmp/dl", ""), " ")

	assert.Contains(t, args, "-f bestvideo+bestaudio/best")
	assert.Contains(t, args, "--recode-video mp4")
	assert.Contains(t, args, "-o /tmp/dl/abc.%(ext)s")
	assert.Contains(t, args, "--print after_move:filepath")
	assert.True(t, strings.HasSuffix(args, "-- https://youtu.be/dQw4w9WgXcQ"))
	assert.NotContains(t, args, "--ffmpeg-location")

	job.Quality = QualitySD
	assert.Contains(t, strings.Join(job.Args("/tmp/dl", "/usr/bin/ffmpeg"), " "), "-f worstvideo+worstaudio/worst")

	job.Quality = QualityAudio
	args = strings.Join(job.Args("/tmp/dl", "/usr/bin/ffmpeg"), " ")
	assert.Contains(t, args, "-x --audio-format mp3 --audio-quality 192K")
	assert.Contains(t, args, "--ffmpeg-location /usr/bin/ffmpeg")
	assert.NotContains(t, args, "--recode-video")
}

func TestNewJobAssignsDistinctIDs(t *testing.T) {
	a, b := NewJob(" https://x.test/v ", QualitySD), NewJob("https://x.test/v", QualitySD)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "https://x.test/v", a.URL)
}

// fakeRunner writes the named file into the scratch dir and prints its path.
func fakeRunner(name string, size int) Runner {
	return func(_ context.Context, _ string, args ...string) ([]byte, error) {
		var tmpl string
		for i, a := range args {
			if a == "-o" {
				tmpl = args[i+1]
			}
		}
		path := strings.Replace(tmpl, "%(ext)s", name, 1)
		if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
			return nil, err
		}
		return []byte("[info] noise\n" + path + "\n"), nil
	}
}

func TestFetchAudioAlwaysYieldsMP3(t *testing.T) {
	dir := t.TempDir()
	y := NewYtDlp(Options{Dir: dir, Runner: fakeRunner("mp3", 10)})

	path, err := y.Fetch(context.Background(), NewJob("https://example.com/song", QualityAudio))
	require.NoError(t, err)
	assert.Equal(t, ".mp3", filepath.Ext(path))
	assert.FileExists(t, path)
}

func TestResultPathForcesAudioExtension(t *testing.T) {
	job := Job{ID: "j", Quality: QualityAudio}
	assert.Equal(t, "/d/j.mp3", resultPath([]byte("/d/j.webm\n\n"), job))
	assert.Equal(t, "", resultPath([]byte("  \n"), job))

	job.Quality = QualityHD
	assert.Equal(t, "/d/j.mp4", resultPath([]byte("/d/j.mp4"), job))
}

func TestFetchFailureRemovesPartialFiles(t *testing.T) {
	dir := t.TempDir()
	job := NewJob("https://example.com/v", QualityHD)
	boom := errors.New("exit status 1")
	y := NewYtDlp(Options{Dir: dir, Runner: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, job.ID+".f137.mp4.part"), []byte("x"), 0o644))
		return nil, boom
	}})

	_, err := y.Fetch(context.Background(), job)
	require.ErrorIs(t, err, boom)
	matches, _ := filepath.Glob(job.Glob(dir))
	assert.Empty(t, matches)
}

func TestFetchWithoutOutput(t *testing.T) {
	y := NewYtDlp(Options{Dir: t.TempDir(), Runner: func(context.Context, string, ...string) ([]byte, error) {
		return nil, nil
	}})
	_, err := y.Fetch(context.Background(), NewJob("https://example.com/v", QualitySD))
	assert.ErrorIs(t, err, ErrNoOutput)
}

func TestGuardDeletesOversizedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.mp4")
	require.NoError(t, os.WriteFile(path, make([]byte, 2048), 0o644))

	size, err := Guard(context.Background(), path, 1024)
	require.ErrorIs(t, err, ErrTooLarge)
	assert.EqualValues(t, 2048, size)
	assert.NoFileExists(t, path)

	var tl *TooLargeError
	require.True(t, errors.As(err, &tl))
	assert.Equal(t, "too_large", tl.Code())
}

func TestGuardKeepsFileAtLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ok.mp3")
	require.NoError(t, os.WriteFile(path, make([]byte, 1024), 0o644))

	size, err := Guard(context.Background(), path, 1024)
	require.NoError(t, err)
	assert.EqualValues(t, 1024, size)
	assert.FileExists(t, path)
}

func TestInspect(t *testing.T) {
	cases := map[string]Link{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ": {Provider: ProviderYouTube, VideoID: "dQw4w9WgXcQ", Host: "www.youtube.com"},
		"https://youtu.be/dQw4w9WgXcQ":                {Provider: ProviderYouTube, VideoID: "dQw4w9WgXcQ", Host: "youtu.be"},
		"https://vimeo.com/12345":                     {Provider: ProviderGeneric, Host: "vimeo.com"},
		"not a link":                                  {Provider: ProviderUnknown},
	}
	for in, want := range cases {
		assert.Equal(t, want, Inspect(in), in)
	}
}

func TestJanitorSweep(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "3b241101-e2bb-4255-8caf-4136c566a962.mp4")
	part := filepath.Join(dir, "3b241101-e2bb-4255-8caf-4136c566a962.f137.mp4.part")
	fresh := filepath.Join(dir, "9f0c3a4e-5a8b-4f7e-9d64-0c1c2b8a7e11.mp4")
	for _, p := range []string{old, part, fresh} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))
	require.NoError(t, os.Chtimes(part, past, past))

	j := NewJanitor(dir, time.Hour)
	n, err := j.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoFileExists(t, old)
	assert.NoFileExists(t, part)
	assert.FileExists(t, fresh)
}

func TestJanitorKeepsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	past := time.Now().Add(-2 * time.Hour)
	names := []string{"config.yaml", ".env", "grabbot.log", "notes", "3b241101e2bb42558caf4136c566a962.mp4"}
	for _, name := range names {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
		require.NoError(t, os.Chtimes(p, past, past))
	}

	n, err := NewJanitor(dir, time.Hour).Sweep()
	require.NoError(t, err)
	assert.Zero(t, n)
	for _, name := range names {
		assert.FileExists(t, filepath.Join(dir, name))
	}
}

func TestJanitorSweepsJobFiles(t *testing.T) {
	job := NewJob("https://youtu.be/dQw4w9WgXcQ", QualityAudio)
	assert.True(t, isJobFile(job.ID+job.Quality.Ext()))
	assert.False(t, isJobFile(job.ID))
	assert.False(t, isJobFile("config.yaml"))
}

func TestJanitorMissingDir(t *testing.T) {
	n, err := NewJanitor(filepath.Join(t.TempDir(), "nope"), time.Hour).Sweep()
	assert.NoError(t, err)
	assert.Zero(t, n)
}
