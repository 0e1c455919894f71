package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/m3rciful/grabbot/core/buildinfo"
	corecmd "github.com/m3rciful/grabbot/core/cmd"
	"github.com/m3rciful/grabbot/internal/app"
	"github.com/m3rciful/grabbot/internal/config"
	"github.com/m3rciful/grabbot/internal/media"
)

func main() {
	cliApp := &cli.App{
		Name:    "grabbot",
		Usage:   "Telegram bot that downloads videos and audio with yt-dlp",
		Version: buildinfo.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				EnvVars: []string{"CONFIG_PATH"},
				Usage:   "load settings from YAML `FILE` (environment overrides it)",
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the bot (webhook or long polling)",
				Action: serve,
			},
			{
				Name:      "fetch",
				Usage:     "download one link the way the bot would and keep the file",
				ArgsUsage: "URL",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "quality", Aliases: []string{"q"}, Value: string(media.QualityHD), Usage: "hd, sd or audio"},
					&cli.StringFlag{Name: "dir", Value: config.DefaultScratchDir, Usage: "write into `DIR`"},
					&cli.StringFlag{Name: "ytdlp", Value: config.DefaultYtDlpPath, Usage: "yt-dlp binary"},
					&cli.StringFlag{Name: "ffmpeg", Usage: "ffmpeg binary passed to yt-dlp"},
					&cli.Int64Flag{Name: "max-mb", Value: config.DefaultMaxUploadMB, Usage: "reject results above this size"},
					&cli.DurationFlag{Name: "timeout", Value: config.DefaultMediaTimeout},
				},
				Action: fetch,
			},
			{
				Name:  "version",
				Usage: "print build information",
				Action: func(*cli.Context) error {
					fmt.Printf("grabbot %s (commit %s, built %s)\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
					return nil
				},
			},
		},
		HideHelpCommand: true,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		stop()
		log.Fatal(err)
	}
}

func serve(c *cli.Context) error {
	return corecmd.Run(c.Context, corecmd.Options{
		ConfigPath: c.String("config"),
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: func(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			cfg, ok := carrier.(*config.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", carrier)
			}
			return app.Bootstrap(ctx, cfg)
		},
	})
}

func fetch(c *cli.Context) error {
	url := c.Args().First()
	if url == "" {
		return cli.Exit("fetch: missing URL", 2)
	}
	q, err := media.ParseQuality(c.String("quality"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	fetcher := media.NewYtDlp(media.Options{
		Bin:     c.String("ytdlp"),
		FFmpeg:  c.String("ffmpeg"),
		Dir:     c.String("dir"),
		Timeout: c.Duration("timeout"),
	})
	job := media.NewJob(url, q)
	link := media.Inspect(url)
	fmt.Printf("job %s: %s link", job.ID, link.Provider)
	if link.VideoID != "" {
		fmt.Printf(" (video %s)", link.VideoID)
	}
	fmt.Println()

	bar := progressbar.Default(-1, "fetching "+string(q))
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()
	path, err := fetcher.Fetch(c.Context, job)
	close(done)
	_ = bar.Finish()
	fmt.Println()
	if err != nil {
		return err
	}

	size, err := media.Guard(c.Context, path, c.Int64("max-mb")<<20)
	if errors.Is(err, media.ErrTooLarge) {
		return cli.Exit(fmt.Sprintf("%s is %s, over the limit; deleted", path, humanize.IBytes(uint64(size))), 1)
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\n", path, humanize.IBytes(uint64(size)))
	return nil
}
