package main

import (
	"fmt"
	"path/filepath"

	"github.com/pyropy/lanchunk/core/client"
	"github.com/pyropy/lanchunk/core/config"
	"github.com/pyropy/lanchunk/core/discovery"
	"github.com/pyropy/lanchunk/core/media"
	"github.com/urfave/cli/v2"
)

func discoveryOptions(ctx *cli.Context, cfg *config.Config) discovery.Options {
	return discovery.Options{
		Port:          ctx.Int("port"),
		Timeout:       ctx.Duration("discovery-timeout"),
		BroadcastAddr: cfg.Discovery.BroadcastAddr,
	}
}

func newDownloader(ctx *cli.Context, cfg *config.Config) (*client.Downloader, error) {
	history, err := client.OpenHistory(ctx.String("store"))
	if err != nil {
		return nil, err
	}

	d := client.NewDownloader(ctx.Int("port"), log)
	d.DialTimeout = cfg.Client.DialTimeout
	d.IOTimeout = cfg.Client.IOTimeout
	d.History = history

	return d, nil
}

func discoverCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "List peers answering on the local network",
		Action: func(ctx *cli.Context) error {
			peers, err := discovery.DiscoverPeers(ctx.Context, discoveryOptions(ctx, cfg), log)
			if err != nil {
				return err
			}

			for _, peer := range peers {
				fmt.Println(peer)
			}

			return nil
		},
	}
}

func fetchCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Resolve a video from disk, peers or the media server",
		ArgsUsage: "<video-url>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "token",
				EnvVars: []string{"MEDIA_TOKEN"},
				Usage:   "Media server token used when no peer has the file",
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "Signed in user name",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Store a server streamed video in the media directory so peers can serve it",
			},
		},
		Action: func(ctx *cli.Context) error {
			videoURL := ctx.Args().First()
			if videoURL == "" {
				return cli.Exit("missing video url", 1)
			}

			d, err := newDownloader(ctx, cfg)
			if err != nil {
				return err
			}
			defer d.History.Close()

			dir, err := filepath.Abs(ctx.String("media-dir"))
			if err != nil {
				return err
			}

			r := media.NewResolver(dir, discoveryOptions(ctx, cfg), d, log)
			r.BaseURL = cfg.Fallback.BaseURL

			session := media.Session{
				Token:    ctx.String("token"),
				Username: ctx.String("user"),
			}
			src, err := r.Resolve(ctx.Context, videoURL, session)
			if err != nil {
				return err
			}

			if src.LocalPath != "" {
				fmt.Println(src.LocalPath)
				return nil
			}

			if ctx.Bool("save") {
				path, err := r.Save(ctx.Context, videoURL, session)
				if err != nil {
					return err
				}
				fmt.Println(path)
				return nil
			}

			fmt.Println(src.RemoteURL)
			return nil
		},
	}
}

var historyCmd = &cli.Command{
	Name:  "history",
	Usage: "List past download attempts",
	Action: func(ctx *cli.Context) error {
		h, err := client.OpenHistory(ctx.String("store"))
		if err != nil {
			return err
		}
		defer h.Close()

		records, err := h.All(ctx.Context)
		if err != nil {
			return err
		}

		for _, rec := range records {
			fmt.Printf("%s\t%s\t%s\t%d chunks\t%d bytes\t%s\n",
				rec.StartedAt.Format("2006-01-02 15:04:05"), rec.Status, rec.FileName, rec.Chunks, rec.Bytes, rec.Error)
		}

		return nil
	},
}
