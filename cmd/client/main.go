package main

import (
	"os"

	"github.com/pyropy/lanchunk/core/config"
	"github.com/pyropy/lanchunk/lib/logger"
	"github.com/urfave/cli/v2"
)

var log, _ = logger.New("client")

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		log.Fatalw("startup", "error", err)
	}

	app := &cli.App{
		Name:  "lanchunk",
		Usage: "Fetch media files from peers on the local network",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "store",
				Value: cfg.Client.HistoryPath,
				Usage: "Path to the local download history store",
			},
			&cli.StringFlag{
				Name:  "media-dir",
				Value: cfg.Chunks.Path,
				Usage: "Directory downloaded files are written to",
			},
			&cli.IntFlag{
				Name:  "port",
				Value: cfg.Server.Port,
				Usage: "Chunk server and discovery port of the peers",
			},
			&cli.DurationFlag{
				Name:  "discovery-timeout",
				Value: cfg.Discovery.Timeout,
				Usage: "How long to wait for discovery responses",
			},
		},
		Commands: []*cli.Command{
			discoverCmd(cfg),
			fetchCmd(cfg),
			historyCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalw("client", "error", err)
	}
}
