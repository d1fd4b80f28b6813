package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pyropy/lanchunk/core/chunkindex"
	"github.com/pyropy/lanchunk/core/chunkserver"
	"github.com/pyropy/lanchunk/core/config"
	"github.com/pyropy/lanchunk/lib/logger"
)

var log, _ = logger.New("chunk-server")

func main() {
	if err := run(); err != nil {
		log.Fatalw("startup", "error", err)
	}
}

func run() error {
	cfg, err := config.GetConfig()
	if err != nil {
		log.Errorw("startup", "error", "config error")
		return err
	}

	index, err := chunkindex.Scan(cfg.Chunks.Path, cfg.Chunks.Size, log)
	if err != nil {
		log.Errorw("startup", "error", "scanning media directory failed", "path", cfg.Chunks.Path)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.StatusAddr != "" {
		status := chunkserver.NewStatusServer(index, log)
		go func() {
			if err := status.ListenAndServe(cfg.Server.StatusAddr); err != nil {
				log.Errorw("status", "error", err, "status", "status endpoint stopped")
			}
		}()
		defer status.Shutdown()
	}

	addr := cfg.ListenAddr()
	defer log.Infow("shutdown", "status", "chunk server stopped", "address", addr)

	return chunkserver.StartChunkServerOn(ctx, addr, index, cfg.Server.IOTimeout, log)
}
