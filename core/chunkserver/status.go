package chunkserver

import (
	"encoding/json"

	"github.com/pyropy/lanchunk/core/chunkindex"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// FileStatus describes one indexed file on the status endpoint.
type FileStatus struct {
	Name   string   `json:"name"`
	Chunks int      `json:"chunks"`
	Size   int64    `json:"size"`
	Hashes []string `json:"hashes"`
}

// StatusServer is a read-only HTTP view of the chunk index.
type StatusServer struct {
	index *chunkindex.Index
	log   *zap.SugaredLogger
	srv   *fasthttp.Server
}

func NewStatusServer(index *chunkindex.Index, log *zap.SugaredLogger) *StatusServer {
	s := &StatusServer{index: index, log: log}
	s.srv = &fasthttp.Server{
		Handler: s.handler,
		Name:    "lanchunk",
	}

	return s
}

func (s *StatusServer) handler(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/listFiles":
		s.listFilesHandler(ctx)
	case "/health":
		ctx.WriteString("ok")
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}
}

func (s *StatusServer) listFilesHandler(ctx *fasthttp.RequestCtx) {
	files := s.index.Files()
	res := make([]FileStatus, 0, len(files))
	for _, f := range files {
		hashes := make([]string, 0, len(f.Chunks))
		for _, c := range f.Chunks {
			hashes = append(hashes, c.Hash)
		}

		res = append(res, FileStatus{
			Name:   f.FileName,
			Chunks: len(f.Chunks),
			Size:   f.Size(),
			Hashes: hashes,
		})
	}

	ctx.SetContentType("application/json")
	if err := json.NewEncoder(ctx).Encode(res); err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.WriteString(err.Error())
	}
}

func (s *StatusServer) ListenAndServe(addr string) error {
	s.log.Infow("startup", "status", "status endpoint started", "address", addr)

	return s.srv.ListenAndServe(addr)
}

func (s *StatusServer) Shutdown() error {
	return s.srv.Shutdown()
}
