package chunkserver

import (
	"encoding/json"
	"testing"

	"github.com/pyropy/lanchunk/core/chunkindex"
	"github.com/pyropy/lanchunk/lib/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func testStatusRequest(s *StatusServer, path string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.SetRequestURI(path)
	s.handler(&ctx)

	return &ctx
}

func TestStatusListFiles(t *testing.T) {
	a := testFile(t, "a.mp4", []byte("aaaabbbbcc"))
	b := testFile(t, "b.mp4", []byte("zz"))
	s := NewStatusServer(chunkindex.New(b, a), logger.Nop())

	ctx := testStatusRequest(s, "/listFiles")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "application/json", string(ctx.Response.Header.ContentType()))

	var files []FileStatus
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &files))
	require.Len(t, files, 2)

	assert.Equal(t, "a.mp4", files[0].Name)
	assert.Equal(t, 3, files[0].Chunks)
	assert.Equal(t, int64(10), files[0].Size)
	assert.Equal(t, a.Chunks[2].Hash, files[0].Hashes[2])
	assert.Equal(t, "b.mp4", files[1].Name)
}

func TestStatusHealth(t *testing.T) {
	s := NewStatusServer(chunkindex.New(), logger.Nop())

	ctx := testStatusRequest(s, "/health")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "ok", string(ctx.Response.Body()))

	ctx = testStatusRequest(s, "/nope")
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}
