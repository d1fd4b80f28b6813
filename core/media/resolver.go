package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pyropy/lanchunk/core/client"
	"github.com/pyropy/lanchunk/core/discovery"
	"github.com/pyropy/lanchunk/core/model"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const DefaultSaveTimeout = 10 * time.Minute

var (
	ErrNoSource   = errors.New("video not available locally, on peers or from the server")
	ErrInvalidURL = errors.New("video url has no file name")
	ErrNoToken    = errors.New("session has no token")
)

// Session holds the media server credentials of the signed in user.
type Session struct {
	Token    string
	Username string
}

// Source tells the player where to read a video from. Either LocalPath or
// RemoteURL is set.
type Source struct {
	LocalPath string
	FromPeers bool

	RemoteURL string
	Token     string
}

// Resolver finds the cheapest source for a video: the media directory first,
// then peers on the LAN, then the media server.
type Resolver struct {
	Dir        string
	BaseURL    string
	Discovery  discovery.Options
	Downloader *client.Downloader

	// Discover defaults to discovery.DiscoverPeers with the Discovery options.
	Discover func(ctx context.Context) ([]model.Peer, error)

	HTTPClient  *fasthttp.Client
	SaveTimeout time.Duration

	log *zap.SugaredLogger
}

func NewResolver(dir string, opts discovery.Options, downloader *client.Downloader, log *zap.SugaredLogger) *Resolver {
	r := &Resolver{
		Dir:        dir,
		Discovery:  opts,
		Downloader:  downloader,
		HTTPClient:  &fasthttp.Client{Name: "lanchunk"},
		SaveTimeout: DefaultSaveTimeout,
		log:         log,
	}
	r.Discover = func(ctx context.Context) ([]model.Peer, error) {
		return discovery.DiscoverPeers(ctx, r.Discovery, r.log)
	}

	return r
}

func (r *Resolver) Resolve(ctx context.Context, videoURL string, session Session) (Source, error) {
	name := LocalFileName(videoURL)
	if name == "" {
		return Source{}, ErrInvalidURL
	}

	localPath := filepath.Join(r.Dir, name)
	if fileExists(localPath) {
		r.log.Infow("resolve", "status", "playing local file", "path", localPath)
		return Source{LocalPath: localPath}, nil
	}

	peers, err := r.Discover(ctx)
	if err != nil {
		r.log.Warnw("resolve", "error", err, "status", "discovery failed")
	}
	r.log.Infow("resolve", "status", "discovered peers", "peers", len(peers))

	if len(peers) > 0 {
		ok, err := r.Downloader.DownloadFromPeers(ctx, peers, name, localPath)
		if err != nil {
			r.log.Warnw("resolve", "error", err, "status", "download from peers failed", "file", name)
		}
		if ok {
			r.log.Infow("resolve", "status", "playing file from peers", "path", localPath)
			return Source{LocalPath: localPath, FromPeers: true}, nil
		}
	}

	if session.Token == "" {
		return Source{}, ErrNoSource
	}

	remote := r.remoteURL(HLSURL(videoURL))
	r.log.Infow("resolve", "status", "streaming from server", "url", remote, "user", session.Username)

	return Source{RemoteURL: remote, Token: session.Token}, nil
}

// Save downloads videoURL from the media server into the media directory,
// where the chunk server picks it up on its next scan. It returns the local
// path.
func (r *Resolver) Save(ctx context.Context, videoURL string, session Session) (string, error) {
	name := LocalFileName(videoURL)
	if name == "" {
		return "", ErrInvalidURL
	}
	if session.Token == "" {
		return "", ErrNoToken
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	timeout := r.SaveTimeout
	if d, ok := ctx.Deadline(); ok && time.Until(d) < timeout {
		timeout = time.Until(d)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	remote := r.remoteURL(videoURL)
	req.SetRequestURI(remote)
	req.Header.Set("Authorization", session.Token)

	if err := r.HTTPClient.DoTimeout(req, resp, timeout); err != nil {
		return "", fmt.Errorf("downloading %s: %w", remote, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return "", fmt.Errorf("downloading %s: unexpected status %d", remote, resp.StatusCode())
	}

	localPath := filepath.Join(r.Dir, name)
	if err := writeFile(localPath, resp); err != nil {
		r.log.Errorw("save", "error", err, "status", "writing file failed", "path", localPath)
		return "", err
	}

	r.log.Infow("save", "status", "downloaded video", "url", remote, "path", localPath, "user", session.Username)

	return localPath, nil
}

// writeFile writes the response body next to path and renames it into place.
func writeFile(path string, resp *fasthttp.Response) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".part-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = resp.BodyWriteTo(tmp); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// remoteURL resolves a relative video path against BaseURL.
func (r *Resolver) remoteURL(u string) string {
	if r.BaseURL == "" || strings.Contains(u, "://") {
		return u
	}

	return strings.TrimSuffix(r.BaseURL, "/") + "/" + strings.TrimPrefix(u, "/")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
