package media

import (
	"strings"
)

// LocalFileName is the name a video is stored under in the media directory:
// the last path segment of its URL, with HLS playlists mapped to .mp4.
func LocalFileName(videoURL string) string {
	if videoURL == "" {
		return ""
	}

	name := videoURL[strings.LastIndex(videoURL, "/")+1:]

	return strings.ReplaceAll(name, ".m3u8", ".mp4")
}

// HLSURL maps an mp4 video URL to the HLS playlist the media server streams.
func HLSURL(videoURL string) string {
	if strings.Contains(videoURL, "_360p") {
		return strings.ReplaceAll(videoURL, "_360p.mp4", "_hls_360p/playlist.m3u8")
	}

	return strings.ReplaceAll(videoURL, ".mp4", "_hls_1080p/playlist.m3u8")
}
