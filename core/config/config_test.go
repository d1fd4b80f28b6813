package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetConfigDefaults(t *testing.T) {
	cfg, err := GetConfig()
	require.NoError(t, err)

	require.Equal(t, 8081, cfg.Server.Port)
	require.Equal(t, 1024*1024, cfg.Chunks.Size)
	require.Equal(t, 1500*time.Millisecond, cfg.Discovery.Timeout)
	require.Equal(t, "255.255.255.255", cfg.Discovery.BroadcastAddr)
	require.Equal(t, "0.0.0.0:8081", cfg.ListenAddr())
}

func TestGetConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("CHUNK_PATH", "/data/movies")
	t.Setenv("DISCOVERY_TIMEOUT", "100s")

	cfg, err := GetConfig()
	require.NoError(t, err)

	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, "/data/movies", cfg.Chunks.Path)
	require.Equal(t, 100*time.Second, cfg.Discovery.Timeout)
}

func TestGetConfigInvalid(t *testing.T) {
	testcases := []struct {
		desc    string
		key     string
		value   string
		wantErr error
	}{
		{desc: "port out of range", key: "SERVER_PORT", value: "70000", wantErr: ErrInvalidPort},
		{desc: "zero chunk size", key: "CHUNK_SIZE", value: "0", wantErr: ErrInvalidChunkSize},
		{desc: "zero discovery timeout", key: "DISCOVERY_TIMEOUT", value: "0s", wantErr: ErrInvalidTimeout},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)

			_, err := GetConfig()
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}
