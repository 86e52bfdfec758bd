package transcoder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigLayersOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transcoder.toml")
	const toml = `
bitrate = 48000
random_serial = true
`
	require.NoError(t, os.WriteFile(path, []byte(toml), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 48_000, cfg.Bitrate)
	assert.True(t, cfg.RandomSerial)
	assert.Equal(t, DefaultConfig().Complexity, cfg.Complexity, "unset keys must keep their default")
	assert.Equal(t, DefaultConfig().FFmpegPath, cfg.FFmpegPath)
}

func TestLoadConfigMissingFileIsIOError(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, &Error{Kind: KindIO})
}

func TestDefaultConfigProducesContractualPacketSize(t *testing.T) {
	cfg := DefaultConfig()
	frameBytes := cfg.Bitrate / 8 * int(DefaultOpusSpec.PacketLengthMs) / 1000
	assert.Equal(t, int(DefaultOpusSpec.PacketSize), frameBytes)
}
