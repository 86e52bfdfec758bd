package transcoder

import (
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultSerial is the fixed Ogg bitstream serial number used when a
// Config does not request per-stream random serials. It matches the
// original implementation's hard-coded stream serial.
const DefaultSerial uint32 = 0xF01353

// Config holds the small slice of ambient configuration this package
// needs. It deliberately does not cover the audiobook server's library
// paths, database DSN, or HTTP listen address — those belong to the
// server's own config, which is out of scope here (spec.md §1).
type Config struct {
	// FFmpegPath is the ffmpeg binary SampleSource execs. Defaults to
	// "ffmpeg" (resolved via PATH) if empty.
	FFmpegPath string `koanf:"ffmpeg_path"`

	// RandomSerial, when true, gives every Stream a random 32-bit serial
	// instead of DefaultSerial (see SPEC_FULL.md's Open Questions
	// resolution).
	RandomSerial bool `koanf:"random_serial"`

	// Bitrate is the constant bitrate, in bits per second, the encoder
	// is configured with. Must divide evenly with the 20ms frame size to
	// keep PacketSize exactly 160 bytes (64000 is the only value this
	// package has validated against OpusSpec; see samplesource.go).
	Bitrate int `koanf:"bitrate"`

	// Complexity is the Opus encoder complexity (0-10). Higher values
	// trade CPU for quality; they do not affect packet size under CBR.
	Complexity int `koanf:"complexity"`
}

// DefaultConfig returns the configuration this package is validated
// against: 64kbps CBR mono narrowband, yielding exactly 160-byte packets
// per OpusSpec, with the fixed serial from the original implementation.
func DefaultConfig() Config {
	return Config{
		FFmpegPath:   "ffmpeg",
		RandomSerial: false,
		Bitrate:      64_000,
		Complexity:   10,
	}
}

// LoadConfig reads a TOML config file layered over DefaultConfig. Missing
// keys keep their default value; this mirrors how the rest of the
// audiobook server layers its own koanf config, even though loading it is
// this package's only config concern.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return cfg, wrapError(KindIO, "loading transcoder config", err)
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, wrapError(KindIO, "parsing transcoder config", err)
	}
	return cfg, nil
}
