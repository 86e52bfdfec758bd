package transcoder

import (
	"fmt"
	"io"
	"math/rand/v2"
	"sync"

	"github.com/hatzel/vorleser-go/internal/oggstream"
	"go.uber.org/zap"
)

type streamState uint8

const (
	stateInitial streamState = iota
	stateStreaming
	stateExhausted
)

func (s streamState) String() string {
	switch s {
	case stateInitial:
		return "initial"
	case stateStreaming:
		return "streaming"
	case stateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Stream is the transcoded Opus-in-Ogg byte stream for a single media
// file: the component the audiobook server's HTTP range handler reads
// and seeks against (§4's component diagram). It satisfies io.Reader and
// io.Seeker; its length is not known in advance, so Seek only supports
// io.SeekStart — any other whence fails with ErrSeekNotSupported.
//
// A Stream is not safe for concurrent use — callers must serialize
// Read/Seek/Close themselves, same restriction as the underlying
// SampleSource (§5).
type Stream struct {
	path   string
	cfg    Config
	logger *zap.Logger
	spec   OpusSpec

	serial     uint32
	channels   uint8
	sampleRate uint32

	header HeaderCache
	cursor *PageCursor

	mu            sync.Mutex
	state         streamState
	pos           uint64
	source        *SampleSource
	packetizer    *oggstream.Packetizer
	nextPacketNum uint32

	// reader overrides the decoding backend; nil means the real ffmpeg
	// backend. Only set directly by tests.
	reader pcmReader
}

// NewStream constructs a Stream for path. Decoding does not begin until
// the first Read or Seek call — construction itself never touches the
// decoding backend (§4.1's lazy-start contract).
func NewStream(path string, cfg Config, logger *zap.Logger) *Stream {
	return &Stream{
		path:       path,
		cfg:        cfg,
		logger:     nopLogger(logger),
		spec:       DefaultOpusSpec,
		serial:     pickSerial(cfg),
		channels:   pcmChannels,
		sampleRate: pcmSampleRate,
		cursor:     NewPageCursor(),
		state:      stateInitial,
	}
}

// pickSerial resolves the Ogg bitstream serial for a new stream. Per
// SPEC_FULL.md's Open Questions resolution: fixed by default (matching
// the original implementation's hard-coded serial), random only when a
// caller opts in via Config.RandomSerial.
func pickSerial(cfg Config) uint32 {
	if !cfg.RandomSerial {
		return DefaultSerial
	}
	return rand.Uint32()
}

// Read implements io.Reader. It first drains the fixed header prefix
// (ID header + comment header pages, built once by HeaderCache), then
// switches to pulling encoded audio pages through the Packetizer and
// PageCursor. A short read never means EOF by itself — only a read that
// writes zero bytes does, per io.Reader's contract.
func (s *Stream) Read(buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(buf) == 0 {
		return 0, nil
	}
	if s.state == stateExhausted {
		return 0, io.EOF
	}

	header, err := s.header.Get(s.channels, s.sampleRate, s.serial)
	if err != nil {
		return 0, err
	}
	headerLen := uint64(len(header))

	wrote := 0
	if s.pos < headerLen {
		n := copy(buf, header[s.pos:])
		wrote = n
		s.pos += uint64(n)
		if wrote == len(buf) {
			return wrote, nil
		}
	}

	if s.state == stateInitial {
		if err := s.ensureStarted(); err != nil {
			return wrote, err
		}
		s.state = stateStreaming
	}

	n, err := s.cursor.EmitInto(buf[wrote:], s.nextPage)
	wrote += n
	s.pos += uint64(n)
	if err != nil {
		return wrote, wrapError(KindIO, fmt.Sprintf("encoder error: %s", err), err)
	}
	if wrote == 0 {
		s.state = stateExhausted
		return 0, io.EOF
	}
	return wrote, nil
}

// Seek implements io.Seeker. Seeking into the fixed header prefix is
// refused with ErrSeekIntoHeader: the header is only ever meant to be
// consumed sequentially from position 0, per spec.md §7's error table.
// io.SeekEnd is refused with ErrSeekNotSupported since total stream
// length is never known ahead of decoding it in full.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	default:
		return int64(s.pos), newError(KindSeekNotSupported, "only io.SeekStart is supported")
	}
	if target < 0 {
		return int64(s.pos), newError(KindInvalidState, "seek target would be negative")
	}

	header, err := s.header.Get(s.channels, s.sampleRate, s.serial)
	if err != nil {
		return int64(s.pos), err
	}
	headerLen := uint64(len(header))

	if uint64(target) < headerLen {
		return int64(s.pos), newError(KindSeekIntoHeader, "cannot seek into the fixed header prefix")
	}

	off, err := OffsetMap(uint64(target), headerLen, s.spec)
	if err != nil {
		return int64(s.pos), err
	}

	if s.source == nil {
		if err := s.ensureStarted(); err != nil {
			return int64(s.pos), err
		}
	}
	if err := s.source.SeekTime(off.Millis); err != nil {
		return int64(s.pos), err
	}

	pages := off.Packet / s.spec.PacketsPerPage()
	s.packetizer.Reset(s.serial, 2+pages)
	s.nextPacketNum = off.Packet

	s.cursor.Reset()
	s.cursor.SetDiscard(int(off.ExtraBytes))

	s.pos = uint64(target)
	s.state = stateStreaming
	return int64(s.pos), nil
}

// Close releases the decoding backend. Safe to call even if Read/Seek
// were never called.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source != nil {
		return s.source.Close()
	}
	return nil
}

// ensureStarted lazily spins up the SampleSource and a fresh Packetizer
// primed to page sequence 2 — the two header pages HeaderCache produced
// always occupy sequence 0 and 1, so the first audio page continues from
// 2 (§4.3's page numbering rule).
func (s *Stream) ensureStarted() error {
	if s.source == nil {
		reader := s.reader
		if reader == nil {
			reader = ffmpegPCMReader{binPath: s.cfg.FFmpegPath}
		}
		s.source = newSampleSource(s.path, s.cfg, s.logger, reader)
	}
	if err := s.source.Start(); err != nil {
		return err
	}
	s.packetizer = oggstream.NewPacketizer(s.serial, int(s.spec.PacketsPerPage()))
	s.packetizer.Reset(s.serial, 2)
	s.nextPacketNum = 0
	return nil
}

// nextPage is the PageCursor's pageSource: it pulls encoded packets from
// the SampleSource, stamps each with a granule position derived from its
// packet index, and submits them to the Packetizer until a full (or
// EOS-terminated short) page is ready.
func (s *Stream) nextPage() (oggstream.Page, bool, error) {
	for {
		if page, ok := s.packetizer.Pageout(); ok {
			return page, true, nil
		}

		pkt, ok, err := s.source.PullPacket()
		if err != nil {
			return oggstream.Page{}, false, err
		}
		if !ok {
			page, ok := s.packetizer.Flush()
			return page, ok, nil
		}

		granule := (uint64(s.nextPacketNum) + 1) * s.spec.GranuleStep()
		s.packetizer.Submit(oggstream.Packet{
			Data:    pkt.Data,
			Granule: granule,
			EOS:     pkt.EOS,
		})
		s.nextPacketNum++
	}
}
