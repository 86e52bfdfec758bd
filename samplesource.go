package transcoder

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/thesyncim/gopus"
	"go.uber.org/zap"
)

// packetQueueDepth bounds SampleSource's internal packet channel, mirroring
// the original's appsink max-buffers=128 property: a stalled reader must
// not let the decoding backend run unbounded ahead of it (spec.md §4.1,
// §5's "Shared resources").
const packetQueueDepth = 128

const (
	pcmChannels   = 1
	pcmSampleRate = 48_000
	pcmFrameSize  = 960 // 20ms at 48kHz
)

// EncodedPacket is one Opus packet as SampleSource hands it off, before
// the stream assigns it a packet number and granule position (that
// bookkeeping is the caller's job — see stream.go).
type EncodedPacket struct {
	Data []byte
	EOS  bool
}

// pcmReader abstracts the decoding backend: something that, given a file
// path and a starting position, produces 48kHz mono signed 16-bit little-
// endian PCM on an io.ReadCloser. Treating it as an interface — rather
// than calling exec.Command directly inside SampleSource — keeps with
// spec.md §1's framing of the decoder as an opaque collaborator, and lets
// tests inject a synthetic PCM source instead of requiring ffmpeg.
type pcmReader interface {
	Open(path string, startMs uint32) (io.ReadCloser, error)
}

// ffmpegPCMReader is the production pcmReader: it shells out to ffmpeg,
// the Go-without-cgo equivalent of the original's GStreamer
// filesrc!decodebin!audioconvert!audioresample!capsfilter pipeline.
type ffmpegPCMReader struct {
	binPath string
}

func (r ffmpegPCMReader) Open(path string, startMs uint32) (io.ReadCloser, error) {
	bin := r.binPath
	if bin == "" {
		bin = "ffmpeg"
	}

	args := []string{"-hide_banner", "-loglevel", "error", "-i", path}
	if startMs > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.3f", float64(startMs)/1000.0))
	}
	args = append(args,
		"-vn",
		"-ac", fmt.Sprintf("%d", pcmChannels),
		"-ar", fmt.Sprintf("%d", pcmSampleRate),
		"-f", "s16le",
		"-",
	)

	cmd := exec.Command(bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, wrapError(KindDecoderFailure, "opening ffmpeg stdout pipe", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, wrapError(KindDecoderFailure, "starting ffmpeg", err)
	}

	return &ffmpegProcess{cmd: cmd, stdout: stdout, stderr: &stderr}, nil
}

// ffmpegProcess adapts a running ffmpeg process to io.ReadCloser, killing
// the process and surfacing its stderr on Close.
type ffmpegProcess struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *bytes.Buffer
}

func (p *ffmpegProcess) Read(b []byte) (int, error) {
	return p.stdout.Read(b)
}

func (p *ffmpegProcess) Close() error {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	_ = p.stdout.Close()
	_ = p.cmd.Wait()
	return nil
}

func (p *ffmpegProcess) waitForExit() error {
	err := p.cmd.Wait()
	if err == nil {
		return nil
	}
	if strings.Contains(p.stderr.String(), "does not contain any stream") ||
		strings.Contains(p.stderr.String(), "Output file does not contain") {
		return newError(KindNoAudioStream, "input has no audio stream")
	}
	reason := strings.TrimSpace(p.stderr.String())
	if reason == "" {
		reason = err.Error()
	}
	return wrapError(KindDecoderFailure, "ffmpeg exited with an error", fmt.Errorf("%s", reason))
}

// SampleSource opens a media file and produces a lazy sequence of
// encoded Opus packets at the OpusSpec configuration: 48kHz, 20ms
// frames, narrowband, CBR sized to land packets on exactly
// OpusSpec.PacketSize bytes (§4.1).
//
// SampleSource is not safe for concurrent use from multiple goroutines
// at once (§5): exactly one goroutine may call Start/PullPacket/SeekTime
// at a time, serialized by the owning Stream.
type SampleSource struct {
	path   string
	cfg    Config
	logger *zap.Logger
	reader pcmReader

	proc io.ReadCloser

	packets  chan EncodedPacket
	pumpDone chan struct{}

	started atomic.Bool
	eos     atomic.Bool

	mu      sync.Mutex
	primed  *EncodedPacket
	latched error
}

// NewSampleSource constructs a SampleSource for path, decoding via an
// external ffmpeg process.
func NewSampleSource(path string, cfg Config, logger *zap.Logger) *SampleSource {
	return newSampleSource(path, cfg, logger, ffmpegPCMReader{binPath: cfg.FFmpegPath})
}

func newSampleSource(path string, cfg Config, logger *zap.Logger, reader pcmReader) *SampleSource {
	return &SampleSource{path: path, cfg: cfg, logger: nopLogger(logger), reader: reader}
}

// Start begins decoding and blocks until the first packet is available
// (or a terminal error/EOS is known), so that a subsequent PullPacket
// never races an encoder that hasn't produced anything yet (§4.1).
func (s *SampleSource) Start() error {
	if err := s.spawn(0); err != nil {
		return err
	}
	s.started.Store(true)

	pkt, ok, err := s.pullFromChannel()
	if err != nil {
		return err
	}
	if ok {
		s.mu.Lock()
		s.primed = &pkt
		s.mu.Unlock()
	}
	return nil
}

// PullPacket returns the next encoded packet, or ok=false at end of
// stream. It never spins: it blocks on the internal channel the pump
// goroutine feeds.
func (s *SampleSource) PullPacket() (EncodedPacket, bool, error) {
	if !s.started.Load() {
		return EncodedPacket{}, false, newError(KindInvalidState, "PullPacket called before Start completed")
	}

	s.mu.Lock()
	if s.primed != nil {
		pkt := *s.primed
		s.primed = nil
		s.mu.Unlock()
		return pkt, true, nil
	}
	s.mu.Unlock()

	return s.pullFromChannel()
}

func (s *SampleSource) pullFromChannel() (EncodedPacket, bool, error) {
	pkt, ok := <-s.packets
	if !ok {
		s.mu.Lock()
		err := s.latched
		s.mu.Unlock()
		if err != nil {
			return EncodedPacket{}, false, err
		}
		s.eos.Store(true)
		return EncodedPacket{}, false, nil
	}
	if pkt.EOS {
		s.eos.Store(true)
	}
	return pkt, true, nil
}

// SeekTime flushes internal buffers, repositions decoding to ms, and
// resumes playback, per §4.1: accurate+flush+key-unit semantics are
// approximated by killing and respawning the ffmpeg process with an
// output-side -ss (an accurate, if slower, seek) rather than trying to
// seek an already-running stream.
func (s *SampleSource) SeekTime(ms uint32) error {
	if !s.started.Load() {
		return newError(KindInvalidState, "SeekTime called before Start completed")
	}

	s.logger.Debug("seeking sample source", zap.Uint32("ms", ms))

	if s.proc != nil {
		_ = s.proc.Close()
	}
	// The pump goroutine owns s.packets and closes it when it exits (on
	// ReadFull failing now that proc is closed). Drain rather than close
	// it ourselves — draining also unblocks a pump stuck sending into a
	// full channel, avoiding a deadlock against <-s.pumpDone.
	packets := s.packets
	go func() {
		for range packets {
		}
	}()
	<-s.pumpDone

	s.mu.Lock()
	s.primed = nil
	s.latched = nil
	s.mu.Unlock()
	s.eos.Store(false)

	if err := s.spawn(ms); err != nil {
		return err
	}

	pkt, ok, err := s.pullFromChannel()
	if err != nil {
		return err
	}
	if ok {
		s.mu.Lock()
		s.primed = &pkt
		s.mu.Unlock()
	}
	return nil
}

// EOS reports whether the source has signalled end of stream.
func (s *SampleSource) EOS() bool {
	return s.eos.Load()
}

// Close releases the decoding backend's resources. Safe to call more
// than once.
func (s *SampleSource) Close() error {
	if s.proc != nil {
		err := s.proc.Close()
		s.proc = nil
		return err
	}
	return nil
}

// spawn starts a fresh ffmpeg process at startMs and a fresh Opus
// encoder, then launches the pump goroutine. A fresh encoder per spawn
// is this package's equivalent of the original's hard-resync encoder
// property: there is no encoder state to leak across a seek because
// there is no shared encoder.
func (s *SampleSource) spawn(startMs uint32) error {
	proc, err := s.reader.Open(s.path, startMs)
	if err != nil {
		return err
	}
	s.proc = proc

	enc, err := gopus.NewEncoder(pcmSampleRate, pcmChannels, gopus.ApplicationAudio)
	if err != nil {
		return wrapError(KindDecoderFailure, "constructing opus encoder", err)
	}
	if err := enc.SetBitrateMode(gopus.BitrateModeCBR); err != nil {
		return wrapError(KindDecoderFailure, "configuring CBR mode", err)
	}
	if err := enc.SetBitrate(s.cfg.Bitrate); err != nil {
		return wrapError(KindDecoderFailure, "configuring bitrate", err)
	}
	if err := enc.SetComplexity(s.cfg.Complexity); err != nil {
		return wrapError(KindDecoderFailure, "configuring complexity", err)
	}
	if err := enc.SetBandwidth(gopus.BandwidthNarrowband); err != nil {
		return wrapError(KindDecoderFailure, "configuring narrowband bandwidth", err)
	}
	enc.SetMaxBandwidth(gopus.BandwidthNarrowband)
	enc.Reset()

	s.packets = make(chan EncodedPacket, packetQueueDepth)
	s.pumpDone = make(chan struct{})

	go s.pump(proc, enc)
	return nil
}

// pump reads fixed-size PCM frames from proc, encodes each with enc, and
// delivers them on s.packets. It buffers exactly one packet of lookahead
// so the final packet it ever sends can be marked EOS (§4.2's EOS rule),
// since EOS is only known once a read comes back short or empty.
func (s *SampleSource) pump(proc io.ReadCloser, enc *gopus.Encoder) {
	defer close(s.pumpDone)
	defer close(s.packets)

	frameBytes := pcmFrameSize * pcmChannels * 2 // int16 = 2 bytes/sample
	buf := make([]byte, frameBytes)
	pcm := make([]int16, pcmFrameSize*pcmChannels)

	var pending *EncodedPacket

	flushPending := func(eos bool) {
		if pending == nil {
			return
		}
		pending.EOS = eos
		s.packets <- *pending
		pending = nil
	}

	for {
		n, err := io.ReadFull(proc, buf)
		if n > 0 {
			frame := buf[:n]
			if n < frameBytes {
				padded := make([]byte, frameBytes)
				copy(padded, frame)
				frame = padded
			}
			for i := range pcm {
				pcm[i] = int16(binary.LittleEndian.Uint16(frame[i*2 : i*2+2]))
			}

			data, encErr := enc.EncodeInt16Slice(pcm)
			if encErr != nil {
				s.mu.Lock()
				s.latched = wrapError(KindDecoderFailure, "encoding pcm frame", encErr)
				s.mu.Unlock()
				pending = nil
				return
			}

			flushPending(false)
			pending = &EncodedPacket{Data: data}
		}

		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				flushPending(true)
			} else {
				s.mu.Lock()
				s.latched = wrapError(KindIO, "reading pcm from decoding backend", err)
				s.mu.Unlock()
			}
			if closer, ok := proc.(*ffmpegProcess); ok {
				if waitErr := closer.waitForExit(); waitErr != nil && pending == nil {
					s.mu.Lock()
					if s.latched == nil {
						s.latched = waitErr
					}
					s.mu.Unlock()
				}
			}
			return
		}
	}
}
