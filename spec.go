package transcoder

// OpusSpec pins the byte-level contract between the encoder configuration
// and the Ogg page layout it produces. These numbers are contractual: the
// encoder (see SampleSource) is configured so that every audio packet is
// exactly PacketSize bytes and every full page holds exactly
// PacketsPerPage of them. Changing any of these without changing the
// matching encoder configuration is a programming error, not a runtime
// condition — OffsetMap's arithmetic depends on it holding exactly.
type OpusSpec struct {
	// PageHeaderSize is the fixed Ogg page header size this stream's
	// pages are produced at. RFC 3533 page headers vary with the
	// segment table length; 53 bytes is what a 26-packets-per-page,
	// 160-byte-packet layout yields after the leading header pages.
	PageHeaderSize uint32

	// PageBodySize is the payload byte count of a full (non-final) page.
	PageBodySize uint32

	// PacketSize is the exact byte length of one encoded audio packet.
	PacketSize uint32

	// PacketLengthMs is the audio duration, in milliseconds, of one
	// packet.
	PacketLengthMs uint32

	// Rate is the Opus sample rate in Hz. Always 48000; Opus has no
	// other internal rate.
	Rate uint32
}

// DefaultOpusSpec is the spec every Stream in this package is built
// against. SampleSource's encoder configuration (CBR, narrowband,
// 20ms frames, 64kbps mono) is chosen specifically to make
// PacketSize land on exactly 160 bytes; see samplesource.go.
var DefaultOpusSpec = OpusSpec{
	PageHeaderSize: 53,
	PageBodySize:   4160,
	PacketSize:     160,
	PacketLengthMs: 20,
	Rate:           48_000,
}

// PacketsPerPage is the number of audio packets a full page holds.
func (s OpusSpec) PacketsPerPage() uint32 {
	return s.PageBodySize / s.PacketSize
}

// PageDurationMs is the wall-clock audio duration a full page covers.
func (s OpusSpec) PageDurationMs() uint32 {
	return s.PacketsPerPage() * s.PacketLengthMs
}

// PageBytes is the total on-wire size (header + body) of a full page.
func (s OpusSpec) PageBytes() uint32 {
	return s.PageHeaderSize + s.PageBodySize
}

// GranuleStep is the granule-position increment (PCM samples at 48kHz)
// contributed by a single audio packet, per §4.2's granule-position rule:
// (k+1) * (rate / (1000 / packet_length_ms)).
func (s OpusSpec) GranuleStep() uint64 {
	return uint64(s.Rate) / uint64(1000/s.PacketLengthMs)
}

// Offset is the result of mapping an output byte position to a source
// seek target, per §4.4.
type Offset struct {
	// Millis is the millisecond position SampleSource.SeekTime should be
	// called with.
	Millis uint32

	// Packet is the audio packet number (0-indexed, audio packets only)
	// the packetizer's granule-position bookkeeping should resume from.
	Packet uint32

	// ExtraBytes is the number of bytes to discard from the front of the
	// page the stream re-synthesizes at Millis before any of it reaches
	// the caller.
	ExtraBytes uint32
}

// OffsetMap computes, for a target byte position in the stream's output,
// the millisecond position to reseek the decoding backend to and the
// residual byte count within the resulting page that must be discarded.
// It is a pure function of (position, headerLen, spec) with no stream
// state: the same inputs always produce the same Offset (§3 invariant I4).
//
// Seeking into [0, headerLen) is not supported — the header is the
// stream's fixed leading bytes and has no page-granularity seek target —
// and returns a *Error of KindSeekIntoHeader.
func OffsetMap(position uint64, headerLen uint64, spec OpusSpec) (Offset, error) {
	if position < headerLen {
		return Offset{}, newError(KindSeekIntoHeader, "position is inside the fixed header prefix")
	}

	rel := position - headerLen
	pageBytes := uint64(spec.PageBytes())

	pages := rel / pageBytes
	extra := rel % pageBytes

	return Offset{
		Millis:     uint32(pages) * spec.PageDurationMs(),
		Packet:     uint32(pages) * spec.PacketsPerPage(),
		ExtraBytes: uint32(extra),
	}, nil
}
