package oggstream

// Packet is one encoded Opus packet with the metadata the packetizer
// needs to frame it, per spec.md §3's Packet data model. Granule and BOS
// are the caller's responsibility to compute (see §4.2's granule-position
// rule) — Packetizer only frames what it is given.
type Packet struct {
	Data    []byte
	Granule uint64
	BOS     bool
	EOS     bool
}

// Packetizer accepts Opus packets and groups them into Ogg pages,
// implementing §4.2's submit/flush/pageout/reset contract. A zero
// Packetizer is not usable; construct with NewPacketizer.
//
// Packetizer is not safe for concurrent use — it is owned by exactly one
// Stream, which feeds its pages to that stream's PageCursor (see
// spec.md §5).
type Packetizer struct {
	serial         uint32
	pageSeq        uint32
	packetsPerPage int

	pendingData    []byte
	pendingLens    []int
	pendingGranule uint64
	pendingBOS     bool
	pendingEOS     bool
}

// NewPacketizer constructs a Packetizer for the given logical bitstream
// serial. packetsPerPage is the page-size heuristic Pageout applies to
// audio packets (26 for the default OpusSpec).
func NewPacketizer(serial uint32, packetsPerPage int) *Packetizer {
	return &Packetizer{serial: serial, packetsPerPage: packetsPerPage}
}

// Submit feeds one packet into the page currently being assembled.
func (p *Packetizer) Submit(pkt Packet) {
	p.pendingData = append(p.pendingData, pkt.Data...)
	p.pendingLens = append(p.pendingLens, len(pkt.Data))
	p.pendingGranule = pkt.Granule
	if len(p.pendingLens) == 1 {
		p.pendingBOS = pkt.BOS
	}
	if pkt.EOS {
		p.pendingEOS = true
	}
}

// Flush forces whatever has been submitted since the last emitted page
// out as a page now, regardless of how many packets it holds. Used for
// the two header packets, each of which must land on its own page
// (§4.2's header framing rule) even though neither fills a full page.
func (p *Packetizer) Flush() (Page, bool) {
	if len(p.pendingLens) == 0 {
		return Page{}, false
	}
	return p.emit(), true
}

// Pageout returns a complete page if the normal audio page-size heuristic
// says one is ready: packetsPerPage packets accumulated, or the most
// recently submitted packet carried EOS (the terminal page is allowed to
// be short). Otherwise it returns false without emitting anything,
// leaving the pending packets for a later Submit to join.
func (p *Packetizer) Pageout() (Page, bool) {
	if len(p.pendingLens) == 0 {
		return Page{}, false
	}
	if p.pendingEOS || len(p.pendingLens) >= p.packetsPerPage {
		return p.emit(), true
	}
	return Page{}, false
}

// Reset discards any pending packets and reinitializes the framer to
// resume at resumePageSeq under the given serial. Used after a seek: the
// stream's serial is fixed for its lifetime (§6), but the page sequence
// counter must be realigned to the page OffsetMap computed, so that bytes
// produced after the seek are identical to the corresponding bytes of a
// straight read (spec.md §8 seek-read equivalence) rather than restarting
// page numbering from zero.
func (p *Packetizer) Reset(serial uint32, resumePageSeq uint32) {
	p.serial = serial
	p.pageSeq = resumePageSeq
	p.pendingData = nil
	p.pendingLens = nil
	p.pendingGranule = 0
	p.pendingBOS = false
	p.pendingEOS = false
}

func (p *Packetizer) emit() Page {
	var flags byte
	if p.pendingBOS {
		flags |= FlagBOS
	}
	if p.pendingEOS {
		flags |= FlagEOS
	}

	page := encodePage(p.pendingData, p.pendingLens, p.pendingGranule, p.serial, p.pageSeq, flags)

	p.pageSeq++
	p.pendingData = nil
	p.pendingLens = nil
	p.pendingBOS = false
	p.pendingEOS = false

	return page
}
