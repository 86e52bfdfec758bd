package oggstream

import "encoding/binary"

// Opus header constants per RFC 7845 section 5.
const (
	opusHeadMagic = "OpusHead"
	opusTagsMagic = "OpusTags"
	opusHeadVer   = 1

	// PreSkipDefault is the standard Opus encoder lookahead at 48kHz.
	PreSkipDefault = 312
)

// OpusHead is the mandatory identification header: the sole packet of
// the stream's first (BOS) page.
type OpusHead struct {
	Channels   uint8
	PreSkip    uint16
	SampleRate uint32 // informational; Opus always decodes at 48kHz
	OutputGain int16
}

// Encode serializes the mapping-family-0 (mono/stereo, implicit order)
// OpusHead layout: 19 bytes total.
func (h OpusHead) Encode() []byte {
	data := make([]byte, 19)
	copy(data[0:8], opusHeadMagic)
	data[8] = opusHeadVer
	data[9] = h.Channels
	binary.LittleEndian.PutUint16(data[10:12], h.PreSkip)
	binary.LittleEndian.PutUint32(data[12:16], h.SampleRate)
	binary.LittleEndian.PutUint16(data[16:18], uint16(h.OutputGain))
	data[18] = 0 // mapping family 0
	return data
}

// OpusTags is the mandatory comment header: the sole packet of the
// stream's second page.
type OpusTags struct {
	Vendor   string
	Comments map[string]string
}

// Encode serializes the OpusTags per RFC 7845 section 5.2.
func (t OpusTags) Encode() []byte {
	size := 8 + 4 + len(t.Vendor) + 4
	for k, v := range t.Comments {
		size += 4 + len(k) + 1 + len(v)
	}

	data := make([]byte, size)
	offset := 0
	copy(data[offset:offset+8], opusTagsMagic)
	offset += 8

	binary.LittleEndian.PutUint32(data[offset:offset+4], uint32(len(t.Vendor)))
	offset += 4
	copy(data[offset:offset+len(t.Vendor)], t.Vendor)
	offset += len(t.Vendor)

	binary.LittleEndian.PutUint32(data[offset:offset+4], uint32(len(t.Comments)))
	offset += 4

	for k, v := range t.Comments {
		comment := k + "=" + v
		binary.LittleEndian.PutUint32(data[offset:offset+4], uint32(len(comment)))
		offset += 4
		copy(data[offset:offset+len(comment)], comment)
		offset += len(comment)
	}

	return data
}

// DefaultOpusTags returns the comment header this package stamps every
// stream with: vendor name, no per-file comments (cover art, chapter
// titles, and the rest of the audiobook server's metadata are out of
// scope for this package — see spec.md §1).
func DefaultOpusTags() OpusTags {
	return OpusTags{Vendor: "vorleser-go", Comments: map[string]string{}}
}
