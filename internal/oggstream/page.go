package oggstream

import "encoding/binary"

// Page header flags, per RFC 3533 section 6.
const (
	FlagContinuation byte = 0x01
	FlagBOS          byte = 0x02
	FlagEOS          byte = 0x04
)

const (
	fixedHeaderSize = 27
	oggMagic        = "OggS"
)

// Page is a single Ogg page split into its header and body, matching
// §3's Page data model exactly: PageCursor writes these two slices
// independently and tracks progress through each separately, so the
// split must be a real field boundary, not just an encoding detail.
type Page struct {
	Header []byte
	Body   []byte
}

// buildSegmentTable lays out the Ogg lacing values for a page made of the
// given packet lengths, in submission order. Packets longer than 255
// bytes span multiple 255-valued segments followed by a remainder
// segment; a packet whose length is an exact multiple of 255 gets a
// trailing zero-length segment so the packet boundary is unambiguous.
func buildSegmentTable(packetLens []int) []byte {
	var segs []byte
	for _, n := range packetLens {
		for n >= 255 {
			segs = append(segs, 255)
			n -= 255
		}
		segs = append(segs, byte(n))
	}
	if len(segs) == 0 {
		segs = []byte{0}
	}
	return segs
}

// encodePage serializes header+body with a correct CRC. granulePos is the
// page's granule position, serial the logical bitstream serial, seq the
// page sequence number, flags the BOS/EOS/continuation bits, and
// packetLens the lengths of the packets concatenated in body (in order).
func encodePage(body []byte, packetLens []int, granulePos uint64, serial, seq uint32, flags byte) Page {
	segments := buildSegmentTable(packetLens)

	header := make([]byte, fixedHeaderSize+len(segments))
	copy(header[0:4], oggMagic)
	header[4] = 0 // stream structure version
	header[5] = flags
	binary.LittleEndian.PutUint64(header[6:14], granulePos)
	binary.LittleEndian.PutUint32(header[14:18], serial)
	binary.LittleEndian.PutUint32(header[18:22], seq)
	// header[22:26] (CRC) filled in below, after the whole page is known.
	header[26] = byte(len(segments))
	copy(header[27:], segments)

	whole := make([]byte, len(header)+len(body))
	copy(whole, header)
	copy(whole[len(header):], body)
	crc := crc32Ogg(whole)
	binary.LittleEndian.PutUint32(header[22:26], crc)
	binary.LittleEndian.PutUint32(whole[22:26], crc)

	bodyCopy := make([]byte, len(body))
	copy(bodyCopy, body)

	return Page{Header: header, Body: bodyCopy}
}
