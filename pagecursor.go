package transcoder

import "github.com/hatzel/vorleser-go/internal/oggstream"

// pageSource supplies the next Ogg page on demand, or a zero Page with
// ok=false at true end of stream. It is how PageCursor stays decoupled from
// SampleSource and the Packetizer: the composition that pulls packets,
// assigns granule positions, and drives the packetizer's page-size
// heuristic lives in Stream, not here (§4 component diagram).
type pageSource func() (oggstream.Page, bool, error)

// PageCursor tracks the current page being emitted and the byte offsets
// already written into it, per §4.5. It is the only place partial-page
// emission and seek-time byte discarding are handled, so that Read can
// be called with arbitrarily small buffers without losing bytes or
// double-emitting them.
type PageCursor struct {
	next oggstream.Page
	have bool

	wroteHeader int
	wroteBody   int

	// toDiscard is bytes to drop from the front of the next page after a
	// seek landed mid-page. It is NOT cleared by reset — only Seek sets
	// it, per §4.5's reset() contract.
	toDiscard int
}

// NewPageCursor constructs an empty cursor. Pages are pulled lazily from
// the pageSource passed to EmitInto.
func NewPageCursor() *PageCursor {
	return &PageCursor{}
}

// Reset drops the cached page and zeroes the in-page progress counters.
// toDiscard is untouched — it is owned by Seek.
func (c *PageCursor) Reset() {
	c.have = false
	c.next = oggstream.Page{}
	c.wroteHeader = 0
	c.wroteBody = 0
}

// SetDiscard arms the cursor to silently drop the given number of bytes
// from the very next page it emits, before any of that page reaches a
// caller buffer. Used by Stream.Seek to resume mid-page.
func (c *PageCursor) SetDiscard(n int) {
	c.toDiscard = n
}

// EmitInto writes as many bytes as fit in buf, pulling new pages from
// source as needed, and returns the count written. A return of 0 means
// source has been exhausted (true EOF) — EmitInto never blocks forever
// on a buffer that has room but no more data exists.
func (c *PageCursor) EmitInto(buf []byte, source pageSource) (int, error) {
	wrote := 0
	for wrote < len(buf) {
		if !c.have {
			page, ok, err := source()
			if err != nil {
				return wrote, err
			}
			if !ok {
				return wrote, nil
			}
			c.next = page
			c.have = true
			c.wroteHeader = 0
			c.wroteBody = 0
		}

		n := c.writeSegment(c.next.Header, &c.wroteHeader, buf[wrote:])
		wrote += n
		if wrote >= len(buf) {
			break
		}

		n = c.writeSegment(c.next.Body, &c.wroteBody, buf[wrote:])
		wrote += n

		if c.wroteHeader >= len(c.next.Header) && c.wroteBody >= len(c.next.Body) {
			c.Reset()
		}
	}
	return wrote, nil
}

// writeSegment writes from src[*wrote:] into dst, first consuming
// toDiscard bytes silently (never copying them into dst), and advances
// *wrote by however much of src it accounted for (written or discarded).
func (c *PageCursor) writeSegment(src []byte, wrote *int, dst []byte) int {
	remaining := src[*wrote:]
	if len(remaining) == 0 {
		return 0
	}

	if c.toDiscard > 0 {
		if c.toDiscard >= len(remaining) {
			c.toDiscard -= len(remaining)
			*wrote += len(remaining)
			return 0
		}
		remaining = remaining[c.toDiscard:]
		*wrote += c.toDiscard
		c.toDiscard = 0
	}

	n := copy(dst, remaining)
	*wrote += n
	return n
}
