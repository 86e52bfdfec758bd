package transcoder

import (
	"sync"

	"github.com/hatzel/vorleser-go/internal/oggstream"
)

// HeaderCache builds the Ogg-framed Opus ID header and comment header
// once and returns a borrowed view of the concatenated bytes on every
// later call. These bytes are the stream's fixed leading prefix (§4.3)
// and are immutable for the stream's lifetime.
//
// This replaces the original's `Option<Vec<u8>>` with manual
// is_some()/unwrap() lazy init (§9 design notes: "Mutable Option<Vec<u8>>
// header cache with lazy init") with a sync.Once-guarded write-once cell,
// whose only mutator is Get.
type HeaderCache struct {
	once sync.Once
	data []byte
	err  error
}

// Get returns the header bytes, building them on first call. Every call
// after the first returns the same backing slice without recomputing —
// callers must treat the returned slice as read-only.
func (h *HeaderCache) Get(channels uint8, sampleRate uint32, serial uint32) ([]byte, error) {
	h.once.Do(func() {
		h.data, h.err = buildHeaderData(channels, sampleRate, serial)
	})
	return h.data, h.err
}

// Len reports the cached header length, building it first if necessary.
func (h *HeaderCache) Len(channels uint8, sampleRate uint32, serial uint32) (uint64, error) {
	data, err := h.Get(channels, sampleRate, serial)
	if err != nil {
		return 0, err
	}
	return uint64(len(data)), nil
}

// buildHeaderData frames the Opus ID header and comment header into
// their own Ogg pages per §4.2's header framing rule: the ID header is
// submitted with BOS set and flushed (must yield exactly one page, or
// NoStreamHeader is returned); the comment header is then submitted and
// flushed until drained.
func buildHeaderData(channels uint8, sampleRate uint32, serial uint32) ([]byte, error) {
	pz := oggstream.NewPacketizer(serial, int(DefaultOpusSpec.PacketsPerPage()))

	head := oggstream.OpusHead{
		Channels:   channels,
		PreSkip:    oggstream.PreSkipDefault,
		SampleRate: sampleRate,
	}
	pz.Submit(oggstream.Packet{Data: head.Encode(), Granule: 0, BOS: true})
	idPage, ok := pz.Flush()
	if !ok {
		return nil, newError(KindNoStreamHeader, "encoder produced no ID header page")
	}

	tags := oggstream.DefaultOpusTags()
	pz.Submit(oggstream.Packet{Data: tags.Encode(), Granule: 0})

	var out []byte
	out = append(out, idPage.Header...)
	out = append(out, idPage.Body...)
	for {
		page, ok := pz.Flush()
		if !ok {
			break
		}
		out = append(out, page.Header...)
		out = append(out, page.Body...)
	}

	if len(out) < 2 {
		return nil, newError(KindNoStreamHeader, "header page data is implausibly short")
	}
	return out, nil
}
