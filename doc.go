// Package transcoder implements the on-the-fly Opus-in-Ogg transcoding
// stream at the heart of vorleser-go: given an arbitrary audio file on
// disk, it produces a seekable byte stream with regular-file semantics
// (Read at any offset, Seek to any byte position, idempotent re-reads)
// whose bytes are a valid Ogg encapsulation of an Opus audio stream
// (RFC 3533 + RFC 7845).
//
// # Pipeline
//
// Three collaborators compose into the public Stream type:
//
//   - SampleSource decodes an arbitrary media file (via an external
//     ffmpeg process) and encodes the resulting PCM into Opus packets
//     with github.com/thesyncim/gopus, at a fixed 48kHz/20ms/narrowband
//     configuration.
//   - oggstream.Packetizer frames those packets into Ogg pages with
//     correct granule positions and BOS/EOS flags.
//   - PageCursor tracks in-page byte progress so a page can be emitted
//     piecemeal across many small Read calls, and so a Seek can resume
//     mid-page by discarding a known prefix.
//
// Stream ties these together and is the only exported type most callers
// need; the rest of this package exists to make Stream's Read/Seek
// contract correct and byte-for-byte deterministic.
//
// # What this package does not do
//
// It does not scan a library, serve HTTP, manage accounts, or store
// anything in a database — those are the audiobook server's concerns,
// not the transcoder's. This package treats its decoding backend (an
// external ffmpeg process) as an opaque collaborator, and drives its Ogg
// framer only through the Packetizer's Submit/Flush/Pageout/Reset
// contract; the framer itself (page layout, lacing, CRC) is implemented
// in this module's internal/oggstream package.
package transcoder
