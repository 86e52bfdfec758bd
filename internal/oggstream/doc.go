// Package oggstream packetizes Opus packets into Ogg pages.
//
// It is modeled on github.com/thesyncim/gopus/container/ogg's page,
// header, and CRC encoding (same segment-table layout, same CRC-32
// polynomial, same OpusHead/OpusTags wire format per RFC 7845) but is not
// that package: gopus's Writer emits one packet per page, which cannot
// satisfy a fixed packets-per-page contract. Packetizer here batches
// packets into pages under caller control (Submit/Flush/Pageout), which
// is what a seekable byte-offset-to-page mapping needs.
package oggstream
