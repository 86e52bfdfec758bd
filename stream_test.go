package transcoder

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStream(t *testing.T, frames int) (*Stream, *fakePCMReader) {
	t.Helper()
	reader := &fakePCMReader{frames: frames}
	s := NewStream("book.mp3", DefaultConfig(), zap.NewNop())
	s.reader = reader
	return s, reader
}

func TestStreamReadStartsWithOggMagic(t *testing.T) {
	s, _ := newTestStream(t, 40)
	defer s.Close()

	buf := make([]byte, 4)
	n, err := s.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	assert.Equal(t, []byte("OggS"), buf)
}

func TestStreamReadIsStableAcrossManySmallReads(t *testing.T) {
	s, _ := newTestStream(t, 60)
	defer s.Close()

	var all []byte
	buf := make([]byte, 7) // deliberately awkward size vs. 53/4160/160 contract sizes
	for {
		n, err := s.Read(buf)
		all = append(all, buf[:n]...)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if n == 0 {
			break
		}
	}

	assert.True(t, len(all) > 0)
	assert.Equal(t, []byte("OggS"), all[0:4])

	ref, _ := newTestStream(t, 60)
	defer ref.Close()
	want, err := io.ReadAll(ref)
	require.NoError(t, err)
	assert.Equal(t, want, all, "7-byte reads must yield the same bytes as one straight read")
}

func TestStreamSeekIntoHeaderIsRejected(t *testing.T) {
	s, _ := newTestStream(t, 40)
	defer s.Close()

	_, err := s.Seek(0, io.SeekStart)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSeekIntoHeader)
}

func TestStreamSeekEndIsUnsupported(t *testing.T) {
	s, _ := newTestStream(t, 40)
	defer s.Close()

	_, err := s.Seek(0, io.SeekEnd)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSeekNotSupported)
}

func TestStreamSeekResumesPageFramingAtCorrectSequence(t *testing.T) {
	// §8's seek-read equivalence invariant is about page framing being a
	// deterministic function of byte offset (page sequence number, CRC,
	// granule position) given a decoding backend that reliably reproduces
	// the same packet for the same logical position. The packetizer's
	// sequence realignment is pinned at the oggstream layer in
	// TestPacketizerResetRealignsPageSequence. Here, with a live (if
	// fake-backed) pipeline, we only assert what seeking guarantees
	// independent of codec internals: a mid-page seek still yields bytes,
	// and a seek to a page boundary resumes with that page's OggS header
	// carrying the expected page sequence number.
	straight, _ := newTestStream(t, 120)
	defer straight.Close()
	all, err := io.ReadAll(straight)
	require.NoError(t, err)
	require.True(t, len(all) > 10_000, "test needs enough bytes to span multiple pages")

	const target = 9000

	seeked, _ := newTestStream(t, 120)
	defer seeked.Close()
	_, err = seeked.Seek(target, io.SeekStart)
	require.NoError(t, err)

	rest := make([]byte, 512)
	n, err := seeked.Read(rest)
	require.NoError(t, err)
	require.True(t, n > 0)

	// The start of the third audio page follows the two header pages, so
	// its page sequence number is 2 + 2.
	header, err := seeked.header.Get(seeked.channels, seeked.sampleRate, seeked.serial)
	require.NoError(t, err)
	boundary := int64(len(header)) + 2*int64(seeked.spec.PageBytes())
	_, err = seeked.Seek(boundary, io.SeekStart)
	require.NoError(t, err)

	n, err = seeked.Read(rest)
	require.NoError(t, err)
	require.True(t, n >= 22)
	assert.Equal(t, []byte("OggS"), rest[0:4])
	assert.Equal(t, uint32(4), binary.LittleEndian.Uint32(rest[18:22]))
}

func TestStreamReadAfterExhaustionReturnsEOF(t *testing.T) {
	s, _ := newTestStream(t, 3)
	defer s.Close()

	_, err := io.Copy(io.Discard, s)
	require.NoError(t, err)

	n, err := s.Read(make([]byte, 16))
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
}

func TestStreamRepeatedConstructionIsDeterministic(t *testing.T) {
	a, _ := newTestStream(t, 50)
	defer a.Close()
	b, _ := newTestStream(t, 50)
	defer b.Close()

	var bufA, bufB bytes.Buffer
	_, err := io.Copy(&bufA, a)
	require.NoError(t, err)
	_, err = io.Copy(&bufB, b)
	require.NoError(t, err)

	assert.Equal(t, bufA.Bytes(), bufB.Bytes())
}
