package transcoder

import (
	"errors"
	"fmt"
)

// Kind identifies the taxonomy of a transcoder Error, independent of the
// human-readable message. Callers that need to branch on failure mode
// should compare Kind via errors.As, not string-match Error().
type Kind uint8

const (
	// KindInvalidState means a method was called before the stream was
	// ready, or on a stream that has already failed terminally.
	KindInvalidState Kind = iota

	// KindNoAudioStream means the input file has no audio track the
	// decoding backend could find.
	KindNoAudioStream

	// KindNoStreamHeader means the encoder failed to produce the
	// expected two-packet Opus header (ID header + comment header).
	KindNoStreamHeader

	// KindDecoderFailure means the underlying decode/encode pipeline
	// reported an error; Err holds the wrapped cause.
	KindDecoderFailure

	// KindSeekIntoHeader means the caller tried to seek to a byte
	// offset inside [0, header_len), which has no page boundary to
	// resume from.
	KindSeekIntoHeader

	// KindSeekNotSupported means the caller asked for a seek origin
	// other than io.SeekStart.
	KindSeekNotSupported

	// KindIO means the underlying pipeline's output could not be
	// delivered; Err holds the wrapped I/O cause.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindInvalidState:
		return "invalid_state"
	case KindNoAudioStream:
		return "no_audio_stream"
	case KindNoStreamHeader:
		return "no_stream_header"
	case KindDecoderFailure:
		return "decoder_failure"
	case KindSeekIntoHeader:
		return "seek_into_header"
	case KindSeekNotSupported:
		return "seek_not_supported"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error is the error type returned from every exported transcoder
// operation. It carries a Kind so callers can branch on failure mode via
// errors.As, and wraps an optional underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcoder: %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("transcoder: %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is allows errors.Is(err, ErrSeekIntoHeader) style sentinel comparisons
// by Kind, since two *Error values are conceptually equal if their Kind
// matches and neither prescribes a distinguishing message.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func wrapError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// Sentinel errors for errors.Is comparisons against a bare Kind, without
// needing to construct an *Error value.
var (
	ErrInvalidState     = &Error{Kind: KindInvalidState}
	ErrNoAudioStream    = &Error{Kind: KindNoAudioStream}
	ErrNoStreamHeader   = &Error{Kind: KindNoStreamHeader}
	ErrSeekIntoHeader   = &Error{Kind: KindSeekIntoHeader}
	ErrSeekNotSupported = &Error{Kind: KindSeekNotSupported}
)
