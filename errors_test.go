package transcoder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByKind(t *testing.T) {
	err := wrapError(KindDecoderFailure, "opus encoder rejected frame", errors.New("bad frame"))

	assert.True(t, errors.Is(err, &Error{Kind: KindDecoderFailure}))
	assert.False(t, errors.Is(err, ErrSeekIntoHeader))
}

func TestErrorUnwrapExposesCause(t *testing.T) {
	cause := errors.New("pipe closed")
	err := wrapError(KindIO, "reading pcm", cause)

	assert.Same(t, cause, errors.Unwrap(err))
}

func TestErrorStringIncludesKindAndMessage(t *testing.T) {
	err := newError(KindNoAudioStream, "input has no audio stream")
	msg := err.Error()

	assert.Contains(t, msg, "no_audio_stream")
	assert.Contains(t, msg, "input has no audio stream")
}
