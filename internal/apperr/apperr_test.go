package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatsWithAndWithoutCause(t *testing.T) {
	plain := New(KindFatal, "boom")
	assert.Equal(t, "fatal: boom", plain.Error())

	wrapped := Wrap(KindPluginLoad, "loading plugin", errors.New("file not found"))
	assert.Equal(t, "plugin-load: loading plugin: file not found", wrapped.Error())
}

func TestNewfFormatsMessage(t *testing.T) {
	err := Newf(KindCommandUnknown, "unknown command %q", "demo.ping")
	assert.Equal(t, `unknown command "demo.ping"`, err.Message)
}

func TestIsUnwrapsNestedErrors(t *testing.T) {
	inner := New(KindIPCMalformed, "bad envelope")
	outer := Wrap(KindCommandDispatch, "dispatch failed", inner)

	assert.True(t, Is(outer, KindCommandDispatch))
	assert.True(t, Is(outer, KindIPCMalformed))
	assert.False(t, Is(outer, KindFatal))
	assert.False(t, Is(nil, KindFatal))
}

func TestMessageUnwrapsOneLevel(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "bad envelope", Message(New(KindIPCMalformed, "bad envelope")))
	assert.Equal(t, "bad envelope", Message(fmt.Errorf("context: %w", New(KindIPCMalformed, "bad envelope"))))
	assert.Equal(t, "plain error", Message(errors.New("plain error")))
}

func TestUnwrapExposesCauseForErrorsAs(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := Wrap(KindFatal, "persisting crash report", cause)
	assert.Same(t, cause, errors.Unwrap(wrapped))
}
