package encoding_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/docfmt/pkg/formatter/encoding"
)

func TestDetectAndDecodeUTF8Passthrough(t *testing.T) {
	h := encoding.NewCharsetHandler("utf-8")
	in := []byte("plain ascii and some utf-8: héllo ☺")

	out, name, _, err := h.DetectAndDecode(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, "utf-8", name)
}

func TestDetectAndDecodeLatin1(t *testing.T) {
	h := encoding.NewCharsetHandler("windows-1252")
	// "café" in latin-1: é is 0xE9.
	in := []byte{'c', 'a', 'f', 0xE9}

	out, name, _, err := h.DetectAndDecode(in)
	require.NoError(t, err)
	assert.Equal(t, "café", string(out))
	assert.NotEqual(t, "utf-8", name)
}

func TestIsBinary(t *testing.T) {
	h := encoding.NewCharsetHandler("")

	assert.False(t, h.IsBinary(nil))
	assert.False(t, h.IsBinary([]byte("def f():\n    pass\n")))
	assert.False(t, h.IsBinary([]byte("# Heading\n\nsome markdown\n")))
	assert.True(t, h.IsBinary(append([]byte{0x00, 0x01, 0x02}, bytes.Repeat([]byte{0}, 600)...)))
}

func TestDetectNewline(t *testing.T) {
	h := encoding.NewCharsetHandler("")

	nl, mixed := h.DetectNewline([]byte("a\nb\n"))
	assert.Equal(t, "\n", nl)
	assert.False(t, mixed)

	nl, mixed = h.DetectNewline([]byte("a\r\nb\r\n"))
	assert.Equal(t, "\r\n", nl)
	assert.False(t, mixed)

	_, mixed = h.DetectNewline([]byte("a\r\nb\n"))
	assert.True(t, mixed)

	nl, mixed = h.DetectNewline([]byte("no newline at all"))
	assert.Equal(t, "\n", nl)
	assert.False(t, mixed)
}
