package encoding

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

const (
	// sniffLen is the number of bytes used by http.DetectContentType.
	sniffLen = 512
	// checkLen is the buffer size used for null byte checks.
	checkLen = 1024
	// nullThreshold is the null byte percentage above which a file is
	// considered binary.
	nullThreshold = 0.15
)

// Map of common text-based MIME type prefixes for quick lookup in IsBinary.
var knownTextMIMEPrefixes = map[string]bool{
	"text/":                  true,
	"application/json":       true,
	"application/xml":        true,
	"application/javascript": true,
	"application/yaml":       true,
	"application/toml":       true,
	"application/markdown":   true,
	"image/svg+xml":          true,
}

// Handler detects character encoding, converts content to UTF-8, detects
// binary payloads, and probes newline style.
type Handler interface {
	// DetectAndDecode attempts to detect the encoding of the input content and
	// convert it to UTF-8. It returns the UTF-8 bytes, the detected encoding
	// name, a boolean indicating whether detection was certain, and any
	// conversion error.
	DetectAndDecode(content []byte) (utf8Content []byte, detectedEncoding string, certainty bool, err error)

	// IsBinary checks whether the content is likely binary data based on MIME
	// type sniffing and null byte percentage.
	IsBinary(content []byte) bool

	// DetectNewline reports the newline style of the content ("\n" or "\r\n").
	// mixed is true when both styles occur; callers should then fall back to
	// the platform default.
	DetectNewline(content []byte) (newline string, mixed bool)
}

// charsetHandler implements Handler using golang.org/x/net/html/charset and
// golang.org/x/text/transform.
type charsetHandler struct {
	defaultEncoding string
}

// NewCharsetHandler creates a new encoding handler. defaultEncoding is used as
// a fallback when detection is uncertain; empty means "assume UTF-8".
func NewCharsetHandler(defaultEncoding string) Handler {
	return &charsetHandler{defaultEncoding: defaultEncoding}
}

// DetectAndDecode implements the Handler interface.
func (h *charsetHandler) DetectAndDecode(content []byte) ([]byte, string, bool, error) {
	enc, name, certain := charset.DetermineEncoding(content, "")

	if !certain && h.defaultEncoding != "" {
		if fallback, fallbackName := charset.Lookup(h.defaultEncoding); fallback != nil {
			enc = fallback
			name = fallbackName
			certain = true
		}
	}

	if enc == nil || strings.EqualFold(name, "utf-8") {
		return content, "utf-8", certain, nil
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), content)
	if err != nil {
		return content, name, certain, fmt.Errorf("decoding %s content: %w", name, err)
	}
	return decoded, name, certain, nil
}

// IsBinary implements the Handler interface.
func (h *charsetHandler) IsBinary(content []byte) bool {
	if len(content) == 0 {
		return false
	}

	sniff := content
	if len(sniff) > sniffLen {
		sniff = sniff[:sniffLen]
	}
	mimeType := http.DetectContentType(sniff)
	for prefix := range knownTextMIMEPrefixes {
		if strings.HasPrefix(mimeType, prefix) {
			return false
		}
	}
	if strings.HasSuffix(strings.SplitN(mimeType, ";", 2)[0], "+xml") ||
		strings.HasSuffix(strings.SplitN(mimeType, ";", 2)[0], "+json") {
		return false
	}

	check := content
	if len(check) > checkLen {
		check = check[:checkLen]
	}
	nulls := bytes.Count(check, []byte{0})
	return float64(nulls)/float64(len(check)) > nullThreshold
}

// DetectNewline implements the Handler interface.
func (h *charsetHandler) DetectNewline(content []byte) (string, bool) {
	crlf := bytes.Count(content, []byte("\r\n"))
	lf := bytes.Count(content, []byte("\n")) - crlf
	switch {
	case crlf > 0 && lf > 0:
		return "", true
	case crlf > 0:
		return "\r\n", false
	default:
		return "\n", false
	}
}
