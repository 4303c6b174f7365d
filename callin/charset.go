package callin

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"

	mberrors "github.com/wippyai/mbridge/errors"
)

// Charset converts text between Go strings and the engine's byte encoding.
// The zero Charset passes bytes through unchanged.
type Charset struct {
	enc  encoding.Encoding
	name string
}

// LookupCharset resolves a charset name. "", "bytes", "utf-8" and "utf8"
// select pass-through; other names are resolved through the WHATWG index,
// with "latin1" and "iso-8859-1" meaning true ISO 8859-1.
func LookupCharset(name string) (Charset, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "", "bytes", "utf-8", "utf8", "m":
		return Charset{name: "bytes"}, nil
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return Charset{name: "latin1", enc: charmap.ISO8859_1}, nil
	}
	enc, err := htmlindex.Get(n)
	if err != nil {
		return Charset{}, mberrors.Wrap(mberrors.PhaseConfig, mberrors.KindInvalidInput, err, "unknown charset "+name)
	}
	canonical, err := htmlindex.Name(enc)
	if err != nil {
		canonical = n
	}
	if canonical == "utf-8" {
		return Charset{name: "bytes"}, nil
	}
	return Charset{name: canonical, enc: enc}, nil
}

// Name returns the canonical charset name.
func (c Charset) Name() string {
	if c.name == "" {
		return "bytes"
	}
	return c.name
}

// Encode converts s for the engine. Characters the charset cannot represent
// are replaced.
func (c Charset) Encode(s string) string {
	if c.enc == nil {
		return s
	}
	out, err := encoding.ReplaceUnsupported(c.enc.NewEncoder()).String(s)
	if err != nil {
		return s
	}
	return out
}

// Decode converts engine bytes back to a Go string.
func (c Charset) Decode(b []byte) string {
	if c.enc == nil {
		return string(b)
	}
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// DecodeString is Decode for a string.
func (c Charset) DecodeString(s string) string {
	if c.enc == nil {
		return s
	}
	return c.Decode([]byte(s))
}
