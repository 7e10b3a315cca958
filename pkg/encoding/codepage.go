// Package encoding reverses mojibake left behind when UTF-8 bytes were decoded
// through a legacy single-byte code page and saved again as UTF-8.
package encoding

import (
	"errors"
	"fmt"
	"unicode/utf8"

	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

var (
	ErrUnsupportedCodePage = errors.New("unsupported legacy code page")
	// ErrUnrepresentable means the text holds a character the code page cannot encode.
	ErrUnrepresentable = errors.New("character not representable in legacy code page")
	// ErrInvalidUTF8 means a byte sequence is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("invalid UTF-8")
)

// Codec converts between mojibake text and the original UTF-8 bytes for a single-byte code page.
//
// Bytes the code page leaves unassigned (0x81, 0x8D, 0x8F, 0x90 and 0x9D in Windows-1252)
// travel as the code point of the same value, U+0081 and so on, in both directions.
type Codec struct {
	name string
	cm   *charmap.Charmap
}

// Windows1252 is the code page the league data was corrupted through.
var Windows1252 = &Codec{name: "windows-1252", cm: charmap.Windows1252}

// Lookup resolves a code page by IANA name or alias (e.g. "windows-1252", "ISO-8859-1").
// Only single-byte code pages are accepted.
func Lookup(name string) (*Codec, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrUnsupportedCodePage, name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("%w: %q has no implementation", ErrUnsupportedCodePage, name)
	}

	cm, ok := enc.(*charmap.Charmap)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a single-byte code page", ErrUnsupportedCodePage, name)
	}

	canonical, err := ianaindex.IANA.Name(enc)
	if err != nil {
		canonical = name
	}

	return &Codec{name: canonical, cm: cm}, nil
}

// Name returns the canonical IANA name of the code page.
func (c *Codec) Name() string {
	return c.name
}

// Reverse undoes the corruption: the UTF-8 text is encoded back into code page bytes,
// which must then form valid UTF-8 again.
func (c *Codec) Reverse(text []byte) ([]byte, error) {
	if err := ValidateUTF8(text); err != nil {
		return nil, fmt.Errorf("input text: %w", err)
	}

	raw, _, err := transform.Bytes(&reverser{cm: c.cm}, text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.name, err)
	}

	if err := ValidateUTF8(raw); err != nil {
		return nil, fmt.Errorf("recovered bytes: %w", err)
	}

	return raw, nil
}

// Mangle reproduces the corruption: raw bytes are read as code page characters
// and returned as UTF-8 text.
func (c *Codec) Mangle(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return []byte{}, nil
	}

	decoded, _, err := transform.Bytes(&mangler{cm: c.cm}, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.name, err)
	}
	return decoded, nil
}

// ValidateUTF8 fails with ErrInvalidUTF8 at the first malformed sequence.
func ValidateUTF8(b []byte) error {
	if _, _, err := transform.Bytes(xencoding.UTF8Validator, b); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidUTF8, err)
	}
	return nil
}

// encodeByte maps r to its code page byte. An unassigned byte stands for the code point of the same value.
func encodeByte(cm *charmap.Charmap, r rune) (byte, bool) {
	if b, ok := cm.EncodeRune(r); ok {
		return b, true
	}
	if r < 0x100 && cm.DecodeByte(byte(r)) == utf8.RuneError {
		return byte(r), true
	}
	return 0, false
}

func decodeByte(cm *charmap.Charmap, b byte) rune {
	if r := cm.DecodeByte(b); r != utf8.RuneError {
		return r
	}
	return rune(b)
}

// reverser encodes UTF-8 text into code page bytes.
type reverser struct {
	transform.NopResetter
	cm *charmap.Charmap
}

func (t *reverser) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size <= 1 {
			if !atEOF && !utf8.FullRune(src[nSrc:]) {
				return nDst, nSrc, transform.ErrShortSrc
			}
			return nDst, nSrc, ErrInvalidUTF8
		}

		b, ok := encodeByte(t.cm, r)
		if !ok {
			return nDst, nSrc, fmt.Errorf("%w: %U", ErrUnrepresentable, r)
		}
		if nDst >= len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		dst[nDst] = b
		nDst++
		nSrc += size
	}
	return nDst, nSrc, nil
}

// mangler decodes code page bytes into UTF-8 text.
type mangler struct {
	transform.NopResetter
	cm *charmap.Charmap
}

func (t *mangler) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for ; nSrc < len(src); nSrc++ {
		r := decodeByte(t.cm, src[nSrc])
		if nDst+utf8.RuneLen(r) > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += utf8.EncodeRune(dst[nDst:], r)
	}
	return nDst, nSrc, nil
}
