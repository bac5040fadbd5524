package utils

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// BytesStringLength returns length of string before first nil
func BytesStringLength(bs []byte) int {
	if l := bytes.IndexByte(bs, 0); l == -1 {
		return len(bs)
	} else {
		return l
	}
}

// DecodeString truncates at first nil and decodes rest with enc.
// Invalid sequences are replaced instead of failing.
func DecodeString(bs []byte, enc encoding.Encoding) string {
	bs = bs[:BytesStringLength(bs)]
	s, _, err := transform.Bytes(enc.NewDecoder(), bs)
	if err != nil {
		return strings.ToValidUTF8(string(bs), "�")
	}
	return strings.ToValidUTF8(string(s), "�")
}

// PrintableString truncates at first nil and drops every byte outside of printable ascii
func PrintableString(bs []byte) string {
	bs = bs[:BytesStringLength(bs)]
	out := make([]byte, 0, len(bs))
	for _, b := range bs {
		if b >= 0x20 && b <= 0x7e {
			out = append(out, b)
		}
	}
	return string(out)
}

// StringToBytesBuffer encodes s into nil padded buffer of bufSize bytes.
// Too long strings are truncated, the way game tools did it.
func StringToBytesBuffer(s string, bufSize int, enc encoding.Encoding) ([]byte, error) {
	bs, _, err := transform.Bytes(enc.NewEncoder(), []byte(s))
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to encode %q", s)
	}
	r := make([]byte, bufSize)
	copy(r, bs)
	return r, nil
}
